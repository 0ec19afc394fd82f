package lexicon

import "fmt"

// MessageKey names a localized user-facing message.
type MessageKey string

const (
	MsgInvalidAsset       MessageKey = "invalid_asset"       // args: token
	MsgInvalidAmount      MessageKey = "invalid_amount"      // args: amount
	MsgUnknownRecipient   MessageKey = "unknown_recipient"   // args: token
	MsgSameAsset          MessageKey = "same_asset"          // args: asset
	MsgUnsupportedAction  MessageKey = "unsupported_action"  // no args
	MsgMissingFields      MessageKey = "missing_fields"      // args: field list
	MsgBalanceUnsupported MessageKey = "balance_unsupported" // args: asset
	MsgTransferReply      MessageKey = "transfer_reply"      // args: amount, asset, recipient
	MsgSwapReply          MessageKey = "swap_reply"          // args: amount, from, to
	MsgBalanceResult      MessageKey = "balance_result"      // args: amount, asset
	MsgRequestFailed      MessageKey = "request_failed"      // no args
)

var catalog = map[Language]map[MessageKey]string{
	English: {
		MsgInvalidAsset:       `"%s" is not a supported asset. You can use SUI, USDC, USDT, CETUS or WETH.`,
		MsgInvalidAmount:      `I couldn't understand the amount "%s". Please use a positive number.`,
		MsgUnknownRecipient:   `"%s" is not a saved contact and does not appear to be a valid Sui address.`,
		MsgSameAsset:          `You can't swap %s for itself. Choose two different assets.`,
		MsgUnsupportedAction:  `Sorry, I can only send tokens, swap tokens or check your balance.`,
		MsgMissingFields:      `Some details are missing from your request (%s).`,
		MsgBalanceUnsupported: `Balance lookup is only available for SUI right now, not %s.`,
		MsgTransferReply:      `Sending %s %s to %s. Sign transaction to continue.`,
		MsgSwapReply:          `Swapping %s %s to %s. Sign transaction to continue.`,
		MsgBalanceResult:      `Your balance is %s %s.`,
		MsgRequestFailed:      `Sorry, I couldn't process that request. Please try rephrasing it.`,
	},
	French: {
		MsgInvalidAsset:       `"%s" n'est pas un actif pris en charge. Vous pouvez utiliser SUI, USDC, USDT, CETUS ou WETH.`,
		MsgInvalidAmount:      `Je n'ai pas compris le montant "%s". Veuillez indiquer un nombre positif.`,
		MsgUnknownRecipient:   `"%s" n'est pas un contact enregistré et ne semble pas être une adresse Sui valide.`,
		MsgSameAsset:          `Impossible d'échanger %s contre lui-même. Choisissez deux actifs différents.`,
		MsgUnsupportedAction:  `Désolé, je peux seulement envoyer des jetons, échanger des jetons ou consulter votre solde.`,
		MsgMissingFields:      `Il manque des informations dans votre demande (%s).`,
		MsgBalanceUnsupported: `La consultation du solde n'est disponible que pour SUI pour le moment, pas pour %s.`,
		MsgTransferReply:      `Envoi de %s %s à %s. Signez la transaction pour continuer.`,
		MsgSwapReply:          `Échange de %s %s contre %s. Signez la transaction pour continuer.`,
		MsgBalanceResult:      `Votre solde est de %s %s.`,
		MsgRequestFailed:      `Désolé, je n'ai pas pu traiter cette demande. Veuillez la reformuler.`,
	},
	Spanish: {
		MsgInvalidAsset:       `"%s" no es un activo compatible. Puedes usar SUI, USDC, USDT, CETUS o WETH.`,
		MsgInvalidAmount:      `No entendí la cantidad "%s". Por favor indica un número positivo.`,
		MsgUnknownRecipient:   `"%s" no es un contacto guardado y no parece ser una dirección Sui válida.`,
		MsgSameAsset:          `No puedes intercambiar %s por sí mismo. Elige dos activos diferentes.`,
		MsgUnsupportedAction:  `Lo siento, solo puedo enviar tokens, intercambiar tokens o consultar tu saldo.`,
		MsgMissingFields:      `Faltan datos en tu solicitud (%s).`,
		MsgBalanceUnsupported: `La consulta de saldo solo está disponible para SUI por ahora, no para %s.`,
		MsgTransferReply:      `Enviando %s %s a %s. Firma la transacción para continuar.`,
		MsgSwapReply:          `Intercambiando %s %s por %s. Firma la transacción para continuar.`,
		MsgBalanceResult:      `Tu saldo es de %s %s.`,
		MsgRequestFailed:      `Lo siento, no pude procesar esa solicitud. Por favor intenta reformularla.`,
	},
	Portuguese: {
		MsgInvalidAsset:       `"%s" não é um ativo suportado. Você pode usar SUI, USDC, USDT, CETUS ou WETH.`,
		MsgInvalidAmount:      `Não entendi o valor "%s". Informe um número positivo.`,
		MsgUnknownRecipient:   `"%s" não é um contato salvo e não parece ser um endereço Sui válido.`,
		MsgSameAsset:          `Não é possível trocar %s por ele mesmo. Escolha dois ativos diferentes.`,
		MsgUnsupportedAction:  `Desculpe, só posso enviar tokens, trocar tokens ou consultar seu saldo.`,
		MsgMissingFields:      `Faltam informações no seu pedido (%s).`,
		MsgBalanceUnsupported: `A consulta de saldo só está disponível para SUI no momento, não para %s.`,
		MsgTransferReply:      `Enviando %s %s para %s. Assine a transação para continuar.`,
		MsgSwapReply:          `Trocando %s %s por %s. Assine a transação para continuar.`,
		MsgBalanceResult:      `Seu saldo é %s %s.`,
		MsgRequestFailed:      `Desculpe, não consegui processar esse pedido. Tente reformulá-lo.`,
	},
	Yoruba: {
		MsgInvalidAsset:       `"%s" kìí ṣe owó tí a ṣe àtìlẹ́yìn fún. O lè lo SUI, USDC, USDT, CETUS tàbí WETH.`,
		MsgInvalidAmount:      `Mi ò lóye iye "%s". Jọ̀wọ́ lo nọ́mbà tó ju òdo lọ.`,
		MsgUnknownRecipient:   `"%s" kò sí nínú àwọn olùbásọ̀rọ̀ rẹ, kò sì dàbí àdírẹ́sì Sui tó tọ́.`,
		MsgSameAsset:          `O ò lè pààrọ̀ %s sí ara rẹ̀. Yan owó méjì tó yàtọ̀.`,
		MsgUnsupportedAction:  `Má bínú, mo lè fi owó ránṣẹ́, pààrọ̀ owó, tàbí ṣàyẹ̀wò iye owó rẹ nìkan.`,
		MsgMissingFields:      `Àwọn àlàyé kan kù nínú ìbéèrè rẹ (%s).`,
		MsgBalanceUnsupported: `Ṣíṣàyẹ̀wò iye owó wà fún SUI nìkan báyìí, kìí ṣe %s.`,
		MsgTransferReply:      `Ń fi %s %s ránṣẹ́ sí %s. Buwọ́lu ìdúnàádúrà láti tẹ̀síwájú.`,
		MsgSwapReply:          `Ń pààrọ̀ %s %s sí %s. Buwọ́lu ìdúnàádúrà láti tẹ̀síwájú.`,
		MsgBalanceResult:      `Iye owó rẹ jẹ́ %s %s.`,
		MsgRequestFailed:      `Má bínú, mi ò lè ṣe ìbéèrè yìí. Jọ̀wọ́ sọ ọ́ lọ́nà mìíràn.`,
	},
}

// Message renders key in lang, falling back to English for unknown
// languages.
func Message(lang Language, key MessageKey, args ...interface{}) string {
	msgs, ok := catalog[lang]
	if !ok {
		msgs = catalog[English]
	}
	tmpl, ok := msgs[key]
	if !ok {
		tmpl = catalog[English][key]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
