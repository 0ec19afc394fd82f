package interpretcommand

import (
	"context"
	"strings"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/metrics"
	"milo-interpreter/internal/common/validation"
	"milo-interpreter/internal/contacts"
	"milo-interpreter/internal/genai"
	"milo-interpreter/internal/lexicon"
	"milo-interpreter/internal/models"
)

// outputSchema bounds the shape of the model's JSON. Field semantics are
// checked afterwards so that bad values become error intents rather than
// interpretation failures.
var outputSchema = validation.MustCompile("command-output", `{
	"type": "object",
	"required": ["action"],
	"properties": {
		"action":    {"type": "string", "minLength": 1},
		"asset":     {"type": ["string", "null"]},
		"fromAsset": {"type": ["string", "null"]},
		"toAsset":   {"type": ["string", "null"]},
		"amount":    {"type": ["string", "number", "null"]},
		"recipient": {"type": ["string", "null"]},
		"reply":     {"type": ["string", "null"]},
		"message":   {"type": ["string", "null"]}
	}
}`)

// toIntent applies the local rules to a schema-valid model object. It never
// fails: every rejected field becomes an ErrorIntent in lang.
func toIntent(ctx context.Context, raw map[string]interface{}, g grounding, resolver contacts.Resolver) models.Intent {
	action, _ := genai.StringField(raw, "action")

	switch strings.ToLower(strings.TrimSpace(action)) {
	case models.ActionTransfer:
		return toTransfer(ctx, raw, g, resolver)
	case models.ActionSwap:
		return toSwap(raw, g)
	case models.ActionQueryBalance:
		return models.BalanceQueryIntent{}
	case models.ActionError:
		return toError(raw, g)
	default:
		return errorIntent(g.lang, lexicon.MsgUnsupportedAction)
	}
}

func toTransfer(ctx context.Context, raw map[string]interface{}, g grounding, resolver contacts.Resolver) models.Intent {
	lang := g.lang
	fields := present(raw, "asset", "amount", "recipient")
	if missing := missingFields(fields, "asset", "amount", "recipient"); missing != "" {
		return errorIntent(lang, lexicon.MsgMissingFields, missing)
	}

	asset, ok := canonicalAsset(fields["asset"])
	if !ok {
		return errorIntent(lang, lexicon.MsgInvalidAsset, fields["asset"])
	}
	if !g.assets[asset] {
		return errorIntent(lang, lexicon.MsgInvalidAsset, g.assetToken(fields["asset"]))
	}
	amount, ok := lexicon.CanonicalAmount(fields["amount"])
	if !ok || !g.amounts[amount] {
		return errorIntent(lang, lexicon.MsgInvalidAmount, fields["amount"])
	}

	recipient := fields["recipient"]
	if !g.recipient(recipient) {
		return errorIntent(lang, lexicon.MsgUnknownRecipient, recipient)
	}
	address, err := resolver.Resolve(ctx, recipient)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeContactResolutionFailed {
			return errorIntent(lang, lexicon.MsgUnknownRecipient, recipient)
		}
		return errorIntent(lang, lexicon.MsgRequestFailed)
	}

	reply := fields["reply"]
	if reply == "" {
		reply = lexicon.Message(lang, lexicon.MsgTransferReply, amount, asset, recipient)
	}
	return models.TransferIntent{
		Asset:     asset,
		Amount:    amount,
		Recipient: address,
		Reply:     reply,
	}
}

func toSwap(raw map[string]interface{}, g grounding) models.Intent {
	lang := g.lang
	fields := present(raw, "fromAsset", "toAsset", "amount")
	if missing := missingFields(fields, "fromAsset", "toAsset", "amount"); missing != "" {
		return errorIntent(lang, lexicon.MsgMissingFields, missing)
	}

	from, ok := canonicalAsset(fields["fromAsset"])
	if !ok {
		return errorIntent(lang, lexicon.MsgInvalidAsset, fields["fromAsset"])
	}
	to, ok := canonicalAsset(fields["toAsset"])
	if !ok {
		return errorIntent(lang, lexicon.MsgInvalidAsset, fields["toAsset"])
	}
	if from == to {
		return errorIntent(lang, lexicon.MsgSameAsset, from)
	}
	if !g.assets[from] {
		return errorIntent(lang, lexicon.MsgInvalidAsset, g.assetToken(fields["fromAsset"]))
	}
	if !g.assets[to] {
		return errorIntent(lang, lexicon.MsgInvalidAsset, g.targetToken(fields["toAsset"]))
	}
	amount, ok := lexicon.CanonicalAmount(fields["amount"])
	if !ok || !g.amounts[amount] {
		return errorIntent(lang, lexicon.MsgInvalidAmount, fields["amount"])
	}

	reply := fields["reply"]
	if reply == "" {
		reply = lexicon.Message(lang, lexicon.MsgSwapReply, amount, from, to)
	}
	return models.SwapIntent{
		FromAsset: from,
		ToAsset:   to,
		Amount:    amount,
		Reply:     reply,
	}
}

// toError keeps the model's message only when it is already in the
// utterance's language. Otherwise the reason is worked out from the
// utterance itself.
func toError(raw map[string]interface{}, g grounding) models.Intent {
	msg, _ := genai.StringField(raw, "message")
	msg = strings.TrimSpace(msg)
	if msg != "" && lexicon.DetectLanguage(msg) == g.lang {
		return models.ErrorIntent{Message: msg}
	}
	return g.rejection()
}

func errorIntent(lang lexicon.Language, key lexicon.MessageKey, args ...interface{}) models.ErrorIntent {
	return models.ErrorIntent{Message: lexicon.Message(lang, key, args...)}
}

// canonicalAsset maps a model-supplied asset token onto the whitelist.
func canonicalAsset(token string) (models.Asset, bool) {
	asset, ok := lexicon.CorrectAsset(token)
	if !ok {
		return "", false
	}
	if string(asset) != strings.ToUpper(strings.TrimSpace(token)) {
		metrics.AssetCorrections.WithLabelValues(string(asset), "applied").Inc()
	}
	return asset, true
}

// present collects the trimmed string value of each key plus "reply".
func present(raw map[string]interface{}, keys ...string) map[string]string {
	out := make(map[string]string, len(keys)+1)
	for _, k := range append(keys, "reply") {
		if v, ok := genai.StringField(raw, k); ok {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

func missingFields(fields map[string]string, keys ...string) string {
	var missing []string
	for _, k := range keys {
		if fields[k] == "" {
			missing = append(missing, k)
		}
	}
	return strings.Join(missing, ", ")
}
