package interpretcommand

import (
	"strings"

	"milo-interpreter/internal/common/validation"
	"milo-interpreter/internal/lexicon"
	"milo-interpreter/internal/models"
)

// Words that introduce a recipient or a swap target in the supported
// languages.
var (
	recipientMarkers = map[string]bool{"to": true, "à": true, "a": true, "para": true, "si": true, "sí": true}
	targetMarkers    = map[string]bool{
		"for": true, "to": true, "into": true, "contre": true, "en": true,
		"pour": true, "por": true, "para": true, "si": true, "sí": true,
	}
)

// grounding records what the utterance itself says. Model output that the
// utterance does not support becomes an error intent.
type grounding struct {
	lang      lexicon.Language
	utterance string
	text      string
	words     []string
	assets    map[models.Asset]bool
	amounts   map[string]bool
	book      []models.Contact
}

func newGrounding(utterance string, norm lexicon.Normalized, book []models.Contact) grounding {
	return grounding{
		lang:      norm.Language,
		utterance: utterance,
		text:      norm.Text,
		words:     lexicon.Words(norm.Text),
		assets:    lexicon.MentionedAssets(norm),
		amounts:   lexicon.MentionedAmounts(norm.Text),
		book:      book,
	}
}

// recipient reports whether r was named in the utterance, directly or as
// the address of a contact the utterance names.
func (g grounding) recipient(r string) bool {
	if lexicon.MentionsPhrase(g.utterance, r) || lexicon.MentionsPhrase(g.text, r) {
		return true
	}
	for _, c := range g.book {
		if strings.EqualFold(strings.TrimSpace(c.Address), r) && lexicon.MentionsPhrase(g.utterance, c.Name) {
			return true
		}
	}
	return false
}

// assetToken is the word right after the amount when it is not a supported
// asset, else fallback.
func (g grounding) assetToken(fallback string) string {
	if tok, ok := g.amountSlot(); ok {
		return tok
	}
	return fallback
}

func (g grounding) amountSlot() (string, bool) {
	for i := 1; i < len(g.words); i++ {
		if !lexicon.IsNumeral(g.words[i-1]) {
			continue
		}
		tok := g.words[i]
		if lexicon.IsNumeral(tok) || recipientMarkers[strings.ToLower(tok)] || targetMarkers[strings.ToLower(tok)] {
			return "", false
		}
		if _, ok := lexicon.CorrectAsset(tok); ok {
			return "", false
		}
		return tok, true
	}
	return "", false
}

// targetToken is the unsupported word after the last swap marker, else
// fallback.
func (g grounding) targetToken(fallback string) string {
	if tok, ok := g.after(targetMarkers, true); ok {
		if _, known := lexicon.CorrectAsset(tok); !known {
			return tok
		}
	}
	return fallback
}

// after returns the word following the first (or last) marker word.
func (g grounding) after(markers map[string]bool, last bool) (string, bool) {
	found := ""
	for i := 0; i+1 < len(g.words); i++ {
		if markers[strings.ToLower(g.words[i])] {
			found = g.words[i+1]
			if !last {
				break
			}
		}
	}
	return found, found != ""
}

func (g grounding) knownRecipient(tok string) bool {
	if validation.LooksLikeAddress(tok) {
		return true
	}
	for _, c := range g.book {
		name := strings.Fields(c.Name)
		if len(name) > 0 && strings.EqualFold(name[0], tok) {
			return true
		}
	}
	return false
}

// rejection explains a rejected command from the utterance alone: an
// unsupported asset, then an unknown recipient, else a generic message.
func (g grounding) rejection() models.ErrorIntent {
	if len(g.assets) == 0 {
		if tok, ok := g.amountSlot(); ok {
			return errorIntent(g.lang, lexicon.MsgInvalidAsset, tok)
		}
	}
	if tok, ok := g.after(recipientMarkers, false); ok && !g.knownRecipient(tok) {
		if _, isAsset := lexicon.CorrectAsset(tok); !isAsset && !lexicon.IsNumeral(tok) {
			return errorIntent(g.lang, lexicon.MsgUnknownRecipient, tok)
		}
	}
	return errorIntent(g.lang, lexicon.MsgRequestFailed)
}
