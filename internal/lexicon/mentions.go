package lexicon

import (
	"regexp"
	"strings"

	"milo-interpreter/internal/models"
)

// Words splits an utterance into word tokens, keeping decimal numbers and
// addresses whole.
func Words(s string) []string {
	return splitWords(s)
}

// MentionedAssets is the set of whitelisted assets the normalized utterance
// names: exact symbols anywhere, plus its advisory corrections.
func MentionedAssets(n Normalized) map[models.Asset]bool {
	out := map[models.Asset]bool{}
	for _, w := range splitWords(n.Text) {
		if a, ok := models.ParseAsset(normalizeToken(w)); ok {
			out[a] = true
		}
	}
	for _, c := range n.Corrections {
		out[c.To] = true
	}
	return out
}

var (
	numberRun      = regexp.MustCompile(`(?:^|[^\p{L}\p{N}.,-])(\.?\d+(?:[.,]\d+)*)`)
	dottedThousand = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+(?:,\d+)?$`)
)

// MentionedAmounts is the set of canonical amounts written as numerals in
// text. Digits inside words and addresses ("0x5f") and negative numbers
// do not count. Number words must already have been converted.
func MentionedAmounts(text string) map[string]bool {
	out := map[string]bool{}
	for _, m := range numberRun.FindAllStringSubmatch(text, -1) {
		tok := m[1]
		if a, ok := CanonicalAmount(tok); ok {
			out[a] = true
		}
		// "1.000,50" as written in much of Europe.
		if dottedThousand.MatchString(tok) {
			eu := strings.Replace(strings.ReplaceAll(tok, ".", ""), ",", ".", 1)
			if a, ok := CanonicalAmount(eu); ok {
				out[a] = true
			}
		}
	}
	return out
}

// MentionsPhrase reports whether phrase occurs in text as whole words,
// ignoring case.
func MentionsPhrase(text, phrase string) bool {
	needle := lowerRuns(phrase)
	if len(needle) == 0 {
		return false
	}
	hay := lowerRuns(text)
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for j := range needle {
			if hay[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func lowerRuns(s string) []string {
	runs := wordRun.FindAllString(s, -1)
	for i, r := range runs {
		runs[i] = strings.ToLower(r)
	}
	return runs
}
