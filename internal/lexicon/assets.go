package lexicon

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"milo-interpreter/internal/models"
)

type alias struct {
	to models.Asset
	// contextual aliases are everyday words ("sweet", "su" in Spanish) and
	// are only suggested right after an amount.
	contextual bool
}

var assetAliases = map[string]alias{
	"su":              {models.AssetSUI, true},
	"suii":            {models.AssetSUI, false},
	"suh":             {models.AssetSUI, false},
	"sui coin":        {models.AssetSUI, false},
	"sweet":           {models.AssetSUI, true},
	"swit":            {models.AssetSUI, false},
	"suite":           {models.AssetSUI, true},
	"usd":             {models.AssetUSDC, false},
	"usd coin":        {models.AssetUSDC, false},
	"usd c":           {models.AssetUSDC, false},
	"you ess dee see": {models.AssetUSDC, false},
	"usd-t":           {models.AssetUSDT, false},
	"usd t":           {models.AssetUSDT, false},
	"tether":          {models.AssetUSDT, false},
	"cetos":           {models.AssetCETUS, false},
	"setus":           {models.AssetCETUS, false},
	"wef":             {models.AssetWETH, false},
	"wet":             {models.AssetWETH, true},
	"wrapped eth":     {models.AssetWETH, false},
	"wrapped ether":   {models.AssetWETH, false},
}

// deniedTickers are real assets we do not support. They sit within edit
// distance of whitelist entries ("ETH" vs "WETH") and must stay errors.
var deniedTickers = map[string]bool{
	"BTC": true, "ETH": true, "ETHER": true, "SOL": true, "DOGE": true,
	"USDE": true, "APT": true, "BNB": true, "XRP": true, "ADA": true,
	"DAI": true, "SUSD": true, "USD1": true, "WBTC": true, "SEI": true,
}

const minFuzzyLength = 3

func fuzzyThreshold(n int) int {
	switch {
	case n < minFuzzyLength:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

// CorrectAsset maps a token to a whitelisted asset: exact symbol in any
// case, then the alias table, then a bounded edit distance with a unique
// best match. Denied tickers and unrelated words never match.
func CorrectAsset(token string) (models.Asset, bool) {
	norm := normalizeToken(token)
	if norm == "" {
		return "", false
	}
	if a, ok := models.ParseAsset(norm); ok {
		return a, true
	}
	if al, ok := assetAliases[norm]; ok {
		return al.to, true
	}
	return fuzzyAsset(norm)
}

func fuzzyAsset(norm string) (models.Asset, bool) {
	upper := strings.ToUpper(norm)
	if deniedTickers[upper] || strings.Contains(upper, " ") {
		return "", false
	}
	limit := fuzzyThreshold(len(upper))
	if limit == 0 {
		return "", false
	}

	best, bestDist, tie := models.Asset(""), limit+1, false
	for _, a := range models.Assets {
		d := levenshtein.ComputeDistance(upper, string(a))
		switch {
		case d < bestDist:
			best, bestDist, tie = a, d, false
		case d == bestDist:
			tie = true
		}
	}
	if bestDist > limit || tie {
		return "", false
	}
	return best, true
}

var tokenTrim = regexp.MustCompile(`^[^\p{L}\p{N}]+|[^\p{L}\p{N}]+$`)

func normalizeToken(token string) string {
	s := strings.ToLower(strings.TrimSpace(token))
	s = tokenTrim.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Correction is an advisory asset correction found in an utterance.
type Correction struct {
	From string       `json:"from"`
	To   models.Asset `json:"to"`
}

// AnnotateAssets scans an utterance for likely misspelt asset names. Longer
// alias phrases win over their parts. Edit-distance and contextual aliases
// are only considered right after a numeral ("send 5 swee"), so ordinary
// words elsewhere in the sentence are not flagged. The result is advice for
// the model and the validator; the utterance itself is not changed.
func AnnotateAssets(utterance string) []Correction {
	words := splitWords(utterance)
	var out []Correction
	seen := map[string]bool{}

	add := func(from string, to models.Asset) {
		key := strings.ToLower(from)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, Correction{From: from, To: to})
	}

	for i := 0; i < len(words); i++ {
		afterNumeral := i > 0 && IsNumeral(words[i-1])

		// Phrases of up to four words ("you ess dee see").
		matched := false
		for n := 4; n >= 2 && !matched; n-- {
			if i+n > len(words) {
				continue
			}
			phrase := strings.Join(words[i:i+n], " ")
			if al, ok := assetAliases[normalizeToken(phrase)]; ok && (!al.contextual || afterNumeral) {
				add(phrase, al.to)
				i += n - 1
				matched = true
			}
		}
		if matched {
			continue
		}

		w := words[i]
		norm := normalizeToken(w)
		if _, ok := models.ParseAsset(norm); ok {
			continue
		}
		if al, ok := assetAliases[norm]; ok {
			if !al.contextual || afterNumeral {
				add(w, al.to)
			}
			continue
		}
		if afterNumeral {
			if a, ok := fuzzyAsset(norm); ok {
				add(w, a)
			}
		}
	}
	return out
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}.,'-]*`)

func splitWords(s string) []string {
	words := wordPattern.FindAllString(s, -1)
	for i, w := range words {
		words[i] = strings.TrimRight(w, ".,'-")
	}
	return words
}
