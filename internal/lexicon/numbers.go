// Package lexicon holds the deterministic language helpers around the model:
// number-word substitution, asset-name correction, language detection and
// the localized messages used in error intents. Everything here is pure and
// reads only package-level tables.
package lexicon

import (
	"math/big"
	"regexp"
	"strings"
)

// numberWords maps whole words to digit strings. Words that mean different
// numbers in different languages, or that are ordinary words or names in
// another supported language, are left out: "un"/"une"/"uno"/"una"
// (articles), "once" and "seize" (English), "dos" (Portuguese contraction),
// "sept" and "eta" (abbreviations), "erin" (given name).
var numberWords = map[string]string{
	// English
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"ten": "10", "eleven": "11", "twelve": "12", "thirteen": "13",
	"fourteen": "14", "fifteen": "15", "sixteen": "16", "seventeen": "17",
	"eighteen": "18", "nineteen": "19", "twenty": "20",

	// Yoruba
	"okan": "1", "eji": "2", "ise": "5", "iri": "10", "ogun": "20",

	// French
	"deux": "2", "trois": "3", "quatre": "4", "cinq": "5", "huit": "8",
	"neuf": "9", "dix": "10", "onze": "11", "douze": "12", "treize": "13",
	"quatorze": "14", "quinze": "15", "vingt": "20",

	// Spanish
	"tres": "3", "cuatro": "4", "cinco": "5", "seis": "6",
	"siete": "7", "ocho": "8", "nueve": "9", "diez": "10", "doce": "12",
	"trece": "13", "catorce": "14", "quince": "15", "veinte": "20",

	// Portuguese
	"dois": "2", "quatro": "4", "sete": "7", "oito": "8", "nove": "9",
	"dez": "10", "vinte": "20",
}

// wordRun is a maximal run of Unicode letters, marks and digits. Go's \b
// is ASCII-only and would split "tenéis" after "ten".
var wordRun = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// ConvertNumberWords replaces whole-word number words with digits, in any
// letter case. Words embedded in longer words ("someone", "tenção") and
// digits are left alone, so the function is idempotent.
func ConvertNumberWords(s string) string {
	return wordRun.ReplaceAllStringFunc(s, func(w string) string {
		if d, ok := numberWords[strings.ToLower(w)]; ok {
			return d
		}
		return w
	})
}

// NumberWordValue reports the digits for a single number word.
func NumberWordValue(word string) (string, bool) {
	d, ok := numberWords[strings.ToLower(strings.TrimSpace(word))]
	return d, ok
}

var (
	plainDecimal   = regexp.MustCompile(`^(?:\d+(?:\.\d+)?|\.\d+)$`)
	groupedDecimal = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	commaDecimal   = regexp.MustCompile(`^\d+,\d{1,2}$`)
)

// CanonicalAmount turns a model- or user-supplied amount into a canonical
// positive decimal string ("5", "0.25"). Number words are accepted, as are
// thousands separators ("1,000") and a decimal comma ("2,5").
func CanonicalAmount(raw string) (string, bool) {
	s := strings.TrimSpace(ConvertNumberWords(raw))
	switch {
	case plainDecimal.MatchString(s):
	case groupedDecimal.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case commaDecimal.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	default:
		return "", false
	}

	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	v, ok := new(big.Rat).SetString(s)
	if !ok || v.Sign() <= 0 {
		return "", false
	}
	return trimDecimal(s), true
}

// trimDecimal drops leading integer zeros and trailing fraction zeros from
// a plain decimal string without changing its value.
func trimDecimal(s string) string {
	whole, frac, _ := strings.Cut(s, ".")
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

var numeralPattern = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)

// IsNumeral reports whether tok is a number in digits or a number word.
func IsNumeral(tok string) bool {
	if numeralPattern.MatchString(tok) {
		return true
	}
	_, ok := NumberWordValue(tok)
	return ok
}
