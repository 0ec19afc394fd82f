package lexicon

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// Language is an ISO 639-1 code for one of the supported languages.
type Language string

const (
	English    Language = "en"
	French     Language = "fr"
	Spanish    Language = "es"
	Portuguese Language = "pt"
	Yoruba     Language = "yo"
)

var Languages = []Language{English, French, Spanish, Portuguese, Yoruba}

var languageNames = map[Language]string{
	English:    "English",
	French:     "French",
	Spanish:    "Spanish",
	Portuguese: "Portuguese",
	Yoruba:     "Yoruba",
}

// Name is the English name of the language, as used in prompts.
func (l Language) Name() string {
	if n, ok := languageNames[l]; ok {
		return n
	}
	return languageNames[English]
}

// ParseLanguage accepts a code ("fr", "fr-FR") or an English name.
func ParseLanguage(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	for _, l := range Languages {
		if string(l) == s || strings.ToLower(l.Name()) == s {
			return l, true
		}
	}
	return "", false
}

// stopwords are short, frequent words typical of wallet requests. A word
// listed under several languages scores for each of them.
var stopwords = map[Language][]string{
	English: {
		"the", "to", "my", "is", "what", "how", "send", "please", "i", "you",
		"me", "of", "and", "check", "balance", "swap", "for", "can", "hello",
		"hi", "want", "into", "much", "does", "it", "this",
	},
	French: {
		"le", "la", "les", "de", "du", "des", "à", "envoie", "envoyer", "envoyez",
		"mon", "ma", "mes", "est", "quel", "quelle", "pour", "et", "je", "moi",
		"solde", "échanger", "échange", "bonjour", "salut", "vous", "tu", "en",
		"contre", "combien", "n'est", "pas", "une", "un", "au", "actif",
	},
	Spanish: {
		"el", "la", "los", "las", "de", "a", "envía", "envia", "enviar", "mi", "mis",
		"es", "cuál", "cual", "cuánto", "cuanto", "para", "y", "yo", "saldo",
		"cambiar", "intercambiar", "por", "favor", "hola", "una", "un", "no",
		"qué", "que", "tengo", "al", "del",
	},
	Portuguese: {
		"o", "os", "a", "as", "do", "da", "dos", "das", "envie", "enviar", "meu",
		"minha", "é", "qual", "quanto", "para", "e", "eu", "saldo", "trocar",
		"por", "favor", "olá", "ola", "oi", "um", "uma", "você", "voce", "não",
		"nao", "ao", "tenho",
	},
	Yoruba: {
		"mo", "fe", "fẹ", "fẹ́", "si", "sí", "ni", "owo", "owó", "ranse", "ránṣẹ́",
		"ranṣẹ", "fi", "se", "ṣe", "melo", "mélòó", "emi", "jowo", "jọwọ", "jọ̀wọ́",
		"e", "ẹ", "kaabo", "bawo", "báwo", "kò", "ko", "rẹ", "mi", "ti", "tí",
		"lati", "láti", "àti", "ati", "jẹ́", "je", "nínú", "nìkan",
	},
}

var stopwordIndex = buildStopwordIndex()

func buildStopwordIndex() map[string][]Language {
	idx := make(map[string][]Language)
	for lang, words := range stopwords {
		for _, w := range words {
			idx[w] = append(idx[w], lang)
		}
	}
	return idx
}

// Letters that are strong evidence on their own.
var markerRunes = map[rune]Language{
	'ẹ': Yoruba, 'ọ': Yoruba, 'ṣ': Yoruba, '\u0323': Yoruba,
	'ñ': Spanish, '¿': Spanish, '¡': Spanish,
	'ã': Portuguese, 'õ': Portuguese,
	'è': French, 'ë': French, 'œ': French, 'ù': French, 'û': French, 'î': French, 'ï': French,
}

const markerWeight = 2

var whatlangWhitelist = map[whatlanggo.Lang]bool{
	whatlanggo.Eng: true,
	whatlanggo.Fra: true,
	whatlanggo.Spa: true,
	whatlanggo.Por: true,
}

var fromWhatlang = map[whatlanggo.Lang]Language{
	whatlanggo.Eng: English,
	whatlanggo.Fra: French,
	whatlanggo.Spa: Spanish,
	whatlanggo.Por: Portuguese,
}

const minWhatlangConfidence = 0.2

// DetectLanguage guesses the language of a short utterance. Stopwords and
// marker letters decide when they give a clear winner; otherwise trigram
// detection restricted to the supported languages breaks the tie. Anything
// still undecided is English.
func DetectLanguage(text string) Language {
	text = strings.ToLower(text)
	scores := make(map[Language]int, len(Languages))

	for _, r := range text {
		if lang, ok := markerRunes[r]; ok {
			scores[lang] += markerWeight
		}
	}
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.Is(unicode.Mn, r) && r != '\''
	}) {
		for _, lang := range stopwordIndex[w] {
			scores[lang]++
		}
	}

	best, bestScore, tie := English, 0, false
	for _, lang := range Languages {
		switch s := scores[lang]; {
		case s > bestScore:
			best, bestScore, tie = lang, s, false
		case s == bestScore && s > 0:
			tie = true
		}
	}
	if bestScore > 0 && !tie {
		return best
	}

	info := whatlanggo.DetectWithOptions(text, whatlanggo.Options{Whitelist: whatlangWhitelist})
	if lang, ok := fromWhatlang[info.Lang]; ok && info.Confidence >= minWhatlangConfidence {
		if !tie || scores[lang] == bestScore {
			return lang
		}
	}
	if tie {
		return best
	}
	return English
}
