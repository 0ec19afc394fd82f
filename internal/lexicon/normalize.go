package lexicon

// Normalized is an utterance prepared for command interpretation.
type Normalized struct {
	// Text has number words replaced by digits.
	Text        string
	Corrections []Correction
	Language    Language
}

// Normalize runs the lexical passes over a raw utterance. Language is
// detected on the raw text, before number words are replaced.
func Normalize(utterance string) Normalized {
	text := ConvertNumberWords(utterance)
	return Normalized{
		Text:        text,
		Corrections: AnnotateAssets(text),
		Language:    DetectLanguage(utterance),
	}
}
