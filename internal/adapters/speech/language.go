package speech

import "regexp"

const (
	LanguageAuto    = "auto"
	LanguageEnglish = "en-US"
	LanguageSpanish = "es-ES"

	detectPrefixRunes = 100
)

var (
	englishCharset = regexp.MustCompile(`^[a-zA-Z0-9\s.,;:!?'"()\-]+$`)
	englishWords   = regexp.MustCompile(`(?i)\b(the|is|are|and|or|to|from|with|for|of|in|on|at|this|that|have|will|can|should)\b`)
)

// DetectLanguage picks English when the opening of text is plain ASCII and
// the text uses common English function words. Everything else is Spanish.
func DetectLanguage(text string) string {
	prefix := []rune(text)
	if len(prefix) > detectPrefixRunes {
		prefix = prefix[:detectPrefixRunes]
	}

	if englishCharset.MatchString(string(prefix)) && englishWords.MatchString(text) {
		return LanguageEnglish
	}

	return LanguageSpanish
}

// ResolveLanguage turns a configured language into a concrete tag.
func ResolveLanguage(configured string, text string) string {
	if configured == "" || configured == LanguageAuto {
		return DetectLanguage(text)
	}
	return configured
}
