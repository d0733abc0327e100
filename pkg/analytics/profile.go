package analytics

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// DefaultKeywords is how many keywords a profile carries.
const DefaultKeywords = 10

// minDetectRunes is the shortest text handed to language detection.
const minDetectRunes = 20

// ContentProfile summarizes the text of a converted page.
type ContentProfile struct {
	Language    string   `yaml:"language,omitempty" json:"language,omitempty"`
	TopKeywords []string `yaml:"top_keywords,omitempty" json:"top_keywords,omitempty"`
	WordCount   int      `yaml:"word_count" json:"word_count"`
}

var detectorLanguages = []lingua.Language{
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Japanese,
	lingua.Chinese,
	lingua.Russian,
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

func languageDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectorLanguages...).
			Build()
	})
	return detector
}

// DetectLanguage returns the ISO 639-1 code of the language text is written
// in, or "" when the text is too short or no language is a clear match.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minDetectRunes {
		return ""
	}
	lang, ok := languageDetector().DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

// Profile builds the content profile for text.
func (a *Analytics) Profile(text string) ContentProfile {
	return ContentProfile{
		Language:    DetectLanguage(text),
		TopKeywords: TopKeywords(a.WordFrequency(text), DefaultKeywords),
		WordCount:   len(strings.Fields(text)),
	}
}
