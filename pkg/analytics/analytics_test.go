package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordFrequency(t *testing.T) {
	a := &Analytics{}
	got := a.WordFrequency("The Parser parses; the parser (returns) tokens. Click here! PLACEHOLDER_0 x_train")

	assert.Equal(t, map[string]int{
		"parser":  2,
		"parses":  1,
		"returns": 1,
		"tokens":  1,
		"x_train": 1,
	}, got)
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("The"))
	assert.True(t, IsStopword("loading"))
	assert.False(t, IsStopword("goroutine"))
}

func TestTopKeywords(t *testing.T) {
	counts := map[string]int{
		"beta":   3,
		"alpha":  3,
		"gamma":  5,
		"broken": 9,
		"fn(":    7,
		"key:":   6,
		`say"hi`: 4,
	}

	assert.Equal(t, []string{"broken:9", "gamma:5", "alpha:3", "beta:3"}, TopKeywords(counts, 10))
	assert.Equal(t, []string{"broken:9"}, TopKeywords(counts, 1))
	assert.Empty(t, TopKeywords(counts, 0))
	assert.Empty(t, TopKeywords(counts, -1))
	assert.Empty(t, TopKeywords(nil, 5))
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "The quick brown fox jumps over the lazy dog while the farmer watches from the porch.", "en"},
		{"german", "Der schnelle braune Fuchs springt über den faulen Hund, während der Bauer von der Veranda zuschaut.", "de"},
		{"french", "Le renard brun rapide saute par-dessus le chien paresseux pendant que le fermier regarde depuis le porche.", "fr"},
		{"too short", "hello", ""},
		{"blank", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestProfile(t *testing.T) {
	text := "The farmer walked down to the river every morning to check on the old wooden boat. " +
		"He liked to sit there with his coffee and watch the water move slowly past the fields. " +
		"Some mornings the fog was so thick that he could barely see the boat from the bank."
	p := (&Analytics{}).Profile(text)

	assert.Equal(t, "en", p.Language)
	assert.Equal(t, len(strings.Fields(text)), p.WordCount)
	assert.Contains(t, p.TopKeywords, "boat:2")
	assert.NotEmpty(t, p.TopKeywords)
}

func TestProfileShortText(t *testing.T) {
	p := (&Analytics{}).Profile("boat")
	assert.Empty(t, p.Language)
	assert.Equal(t, 1, p.WordCount)
	assert.Equal(t, []string{"boat:1"}, p.TopKeywords)
}
