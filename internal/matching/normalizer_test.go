package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Pára-Choque  ", "para-choque"},
		{"Bumper   Front", "bumper front"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("How much does the Bumper repair cost?")
	assert.Equal(t, []string{"how", "much", "does", "the", "bumper", "repair", "cost"}, got)
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("Bumper costs 3000. Door costs 2500! Is that all?")
	assert.Len(t, got, 3)
	assert.Equal(t, "Bumper costs 3000.", got[0])

	assert.Nil(t, SplitSentences("   "))
	assert.Equal(t, []string{"no terminator"}, SplitSentences("no terminator"))
}
