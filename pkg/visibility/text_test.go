package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolder_Fold(t *testing.T) {
	und := newFolder("und")
	assert.Equal(t, "workexe.co", und.Fold("WorkExe.CO"))
	assert.Equal(t, "", und.Fold(""))

	// Decomposed "u" + combining diaeresis composes to "ü".
	assert.Equal(t, "g\u00fcvenilir", und.Fold("gu\u0308venilir"))

	// Dotted capital I folds to a plain "i" without a Turkic tag.
	assert.Equal(t, "birinci", und.Fold("BİRİNCİ"))
	assert.Equal(t, "istanbulotel.com", und.Fold("İSTANBULOTEL.COM"))

	tr := newFolder("tr")
	assert.Equal(t, "ıstanbul", tr.Fold("ISTANBUL"))
	assert.Equal(t, "istanbul", tr.Fold("İSTANBUL"))

	bad := newFolder("not a tag!")
	assert.Equal(t, "abc", bad.Fold("ABC"))
}

func TestContainsTerm(t *testing.T) {
	tests := []struct {
		text, term string
		want       bool
	}{
		{"workexe is top rated", "top", true},
		{"great laptop", "top", false},
		{"top", "top", true},
		{"stop and top", "top", true},
		{"1. workexe", "1.", true},
		{"version 1.5", "1.", false},
		{"v1. release", "1.", false},
		{"lider patent", "lider", true},
		{"liderpatent", "lider", false},
		{"önde gelen firma", "önde gelen", true},
		{"anything", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, containsTerm(tt.text, tt.term))
		})
	}
}

func TestCountAndMaskTerms(t *testing.T) {
	text := "kötü, çok kötü ve berbat"
	assert.Equal(t, 3, countTerms(text, []string{"kötü", "berbat", ""}))

	masked := maskTerms("bunu tavsiye etmem", []string{"tavsiye etmem"})
	assert.Equal(t, len("bunu tavsiye etmem"), len(masked))
	assert.NotContains(t, masked, "tavsiye")
}

func TestUniqueStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, uniqueStrings([]string{"a", "", "b", "a"}))
	assert.Empty(t, uniqueStrings(nil))
}
