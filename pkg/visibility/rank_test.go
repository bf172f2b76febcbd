package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankExtractor_Extract(t *testing.T) {
	cfg := testConfig(t)
	exp := NewExpander(cfg)
	r := NewRankExtractor(cfg)

	tests := []struct {
		name   string
		text   string
		target string
		want   RankBucket
	}{
		{"turkish first", "birinci sırada workexe", "workexe.co", RankFirst},
		{"turkish first uppercase", "BİRİNCİ sırada workexe", "workexe.co", RankFirst},
		{"dotted capital in brand", "İSTANBULOTEL üçüncü sırada", "istanbulotel.com", RankThird},
		{"english first", "Workexe comes first for remote teams", "workexe.co", RankFirst},
		{"en iyi counts as first", "en iyi platform workexe", "workexe.co", RankFirst},
		{"second", "workexe is the second option", "workexe.co", RankSecond},
		{"turkish third", "üçüncü olarak workexe geliyor", "workexe.co", RankThird},
		{"leading", "workexe is a leading platform", "workexe.co", RankTopN},
		{"turkish leader", "workexe önde gelen firmalardan", "workexe.co", RankTopN},
		{"first beats second", "second is acme, first is workexe", "workexe.co", RankFirst},
		{"plain mention", "workexe exists", "workexe.co", RankMentioned},
		{"keyword inside word", "workexe runs on my laptop", "workexe.co", RankMentioned},
		{"not mentioned", "completely unrelated content", "workexe.co", RankNotRanked},
		{"keyword without brand", "the first and best", "workexe.co", RankNotRanked},
		{"alias counts as presence", "elmas patent ikinci sırada", "elmaspatent.com", RankSecond},
		{"brand name is not a keyword", "lider patent ile görüştük", "liderpatent.com.tr", RankMentioned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Extract(tt.text, exp.Expand(tt.target)))
		})
	}
}

func TestRankExtractor_NumericRank(t *testing.T) {
	list := "Here are my picks:\n1. Acme\n2. Workexe\n3. Globex"

	cfg := testConfig(t)
	exp := NewExpander(cfg)
	id := exp.Expand("workexe.co")

	// Off: the "1." list marker is an ordinal keyword anywhere in the text.
	assert.Equal(t, RankFirst, NewRankExtractor(cfg).Extract(list, id))

	cfg.NumericRank = true
	r := NewRankExtractor(cfg)

	tests := []struct {
		name string
		text string
		want RankBucket
	}{
		{"list position", list, RankSecond},
		{"hash marker", "#3 workexe", RankThird},
		{"bold markdown", "**1.** Workexe is great", RankFirst},
		{"paren marker", "7) workexe", RankTopN},
		{"out of range falls back to keywords", "42. workexe is leading", RankTopN},
		{"no marker falls back", "workexe is the second option", RankSecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Extract(tt.text, id))
		})
	}
}
