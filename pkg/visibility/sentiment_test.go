package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentimentClassifier_Classify(t *testing.T) {
	cfg := testConfig(t)
	exp := NewExpander(cfg)
	c := NewSentimentClassifier(cfg)

	tests := []struct {
		name   string
		text   string
		target string
		want   Sentiment
	}{
		{"turkish negative", "workexe çok kötü ve güvenilmez", "workexe", SentimentNegative},
		{"turkish positive", "workexe harika ve güvenilir bir platform", "workexe.co", SentimentPositive},
		{"english positive", "I recommend workexe.co, it is excellent", "workexe.co", SentimentPositive},
		{"english negative", "workexe was terrible and useless", "workexe.co", SentimentNegative},
		{"tie is neutral", "workexe is good but support is bad", "workexe.co", SentimentNeutral},
		{"no lexicon hits", "workexe exists", "workexe.co", SentimentNeutral},
		{"negated recommendation", "workexe? tavsiye etmem", "workexe.co", SentimentNegative},
		{"unreliable is not reliable", "workexe is unreliable", "workexe.co", SentimentNegative},
		{"not mentioned", "great and excellent tools", "workexe.co", SentimentNeutral},
		{"empty", "", "workexe.co", SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text, exp.Expand(tt.target)))
		})
	}
}

func TestSentimentClassifier_CustomLexicon(t *testing.T) {
	cfg := testConfig(t)
	cfg.PositiveWords = []string{"Stellar"}
	cfg.NegativeWords = []string{"meh"}
	exp := NewExpander(cfg)
	c := NewSentimentClassifier(cfg)
	id := exp.Expand("workexe.co")

	assert.Equal(t, SentimentPositive, c.Classify("workexe is STELLAR", id))
	assert.Equal(t, SentimentNegative, c.Classify("workexe is meh, meh", id))
	assert.Equal(t, SentimentNeutral, c.Classify("workexe is great", id))
}
