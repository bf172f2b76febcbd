package visibility

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Weights are the per-signal bonuses added by the Scorer.
type Weights struct {
	FullSource  int `yaml:"full_source" json:"full_source"`
	Domain      int `yaml:"domain" json:"domain"`
	CompanyName int `yaml:"company_name" json:"company_name"`
	ShortName   int `yaml:"short_name" json:"short_name"`
	Variant     int `yaml:"variant" json:"variant"`
	Fuzzy       int `yaml:"fuzzy" json:"fuzzy"`
	NearMatch   int `yaml:"near_match" json:"near_match"`
	Context     int `yaml:"context" json:"context"`
}

// RankKeywords lists the ordinal and leadership terms per bucket, checked in
// priority order first, second, third, top.
type RankKeywords struct {
	First  []string `yaml:"first" json:"first"`
	Second []string `yaml:"second" json:"second"`
	Third  []string `yaml:"third" json:"third"`
	Top    []string `yaml:"top" json:"top"`
}

// Config is the single configuration object shared by every component.
type Config struct {
	// PositiveWords feed both the context bonus and sentiment voting.
	PositiveWords []string `yaml:"positive_words" json:"positive_words"`
	NegativeWords []string `yaml:"negative_words" json:"negative_words"`

	// FuzzyThreshold is the minimum partial similarity (0-100) for the fuzzy
	// tier. Zero is honoured unless the whole Config is zero.
	FuzzyThreshold int `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`

	// NearMatchThreshold is the minimum token ratio (0-1) for the near-match tier.
	NearMatchThreshold float64 `yaml:"near_match_threshold" json:"near_match_threshold"`

	// MinFuzzyLength skips the fuzzy and near-match tiers for shorter names.
	// The default of 1 lets every non-empty name reach them.
	MinFuzzyLength int `yaml:"min_fuzzy_length" json:"min_fuzzy_length"`

	// HospitalitySuffixes are stripped from the company name to form the short name.
	HospitalitySuffixes []string `yaml:"hospitality_suffixes" json:"hospitality_suffixes"`

	// VariantSuffixes are appended to the short name to form variant phrases.
	VariantSuffixes []string `yaml:"variant_suffixes" json:"variant_suffixes"`

	// BrandAliases maps a company name to its known alternative spellings.
	BrandAliases map[string][]string `yaml:"brand_aliases" json:"brand_aliases"`

	RankKeywords RankKeywords `yaml:"rank_keywords" json:"rank_keywords"`

	// NumericRank lets a number written just before a mention set the bucket.
	NumericRank bool `yaml:"numeric_rank" json:"numeric_rank"`

	// Language is the BCP-47 tag used for case folding ("tr" folds İ to i).
	Language string `yaml:"language" json:"language"`

	Weights Weights `yaml:"weights" json:"weights"`
}

// DefaultConfig returns the stock English and Turkish configuration.
func DefaultConfig() Config {
	return Config{
		PositiveWords: []string{
			"recommend", "suggest", "best", "great", "excellent", "good", "useful",
			"reliable", "trusted", "professional", "quality",
			"mükemmel", "harika", "en iyi", "önerir", "öneri", "tavsiye", "güvenilir",
			"profesyonel", "kaliteli", "başarılı",
		},
		NegativeWords: []string{
			"bad", "terrible", "awful", "poor", "worst", "useless", "unreliable", "avoid",
			"kötü", "berbat", "tavsiye etmem", "sorunlu", "yetersiz", "güvenilmez",
		},
		FuzzyThreshold:      80,
		NearMatchThreshold:  0.85,
		MinFuzzyLength:      1,
		HospitalitySuffixes: []string{"oteller", "hotel", "otel"},
		VariantSuffixes:     []string{"hotel", "otel", "resort", "official", "app", "istanbul", "türkiye"},
		BrandAliases: map[string][]string{
			"elmaspatent": {"elmas patent", "elmaspatent"},
			"liderpatent": {"lider patent", "liderpatent"},
			"bilgipatent": {"bilgi patent", "bilgipatent"},
			"workexe":     {"workexe"},
		},
		RankKeywords: RankKeywords{
			First:  []string{"birinci", "first", "1st", "#1", "1.", "number one", "en iyi"},
			Second: []string{"ikinci", "second", "2nd", "#2", "2."},
			Third:  []string{"üçüncü", "third", "3rd", "#3", "3."},
			Top:    []string{"önde gelen", "lider", "leading", "top"},
		},
		Language: "und",
		Weights: Weights{
			FullSource:  50,
			Domain:      35,
			CompanyName: 25,
			ShortName:   20,
			Variant:     15,
			Fuzzy:       15,
			NearMatch:   10,
			Context:     20,
		},
	}
}

// Validate checks ranges and fills unset fields from DefaultConfig. The
// thresholds are only filled for a Config with no thresholds and no weights,
// so a loaded or derived Config may set either threshold to zero.
func (c *Config) Validate() error {
	def := DefaultConfig()

	if c.FuzzyThreshold == 0 && c.NearMatchThreshold == 0 && c.Weights == (Weights{}) {
		c.FuzzyThreshold = def.FuzzyThreshold
		c.NearMatchThreshold = def.NearMatchThreshold
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy_threshold must be in [0,100], got %d", c.FuzzyThreshold)
	}
	if c.NearMatchThreshold < 0 || c.NearMatchThreshold > 1 {
		return fmt.Errorf("near_match_threshold must be in [0,1], got %v", c.NearMatchThreshold)
	}
	if c.MinFuzzyLength < 0 {
		return fmt.Errorf("min_fuzzy_length must not be negative, got %d", c.MinFuzzyLength)
	}
	if c.PositiveWords == nil {
		c.PositiveWords = def.PositiveWords
	}
	if c.NegativeWords == nil {
		c.NegativeWords = def.NegativeWords
	}
	if c.HospitalitySuffixes == nil {
		c.HospitalitySuffixes = def.HospitalitySuffixes
	}
	if c.VariantSuffixes == nil {
		c.VariantSuffixes = def.VariantSuffixes
	}
	if c.BrandAliases == nil {
		c.BrandAliases = def.BrandAliases
	}
	if c.RankKeywords.First == nil && c.RankKeywords.Second == nil &&
		c.RankKeywords.Third == nil && c.RankKeywords.Top == nil {
		c.RankKeywords = def.RankKeywords
	}
	if c.Weights == (Weights{}) {
		c.Weights = def.Weights
	}
	if c.Language == "" {
		c.Language = def.Language
	}
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("language %q: %w", c.Language, err)
	}
	return nil
}

// LoadConfigFile reads a YAML file over DefaultConfig. Keys absent from the
// file keep their default values.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading engine config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing engine config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid engine config: %w", err)
	}
	return cfg, nil
}
