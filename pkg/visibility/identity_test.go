package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	return cfg
}

func TestExpander_Expand(t *testing.T) {
	exp := NewExpander(testConfig(t))

	tests := []struct {
		name        string
		source      string
		wantSource  string
		wantDomain  string
		wantCompany string
		wantShort   string
		wantAliases []string
	}{
		{
			name:        "full url with path",
			source:      "https://www.workexe.co/pricing",
			wantSource:  "https://www.workexe.co/pricing",
			wantDomain:  "workexe.co",
			wantCompany: "workexe",
			wantShort:   "workexe",
			wantAliases: []string{"workexe"},
		},
		{
			name:        "bare domain",
			source:      "workexe.co",
			wantSource:  "workexe.co",
			wantDomain:  "workexe.co",
			wantCompany: "workexe",
			wantShort:   "workexe",
			wantAliases: []string{"workexe"},
		},
		{
			name:        "upper case with http and port",
			source:      "  HTTP://WWW.ElmasPatent.com:8080/iletisim?x=1 ",
			wantSource:  "http://www.elmaspatent.com:8080/iletisim?x=1",
			wantDomain:  "elmaspatent.com",
			wantCompany: "elmaspatent",
			wantShort:   "elmaspatent",
			wantAliases: []string{"elmas patent", "elmaspatent"},
		},
		{
			name:        "hotel suffix",
			source:      "parkhotel.com.tr",
			wantSource:  "parkhotel.com.tr",
			wantDomain:  "parkhotel.com.tr",
			wantCompany: "parkhotel",
			wantShort:   "park",
		},
		{
			name:        "otel suffix",
			source:      "grandotel.com",
			wantSource:  "grandotel.com",
			wantDomain:  "grandotel.com",
			wantCompany: "grandotel",
			wantShort:   "grand",
		},
		{
			name:        "oteller suffix wins over otel",
			source:      "www.sahiloteller.com",
			wantSource:  "www.sahiloteller.com",
			wantDomain:  "sahiloteller.com",
			wantCompany: "sahiloteller",
			wantShort:   "sahil",
		},
		{
			name:        "name equal to suffix is kept",
			source:      "hotel.com",
			wantSource:  "hotel.com",
			wantDomain:  "hotel.com",
			wantCompany: "hotel",
			wantShort:   "hotel",
		},
		{
			name:        "company name without dot",
			source:      "Workexe",
			wantSource:  "workexe",
			wantDomain:  "workexe",
			wantCompany: "workexe",
			wantShort:   "workexe",
			wantAliases: []string{"workexe"},
		},
		{
			name:        "multi word name",
			source:      "Bilgi Patent",
			wantSource:  "bilgi patent",
			wantDomain:  "bilgi patent",
			wantCompany: "bilgi patent",
			wantShort:   "bilgi patent",
		},
		{
			name:        "ftp scheme",
			source:      "ftp://workexe.co",
			wantSource:  "ftp://workexe.co",
			wantDomain:  "workexe.co",
			wantCompany: "workexe",
			wantShort:   "workexe",
			wantAliases: []string{"workexe"},
		},
		{
			name:        "custom scheme with port",
			source:      "app://workexe.co:443/login",
			wantSource:  "app://workexe.co:443/login",
			wantDomain:  "workexe.co",
			wantCompany: "workexe",
			wantShort:   "workexe",
			wantAliases: []string{"workexe"},
		},
		{
			name:        "url inside query is not a scheme",
			source:      "workexe.co/go?to=https://other.com",
			wantSource:  "workexe.co/go?to=https://other.com",
			wantDomain:  "workexe.co",
			wantCompany: "workexe",
			wantShort:   "workexe",
			wantAliases: []string{"workexe"},
		},
		{
			name:        "name without dot drops path",
			source:      "workexe/pricing",
			wantSource:  "workexe/pricing",
			wantDomain:  "workexe",
			wantCompany: "workexe",
			wantShort:   "workexe",
			wantAliases: []string{"workexe"},
		},
		{
			name:        "leading dot",
			source:      ".com",
			wantSource:  ".com",
			wantDomain:  "com",
			wantCompany: "com",
			wantShort:   "com",
		},
		{
			name:        "scheme only",
			source:      "https://",
			wantSource:  "https://",
			wantDomain:  "https://",
			wantCompany: "https://",
			wantShort:   "https://",
		},
		{
			name:        "www only",
			source:      "www.",
			wantSource:  "www.",
			wantDomain:  "www.",
			wantCompany: "www.",
			wantShort:   "www.",
		},
		{
			name:        "empty host with path",
			source:      "http://www./x",
			wantSource:  "http://www./x",
			wantDomain:  "http://www./x",
			wantCompany: "http://www./x",
			wantShort:   "http://www./x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := exp.Expand(tt.source)
			assert.Equal(t, tt.wantSource, id.Source)
			assert.Equal(t, tt.wantDomain, id.Domain)
			assert.Equal(t, tt.wantCompany, id.CompanyName)
			assert.Equal(t, tt.wantShort, id.ShortName)
			if tt.wantAliases == nil {
				assert.Empty(t, id.Aliases)
			} else {
				assert.Equal(t, tt.wantAliases, id.Aliases)
			}
		})
	}
}

func TestExpander_Variants(t *testing.T) {
	exp := NewExpander(testConfig(t))

	id := exp.Expand("https://www.workexe.co/pricing")
	assert.Equal(t, []string{
		"workexe hotel", "workexe otel", "workexe resort", "workexe official",
		"workexe app", "workexe istanbul", "workexe türkiye",
	}, id.Variants)

	park := exp.Expand("parkhotel.com")
	assert.Contains(t, park.Variants, "park otel")
	assert.Contains(t, park.Variants, "park resort")
	assert.NotContains(t, park.Variants, "parkhotel")
}

func TestExpander_HyphenatedVariant(t *testing.T) {
	exp := NewExpander(testConfig(t))

	id := exp.Expand("my-brand.io")
	assert.Equal(t, "my-brand", id.CompanyName)
	assert.Contains(t, id.Variants, "my brand")
}

func TestExpander_EmptySource(t *testing.T) {
	exp := NewExpander(testConfig(t))

	id := exp.Expand("")
	assert.Empty(t, id.Source)
	assert.Empty(t, id.Domain)
	assert.Empty(t, id.CompanyName)
	assert.Empty(t, id.ShortName)
	assert.Empty(t, id.Variants)
	assert.Empty(t, id.Aliases)
}

func TestExpander_DegenerateSourceStillDetected(t *testing.T) {
	cfg := testConfig(t)
	exp := NewExpander(cfg)
	det := NewDetector(cfg)

	for _, source := range []string{"https://", "www.", "http://www./x"} {
		t.Run(source, func(t *testing.T) {
			id := exp.Expand(source)
			got := det.Detect("the listing said "+source+" and nothing else", id)
			assert.True(t, got.Mentioned)
			assert.True(t, got.Signals.Has(SignalCompanyName))
		})
	}
}

func TestExpander_CustomAliases(t *testing.T) {
	cfg := testConfig(t)
	cfg.BrandAliases = map[string][]string{"AcmeCorp": {"Acme Corporation", "ACME"}}
	exp := NewExpander(cfg)

	id := exp.Expand("acmecorp.com")
	assert.Equal(t, []string{"acme corporation", "acme"}, id.Aliases)
}

func TestExpander_TurkishCaseFolding(t *testing.T) {
	cfg := testConfig(t)
	cfg.Language = "tr"
	exp := NewExpander(cfg)

	id := exp.Expand("İSTANBULOTEL.COM")
	assert.Equal(t, "istanbulotel", id.CompanyName)
	assert.Equal(t, "istanbul", id.ShortName)
}
