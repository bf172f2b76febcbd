package visibility

import (
	"sort"
	"strings"
)

// Expander derives an Identity from a website URL, bare domain, or company
// name. It never fails; malformed input yields a best-effort Identity.
type Expander struct {
	fold     folder
	suffixes []string
	variants []string
	aliases  map[string][]string
}

// NewExpander builds an Expander from cfg. cfg should already be validated.
func NewExpander(cfg Config) *Expander {
	f := newFolder(cfg.Language)

	suffixes := make([]string, 0, len(cfg.HospitalitySuffixes))
	for _, s := range cfg.HospitalitySuffixes {
		suffixes = append(suffixes, f.Fold(strings.TrimSpace(s)))
	}
	// Longest first so "oteller" wins over "otel".
	sort.SliceStable(suffixes, func(i, j int) bool { return len(suffixes[i]) > len(suffixes[j]) })

	variants := make([]string, 0, len(cfg.VariantSuffixes))
	for _, s := range cfg.VariantSuffixes {
		variants = append(variants, f.Fold(strings.TrimSpace(s)))
	}

	aliases := make(map[string][]string, len(cfg.BrandAliases))
	for company, list := range cfg.BrandAliases {
		key := f.Fold(strings.TrimSpace(company))
		for _, a := range list {
			aliases[key] = append(aliases[key], f.Fold(strings.TrimSpace(a)))
		}
	}

	return &Expander{
		fold:     f,
		suffixes: uniqueStrings(suffixes),
		variants: uniqueStrings(variants),
		aliases:  aliases,
	}
}

// Expand returns the Identity for source.
func (e *Expander) Expand(source string) Identity {
	lowered := e.fold.Fold(strings.TrimSpace(source))
	id := Identity{Source: lowered}

	host := strings.Trim(hostOnly(stripScheme(lowered)), ".")
	id.Domain = host
	id.CompanyName, _, _ = strings.Cut(host, ".")
	if id.CompanyName == "" {
		// Nothing usable after the scheme; match on the source as written.
		id.Domain = id.Source
		id.CompanyName = id.Source
		id.ShortName = id.Source
		return id
	}

	id.ShortName = e.shortName(id.CompanyName)
	id.Variants = e.variantPhrases(id)
	id.Aliases = uniqueStrings(e.aliases[id.CompanyName])
	return id
}

// stripScheme drops any "scheme://" prefix and a leading "www.".
func stripScheme(s string) string {
	if i := strings.Index(s, "://"); i >= 0 && !strings.ContainsAny(s[:i], "/?#") {
		s = s[i+len("://"):]
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSpace(s)
}

// hostOnly drops any path, query, fragment, or port.
func hostOnly(s string) string {
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	return s
}

func (e *Expander) shortName(company string) string {
	name := company
	for _, suffix := range e.suffixes {
		if suffix == "" || !strings.HasSuffix(name, suffix) {
			continue
		}
		if len(name) > len(suffix) {
			name = strings.TrimSuffix(name, suffix)
		}
		break
	}
	name = strings.Trim(name, " -_")
	if name == "" {
		return company
	}
	return name
}

func (e *Expander) variantPhrases(id Identity) []string {
	var out []string
	if id.ShortName != "" {
		for _, suffix := range e.variants {
			out = append(out, id.ShortName+" "+suffix)
		}
	}
	for _, name := range []string{id.CompanyName, id.ShortName} {
		if strings.ContainsAny(name, "-_") {
			out = append(out, strings.Join(strings.FieldsFunc(name, func(r rune) bool {
				return r == '-' || r == '_'
			}), " "))
		}
	}

	out = uniqueStrings(out)
	filtered := out[:0]
	for _, v := range out {
		if v != id.CompanyName && v != id.ShortName && v != id.Domain {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
