package visibility

import (
	"regexp"
	"strconv"
	"strings"
)

// RankExtractor places a mention into a coarse rank bucket from ordinal and
// leadership keywords.
type RankExtractor struct {
	fold        folder
	first       []string
	second      []string
	third       []string
	top         []string
	numericRank bool
}

// NewRankExtractor builds a RankExtractor from cfg.
func NewRankExtractor(cfg Config) *RankExtractor {
	f := newFolder(cfg.Language)
	foldAll := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			out = append(out, f.Fold(strings.TrimSpace(s)))
		}
		return uniqueStrings(out)
	}
	return &RankExtractor{
		fold:        f,
		first:       foldAll(cfg.RankKeywords.First),
		second:      foldAll(cfg.RankKeywords.Second),
		third:       foldAll(cfg.RankKeywords.Third),
		top:         foldAll(cfg.RankKeywords.Top),
		numericRank: cfg.NumericRank,
	}
}

// Extract returns the rank bucket for text. Text that names neither the
// company nor an alias is NotRanked.
func (r *RankExtractor) Extract(text string, id Identity) RankBucket {
	return r.extractFolded(r.fold.Fold(text), id)
}

func (r *RankExtractor) extractFolded(text string, id Identity) RankBucket {
	names := mentionNames(id)
	present := false
	for _, n := range names {
		if strings.Contains(text, n) {
			present = true
			break
		}
	}
	if !present {
		return RankNotRanked
	}

	if r.numericRank {
		if bucket, ok := numericBucket(text, names); ok {
			return bucket
		}
	}

	// Brand names such as "lider patent" must not count as keywords.
	text = maskTerms(text, names)

	for _, rule := range []struct {
		terms  []string
		bucket RankBucket
	}{
		{r.first, RankFirst},
		{r.second, RankSecond},
		{r.third, RankThird},
		{r.top, RankTopN},
	} {
		for _, term := range rule.terms {
			if containsTerm(text, term) {
				return rule.bucket
			}
		}
	}
	return RankMentioned
}

func mentionNames(id Identity) []string {
	return uniqueStrings(append([]string{id.CompanyName}, id.Aliases...))
}

// listMarker matches a list position written just before a mention:
// "1. ", "#2 ", "3) ", "4 - ".
var listMarker = regexp.MustCompile(`(?:^|[\s*(\[])#?(\d{1,2})\s*[.):\-]?\s*\**\s*$`)

// numericBucket looks for a list number immediately preceding any mention
// of names. The earliest mention with a number wins.
func numericBucket(text string, names []string) (RankBucket, bool) {
	best := -1
	pos := -1
	for _, name := range names {
		from := 0
		for {
			i := strings.Index(text[from:], name)
			if i < 0 {
				break
			}
			start := from + i
			lineStart := strings.LastIndexByte(text[:start], '\n') + 1
			if m := listMarker.FindStringSubmatch(text[lineStart:start]); m != nil {
				if pos < 0 || start < pos {
					n, _ := strconv.Atoi(m[1])
					best, pos = n, start
				}
				break
			}
			from = start + len(name)
		}
	}

	switch {
	case best == 1:
		return RankFirst, true
	case best == 2:
		return RankSecond, true
	case best == 3:
		return RankThird, true
	case best >= 4 && best <= 10:
		return RankTopN, true
	}
	return "", false
}
