package corroborate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

type rawJudgment struct {
	Mentioned interface{} `json:"mentioned"`
	Context   string      `json:"context"`
	Score     interface{} `json:"score"`
}

// ParseJudgment extracts a Judgment from model output. It accepts a JSON
// object (optionally fenced in markdown or surrounded by prose), JSON that
// jsonrepair can fix, or the "KEY: value" line format older prompts produced.
func ParseJudgment(content string) (*Judgment, error) {
	content = stripFences(content)

	if obj, ok := extractObject(content); ok {
		var raw rawJudgment
		err := json.Unmarshal([]byte(obj), &raw)
		if err != nil {
			repaired, repairErr := jsonrepair.JSONRepair(obj)
			if repairErr != nil {
				return nil, fmt.Errorf("unmarshal judgment: %w (repair failed: %v)", err, repairErr)
			}
			if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
				return nil, fmt.Errorf("unmarshal repaired judgment: %w", err)
			}
		}
		return raw.judgment()
	}

	if j, ok := parseKeyValue(content); ok {
		return j, nil
	}
	return nil, errors.New("no judgment found in response")
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject returns the span from the first '{' to the last '}', or the
// tail from the first '{' when the closing brace is missing.
func extractObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return s[start:], true
	}
	return s[start : end+1], true
}

func (r rawJudgment) judgment() (*Judgment, error) {
	mentioned, ok := truthy(r.Mentioned)
	if !ok {
		return nil, fmt.Errorf("judgment has no usable mentioned field: %v", r.Mentioned)
	}
	score, _ := number(r.Score)
	return &Judgment{
		Mentioned: mentioned,
		Context:   strings.TrimSpace(r.Context),
		Score:     clamp(score),
	}, nil
}

func truthy(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "evet", "1":
			return true, true
		case "false", "no", "hayir", "hayır", "0":
			return false, true
		}
	case float64:
		return t != 0, true
	}
	return false, false
}

func number(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(math.Round(t)), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(t, "%")), 64)
		if err != nil {
			return 0, false
		}
		return int(math.Round(f)), true
	}
	return 0, false
}

func clamp(n int) int {
	return max(0, min(100, n))
}

// Keys accepted by the line format, lowercased. The Turkish forms come from
// the prompts the first version of the service used.
var (
	mentionedKeys = []string{"mentioned", "marka_bahsedildi"}
	contextKeys   = []string{"context", "baglam", "bağlam"}
	scoreKeys     = []string{"score", "genel_skor"}
)

func parseKeyValue(s string) (*Judgment, bool) {
	var j Judgment
	found := false
	for _, line := range strings.Split(s, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "*-# "))
		value = strings.TrimSpace(value)
		switch {
		case oneOf(key, mentionedKeys):
			if m, ok := truthy(value); ok {
				j.Mentioned, found = m, true
			}
		case oneOf(key, contextKeys):
			j.Context = value
		case oneOf(key, scoreKeys):
			if n, ok := number(value); ok {
				j.Score = clamp(n)
			}
		}
	}
	return &j, found
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
