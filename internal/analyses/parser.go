package analyses

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

var (
	jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
	digitsPattern     = regexp.MustCompile(`\d+`)
)

// Parse turns a raw service reply into a Result. It never fails: replies
// without usable JSON fall back to the first number in the text, then to
// the raw text alone. The same input always yields the same Result.
func Parse(raw string) Result {
	if res, ok := parseStructured(raw); ok {
		return res
	}
	if m := digitsPattern.FindString(raw); m != "" {
		score := clampScore(atoiSaturating(m))
		return Result{
			Score:           &score,
			Problems:        []string{},
			Recommendations: []string{raw},
			Tier:            TierNumericFallback,
		}
	}
	return Result{
		Problems:        []string{},
		Recommendations: []string{raw},
		Tier:            TierRawTextFallback,
	}
}

func parseStructured(raw string) (Result, bool) {
	candidate := jsonObjectPattern.FindString(raw)
	if candidate == "" {
		return Result{}, false
	}
	var decoded any
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return Result{}, false
	}
	fields, ok := decoded.(map[string]any)
	if !ok {
		return Result{}, false
	}

	res := Result{
		Score:           scoreFrom(fields["score"]),
		Problems:        stringList(fields["problems"]),
		Recommendations: stringList(fields["recommendations"]),
		Tier:            TierStructuredJSON,
		SchemaIssues:    schemaIssues(decoded),
	}
	if explanation, ok := fields["scoreExplanation"]; ok && explanation != nil {
		res.ScoreExplanation = renderItem(explanation)
	}
	return res, true
}

// weakDecode converts loosely typed JSON values ("85" for 85, a single
// string for a list) into out.
func weakDecode(in any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}

func scoreFrom(v any) *int {
	if v == nil {
		return nil
	}
	var f float64
	if err := weakDecode(v, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	f = math.Max(math.Min(f, 100), 0)
	score := int(math.Round(f))
	return &score
}

func stringList(v any) []string {
	out := []string{}
	if v == nil {
		return out
	}
	var decoded []string
	if err := weakDecode(v, &decoded); err == nil {
		return append(out, decoded...)
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	for _, item := range items {
		out = append(out, renderItem(item))
	}
	return out
}

func renderItem(item any) string {
	if s, ok := item.(string); ok {
		return s
	}
	b, err := json.Marshal(item)
	if err != nil {
		return ""
	}
	return string(b)
}

func atoiSaturating(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return math.MaxInt
	}
	return n
}

func clampScore(n int) int {
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	default:
		return n
	}
}
