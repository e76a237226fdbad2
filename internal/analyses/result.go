package analyses

// Tier records which parsing strategy produced a Result.
type Tier string

const (
	TierStructuredJSON  Tier = "structured_json"
	TierNumericFallback Tier = "numeric_fallback"
	TierRawTextFallback Tier = "raw_text_fallback"
)

// Result is the parsed reply. Score is nil when no score could be found.
// Problems and Recommendations are never nil.
type Result struct {
	Score            *int     `json:"score"`
	ScoreExplanation string   `json:"scoreExplanation"`
	Problems         []string `json:"problems"`
	Recommendations  []string `json:"recommendations"`
	Tier             Tier     `json:"tier"`
	SchemaIssues     []string `json:"schemaIssues,omitempty"`
}

type Band string

const (
	BandExcellent        Band = "excellent"
	BandGood             Band = "good"
	BandNeedsImprovement Band = "needs_improvement"
	BandUnscored         Band = "unscored"
)

// Band buckets the score for display.
func (r Result) Band() Band {
	switch {
	case r.Score == nil:
		return BandUnscored
	case *r.Score >= 80:
		return BandExcellent
	case *r.Score >= 60:
		return BandGood
	default:
		return BandNeedsImprovement
	}
}

func (b Band) Label() string {
	switch b {
	case BandExcellent:
		return "Excellent ATS Compatibility"
	case BandGood:
		return "Good ATS Compatibility"
	case BandNeedsImprovement:
		return "Needs Improvement for ATS"
	default:
		return "Not Scored"
	}
}
