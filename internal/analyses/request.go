package analyses

import (
	_ "embed"
	"strings"
)

//go:embed prompts/ats_v1.txt
var promptATSV1 string

// PromptVersion identifies the embedded prompt template.
const PromptVersion = "ats_v1"

const notProvided = "Not provided"

// Request is the input to one analysis.
type Request struct {
	JobTitle string
	// JobDescriptionRef is free text, usually a link. Empty means absent.
	JobDescriptionRef string
	CVText            string
}

// BuildPrompt renders the instruction payload for the scoring service.
func BuildPrompt(req Request) (string, error) {
	jobTitle := strings.TrimSpace(req.JobTitle)
	if jobTitle == "" {
		return "", ErrJobTitleRequired
	}
	if strings.TrimSpace(req.CVText) == "" {
		return "", ErrCVTextRequired
	}
	ref := strings.TrimSpace(req.JobDescriptionRef)
	if ref == "" {
		ref = notProvided
	}

	r := strings.NewReplacer(
		"{{JOB_TITLE}}", jobTitle,
		"{{JOB_DESCRIPTION_REF}}", ref,
		"{{CV_TEXT}}", req.CVText,
	)
	return r.Replace(promptATSV1), nil
}
