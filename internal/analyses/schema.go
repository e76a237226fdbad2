package analyses

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const replySchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": "number", "minimum": 0, "maximum": 100},
    "scoreExplanation": {"type": "string"},
    "problems": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	replySchemaOnce sync.Once
	replySchema     *jsonschema.Schema
	replySchemaErr  error
)

func compiledReplySchema() (*jsonschema.Schema, error) {
	replySchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("reply.json", strings.NewReader(replySchemaJSON)); err != nil {
			replySchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		replySchema, replySchemaErr = compiler.Compile("reply.json")
	})
	return replySchema, replySchemaErr
}

// schemaIssues lists the ways a decoded reply departs from the expected
// shape, sorted. A nil result means it conforms.
func schemaIssues(v any) []string {
	schema, err := compiledReplySchema()
	if err != nil {
		return []string{err.Error()}
	}
	err = schema.Validate(v)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}
	var issues []string
	collectLeafIssues(verr, &issues)
	sort.Strings(issues)
	return issues
}

func collectLeafIssues(verr *jsonschema.ValidationError, out *[]string) {
	if len(verr.Causes) == 0 {
		loc := verr.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, verr.Message))
		return
	}
	for _, cause := range verr.Causes {
		collectLeafIssues(cause, out)
	}
}
