package answer

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ValidationError reports a model response that does not satisfy the
// AnswerPayload contract. Its message always names "schema validation" so
// callers and logs can tell a contract failure from a parser crash.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", e.Reason)
}

var (
	payloadSchemaOnce sync.Once
	payloadSchema     *jsonschema.Resolved
	payloadSchemaErr  error
)

func resolvedPayloadSchema() (*jsonschema.Resolved, error) {
	payloadSchemaOnce.Do(func() {
		schema, err := jsonschema.For[AnswerPayload](nil)
		if err != nil {
			payloadSchemaErr = fmt.Errorf("failed to build payload schema: %w", err)
			return
		}
		payloadSchema, payloadSchemaErr = schema.Resolve(nil)
	})
	return payloadSchema, payloadSchemaErr
}

// extractJSON pulls the first JSON object out of a raw model response,
// tolerating surrounding prose and fenced code blocks.
func extractJSON(raw string) (string, error) {
	s := raw

	// Prefer the contents of a fenced block when present.
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			s = rest[:end]
		}
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", &ValidationError{Reason: "no JSON object in model response"}
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", &ValidationError{Reason: "unterminated JSON object in model response"}
}

// parsePayload extracts and validates an AnswerPayload from a raw model
// response. requireCitation is false when the question ran with empty
// context, since there is nothing the model could have cited.
func parsePayload(raw string, requireCitation bool) (*AnswerPayload, error) {
	text, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	// Validate the untyped tree first so type mismatches surface as
	// contract failures, not decode errors.
	var tree any
	if err := json.Unmarshal([]byte(text), &tree); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}

	schema, err := resolvedPayloadSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(tree); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	var payload AnswerPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("cannot decode payload: %v", err)}
	}

	if payload.PromptVersion != promptVersion {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("promptVersion %q does not match %q", payload.PromptVersion, promptVersion),
		}
	}
	if strings.TrimSpace(payload.Answer) == "" {
		return nil, &ValidationError{Reason: "answer is empty"}
	}
	if requireCitation && len(payload.Citations) == 0 {
		return nil, &ValidationError{Reason: "at least one citation is required"}
	}
	if len(payload.FollowUps) > 3 {
		return nil, &ValidationError{Reason: fmt.Sprintf("%d follow-ups exceed the maximum of 3", len(payload.FollowUps))}
	}

	return &payload, nil
}
