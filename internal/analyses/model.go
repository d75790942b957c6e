package analyses

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the validated match analysis returned to the caller.
//
// Required fields mirror the completion schema: match_score (0-100),
// strengths, missing_skills, improvement_suggestions, summary. The
// remaining fields are optional enrichments the model may include.
type Result struct {
	MatchScore             int      `json:"match_score"`
	Strengths              []string `json:"strengths"`
	MissingSkills          []string `json:"missing_skills"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
	Summary                string   `json:"summary"`

	ATSCompatibilityScore *int     `json:"ats_compatibility_score,omitempty"`
	FinalRecommendation   string   `json:"final_recommendation,omitempty"`
	InterviewQuestions    []string `json:"interview_questions,omitempty"`
	DetailedNarrative     []string `json:"detailed_narrative,omitempty"`
}

var requiredFields = []string{
	"match_score",
	"strengths",
	"missing_skills",
	"improvement_suggestions",
	"summary",
}

// ParseResult decodes and validates a raw completion payload. Markdown
// code fences and surrounding prose are tolerated; schema violations
// are not.
func ParseResult(raw json.RawMessage) (Result, error) {
	content := extractJSONObject(string(raw))
	if content == "" {
		return Result{}, fmt.Errorf("%w: no JSON object found", ErrInvalidJSON)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	var result Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		// Present but mistyped is the same failure class as absent.
		return Result{}, fmt.Errorf("%w: %v", ErrMissingField, err)
	}

	if err := validateResult(result); err != nil {
		return Result{}, err
	}
	return result, nil
}

func validateResult(r Result) error {
	if r.MatchScore < 0 || r.MatchScore > 100 {
		return fmt.Errorf("%w: match_score out of range: %d", ErrMissingField, r.MatchScore)
	}
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("%w: summary is empty", ErrMissingField)
	}
	if r.Strengths == nil || r.MissingSkills == nil || r.ImprovementSuggestions == nil {
		return fmt.Errorf("%w: list fields must be arrays", ErrMissingField)
	}
	if r.ATSCompatibilityScore != nil {
		if s := *r.ATSCompatibilityScore; s < 0 || s > 100 {
			return fmt.Errorf("%w: ats_compatibility_score out of range: %d", ErrMissingField, s)
		}
	}
	return nil
}

// extractJSONObject strips markdown fences and returns the outermost
// JSON object in the content, or "" when none exists.
func extractJSONObject(content string) string {
	if idx := strings.Index(content, "```json"); idx >= 0 {
		rest := content[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			content = rest[:end]
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			content = rest[:end]
		}
	}

	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
