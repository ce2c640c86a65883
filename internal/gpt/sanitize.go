// internal/gpt/sanitize.go
package gpt

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/MinHeokChoi/meal-agent-mvp/internal/models"
)

// ErrUnparseable means the model's text contained no usable JSON object.
var ErrUnparseable = errors.New("model response contains no parseable JSON object")

// Estimate is the structured answer the model is asked to produce for one
// meal photo.
type Estimate struct {
	Foods       []string      `json:"foods"`
	Macros      models.Macros `json:"macros"`
	Diagnosis   string        `json:"diagnosis"`
	NextMealTip string        `json:"next_meal_tip"`
}

// ParseEstimate extracts an Estimate from the model's raw text. It first
// tries the whole text as JSON, then strips markdown fences and tries the
// substring from the first "{" to the last "}". It never retries the
// upstream call; exhausting both attempts yields ErrUnparseable.
func ParseEstimate(raw string) (*Estimate, error) {
	var est Estimate
	if err := json.Unmarshal([]byte(raw), &est); err == nil {
		return &est, nil
	}

	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, ErrUnparseable
	}

	est = Estimate{}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &est); err != nil {
		return nil, ErrUnparseable
	}
	return &est, nil
}
