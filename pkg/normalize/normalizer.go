// Package normalize validates and canonicalizes raw analyzer output into
// well-formed Finding records, quarantining malformed entries without
// failing the task they came from.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/revu/pkg/domain/lens"
	"github.com/felixgeelhaar/revu/pkg/domain/review"
)

// findingSchemaJSON validates a single candidate finding entry. The locator
// accepts either a structured object or a "path:section" shorthand string.
const findingSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["category", "severity", "locator", "description"],
  "properties": {
    "category": { "type": "string", "minLength": 1 },
    "severity": { "type": "string", "enum": ["info", "minor", "major", "critical"] },
    "locator": {
      "oneOf": [
        { "type": "string", "minLength": 1 },
        {
          "type": "object",
          "required": ["path"],
          "properties": {
            "path": { "type": "string", "minLength": 1 },
            "start_line": { "type": "integer", "minimum": 0 },
            "end_line": { "type": "integer", "minimum": 0 },
            "section": { "type": "string" }
          }
        }
      ]
    },
    "description": { "type": "string", "minLength": 1 },
    "confidence": { "type": "number", "minimum": 0, "maximum": 1 },
    "suggested_fix": { "type": "string" }
  }
}`

var findingSchemaLoader = gojsonschema.NewStringLoader(findingSchemaJSON)

// Normalizer turns raw task output into validated findings.
type Normalizer struct {
	categories map[string]bool
}

// New creates a normalizer bound to the caller-supplied category set.
func New(categories []string) *Normalizer {
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return &Normalizer{categories: set}
}

// Normalize processes every succeeded task's raw output. Entries failing
// validation land in the quarantine list tagged with the offending task;
// valid siblings proceed normally. Finding ids are deterministic per task
// (task id plus position), so replaying from persisted tasks reproduces the
// same finding set.
func (n *Normalizer) Normalize(tasks []review.AnalysisTask) ([]review.Finding, []review.QuarantinedOutput) {
	var findings []review.Finding
	var quarantined []review.QuarantinedOutput

	for _, task := range tasks {
		if task.Status != review.TaskSucceeded {
			continue
		}
		tf, tq := n.normalizeTask(task)
		findings = append(findings, tf...)
		quarantined = append(quarantined, tq...)
	}
	return findings, quarantined
}

func (n *Normalizer) normalizeTask(task review.AnalysisTask) ([]review.Finding, []review.QuarantinedOutput) {
	raw := task.RawOutput
	if len(raw) == 0 {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, []review.QuarantinedOutput{{
			TaskID: task.ID,
			LensID: task.LensID,
			Raw:    string(raw),
			Reason: fmt.Sprintf("output is not a JSON array: %v", err),
		}}
	}

	var findings []review.Finding
	var quarantined []review.QuarantinedOutput
	for i, entry := range entries {
		finding, err := n.normalizeEntry(task, i, entry)
		if err != nil {
			quarantined = append(quarantined, review.QuarantinedOutput{
				TaskID: task.ID,
				LensID: task.LensID,
				Raw:    string(entry),
				Reason: err.Error(),
			})
			continue
		}
		findings = append(findings, finding)
	}
	return findings, quarantined
}

func (n *Normalizer) normalizeEntry(task review.AnalysisTask, index int, entry json.RawMessage) (review.Finding, error) {
	result, err := gojsonschema.Validate(findingSchemaLoader, gojsonschema.NewBytesLoader(entry))
	if err != nil {
		return review.Finding{}, &review.ValidationError{TaskID: task.ID, Reason: fmt.Sprintf("schema validation failed: %v", err)}
	}
	if !result.Valid() {
		return review.Finding{}, &review.ValidationError{TaskID: task.ID, Reason: describeViolations(result)}
	}

	var raw struct {
		lens.RawFinding
		Locator json.RawMessage `json:"locator"`
	}
	if err := json.Unmarshal(entry, &raw); err != nil {
		return review.Finding{}, &review.ValidationError{TaskID: task.ID, Reason: fmt.Sprintf("decode failed: %v", err)}
	}

	if !n.categories[raw.Category] {
		return review.Finding{}, &review.ValidationError{TaskID: task.ID, Reason: fmt.Sprintf("category %q is not in the configured category set", raw.Category)}
	}
	severity, err := review.ParseSeverity(raw.Severity)
	if err != nil {
		return review.Finding{}, &review.ValidationError{TaskID: task.ID, Reason: err.Error()}
	}

	locator, err := parseLocator(raw.Locator)
	if err != nil {
		return review.Finding{}, &review.ValidationError{TaskID: task.ID, Reason: err.Error()}
	}

	return review.Finding{
		ID:           fmt.Sprintf("%s-f%03d", task.ID, index),
		TaskID:       task.ID,
		Category:     raw.Category,
		Severity:     severity,
		Locator:      locator,
		Description:  raw.Description,
		Confidence:   raw.Confidence,
		SuggestedFix: raw.SuggestedFix,
	}, nil
}

// parseLocator accepts either the structured object form or the
// "path:section" shorthand analyzers commonly emit.
func parseLocator(raw json.RawMessage) (review.Locator, error) {
	var shorthand string
	if err := json.Unmarshal(raw, &shorthand); err == nil {
		path, section, _ := strings.Cut(shorthand, ":")
		loc := review.Locator{Path: path, Section: section}
		if loc.IsZero() {
			return review.Locator{}, fmt.Errorf("locator cannot be empty")
		}
		return loc, nil
	}

	var structured review.Locator
	if err := json.Unmarshal(raw, &structured); err != nil {
		return review.Locator{}, fmt.Errorf("locator is neither a string nor an object: %w", err)
	}
	if structured.IsZero() {
		return review.Locator{}, fmt.Errorf("locator cannot be empty")
	}
	return structured, nil
}

func describeViolations(result *gojsonschema.Result) string {
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
