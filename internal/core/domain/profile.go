package domain

import "strings"

// ProfileDocument is a cleaned key-value profile as returned by a profile data source.
// Values are JSON scalars, arrays or objects; empty values are never present.
type ProfileDocument map[string]any

// DeniedProfileFields are dropped from every profile before it reaches the model.
var DeniedProfileFields = []string{"certifications"}

// CleanProfile drops empty values and denied keys. The input map is not modified.
func CleanProfile(raw map[string]any) ProfileDocument {
	doc := make(ProfileDocument, len(raw))
	for k, v := range raw {
		if isEmptyValue(v) || isDenied(k) {
			continue
		}
		doc[k] = v
	}
	return doc
}

// PhotoURL returns the profile picture URL, if the document has one.
func (d ProfileDocument) PhotoURL() (string, bool) {
	v, ok := d["photoUrl"].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func isDenied(key string) bool {
	for _, k := range DeniedProfileFields {
		if k == key {
			return true
		}
	}
	return false
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// SummaryResult is the structured output of the extraction stage.
type SummaryResult struct {
	Summary string   `json:"summary"`
	Facts   []string `json:"facts"`
}

// IceBreaker is the terminal artifact of one pipeline run.
type IceBreaker struct {
	Summary    SummaryResult `json:"summary_and_facts"`
	PhotoURL   *string       `json:"photo_url,omitempty"`
	ProfileURL string        `json:"profile_url"`
	Steps      []ActionStep  `json:"steps"`
	TraceID    TraceID       `json:"trace_id,omitempty"`
}
