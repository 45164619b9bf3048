// Package parse turns untrusted model output into domain records. Nothing in
// here returns an error: malformed input degrades to defaults or to an
// empty result.
package parse

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/community-roots/internal/model"
)

const (
	DefaultTaskTitle       = "New Task"
	DefaultTaskDescription = "Description pending"
)

// suggestion is the wire shape of one item in the suggestion array. Fields
// stay raw so a value of the wrong JSON type only loses that field.
type suggestion struct {
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	Urgency     json.RawMessage `json:"urgency"`
}

// Suggestions converts a JSON array of {title, description, urgency} objects
// into new open tasks dated batch. An empty or non-array payload yields an
// empty slice. Items that are not objects are skipped; the IDs of the
// remaining items keep their original array index.
func Suggestions(payload string, batch time.Time) []model.Task {
	payload = stripCodeFence(payload)
	if payload == "" {
		return []model.Task{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return []model.Task{}
	}

	date := batch.Format(model.DateLayout)
	stamp := batch.UnixMilli()

	tasks := make([]model.Task, 0, len(items))
	for i, raw := range items {
		if string(raw) == "null" {
			continue
		}
		var s suggestion
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		tasks = append(tasks, model.Task{
			ID:          fmt.Sprintf("gen-%d-%d", stamp, i),
			Title:       orDefault(jsonString(s.Title), DefaultTaskTitle),
			Description: orDefault(jsonString(s.Description), DefaultTaskDescription),
			Status:      model.StatusOpen,
			Volunteers:  []string{},
			Date:        date,
			Urgency:     model.ParseUrgency(jsonString(s.Urgency)),
		})
	}
	return tasks
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// jsonString returns raw as a string when it holds a JSON string. Missing
// fields, null and any other type read as "".
func jsonString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// stripCodeFence removes a surrounding ``` or ```json fence, which some
// models emit even when asked for raw JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
