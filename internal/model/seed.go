package model

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seeds.yaml
var builtinSeeds []byte

type seedFile struct {
	Parks []Park `yaml:"parks"`
}

// SeedParks returns the built-in starting parks.
func SeedParks() []Park {
	parks, err := ParseSeeds(builtinSeeds)
	if err != nil {
		panic(fmt.Sprintf("model: built-in seeds: %v", err))
	}
	return parks
}

// LoadSeedFile reads parks from a YAML file with the same layout as the
// built-in seeds.
func LoadSeedFile(path string) ([]Park, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}
	parks, err := ParseSeeds(data)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return parks, nil
}

// ParseSeeds decodes a YAML seed document. Unknown urgencies and statuses
// are coerced to their defaults, and missing volunteer lists become empty.
// Duplicate park IDs, or duplicate task IDs within a park, are rejected.
func ParseSeeds(data []byte) ([]Park, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding seeds: %w", err)
	}

	parkIDs := make(map[string]bool, len(doc.Parks))
	for i := range doc.Parks {
		p := &doc.Parks[i]
		if p.ID == "" {
			return nil, fmt.Errorf("park %d has no id", i)
		}
		if parkIDs[p.ID] {
			return nil, fmt.Errorf("duplicate park id %q", p.ID)
		}
		parkIDs[p.ID] = true

		taskIDs := make(map[string]bool, len(p.Tasks))
		for j := range p.Tasks {
			t := &p.Tasks[j]
			if t.ID == "" {
				return nil, fmt.Errorf("park %q: task %d has no id", p.ID, j)
			}
			if taskIDs[t.ID] {
				return nil, fmt.Errorf("park %q: duplicate task id %q", p.ID, t.ID)
			}
			taskIDs[t.ID] = true

			t.Urgency = ParseUrgency(string(t.Urgency))
			switch t.Status {
			case StatusOpen, StatusInProgress, StatusCompleted:
			default:
				t.Status = StatusOpen
			}
			if t.Volunteers == nil {
				t.Volunteers = []string{}
			}
			t.Volunteers = dedupe(t.Volunteers)
		}
	}
	return doc.Parks, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
