// pkg/registry/registry.go
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Save writes the registry as indented JSON, creating parent directories.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		}
		ids[a.ID] = true

		if a.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		}
		if a.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
		if a.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", a.ID)
		}
		if taskTypes[a.TaskType] {
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		}
		taskTypes[a.TaskType] = true
	}
	return nil
}

// Drift lists the differences between a committed registry and the one
// generated from code. LastUpdated is ignored. An empty result means the
// committed file is current.
func Drift(committed, current *ActivityRegistry) []string {
	byID := func(r *ActivityRegistry) map[string]Activity {
		m := make(map[string]Activity, len(r.Activities))
		for _, a := range r.Activities {
			m[a.ID] = a
		}
		return m
	}
	have, want := byID(committed), byID(current)

	var out []string
	for id, w := range want {
		h, ok := have[id]
		switch {
		case !ok:
			out = append(out, fmt.Sprintf("%s: missing from registry", id))
		case !sameActivity(h, w):
			out = append(out, fmt.Sprintf("%s: out of date", id))
		}
	}
	for id := range have {
		if _, ok := want[id]; !ok {
			out = append(out, fmt.Sprintf("%s: no longer implemented", id))
		}
	}
	if committed.Version != current.Version {
		out = append(out, fmt.Sprintf("version: registry has %q, code has %q", committed.Version, current.Version))
	}
	sort.Strings(out)
	return out
}

func sameActivity(a, b Activity) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}
