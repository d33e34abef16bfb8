// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activity registry: %w", err)
	}
	return ParseRegistry(data)
}

func ParseRegistry(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}
	return &reg, nil
}

// Validate checks the structural rules the worker manager relies on: unique,
// non-empty task types, known implementation states, parseable timeouts and
// non-negative retries. Input schemas are compiled separately by the validator.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]string, len(r.Activities))
	for _, a := range r.Activities {
		if a.TaskType == "" {
			return fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if other, ok := seen[a.TaskType]; ok {
			return fmt.Errorf("duplicate taskType %q (activities %q and %q)", a.TaskType, other, a.ID)
		}
		seen[a.TaskType] = a.ID

		switch a.ImplementationStatus {
		case "", StatusImplemented, StatusPlanned, StatusDeprecated:
		default:
			return fmt.Errorf("activity %s: unknown implementationStatus %q", a.TaskType, a.ImplementationStatus)
		}
		if _, err := a.TimeoutDuration(); err != nil {
			return err
		}
		if a.Retries < 0 {
			return fmt.Errorf("activity %s: negative retries", a.TaskType)
		}
	}
	return nil
}

// Find returns the activity registered for a task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TaskTypes lists the implemented task types in registry order.
func (r *ActivityRegistry) TaskTypes() []string {
	var out []string
	for _, a := range r.Activities {
		if a.Implemented() {
			out = append(out, a.TaskType)
		}
	}
	return out
}
