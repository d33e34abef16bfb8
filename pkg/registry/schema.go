// pkg/registry/schema.go
package registry

import (
	"fmt"
	"time"
)

// Implementation states an activity can declare.
const (
	StatusImplemented = "implemented"
	StatusPlanned     = "planned"
	StatusDeprecated  = "deprecated"
)

// ActivityRegistry describes every job type the workers serve, with the JSON
// schema each job's variables must satisfy.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Tags                 []string               `json:"tags"`
}

// Implemented reports whether a worker serves this activity. An empty status
// counts as implemented.
func (a Activity) Implemented() bool {
	return a.ImplementationStatus == "" || a.ImplementationStatus == StatusImplemented
}

// TimeoutDuration parses Timeout ("30s", "2m"). Zero means unset.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("activity %s: invalid timeout %q: %w", a.TaskType, a.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("activity %s: negative timeout %q", a.TaskType, a.Timeout)
	}
	return d, nil
}
