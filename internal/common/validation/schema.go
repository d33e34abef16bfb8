package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"rms-insight-workers/internal/common/errors"
	"rms-insight-workers/pkg/registry"
)

// Validator checks job variables against the input schemas of the activity registry.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles every activity input schema up front so a broken
// registry fails at startup rather than on the first job.
func NewValidator(reg *registry.ActivityRegistry) (*Validator, error) {
	v := &Validator{schemas: map[string]*gojsonschema.Schema{}}
	if reg == nil {
		return v, nil
	}
	for _, activity := range reg.Activities {
		if len(activity.InputSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(activity.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", activity.TaskType, err)
		}
		v.schemas[activity.TaskType] = schema
	}
	return v, nil
}

// HasSchema reports whether a task type has a registered input schema.
func (v *Validator) HasSchema(taskType string) bool {
	if v == nil {
		return false
	}
	_, ok := v.schemas[taskType]
	return ok
}

// ValidateInput validates a raw JSON document. Task types without a schema pass.
func (v *Validator) ValidateInput(taskType string, document []byte) error {
	if !v.HasSchema(taskType) {
		return nil
	}
	result, err := v.schemas[taskType].Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return errors.NewInputInvalidError(fmt.Sprintf("unreadable input: %v", err))
	}
	if result.Valid() {
		return nil
	}
	return errors.NewInputInvalidError(describe(result.Errors()))
}

func describe(resultErrors []gojsonschema.ResultError) string {
	msgs := make([]string, 0, len(resultErrors))
	for _, e := range resultErrors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
