package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegistry_Find(t *testing.T) {
	reg, err := ParseRegistry([]byte(`{
		"version": "1.0.0",
		"activities": [
			{"id": "a", "taskType": "export-insights-csv", "retries": 3},
			{"id": "b", "taskType": "publish-insight-alerts", "timeout": "30s"}
		]
	}`))
	require.NoError(t, err)

	activity, ok := reg.Find("publish-insight-alerts")
	require.True(t, ok)
	assert.Equal(t, "b", activity.ID)
	assert.Equal(t, "30s", activity.Timeout)

	_, ok = reg.Find("build-response")
	assert.False(t, ok)
}

func TestLoadRegistry_Repository(t *testing.T) {
	reg, err := LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 4)

	build, ok := reg.Find("build-business-insights")
	require.True(t, ok)
	assert.Contains(t, build.ErrorCodes, "INSIGHT_INPUT_INVALID")
}

func TestLoadRegistry_RepositoryIsValid(t *testing.T) {
	reg, err := LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)

	require.NoError(t, reg.Validate())
	assert.Equal(t, []string{
		"load-insight-inputs",
		"build-business-insights",
		"export-insights-csv",
		"publish-insight-alerts",
	}, reg.TaskTypes())
}

func TestActivityRegistry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing task type",
			body:    `{"activities": [{"id": "a"}]}`,
			wantErr: `activity "a" has no taskType`,
		},
		{
			name:    "duplicate task type",
			body:    `{"activities": [{"id": "a", "taskType": "t"}, {"id": "b", "taskType": "t"}]}`,
			wantErr: `duplicate taskType "t"`,
		},
		{
			name:    "unknown status",
			body:    `{"activities": [{"id": "a", "taskType": "t", "implementationStatus": "done"}]}`,
			wantErr: "unknown implementationStatus",
		},
		{
			name:    "bad timeout",
			body:    `{"activities": [{"id": "a", "taskType": "t", "timeout": "soon"}]}`,
			wantErr: `invalid timeout "soon"`,
		},
		{
			name:    "negative retries",
			body:    `{"activities": [{"id": "a", "taskType": "t", "retries": -1}]}`,
			wantErr: "negative retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := ParseRegistry([]byte(tt.body))
			require.NoError(t, err)

			err = reg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestActivity_TaskTypesSkipsPlanned(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{TaskType: "a"},
		{TaskType: "b", ImplementationStatus: StatusPlanned},
		{TaskType: "c", ImplementationStatus: StatusImplemented},
	}}
	assert.Equal(t, []string{"a", "c"}, reg.TaskTypes())

	timeout, err := Activity{Timeout: "10s"}.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)
}
