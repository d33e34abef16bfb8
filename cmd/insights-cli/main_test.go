package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// two days: the 11th has the subscriber closed while the average compset
// is priced, so it sorts ahead of the 10th.
const testDocument = `{
  "demand": [
    {"checkinDate": "2024-03-10", "demandIndex": 72, "oagCapacity": 1800},
    {"checkinDate": "2024-03-11", "demandIndex": 35, "oagCapacity": 900}
  ],
  "otaRank": [],
  "events": [{"name": "Spring Fair", "dateFrom": "2024-03-10", "dateTo": "2024-03-10"}],
  "holidays": [],
  "rate": {
    "eventEntity": [{"eventDate": "2024-03-10"}, {"eventDate": "2024-03-11"}],
    "pricePositioningEntites": [
      {"propertyID": 101, "propertyName": "Harbour Hotel", "propertyType": 0,
       "subscriberPropertyRate": [{"rate": "120"}, {"rate": "Closed"}]},
      {"propertyID": "avg", "propertyName": "Average Compset", "propertyType": 2,
       "subscriberPropertyRate": [{"rate": "100"}, {"rate": "110"}]}
    ]
  },
  "channels": ["Brand.com"]
}`

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inputs.json")
	require.NoError(t, os.WriteFile(path, []byte(testDocument), 0o600))
	return path
}

// ==========================
// build
// ==========================

func TestBuild_JSONFromStdin(t *testing.T) {
	out, err := runCLI(t, testDocument, "build", "--input", "-")
	require.NoError(t, err)

	var result buildResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "11-03-2024", result.Rows[0].FormattedCheckInDate)
	assert.Equal(t, "10-03-2024", result.Rows[1].FormattedCheckInDate)
	assert.Equal(t, 2, result.Summary.Rows)
	assert.Equal(t, 1, result.Summary.ClosedVsAvgCompset)
	assert.Equal(t, 1, result.Summary.EventDays)
}

func TestBuild_CSVFromFile(t *testing.T) {
	out, err := runCLI(t, "", "build", "--input", writeDocument(t), "--format", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "check_in_date", records[0][0])
	assert.Equal(t, "11-03-2024", records[1][0])
}

func TestBuild_RecordsHistory(t *testing.T) {
	history := filepath.Join(t.TempDir(), "runs.db")
	input := writeDocument(t)

	_, err := runCLI(t, "", "build", "--input", input, "--history", history)
	require.NoError(t, err)

	out, err := runCLI(t, "", "history", "--history", history)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "URGENT")
	assert.Contains(t, lines[1], input)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr string
	}{
		{
			name:    "unknown format",
			stdin:   testDocument,
			args:    []string{"build", "--format", "xml"},
			wantErr: "unsupported format",
		},
		{
			name:    "malformed input",
			stdin:   "{not json",
			args:    []string{"build"},
			wantErr: "decode input",
		},
		{
			name:    "missing file",
			args:    []string{"build", "--input", filepath.Join(t.TempDir(), "absent.json")},
			wantErr: "open input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ==========================
// registry validate
// ==========================

func TestRegistryValidate(t *testing.T) {
	out, err := runCLI(t, "", "registry", "validate", "--path", "../../configs/activity-registry.json")
	require.NoError(t, err)

	assert.Contains(t, out, "load-insight-inputs")
	assert.Contains(t, out, "activities valid")
}

func TestRegistryValidate_DuplicateTaskType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	body := `{"version": "1", "activities": [
	  {"id": "a", "taskType": "build-business-insights"},
	  {"id": "b", "taskType": "build-business-insights"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := runCLI(t, "", "registry", "validate", "--path", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate taskType")
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "insights-cli dev\n", out)
}
