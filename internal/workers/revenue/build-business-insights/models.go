// internal/workers/revenue/build-business-insights/models.go
package buildbusinessinsights

import (
	"rms-insight-workers/internal/insights"
	"rms-insight-workers/internal/models"
)

type Input struct {
	insights.Inputs
	PropertyID       string      `json:"propertyId,omitempty"`
	Channels         []string    `json:"channels"`
	SelectedProperty models.Text `json:"selectedProperty"`
	// OtaRankEnabled overrides the configured feature flag when set.
	OtaRankEnabled *bool `json:"otaRankEnabled,omitempty"`
}

type Output struct {
	RunID    string              `json:"runId"`
	Rows     []models.InsightRow `json:"rows"`
	RowCount int                 `json:"rowCount"`
	Summary  insights.Summary    `json:"summary"`
	Cached   bool                `json:"cached"`
}

// cachedTable is what the result cache stores per input fingerprint.
type cachedTable struct {
	Rows    []models.InsightRow `json:"rows"`
	Summary insights.Summary    `json:"summary"`
}
