// internal/workers/revenue/export-insights-csv/models.go
package exportinsightscsv

import "rms-insight-workers/internal/models"

type Input struct {
	Rows         []models.InsightRow `json:"rows"`
	Recipients   []string            `json:"recipients,omitempty"`
	Subject      string              `json:"subject,omitempty"`
	PropertyName string              `json:"propertyName,omitempty"`
}

type Output struct {
	CSV       string `json:"csv"`
	RowCount  int    `json:"rowCount"`
	Emailed   bool   `json:"emailed"`
	MessageID string `json:"messageId,omitempty"`
}
