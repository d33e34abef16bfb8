// internal/workers/revenue/publish-insight-alerts/models.go
package publishinsightalerts

import "rms-insight-workers/internal/models"

type Input struct {
	PropertyID   string              `json:"propertyId,omitempty"`
	PropertyName string              `json:"propertyName,omitempty"`
	Rows         []models.InsightRow `json:"rows"`
}

type Output struct {
	Published  int      `json:"published"`
	Skipped    int      `json:"skipped"`
	MessageIDs []string `json:"messageIds"`
}
