// internal/workers/revenue/load-insight-inputs/models.go
package loadinsightinputs

import (
	"rms-insight-workers/internal/insights"
	"rms-insight-workers/internal/models"
)

type Input struct {
	PropertyID string      `json:"propertyId"`
	StartDate  models.Date `json:"startDate"`
	EndDate    models.Date `json:"endDate"`
}

// Output carries the six datasets under the variable names the build step reads.
type Output struct {
	insights.Inputs
	DayCount int `json:"dayCount"`
}
