// Package sources loads the per-window insight datasets from the rate
// warehouse (Postgres) and the market calendar (Elasticsearch).
package sources

import (
	"fmt"
	"strings"

	"rms-insight-workers/internal/common/errors"
	"rms-insight-workers/internal/models"
)

const DefaultMaxWindowDays = 366

// Request selects one subscriber property and an inclusive check-in window.
type Request struct {
	PropertyID string      `json:"propertyId"`
	From       models.Date `json:"startDate"`
	To         models.Date `json:"endDate"`
}

// Validate rejects empty properties, inverted windows and windows longer
// than maxDays.
func (r Request) Validate(maxDays int) error {
	if strings.TrimSpace(r.PropertyID) == "" {
		return errors.NewInputInvalidError("propertyId is required")
	}
	if r.From.IsZero() || r.To.IsZero() {
		return errors.NewInputInvalidError("startDate and endDate are required")
	}
	if r.To.Before(r.From.Time) {
		return errors.NewInputInvalidError(fmt.Sprintf("endDate %s is before startDate %s", r.To, r.From))
	}
	if maxDays <= 0 {
		maxDays = DefaultMaxWindowDays
	}
	if days := r.Days(); days > maxDays {
		return errors.NewInputInvalidError(fmt.Sprintf("window of %d days exceeds the limit of %d", days, maxDays))
	}
	return nil
}

// Days counts the days of the window, both ends included.
func (r Request) Days() int {
	return int(r.To.Sub(r.From.Time).Hours()/24) + 1
}
