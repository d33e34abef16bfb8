package insights

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rms-insight-workers/internal/models"
)

var csvHeader = []string{
	"check_in_date", "events", "holiday", "ota_rank", "change_in_ota_rank",
	"subscriber_rate", "avg_compset_rate", "rate_variance_pct", "rank", "comp_with_rate",
	"closed_comp_pct", "demand_index", "demand_level", "airline_capacity", "parity", "insights",
}

// WriteCSV writes the rows in their current order with statements flattened
// to plain text and joined by " | ".
func WriteCSV(w io.Writer, rows []models.InsightRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(flattenRow(r)); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", r.FormattedCheckInDate, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func flattenRow(r models.InsightRow) []string {
	events := make([]string, 0, len(r.Event))
	for _, e := range r.Event {
		events = append(events, e.Name)
	}
	holiday := ""
	if r.Holiday != nil {
		holiday = r.Holiday.Name
	}

	subscriber := optionalInt(r.Subscriber)
	if r.IsSubscriberClosed {
		subscriber = models.ClosedRate
	}

	parity := r.ParityScore
	if parity == "" && r.ParityScoreAbsolute != nil {
		parity = strconv.FormatFloat(*r.ParityScoreAbsolute, 'f', -1, 64) + "%"
	}

	variance := ""
	if r.PercentageChangeInSubscriberAndAverageRate != nil {
		variance = strconv.Itoa(*r.PercentageChangeInSubscriberAndAverageRate) + "%"
	}

	statements := make([]string, 0, len(r.Statements))
	for _, s := range r.Statements {
		statements = append(statements, PlainStatement(s.Statement))
	}

	return []string{
		r.FormattedCheckInDate,
		strings.Join(events, "; "),
		holiday,
		optionalInt(r.OtaRank),
		strconv.Itoa(r.ChangeInOtaRank),
		subscriber,
		optionalInt(r.AvgCompset),
		variance,
		optionalInt(r.Rank),
		strconv.Itoa(r.TotalCompWithRate),
		strconv.FormatFloat(r.MoreThanFiftyCompClosedPercentage, 'f', -1, 64),
		optionalInt(r.DemandIndex),
		r.DemandLevel,
		optionalInt(r.Airline),
		parity,
		strings.Join(statements, " | "),
	}
}

// optionalInt renders missing values the way the dashboard does.
func optionalInt(v *int) string {
	if v == nil {
		return "--"
	}
	return strconv.Itoa(*v)
}
