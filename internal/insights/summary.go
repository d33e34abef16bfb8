package insights

import "rms-insight-workers/internal/models"

// Summary aggregates a built table for logging and alerting.
type Summary struct {
	Rows               int         `json:"rows"`
	Statements         int         `json:"statements"`
	ByPriority         map[int]int `json:"byPriority"`
	ClosedVsAvgCompset int         `json:"closedVsAvgCompset"`
	ClosedCompsetDays  int         `json:"closedCompsetDays"`
	EventDays          int         `json:"eventDays"`
	HolidayDays        int         `json:"holidayDays"`
	OtaRankDrops       int         `json:"otaRankDrops"`
}

func Summarize(rows []models.InsightRow) Summary {
	s := Summary{Rows: len(rows), ByPriority: map[int]int{}}
	for _, r := range rows {
		s.Statements += len(r.Statements)
		for _, st := range r.Statements {
			s.ByPriority[st.Priority]++
		}
		if r.ClosedAgainstAvgCompset() {
			s.ClosedVsAvgCompset++
		}
		if r.IsBoolMoreThanFiftyCompClosedPercentage {
			s.ClosedCompsetDays++
		}
		if r.IsEventThere {
			s.EventDays++
		}
		if r.IsHolidayThere {
			s.HolidayDays++
		}
		if r.ChangeInOtaRank < 0 {
			s.OtaRankDrops++
		}
	}
	return s
}

// UrgentRows returns the rows whose most urgent statement is about closed
// inventory (priority below zero).
func UrgentRows(rows []models.InsightRow) []models.InsightRow {
	var urgent []models.InsightRow
	for _, r := range rows {
		if top, ok := r.TopPriority(); ok && top < models.PriorityRateVariance {
			urgent = append(urgent, r)
		}
	}
	return urgent
}
