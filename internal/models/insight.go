// internal/models/insight.go
package models

// Statement priorities, most urgent first.
const (
	PriorityClosedVsAvgCompset = -2
	PriorityClosedCompset      = -1
	PriorityRateVariance       = 0
	PriorityParityLoss         = 1
	PriorityDemandLevel        = 2
	PriorityOtaRankDrop        = 3
)

// Parity statuses for a single selected channel.
const (
	ParityWin  = "W"
	ParityMeet = "M"
	ParityLoss = "L"
)

// Demand levels.
const (
	DemandLow    = "low"
	DemandMedium = "medium"
	DemandHigh   = "high"
)

type Statement struct {
	Statement string `json:"statement"`
	Priority  int    `json:"priority"`
}

// InsightRow is one check-in date of the business insights table.
// Pointer fields are nil when the signal has no data for the day.
type InsightRow struct {
	CheckinDate          Date   `json:"checkinDate"`
	FormattedCheckInDate string `json:"formattedCheckInDate"`
	FormatDate           string `json:"formatDate"`
	CheckInDateTimeStamp int64  `json:"checkInDateTimeStamp"`

	Event          []EventRecord  `json:"event"`
	IsEventThere   bool           `json:"isEventThere"`
	Holiday        *HolidayRecord `json:"holiday,omitempty"`
	IsHolidayThere bool           `json:"isHolidayThere"`

	OtaRank             *int   `json:"otaRank"`
	OtaChannel          string `json:"otaChannel,omitempty"`
	ChangeInOtaRank     int    `json:"changeInOtaRank"`
	IsChangeOtaRank     bool   `json:"isChangeOtaRank"`
	IsZeroChangeOtaRank bool   `json:"isZeroChangeotaRank"`

	Subscriber         *int `json:"subscriber"`
	IsSubscriberClosed bool `json:"isSubscriberClosed"`
	AvgCompset         *int `json:"avgCompset"`
	IsAvgCompsetThere  bool `json:"isAvgCompsetThere"`

	PercentageChangeInSubscriberAndAverageRate               *int `json:"percentageChangeInSubscriberAndAverageRate"`
	IsSubscriberGreaterThanAvg                               bool `json:"isSubscriberGreaterthanAvg"`
	IsPercentageChangeInSubscriberAndAverageRateGreaterThan2 bool `json:"isPercentageChangeInSubscriberAndAverageRateGreaterthan2"`

	Rank                                    *int    `json:"rank"`
	TotalCompWithRate                       int     `json:"totalCompWithRate"`
	MoreThanFiftyCompClosedPercentage       float64 `json:"moreThanFiftyCompClosedPercentage"`
	IsBoolMoreThanFiftyCompClosedPercentage bool    `json:"isBoolMoreThanFiftyCompClosedPercentage"`

	DemandIndex        *int   `json:"demandIndex"`
	DemandLevel        string `json:"demandLevel,omitempty"`
	Airline            *int   `json:"airline"`
	IsDemandIndexThere bool   `json:"isdemandIndexthere"`

	ParityScore         string   `json:"parityScore,omitempty"`
	ParityScoreAbsolute *float64 `json:"parityScoreAbsolute"`
	IsParityScoreThere  bool     `json:"isParityScoreThere"`

	Statements []Statement `json:"statements"`
}

// ClosedAgainstAvgCompset reports the dominant urgency signal: the subscriber
// sells nothing while the compset still has an average rate.
func (r InsightRow) ClosedAgainstAvgCompset() bool {
	return r.IsSubscriberClosed && r.IsAvgCompsetThere
}

// TopPriority returns the most urgent statement priority, or false when the
// row carries no statements.
func (r InsightRow) TopPriority() (int, bool) {
	if len(r.Statements) == 0 {
		return 0, false
	}
	top := r.Statements[0].Priority
	for _, s := range r.Statements[1:] {
		if s.Priority < top {
			top = s.Priority
		}
	}
	return top, true
}
