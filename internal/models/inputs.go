// internal/models/inputs.go
package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text accepts either a JSON string or a JSON number and keeps its textual form.
// Upstream services are inconsistent about quoting ids, rates and rank deltas.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(strings.TrimSpace(string(data)))
	return nil
}

func (t Text) String() string { return string(t) }

// PropertyType classifies a rate positioning entity.
type PropertyType int

const (
	PropertyTypeSubscriber PropertyType = 0
	PropertyTypeCompetitor PropertyType = 1
	PropertyTypeAvgCompset PropertyType = 2
)

// ClosedRate is the literal rate value for closed inventory.
const ClosedRate = "Closed"

// DemandRecord is one day of market demand. Nil values mean the day has no
// reading; a JSON null never becomes zero demand.
type DemandRecord struct {
	CheckinDate Date     `json:"checkinDate"`
	DemandIndex *float64 `json:"demandIndex"`
	OagCapacity *float64 `json:"oagCapacity"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

type OtaRankRecord struct {
	Channel      string `json:"channel"`
	PropertyID   Text   `json:"propertyID"`
	CheckInDate  Date   `json:"checkInDate"`
	OtaRank      int    `json:"otaRank"`
	ChangeInRank Text   `json:"changeInRank"`
}

type EventRecord struct {
	Name     string `json:"name"`
	DateFrom Date   `json:"dateFrom"`
	DateTo   Date   `json:"dateTo"`
}

type HolidayRecord struct {
	Name string `json:"name"`
	Date Date   `json:"date"`
}

type ParityDay struct {
	CheckInDate Date     `json:"checkInDate"`
	ParityScore *float64 `json:"parityScore"`
}

type ChannelParityDay struct {
	CheckInDate Date `json:"checkInDate"`
	Rate        Text `json:"rate"`
	IsWin       bool `json:"isWin"`
	IsMeet      bool `json:"isMeet"`
	IsLoss      bool `json:"isLoss"`
}

type ChannelParity struct {
	ChannelName          string             `json:"channelName"`
	CheckInDateWiseRates []ChannelParityDay `json:"checkInDateWiseRates"`
}

// ParityRecord holds the aggregate parity score per day of the window and the
// per-channel win/meet/loss breakdown. DateWiseWinMeetLoss is index aligned
// with the rate axis.
type ParityRecord struct {
	DateWiseWinMeetLoss             []ParityDay     `json:"dateWiseWinMeetLoss"`
	ViolationChannelRatesCollection []ChannelParity `json:"violationChannelRatesCollection"`
}

type EventDate struct {
	EventDate Date `json:"eventDate"`
}

type RateCell struct {
	CheckInDate Date `json:"checkInDate,omitempty"`
	Rate        Text `json:"rate"`
}

type PricePositioningEntity struct {
	PropertyID             Text         `json:"propertyID"`
	PropertyName           string       `json:"propertyName"`
	PropertyType           PropertyType `json:"propertyType"`
	SubscriberPropertyRate []RateCell   `json:"subscriberPropertyRate"`
}

// RateAt returns the raw rate text for the given day index, or "" when the
// entity has no cell for it.
func (p PricePositioningEntity) RateAt(index int) string {
	if index < 0 || index >= len(p.SubscriberPropertyRate) {
		return ""
	}
	return strings.TrimSpace(string(p.SubscriberPropertyRate[index].Rate))
}

// RateRecord is the rate positioning payload. EventEntity defines the
// canonical date axis; every entity's rate slice is index aligned with it.
type RateRecord struct {
	EventEntity              []EventDate              `json:"eventEntity"`
	PricePositioningEntities []PricePositioningEntity `json:"pricePositioningEntites"`
}
