// Package insights derives the business insights table of the revenue
// dashboard: one row per check-in date joining demand, OTA rank, calendar,
// parity and rate positioning data, with prioritised statements and an
// urgency ordering. Everything here is pure; callers own all I/O.
package insights

import (
	"strings"

	"rms-insight-workers/internal/models"
)

const (
	DefaultBenchmarkChannel     = "Brand.com"
	DefaultMaxRankedCompetitors = 10
)

// Inputs are the per-window datasets. Demand, parity and rate slices are
// index aligned with Rate.EventEntity; events, holidays and OTA ranks are
// matched by date.
type Inputs struct {
	Demand   []models.DemandRecord  `json:"demand"`
	OtaRank  []models.OtaRankRecord `json:"otaRank"`
	Events   []models.EventRecord   `json:"events"`
	Holidays []models.HolidayRecord `json:"holidays"`
	Parity   *models.ParityRecord   `json:"parity,omitempty"`
	Rate     *models.RateRecord     `json:"rate,omitempty"`
}

type Options struct {
	// Channels is the dashboard channel filter.
	Channels []string `json:"channels"`
	// SelectedProperty limits OTA rank entries to one property. Empty keeps all.
	SelectedProperty string `json:"selectedProperty"`
	BenchmarkChannel string `json:"benchmarkChannel,omitempty"`
	// OtaRankEnabled gates the rank-drop statement behind the subscription feature.
	OtaRankEnabled       bool `json:"otaRankEnabled"`
	MaxRankedCompetitors int  `json:"maxRankedCompetitors,omitempty"`
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.BenchmarkChannel) == "" {
		o.BenchmarkChannel = DefaultBenchmarkChannel
	}
	if o.MaxRankedCompetitors <= 0 {
		o.MaxRankedCompetitors = DefaultMaxRankedCompetitors
	}
	return o
}

// SelectedChannel returns the non-benchmark channel when the filter holds
// exactly the benchmark plus one other channel. Only then does parity and OTA
// rank logic switch to single-channel mode.
func (o Options) SelectedChannel() (string, bool) {
	o = o.withDefaults()
	if len(o.Channels) != 2 {
		return "", false
	}
	a, b := strings.TrimSpace(o.Channels[0]), strings.TrimSpace(o.Channels[1])
	switch o.BenchmarkChannel {
	case a:
		return b, true
	case b:
		return a, true
	}
	return "", false
}
