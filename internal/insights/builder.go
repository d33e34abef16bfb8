package insights

import (
	"math"
	"strings"

	"rms-insight-workers/internal/models"
)

const (
	rateVarianceThreshold  = 2
	closedMajorityPercent  = 50
	parityLossThreshold    = 60
	lowDemandUpperBound    = 40
	highDemandLowerBound   = 65
	displayDateLayout      = "Mon, 02 Jan"
	formattedCheckInLayout = "02-01-2006"
)

// BuildRows produces one row per entry of in.Rate.EventEntity, in that order.
// Missing or malformed inputs never fail the build: a rate payload without an
// axis yields no rows, and any other missing signal only leaves its flags unset.
// Inputs are not modified.
func BuildRows(in Inputs, opts Options) []models.InsightRow {
	if in.Rate == nil || (len(in.Rate.EventEntity) == 0 && len(in.Rate.PricePositioningEntities) == 0) {
		return []models.InsightRow{}
	}
	opts = opts.withDefaults()
	channel, single := opts.SelectedChannel()

	b := &rowBuilder{
		in:            in,
		opts:          opts,
		channel:       channel,
		singleChannel: single,
	}
	b.indexEntities()

	rows := make([]models.InsightRow, 0, len(in.Rate.EventEntity))
	for i, day := range in.Rate.EventEntity {
		rows = append(rows, b.build(i, day.EventDate))
	}
	return rows
}

type rowBuilder struct {
	in            Inputs
	opts          Options
	channel       string
	singleChannel bool

	subscriber  *models.PricePositioningEntity
	avgCompset  *models.PricePositioningEntity
	compEntries []*models.PricePositioningEntity
}

func (b *rowBuilder) indexEntities() {
	entities := b.in.Rate.PricePositioningEntities
	for i := range entities {
		e := &entities[i]
		switch e.PropertyType {
		case models.PropertyTypeSubscriber:
			if b.subscriber == nil {
				b.subscriber = e
			}
			b.compEntries = append(b.compEntries, e)
		case models.PropertyTypeCompetitor:
			b.compEntries = append(b.compEntries, e)
		case models.PropertyTypeAvgCompset:
			if b.avgCompset == nil {
				b.avgCompset = e
			}
		}
	}
}

func (b *rowBuilder) build(index int, day models.Date) models.InsightRow {
	row := models.InsightRow{
		CheckinDate: day,
		Event:       []models.EventRecord{},
		Statements:  []models.Statement{},
	}
	if !day.IsZero() {
		row.FormattedCheckInDate = day.Format(formattedCheckInLayout)
		row.FormatDate = day.Format(displayDateLayout)
		row.CheckInDateTimeStamp = day.UnixMilli()
	}

	b.matchCalendar(&row, day)
	b.applyOtaRank(&row, day)
	b.applyRates(&row, index)
	b.applyDemand(&row, index)
	b.applyParity(&row, index)

	sortStatements(row.Statements)
	return row
}

func (b *rowBuilder) matchCalendar(row *models.InsightRow, day models.Date) {
	for _, ev := range b.in.Events {
		if day.Within(ev.DateFrom, ev.DateTo) {
			row.Event = append(row.Event, ev)
		}
	}
	row.IsEventThere = len(row.Event) > 0

	for _, h := range b.in.Holidays {
		if day.SameDay(h.Date) {
			holiday := h
			row.Holiday = &holiday
			row.IsHolidayThere = true
			break
		}
	}
}

// applyOtaRank keeps the worst rank movement of the day across channels.
// It is a worst-case pick, not an average: the most negative change wins and
// the first entry wins ties.
func (b *rowBuilder) applyOtaRank(row *models.InsightRow, day models.Date) {
	var (
		found   bool
		worst   int
		rank    int
		channel string
	)
	for _, r := range b.in.OtaRank {
		if b.opts.SelectedProperty != "" && strings.TrimSpace(r.PropertyID.String()) != b.opts.SelectedProperty {
			continue
		}
		if b.singleChannel && !strings.EqualFold(strings.TrimSpace(r.Channel), b.channel) {
			continue
		}
		if !day.SameDay(r.CheckInDate) {
			continue
		}
		change, ok := leadingInt(r.ChangeInRank.String())
		if !ok {
			continue
		}
		if !found || change < worst {
			found, worst, rank, channel = true, change, r.OtaRank, r.Channel
		}
	}
	if !found {
		return
	}

	row.OtaRank = intPtr(rank)
	row.OtaChannel = channel
	row.ChangeInOtaRank = worst
	row.IsChangeOtaRank = worst != 0
	row.IsZeroChangeOtaRank = worst == 0

	if worst < 0 && b.opts.OtaRankEnabled {
		row.Statements = append(row.Statements, otaRankDropStatement(worst, channel))
	}
}

func (b *rowBuilder) applyRates(row *models.InsightRow, index int) {
	subscriberRate, subscriberOK := 0, false
	if b.subscriber != nil {
		raw := b.subscriber.RateAt(index)
		row.IsSubscriberClosed = isClosed(raw)
		if subscriberRate, subscriberOK = positiveRate(raw); subscriberOK {
			row.Subscriber = intPtr(subscriberRate)
		}
	}

	avgRate, avgOK := 0, false
	if b.avgCompset != nil {
		if avgRate, avgOK = positiveRate(b.avgCompset.RateAt(index)); avgOK {
			row.AvgCompset = intPtr(avgRate)
			row.IsAvgCompsetThere = true
		}
	}

	if subscriberOK && avgOK {
		pct := roundInt(float64(subscriberRate-avgRate) / float64(avgRate) * 100)
		row.PercentageChangeInSubscriberAndAverageRate = intPtr(pct)
		row.IsSubscriberGreaterThanAvg = subscriberRate > avgRate
		if abs(pct) > rateVarianceThreshold {
			row.IsPercentageChangeInSubscriberAndAverageRateGreaterThan2 = true
			row.Statements = append(row.Statements, rateVarianceStatement(pct))
		}
	}

	b.applyClosedInventory(row, index, subscriberRate, subscriberOK)

	switch {
	case row.IsSubscriberClosed && row.IsAvgCompsetThere:
		row.Statements = append(row.Statements, closedVsAvgCompsetStatement(avgRate))
	case row.IsBoolMoreThanFiftyCompClosedPercentage:
		row.Statements = append(row.Statements, closedCompsetStatement(row.MoreThanFiftyCompClosedPercentage))
	}
}

// applyClosedInventory counts closed against priced entries over the whole
// compset, while the subscriber's rank only looks at the first
// MaxRankedCompetitors priced entries. Rank 1 is the cheapest rate.
func (b *rowBuilder) applyClosedInventory(row *models.InsightRow, index, subscriberRate int, subscriberOK bool) {
	closed, priced := 0, 0
	ranked := make([]int, 0, b.opts.MaxRankedCompetitors)
	for _, e := range b.compEntries {
		raw := e.RateAt(index)
		if isClosed(raw) {
			closed++
			continue
		}
		rate, ok := positiveRate(raw)
		if !ok {
			continue
		}
		priced++
		if len(ranked) < b.opts.MaxRankedCompetitors {
			ranked = append(ranked, rate)
		}
	}

	if total := closed + priced; total > 0 {
		row.MoreThanFiftyCompClosedPercentage = math.Round(float64(closed)/float64(total)*10000) / 100
	}
	row.IsBoolMoreThanFiftyCompClosedPercentage = row.MoreThanFiftyCompClosedPercentage > closedMajorityPercent
	row.TotalCompWithRate = len(ranked)

	if subscriberOK && len(ranked) > 0 {
		position := 1
		for _, rate := range ranked {
			if rate < subscriberRate {
				position++
			}
		}
		row.Rank = intPtr(position)
	}
}

func (b *rowBuilder) applyDemand(row *models.InsightRow, index int) {
	if index >= len(b.in.Demand) {
		return
	}
	d := b.in.Demand[index]
	if !finite(d.DemandIndex) {
		return
	}

	value := roundInt(*d.DemandIndex)
	row.DemandIndex = intPtr(value)
	row.IsDemandIndexThere = true
	if finite(d.OagCapacity) {
		row.Airline = intPtr(roundInt(*d.OagCapacity))
	}

	row.DemandLevel = ClassifyDemand(*d.DemandIndex)
	row.Statements = append(row.Statements, demandStatement(row.DemandLevel, value))
}

// ClassifyDemand buckets a demand index: below 40 is low, above 65 is high,
// and 40 through 65 inclusive is medium.
func ClassifyDemand(index float64) string {
	switch {
	case index > highDemandLowerBound:
		return models.DemandHigh
	case index < lowDemandUpperBound:
		return models.DemandLow
	default:
		return models.DemandMedium
	}
}

func (b *rowBuilder) applyParity(row *models.InsightRow, index int) {
	if b.in.Parity == nil {
		return
	}
	if b.singleChannel {
		b.applyChannelParity(row, index)
		return
	}
	if index >= len(b.in.Parity.DateWiseWinMeetLoss) {
		return
	}
	reading := b.in.Parity.DateWiseWinMeetLoss[index].ParityScore
	if !finite(reading) {
		return
	}
	score := *reading
	row.ParityScoreAbsolute = floatPtr(score)
	row.IsParityScoreThere = true
	if score < parityLossThreshold {
		row.Statements = append(row.Statements, parityScoreStatement(score))
	}
}

func (b *rowBuilder) applyChannelParity(row *models.InsightRow, index int) {
	for _, cp := range b.in.Parity.ViolationChannelRatesCollection {
		if !strings.EqualFold(strings.TrimSpace(cp.ChannelName), b.channel) {
			continue
		}
		if index >= len(cp.CheckInDateWiseRates) {
			return
		}
		day := cp.CheckInDateWiseRates[index]
		switch {
		case day.IsLoss:
			row.ParityScore = models.ParityLoss
		case day.IsWin:
			row.ParityScore = models.ParityWin
		case day.IsMeet:
			row.ParityScore = models.ParityMeet
		default:
			return
		}
		row.IsParityScoreThere = true
		if row.ParityScore == models.ParityLoss {
			row.Statements = append(row.Statements, channelParityStatement(cp.ChannelName))
		}
		return
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
