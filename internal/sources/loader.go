package sources

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/sync/errgroup"

	"rms-insight-workers/internal/common/errors"
	"rms-insight-workers/internal/common/logger"
	"rms-insight-workers/internal/common/metrics"
	"rms-insight-workers/internal/insights"
	"rms-insight-workers/internal/models"
)

type RateStore interface {
	LoadRates(ctx context.Context, req Request) (*models.RateRecord, error)
	LoadDemand(ctx context.Context, req Request) ([]models.DemandRecord, error)
	LoadOtaRanks(ctx context.Context, req Request) ([]models.OtaRankRecord, error)
	LoadParity(ctx context.Context, req Request) (*models.ParityRecord, error)
}

type CalendarStore interface {
	LoadEvents(ctx context.Context, req Request) ([]models.EventRecord, error)
	LoadHolidays(ctx context.Context, req Request) ([]models.HolidayRecord, error)
}

// Loader fans the six dataset reads out concurrently and assembles the
// builder inputs. Warehouse failures fail the load. Calendar failures only
// drop events or holidays.
type Loader struct {
	rates         RateStore
	calendar      CalendarStore
	logger        logger.Logger
	maxWindowDays int
}

func NewLoader(rates RateStore, calendar CalendarStore, log logger.Logger, maxWindowDays int) *Loader {
	return &Loader{
		rates:         rates,
		calendar:      calendar,
		logger:        log,
		maxWindowDays: maxWindowDays,
	}
}

func (l *Loader) Load(ctx context.Context, req Request) (*insights.Inputs, error) {
	if err := req.Validate(l.maxWindowDays); err != nil {
		return nil, err
	}

	var (
		in     insights.Inputs
		demand []models.DemandRecord
		parity *models.ParityRecord
	)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	required := func(source string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				metrics.InsightSourceErrors.WithLabelValues(source).Inc()
				return sourceError(gctx, source, err)
			}
			return nil
		})
	}

	required("rates", func() (err error) {
		in.Rate, err = l.rates.LoadRates(gctx, req)
		return err
	})
	required("demand", func() (err error) {
		demand, err = l.rates.LoadDemand(gctx, req)
		return err
	})
	required("ota_rank", func() (err error) {
		in.OtaRank, err = l.rates.LoadOtaRanks(gctx, req)
		return err
	})
	required("parity", func() (err error) {
		parity, err = l.rates.LoadParity(gctx, req)
		return err
	})

	g.Go(func() error {
		events, err := l.calendar.LoadEvents(gctx, req)
		if err != nil {
			l.optionalFailed("events", err)
			events = []models.EventRecord{}
		}
		in.Events = events
		return nil
	})
	g.Go(func() error {
		holidays, err := l.calendar.LoadHolidays(gctx, req)
		if err != nil {
			l.optionalFailed("holidays", err)
			holidays = []models.HolidayRecord{}
		}
		in.Holidays = holidays
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if in.Rate == nil {
		in.Rate = &models.RateRecord{}
	}
	in.Demand = AlignDemand(in.Rate, demand)
	in.Parity = AlignParity(in.Rate, parity)

	l.logger.Info("insight inputs loaded", map[string]interface{}{
		"propertyId":  req.PropertyID,
		"days":        len(in.Rate.EventEntity),
		"demand":      len(in.Demand),
		"otaRanks":    len(in.OtaRank),
		"events":      len(in.Events),
		"holidays":    len(in.Holidays),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &in, nil
}

func (l *Loader) optionalFailed(source string, err error) {
	metrics.InsightSourceErrors.WithLabelValues(source).Inc()
	l.logger.Warn("optional source unavailable, continuing without it", map[string]interface{}{
		"source": source,
		"error":  err.Error(),
	})
}

func sourceError(ctx context.Context, source string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewSourceTimeoutError(source, err)
	}
	return errors.NewSourceUnavailableError(source, err)
}

// AlignDemand reorders demand records onto the rate axis. The builder reads
// demand by position, so axis days without a record get an empty reading and
// every later day keeps its own record.
func AlignDemand(rate *models.RateRecord, demand []models.DemandRecord) []models.DemandRecord {
	if rate == nil {
		return []models.DemandRecord{}
	}
	byDay := make(map[string]models.DemandRecord, len(demand))
	for _, d := range demand {
		byDay[d.CheckinDate.String()] = d
	}

	aligned := make([]models.DemandRecord, 0, len(rate.EventEntity))
	for _, day := range rate.EventEntity {
		d, ok := byDay[day.EventDate.String()]
		if !ok {
			d = models.DemandRecord{CheckinDate: day.EventDate}
		}
		aligned = append(aligned, d)
	}
	return aligned
}

// AlignParity applies the same positional alignment to the aggregate scores
// and to every channel's win/meet/loss days. A padded channel day has no
// win, meet or loss flag and reads as no parity.
func AlignParity(rate *models.RateRecord, parity *models.ParityRecord) *models.ParityRecord {
	if rate == nil || parity == nil {
		return parity
	}

	scores := make(map[string]models.ParityDay, len(parity.DateWiseWinMeetLoss))
	for _, p := range parity.DateWiseWinMeetLoss {
		scores[p.CheckInDate.String()] = p
	}

	aligned := &models.ParityRecord{DateWiseWinMeetLoss: []models.ParityDay{}}
	for _, day := range rate.EventEntity {
		p, ok := scores[day.EventDate.String()]
		if !ok {
			p = models.ParityDay{CheckInDate: day.EventDate}
		}
		aligned.DateWiseWinMeetLoss = append(aligned.DateWiseWinMeetLoss, p)
	}

	for _, cp := range parity.ViolationChannelRatesCollection {
		days := make(map[string]models.ChannelParityDay, len(cp.CheckInDateWiseRates))
		for _, d := range cp.CheckInDateWiseRates {
			days[d.CheckInDate.String()] = d
		}
		channel := models.ChannelParity{ChannelName: cp.ChannelName, CheckInDateWiseRates: []models.ChannelParityDay{}}
		for _, day := range rate.EventEntity {
			d, ok := days[day.EventDate.String()]
			if !ok {
				d = models.ChannelParityDay{CheckInDate: day.EventDate}
			}
			channel.CheckInDateWiseRates = append(channel.CheckInDateWiseRates, d)
		}
		aligned.ViolationChannelRatesCollection = append(aligned.ViolationChannelRatesCollection, channel)
	}
	return aligned
}
