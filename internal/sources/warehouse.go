package sources

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"time"

	"rms-insight-workers/internal/models"
)

// Warehouse reads rate positioning, demand, OTA rank and parity data from
// the revenue warehouse.
type Warehouse struct {
	db *sql.DB
}

func NewWarehouse(db *sql.DB) *Warehouse {
	return &Warehouse{db: db}
}

const rateQuery = `
		SELECT property_id, property_name, property_type, check_in_date, rate
		FROM rate_positioning
		WHERE subscriber_property_id = $1 AND check_in_date BETWEEN $2 AND $3
		ORDER BY property_type, property_id, check_in_date`

// LoadRates pivots rate positioning rows into the positional RateRecord:
// the distinct check-in dates ascending form the axis and every entity gets
// one cell per axis date, empty where the warehouse has no rate.
func (w *Warehouse) LoadRates(ctx context.Context, req Request) (*models.RateRecord, error) {
	rows, err := w.db.QueryContext(ctx, rateQuery, req.PropertyID, req.From.Time, req.To.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type entityRates struct {
		entity models.PricePositioningEntity
		rates  map[time.Time]string
	}
	var order []string
	entities := map[string]*entityRates{}
	days := map[time.Time]struct{}{}

	for rows.Next() {
		var propertyID, propertyName, rate string
		var propertyType int
		var checkIn time.Time
		if err := rows.Scan(&propertyID, &propertyName, &propertyType, &checkIn, &rate); err != nil {
			return nil, err
		}

		day := models.NewDate(checkIn.Year(), checkIn.Month(), checkIn.Day()).Time
		days[day] = struct{}{}

		key := strconv.Itoa(propertyType) + "|" + propertyID
		e, ok := entities[key]
		if !ok {
			e = &entityRates{
				entity: models.PricePositioningEntity{
					PropertyID:   models.Text(propertyID),
					PropertyName: propertyName,
					PropertyType: models.PropertyType(propertyType),
				},
				rates: map[time.Time]string{},
			}
			entities[key] = e
			order = append(order, key)
		}
		e.rates[day] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	axis := make([]time.Time, 0, len(days))
	for d := range days {
		axis = append(axis, d)
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Before(axis[j]) })

	record := &models.RateRecord{
		EventEntity:              make([]models.EventDate, len(axis)),
		PricePositioningEntities: make([]models.PricePositioningEntity, 0, len(order)),
	}
	for i, d := range axis {
		record.EventEntity[i] = models.EventDate{EventDate: models.Date{Time: d}}
	}
	for _, key := range order {
		e := entities[key]
		cells := make([]models.RateCell, len(axis))
		for i, d := range axis {
			cells[i] = models.RateCell{CheckInDate: models.Date{Time: d}, Rate: models.Text(e.rates[d])}
		}
		e.entity.SubscriberPropertyRate = cells
		record.PricePositioningEntities = append(record.PricePositioningEntities, e.entity)
	}
	return record, nil
}

func (w *Warehouse) LoadDemand(ctx context.Context, req Request) ([]models.DemandRecord, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT check_in_date, demand_index, oag_capacity
		FROM market_demand
		WHERE property_id = $1 AND check_in_date BETWEEN $2 AND $3
		ORDER BY check_in_date`, req.PropertyID, req.From.Time, req.To.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.DemandRecord
	for rows.Next() {
		var checkIn time.Time
		var index, capacity sql.NullFloat64
		if err := rows.Scan(&checkIn, &index, &capacity); err != nil {
			return nil, err
		}
		results = append(results, models.DemandRecord{
			CheckinDate: toDate(checkIn),
			DemandIndex: nullFloat(index),
			OagCapacity: nullFloat(capacity),
		})
	}
	return results, rows.Err()
}

// LoadOtaRanks returns the ranks of the subscriber and its compset on every
// channel. The builder narrows them to the selected property.
func (w *Warehouse) LoadOtaRanks(ctx context.Context, req Request) ([]models.OtaRankRecord, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT channel, property_id, check_in_date, ota_rank, change_in_rank
		FROM ota_rank
		WHERE subscriber_property_id = $1 AND check_in_date BETWEEN $2 AND $3
		ORDER BY check_in_date, channel`, req.PropertyID, req.From.Time, req.To.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.OtaRankRecord
	for rows.Next() {
		var channel, propertyID string
		var checkIn time.Time
		var rank int
		var change sql.NullString
		if err := rows.Scan(&channel, &propertyID, &checkIn, &rank, &change); err != nil {
			return nil, err
		}
		results = append(results, models.OtaRankRecord{
			Channel:      channel,
			PropertyID:   models.Text(propertyID),
			CheckInDate:  toDate(checkIn),
			OtaRank:      rank,
			ChangeInRank: models.Text(change.String),
		})
	}
	return results, rows.Err()
}

// LoadParity reads the aggregate parity score per day and the per-channel
// win/meet/loss flags.
func (w *Warehouse) LoadParity(ctx context.Context, req Request) (*models.ParityRecord, error) {
	record := &models.ParityRecord{}

	scoreRows, err := w.db.QueryContext(ctx, `
		SELECT check_in_date, parity_score
		FROM parity_score
		WHERE property_id = $1 AND check_in_date BETWEEN $2 AND $3
		ORDER BY check_in_date`, req.PropertyID, req.From.Time, req.To.Time)
	if err != nil {
		return nil, err
	}
	defer scoreRows.Close()

	for scoreRows.Next() {
		var checkIn time.Time
		var score sql.NullFloat64
		if err := scoreRows.Scan(&checkIn, &score); err != nil {
			return nil, err
		}
		record.DateWiseWinMeetLoss = append(record.DateWiseWinMeetLoss, models.ParityDay{
			CheckInDate: toDate(checkIn),
			ParityScore: nullFloat(score),
		})
	}
	if err := scoreRows.Err(); err != nil {
		return nil, err
	}

	channelRows, err := w.db.QueryContext(ctx, `
		SELECT channel_name, check_in_date, rate, is_win, is_meet, is_loss
		FROM channel_parity
		WHERE property_id = $1 AND check_in_date BETWEEN $2 AND $3
		ORDER BY channel_name, check_in_date`, req.PropertyID, req.From.Time, req.To.Time)
	if err != nil {
		return nil, err
	}
	defer channelRows.Close()

	byChannel := map[string]int{}
	for channelRows.Next() {
		var channel string
		var checkIn time.Time
		var rate sql.NullString
		var win, meet, loss bool
		if err := channelRows.Scan(&channel, &checkIn, &rate, &win, &meet, &loss); err != nil {
			return nil, err
		}
		idx, ok := byChannel[channel]
		if !ok {
			idx = len(record.ViolationChannelRatesCollection)
			byChannel[channel] = idx
			record.ViolationChannelRatesCollection = append(record.ViolationChannelRatesCollection, models.ChannelParity{ChannelName: channel})
		}
		cp := &record.ViolationChannelRatesCollection[idx]
		cp.CheckInDateWiseRates = append(cp.CheckInDateWiseRates, models.ChannelParityDay{
			CheckInDate: toDate(checkIn),
			Rate:        models.Text(rate.String),
			IsWin:       win,
			IsMeet:      meet,
			IsLoss:      loss,
		})
	}
	return record, channelRows.Err()
}

func toDate(t time.Time) models.Date {
	return models.NewDate(t.Year(), t.Month(), t.Day())
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float(v.Float64)
}
