package sources

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rms-insight-workers/internal/common/errors"
	"rms-insight-workers/internal/common/logger"
	"rms-insight-workers/internal/insights"
	"rms-insight-workers/internal/models"
)

type fakeRateStore struct {
	rate      *models.RateRecord
	demand    []models.DemandRecord
	otaRanks  []models.OtaRankRecord
	parity    *models.ParityRecord
	rateErr   error
	demandErr error
}

func (f *fakeRateStore) LoadRates(context.Context, Request) (*models.RateRecord, error) {
	return f.rate, f.rateErr
}

func (f *fakeRateStore) LoadDemand(context.Context, Request) ([]models.DemandRecord, error) {
	return f.demand, f.demandErr
}

func (f *fakeRateStore) LoadOtaRanks(context.Context, Request) ([]models.OtaRankRecord, error) {
	return f.otaRanks, nil
}

func (f *fakeRateStore) LoadParity(context.Context, Request) (*models.ParityRecord, error) {
	return f.parity, nil
}

type fakeCalendar struct {
	events   []models.EventRecord
	holidays []models.HolidayRecord
	err      error
}

func (f *fakeCalendar) LoadEvents(context.Context, Request) ([]models.EventRecord, error) {
	return f.events, f.err
}

func (f *fakeCalendar) LoadHolidays(context.Context, Request) ([]models.HolidayRecord, error) {
	return f.holidays, f.err
}

func marchDate(d int) models.Date {
	return models.NewDate(2024, time.March, d)
}

func threeDayRate() *models.RateRecord {
	return &models.RateRecord{
		EventEntity: []models.EventDate{
			{EventDate: marchDate(10)}, {EventDate: marchDate(11)}, {EventDate: marchDate(12)},
		},
	}
}

func createTestLoader(t *testing.T, rates *fakeRateStore, cal *fakeCalendar) *Loader {
	return NewLoader(rates, cal, logger.NewTestLogger(t), 0)
}

func TestLoader_Load(t *testing.T) {
	rates := &fakeRateStore{
		rate: threeDayRate(),
		demand: []models.DemandRecord{
			{CheckinDate: marchDate(11), DemandIndex: models.Float(35)},
			{CheckinDate: marchDate(10), DemandIndex: models.Float(72)},
			{CheckinDate: marchDate(12), DemandIndex: models.Float(50)},
		},
		otaRanks: []models.OtaRankRecord{{Channel: "Booking.com", CheckInDate: marchDate(10)}},
		parity:   &models.ParityRecord{},
	}
	cal := &fakeCalendar{
		events:   []models.EventRecord{{Name: "Trade Fair", DateFrom: marchDate(11), DateTo: marchDate(12)}},
		holidays: []models.HolidayRecord{{Name: "Spring Holiday", Date: marchDate(12)}},
	}

	in, err := createTestLoader(t, rates, cal).Load(context.Background(), createTestRequest())
	require.NoError(t, err)

	require.Len(t, in.Demand, 3)
	assert.Equal(t, models.Float(72), in.Demand[0].DemandIndex)
	assert.Equal(t, models.Float(35), in.Demand[1].DemandIndex)
	assert.Len(t, in.OtaRank, 1)
	assert.Len(t, in.Events, 1)
	assert.Len(t, in.Holidays, 1)
	assert.Same(t, rates.rate, in.Rate)
}

func TestLoader_Load_CalendarFailureDegrades(t *testing.T) {
	rates := &fakeRateStore{rate: threeDayRate(), parity: &models.ParityRecord{}}
	cal := &fakeCalendar{err: stderrors.New("index_not_found_exception")}

	in, err := createTestLoader(t, rates, cal).Load(context.Background(), createTestRequest())
	require.NoError(t, err)

	assert.NotNil(t, in.Events)
	assert.Empty(t, in.Events)
	assert.NotNil(t, in.Holidays)
	assert.Empty(t, in.Holidays)
}

func TestLoader_Load_WarehouseFailureFails(t *testing.T) {
	tests := []struct {
		name   string
		rates  *fakeRateStore
		source string
		code   errors.ErrorCode
	}{
		{
			name:   "rates unavailable",
			rates:  &fakeRateStore{rateErr: stderrors.New("connection refused")},
			source: "rates",
			code:   errors.ErrCodeSourceUnavailable,
		},
		{
			name:   "demand timed out",
			rates:  &fakeRateStore{rate: threeDayRate(), demandErr: context.DeadlineExceeded},
			source: "demand",
			code:   errors.ErrCodeSourceTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := createTestLoader(t, tt.rates, &fakeCalendar{}).Load(context.Background(), createTestRequest())
			require.Error(t, err)

			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.source, stdErr.Metadata["source"])
		})
	}
}

func TestLoader_Load_RejectsInvalidRequest(t *testing.T) {
	loader := createTestLoader(t, &fakeRateStore{}, &fakeCalendar{})

	tests := []struct {
		name string
		req  Request
	}{
		{"missing property", Request{From: marchDate(10), To: marchDate(12)}},
		{"missing dates", Request{PropertyID: "101"}},
		{"inverted window", Request{PropertyID: "101", From: marchDate(12), To: marchDate(10)}},
		{"window too long", Request{PropertyID: "101", From: models.NewDate(2024, time.January, 1), To: models.NewDate(2025, time.March, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(context.Background(), tt.req)
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeInputInvalid, stdErr.Code)
		})
	}
}

func TestRequest_Days(t *testing.T) {
	assert.Equal(t, 3, createTestRequest().Days())
	assert.Equal(t, 1, Request{From: marchDate(10), To: marchDate(10)}.Days())
}

func TestAlignDemand_PadsMissingDays(t *testing.T) {
	demand := []models.DemandRecord{
		{CheckinDate: marchDate(12), DemandIndex: models.Float(50)},
		{CheckinDate: marchDate(10), DemandIndex: models.Float(72)},
	}

	aligned := AlignDemand(threeDayRate(), demand)
	require.Len(t, aligned, 3)
	assert.Equal(t, models.Float(72), aligned[0].DemandIndex)
	assert.Equal(t, "2024-03-11", aligned[1].CheckinDate.String())
	assert.Nil(t, aligned[1].DemandIndex)
	assert.Equal(t, models.Float(50), aligned[2].DemandIndex)

	assert.Empty(t, AlignDemand(nil, demand))
}

func TestLoader_Load_GapKeepsLaterDays(t *testing.T) {
	rate := &models.RateRecord{}
	for d := 1; d <= 5; d++ {
		rate.EventEntity = append(rate.EventEntity, models.EventDate{EventDate: marchDate(d)})
	}
	rates := &fakeRateStore{
		rate: rate,
		demand: []models.DemandRecord{
			{CheckinDate: marchDate(1), DemandIndex: models.Float(30)},
			{CheckinDate: marchDate(3), DemandIndex: models.Float(50)},
			{CheckinDate: marchDate(4), DemandIndex: models.Float(70)},
			{CheckinDate: marchDate(5), DemandIndex: models.Float(45)},
		},
		parity: &models.ParityRecord{DateWiseWinMeetLoss: []models.ParityDay{
			{CheckInDate: marchDate(1), ParityScore: models.Float(90)},
			{CheckInDate: marchDate(2), ParityScore: models.Float(40)},
			{CheckInDate: marchDate(5), ParityScore: models.Float(55)},
		}},
	}
	req := Request{PropertyID: "101", From: marchDate(1), To: marchDate(5)}

	in, err := createTestLoader(t, rates, &fakeCalendar{}).Load(context.Background(), req)
	require.NoError(t, err)

	rows := insights.BuildRows(*in, insights.Options{})
	require.Len(t, rows, 5)

	demand := make([]bool, 0, len(rows))
	parity := make([]bool, 0, len(rows))
	for _, row := range rows {
		demand = append(demand, row.IsDemandIndexThere)
		parity = append(parity, row.IsParityScoreThere)
	}
	assert.Equal(t, []bool{true, false, true, true, true}, demand)
	assert.Equal(t, []bool{true, true, false, false, true}, parity)
	assert.Equal(t, 70, *rows[3].DemandIndex)
	assert.Equal(t, 55.0, *rows[4].ParityScoreAbsolute)
}

func TestAlignParity(t *testing.T) {
	parity := &models.ParityRecord{
		DateWiseWinMeetLoss: []models.ParityDay{
			{CheckInDate: marchDate(12), ParityScore: models.Float(60)},
			{CheckInDate: marchDate(10), ParityScore: models.Float(45)},
			{CheckInDate: marchDate(11), ParityScore: models.Float(88)},
		},
		ViolationChannelRatesCollection: []models.ChannelParity{{
			ChannelName: "Booking.com",
			CheckInDateWiseRates: []models.ChannelParityDay{
				{CheckInDate: marchDate(11), IsWin: true},
				{CheckInDate: marchDate(10), IsLoss: true},
			},
		}},
	}

	aligned := AlignParity(threeDayRate(), parity)

	require.Len(t, aligned.DateWiseWinMeetLoss, 3)
	assert.Equal(t, models.Float(45), aligned.DateWiseWinMeetLoss[0].ParityScore)
	assert.Equal(t, models.Float(60), aligned.DateWiseWinMeetLoss[2].ParityScore)

	days := aligned.ViolationChannelRatesCollection[0].CheckInDateWiseRates
	require.Len(t, days, 3)
	assert.True(t, days[0].IsLoss)
	assert.True(t, days[1].IsWin)
	assert.False(t, days[2].IsWin || days[2].IsMeet || days[2].IsLoss)

	assert.Nil(t, AlignParity(threeDayRate(), nil))
}
