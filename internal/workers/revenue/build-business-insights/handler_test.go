package buildbusinessinsights

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rms-insight-workers/internal/common/config"
	"rms-insight-workers/internal/common/errors"
	"rms-insight-workers/internal/common/logger"
	"rms-insight-workers/internal/common/observability"
	"rms-insight-workers/internal/insights"
	"rms-insight-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:              5 * time.Second,
		CacheTTL:             time.Minute,
		SlowBuildThreshold:   time.Second,
		BenchmarkChannel:     "Brand.com",
		MaxRankedCompetitors: 10,
	}
}

func createTestHandler(t *testing.T, rdb *redis.Client) *Handler {
	return NewHandler(createTestConfig(), rdb, observability.NewNoop(), nil, logger.NewTestLogger(t))
}

func march(d int) models.Date {
	return models.NewDate(2024, time.March, d)
}

func rates(values ...string) []models.RateCell {
	cells := make([]models.RateCell, len(values))
	for i, v := range values {
		cells[i] = models.RateCell{Rate: models.Text(v)}
	}
	return cells
}

func createValidInput() *Input {
	return &Input{
		Inputs: insights.Inputs{
			Demand: []models.DemandRecord{
				{CheckinDate: march(10), DemandIndex: models.Float(72)},
				{CheckinDate: march(11), DemandIndex: models.Float(35)},
			},
			Events: []models.EventRecord{{Name: "Trade Fair", DateFrom: march(11), DateTo: march(12)}},
			Rate: &models.RateRecord{
				EventEntity: []models.EventDate{{EventDate: march(10)}, {EventDate: march(11)}},
				PricePositioningEntities: []models.PricePositioningEntity{
					{PropertyID: "101", PropertyType: models.PropertyTypeSubscriber, SubscriberPropertyRate: rates("110", "Closed")},
					{PropertyID: "0", PropertyType: models.PropertyTypeAvgCompset, SubscriberPropertyRate: rates("100", "120")},
					{PropertyID: "201", PropertyType: models.PropertyTypeCompetitor, SubscriberPropertyRate: rates("90", "95")},
				},
			},
		},
		PropertyID:       "101",
		Channels:         []string{"Brand.com", "Booking.com", "Expedia"},
		SelectedProperty: "101",
	}
}

// expectedTable builds the table the handler should produce and cache.
func expectedTable(t *testing.T, h *Handler, input *Input) (string, []byte, []models.InsightRow) {
	t.Helper()
	opts := h.options(input)
	rows := insights.SortRows(insights.BuildRows(input.Inputs, opts))
	data, err := json.Marshal(&cachedTable{Rows: rows, Summary: insights.Summarize(rows)})
	require.NoError(t, err)
	key, err := cacheKey(input.Inputs, opts)
	require.NoError(t, err)
	return key, data, rows
}

func formattedDates(rows []models.InsightRow) []string {
	dates := make([]string, len(rows))
	for i, r := range rows {
		dates[i] = r.FormattedCheckInDate
	}
	return dates
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_BuildsSortedTable(t *testing.T) {
	handler := createTestHandler(t, nil)

	output, err := handler.Execute(context.Background(), createValidInput())
	require.NoError(t, err)

	assert.Equal(t, 2, output.RowCount)
	assert.False(t, output.Cached)
	_, err = uuid.Parse(output.RunID)
	assert.NoError(t, err)

	// the closed subscriber day outranks everything
	assert.Equal(t, []string{"11-03-2024", "10-03-2024"}, formattedDates(output.Rows))
	assert.True(t, output.Rows[0].ClosedAgainstAvgCompset())
	assert.Equal(t, 1, output.Summary.ClosedVsAvgCompset)
	assert.Equal(t, 1, output.Summary.EventDays)
}

func TestHandler_Execute_EmptyRatePayload(t *testing.T) {
	handler := createTestHandler(t, nil)

	output, err := handler.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 0, output.RowCount)
	assert.NotNil(t, output.Rows)
}

func TestHandler_Execute_NilInput(t *testing.T) {
	_, err := createTestHandler(t, nil).Execute(context.Background(), nil)

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInputInvalid, stdErr.Code)
}

func TestHandler_Options(t *testing.T) {
	handler := createTestHandler(t, nil)
	input := createValidInput()

	opts := handler.options(input)
	assert.False(t, opts.OtaRankEnabled)
	assert.Equal(t, "101", opts.SelectedProperty)
	assert.Equal(t, "Brand.com", opts.BenchmarkChannel)

	enabled := true
	input.OtaRankEnabled = &enabled
	assert.True(t, handler.options(input).OtaRankEnabled)
}

// ==========================
// Cache Tests
// ==========================

func TestHandler_Execute_CacheMissStoresTable(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	handler := createTestHandler(t, redisClient)
	input := createValidInput()

	key, data, _ := expectedTable(t, handler, input)
	redisMock.ExpectGet(key).RedisNil()
	redisMock.ExpectSet(key, data, time.Minute).SetVal("OK")

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, output.Cached)

	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheHit(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	handler := createTestHandler(t, redisClient)
	input := createValidInput()

	key, data, rows := expectedTable(t, handler, input)
	redisMock.ExpectGet(key).SetVal(string(data))

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, output.Cached)
	assert.Equal(t, len(rows), output.RowCount)
	assert.Equal(t, formattedDates(rows), formattedDates(output.Rows))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheErrorsDoNotFailTheBuild(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	handler := createTestHandler(t, redisClient)
	input := createValidInput()

	key, data, _ := expectedTable(t, handler, input)
	redisMock.ExpectGet(key).SetErr(stderrors.New("READONLY You can't write against a read only replica"))
	redisMock.ExpectSet(key, data, time.Minute).SetErr(stderrors.New("READONLY You can't write against a read only replica"))

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 2, output.RowCount)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_CorruptCacheEntryIsRebuilt(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	handler := createTestHandler(t, redisClient)
	input := createValidInput()

	key, _, _ := expectedTable(t, handler, input)
	require.NoError(t, mr.Set(key, "{not json"))

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, output.Cached)

	stored, err := mr.Get(key)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stored)))
}

func TestHandler_Execute_CacheRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	handler := createTestHandler(t, redisClient)

	first, err := handler.Execute(context.Background(), createValidInput())
	require.NoError(t, err)
	second, err := handler.Execute(context.Background(), createValidInput())
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, formattedDates(first.Rows), formattedDates(second.Rows))
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Rows[0].Statements, second.Rows[0].Statements)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, mr.TTL(keys[0]) > 0)
}

func TestCacheKey_DependsOnOptions(t *testing.T) {
	input := createValidInput()

	a, err := cacheKey(input.Inputs, insights.Options{Channels: []string{"Brand.com", "Expedia"}})
	require.NoError(t, err)
	b, err := cacheKey(input.Inputs, insights.Options{Channels: []string{"Brand.com", "Booking.com"}})
	require.NoError(t, err)
	again, err := cacheKey(input.Inputs, insights.Options{Channels: []string{"Brand.com", "Expedia"}})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
	assert.Contains(t, a, cacheKeyPrefix)
}

// ==========================
// Configuration Tests
// ==========================

func TestConfigFromApp(t *testing.T) {
	app := &config.Config{
		Insights: config.InsightsConfig{
			BenchmarkChannel:     "Direct",
			OtaRankEnabled:       true,
			MaxRankedCompetitors: 5,
			CacheTTL:             60,
			SlowBuildThreshold:   250,
		},
	}

	cfg := ConfigFromApp(app)
	assert.Equal(t, "Direct", cfg.BenchmarkChannel)
	assert.True(t, cfg.OtaRankEnabled)
	assert.Equal(t, 5, cfg.MaxRankedCompetitors)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowBuildThreshold)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}
