// test/e2e/pipeline_test.go
package e2e

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rms-insight-workers/internal/common/camunda"
	"rms-insight-workers/internal/common/config"
	"rms-insight-workers/internal/common/database"
	"rms-insight-workers/internal/common/logger"
	"rms-insight-workers/internal/common/observability"
	"rms-insight-workers/internal/common/validation"
	"rms-insight-workers/internal/models"
	"rms-insight-workers/internal/sources"
	buildbusinessinsights "rms-insight-workers/internal/workers/revenue/build-business-insights"
	exportinsightscsv "rms-insight-workers/internal/workers/revenue/export-insights-csv"
	loadinsightinputs "rms-insight-workers/internal/workers/revenue/load-insight-inputs"
	publishinsightalerts "rms-insight-workers/internal/workers/revenue/publish-insight-alerts"
	"rms-insight-workers/pkg/registry"
)

// ==========================
// Fake sources and sinks
// ==========================

func march(d int) models.Date {
	return models.NewDate(2024, time.March, d)
}

func cells(rates ...string) []models.RateCell {
	out := make([]models.RateCell, len(rates))
	for i, r := range rates {
		out[i] = models.RateCell{Rate: models.Text(r)}
	}
	return out
}

type warehouse struct{}

func (warehouse) LoadRates(_ context.Context, _ sources.Request) (*models.RateRecord, error) {
	return &models.RateRecord{
		EventEntity: []models.EventDate{{EventDate: march(10)}, {EventDate: march(11)}, {EventDate: march(12)}},
		PricePositioningEntities: []models.PricePositioningEntity{
			{PropertyID: "101", PropertyName: "Harbour Hotel", PropertyType: models.PropertyTypeSubscriber, SubscriberPropertyRate: cells("120", "Closed", "95")},
			{PropertyID: "avg", PropertyName: "Average Compset", PropertyType: models.PropertyTypeAvgCompset, SubscriberPropertyRate: cells("100", "110", "100")},
			{PropertyID: "202", PropertyName: "Quay Inn", PropertyType: models.PropertyTypeCompetitor, SubscriberPropertyRate: cells("98", "105", "101")},
		},
	}, nil
}

func (warehouse) LoadDemand(_ context.Context, _ sources.Request) ([]models.DemandRecord, error) {
	return []models.DemandRecord{
		{CheckinDate: march(10), DemandIndex: models.Float(72), OagCapacity: models.Float(1800)},
		{CheckinDate: march(11), DemandIndex: models.Float(50), OagCapacity: models.Float(1200)},
		{CheckinDate: march(12), DemandIndex: models.Float(30), OagCapacity: models.Float(900)},
	}, nil
}

func (warehouse) LoadOtaRanks(_ context.Context, _ sources.Request) ([]models.OtaRankRecord, error) {
	return nil, nil
}

func (warehouse) LoadParity(_ context.Context, _ sources.Request) (*models.ParityRecord, error) {
	return nil, nil
}

type calendar struct{}

func (calendar) LoadEvents(_ context.Context, _ sources.Request) ([]models.EventRecord, error) {
	return []models.EventRecord{{Name: "Boat Show", DateFrom: march(11), DateTo: march(12)}}, nil
}

func (calendar) LoadHolidays(_ context.Context, _ sources.Request) ([]models.HolidayRecord, error) {
	return nil, nil
}

type mailer struct{ messages [][]byte }

func (m *mailer) SendRaw(_ context.Context, _ []string, message []byte) (string, error) {
	m.messages = append(m.messages, message)
	return "ses-1", nil
}

func (m *mailer) From() string { return "insights@example.com" }

type publisher struct{ subjects []string }

func (p *publisher) PublishAlert(_ context.Context, subject, _ string, _ map[string]string) (string, error) {
	p.subjects = append(p.subjects, subject)
	return "sns-1", nil
}

// handoff round-trips a step's output through JSON and checks it against the
// next task type's input schema, the way process variables travel between jobs.
func handoff(t *testing.T, v *validation.Validator, taskType string, vars map[string]interface{}, out interface{}) {
	t.Helper()
	data, err := json.Marshal(vars)
	require.NoError(t, err)
	require.NoError(t, v.ValidateInput(taskType, data), "variables for %s", taskType)
	require.NoError(t, json.Unmarshal(data, out))
}

func toVariables(t *testing.T, parts ...interface{}) map[string]interface{} {
	t.Helper()
	vars := map[string]interface{}{}
	for _, part := range parts {
		data, err := json.Marshal(part)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &vars))
	}
	return vars
}

func formattedDates(rows []models.InsightRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.FormattedCheckInDate
	}
	return out
}

// ==========================
// Pipeline
// ==========================

func TestInsightPipeline(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	reg, err := registry.LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)
	validator, err := validation.NewValidator(reg)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	loader := sources.NewLoader(warehouse{}, calendar{}, log, sources.DefaultMaxWindowDays)
	load := loadinsightinputs.NewHandler(loadinsightinputs.LoadConfig(), loader, validator, log)
	build := buildbusinessinsights.NewHandler(buildbusinessinsights.LoadConfig(), rdb, observability.NewNoop(), validator, log)

	exportConfig := exportinsightscsv.LoadConfig()
	exportConfig.EmailEnabled = true
	mail := &mailer{}
	export := exportinsightscsv.NewHandler(exportConfig, mail, validator, log)

	alertConfig := publishinsightalerts.LoadConfig()
	alertConfig.Enabled = true
	sns := &publisher{}
	alerts := publishinsightalerts.NewHandler(alertConfig, sns, validator, log)

	// start event
	start := map[string]interface{}{"propertyId": "101", "startDate": "2024-03-10", "endDate": "2024-03-12"}
	var loadInput loadinsightinputs.Input
	handoff(t, validator, loadinsightinputs.TaskType, start, &loadInput)

	loaded, err := load.Execute(ctx, &loadInput)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.DayCount)

	var buildInput buildbusinessinsights.Input
	handoff(t, validator, buildbusinessinsights.TaskType,
		toVariables(t, start, loaded, map[string]interface{}{"channels": []string{"Brand.com"}}), &buildInput)

	built, err := build.Execute(ctx, &buildInput)
	require.NoError(t, err)
	require.Len(t, built.Rows, 3)
	assert.False(t, built.Cached)
	assert.Equal(t, "11-03-2024", built.Rows[0].FormattedCheckInDate, "closed inventory sorts first")
	assert.Equal(t, 2, built.Summary.EventDays)

	rebuilt, err := build.Execute(ctx, &buildInput)
	require.NoError(t, err)
	assert.True(t, rebuilt.Cached)
	assert.Equal(t, formattedDates(built.Rows), formattedDates(rebuilt.Rows))

	tableVars := toVariables(t, built, map[string]interface{}{
		"recipients":   []string{"revenue@example.com"},
		"propertyName": "Harbour Hotel",
		"propertyId":   "101",
	})

	var exportInput exportinsightscsv.Input
	handoff(t, validator, exportinsightscsv.TaskType, tableVars, &exportInput)
	exported, err := export.Execute(ctx, &exportInput)
	require.NoError(t, err)
	assert.True(t, exported.Emailed)
	assert.Equal(t, 3, exported.RowCount)
	assert.Len(t, strings.Split(strings.TrimSpace(exported.CSV), "\n"), 4)
	require.Len(t, mail.messages, 1)

	var alertInput publishinsightalerts.Input
	handoff(t, validator, publishinsightalerts.TaskType, tableVars, &alertInput)
	published, err := alerts.Execute(ctx, &alertInput)
	require.NoError(t, err)
	assert.Equal(t, 1, published.Published)
	require.Len(t, sns.subjects, 1)
	assert.Contains(t, sns.subjects[0], "Harbour Hotel")
}

func TestInsightPipeline_RejectsOversizedWindow(t *testing.T) {
	log := logger.NewTestLogger(t)
	loader := sources.NewLoader(warehouse{}, calendar{}, log, 31)
	load := loadinsightinputs.NewHandler(&loadinsightinputs.Config{Timeout: time.Second, MaxWindowDays: 31}, loader, nil, log)

	_, err := load.Execute(context.Background(), &loadinsightinputs.Input{
		PropertyID: "101",
		StartDate:  march(1),
		EndDate:    models.NewDate(2024, time.May, 1),
	})
	require.Error(t, err)
}

// ==========================
// Live services
// ==========================

// TestLiveServices checks the dependencies worker-manager needs. It runs only
// when RMS_E2E is set, against the stack described by configs/config.yaml.
func TestLiveServices(t *testing.T) {
	if os.Getenv("RMS_E2E") == "" {
		t.Skip("set RMS_E2E=1 to run against live services")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "postgres connection failed")
	defer pg.Close()
	assert.NoError(t, pg.Ping(ctx), "postgres ping failed")

	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	assert.NoError(t, rdb.Ping(ctx), "redis ping failed")

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err, "elasticsearch client creation failed")
	assert.NoError(t, es.Ping(ctx), "elasticsearch ping failed")

	zb, err := camunda.NewClient(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.UsePlaintext,
		ConnectionTimeout:      10 * time.Second,
		RetryConfig:            camunda.DefaultRetryConfig,
	})
	require.NoError(t, err, "zeebe connection failed")
	defer zb.Close()
}
