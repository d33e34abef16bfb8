// internal/workers/revenue/build-business-insights/config.go
package buildbusinessinsights

import (
	"time"

	"rms-insight-workers/internal/common/config"
	"rms-insight-workers/internal/insights"
)

type Config struct {
	Timeout              time.Duration
	CacheTTL             time.Duration
	SlowBuildThreshold   time.Duration
	BenchmarkChannel     string
	OtaRankEnabled       bool
	MaxRankedCompetitors int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:              10 * time.Second,
		CacheTTL:             15 * time.Minute,
		SlowBuildThreshold:   500 * time.Millisecond,
		BenchmarkChannel:     insights.DefaultBenchmarkChannel,
		MaxRankedCompetitors: insights.DefaultMaxRankedCompetitors,
	}
}

func ConfigFromApp(app *config.Config) *Config {
	cfg := LoadConfig()
	if app == nil {
		return cfg
	}
	if w, ok := app.Workers[TaskType]; ok && w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	ins := app.Insights
	if ins.CacheTTL > 0 {
		cfg.CacheTTL = ins.CacheDuration()
	}
	if ins.SlowBuildThreshold > 0 {
		cfg.SlowBuildThreshold = config.GetDuration(ins.SlowBuildThreshold)
	}
	if ins.BenchmarkChannel != "" {
		cfg.BenchmarkChannel = ins.BenchmarkChannel
	}
	if ins.MaxRankedCompetitors > 0 {
		cfg.MaxRankedCompetitors = ins.MaxRankedCompetitors
	}
	cfg.OtaRankEnabled = ins.OtaRankEnabled
	return cfg
}
