// internal/workers/revenue/load-insight-inputs/config.go
package loadinsightinputs

import (
	"time"

	"rms-insight-workers/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	MaxWindowDays int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		MaxWindowDays: 366,
	}
}

// ConfigFromApp overlays the application configuration on the defaults.
func ConfigFromApp(app *config.Config) *Config {
	cfg := LoadConfig()
	if app == nil {
		return cfg
	}
	if w, ok := app.Workers[TaskType]; ok && w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	if app.Insights.MaxWindowDays > 0 {
		cfg.MaxWindowDays = app.Insights.MaxWindowDays
	}
	return cfg
}
