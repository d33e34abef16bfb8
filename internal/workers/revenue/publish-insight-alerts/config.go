// internal/workers/revenue/publish-insight-alerts/config.go
package publishinsightalerts

import (
	"time"

	"rms-insight-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	Enabled bool
	// MaxAlerts caps the alerts published per job; the most urgent rows go first.
	MaxAlerts int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		MaxAlerts: 31,
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
	cfg.Enabled = app.Integrations.AWS.SNS.Enabled
	return cfg
}
