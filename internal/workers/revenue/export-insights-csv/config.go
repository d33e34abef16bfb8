// internal/workers/revenue/export-insights-csv/config.go
package exportinsightscsv

import (
	"time"

	"rms-insight-workers/internal/common/config"
)

type Config struct {
	Timeout        time.Duration
	EmailEnabled   bool
	DefaultSubject string
	AttachmentName string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		DefaultSubject: "Business insights",
		AttachmentName: "business-insights.csv",
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
	cfg.EmailEnabled = app.Integrations.AWS.SES.Enabled
	return cfg
}
