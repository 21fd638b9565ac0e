package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound variables in span statements. Development only.
	LogFullSQL bool
	DBName     string
}

// DBTracingPlugins returns the GORM plugins to register for cfg, suitable
// for persistence.WithPlugins. Nothing is returned when tracing is off.
func DBTracingPlugins(cfg DBTracingConfig) []gorm.Plugin {
	if !cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{}
	if cfg.DBName != "" {
		opts = append(opts, otelgorm.WithDBName(cfg.DBName))
	}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	return []gorm.Plugin{otelgorm.NewPlugin(opts...)}
}
