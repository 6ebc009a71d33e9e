package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/chainage-cli/internal/centreline"
)

// Config holds the full application configuration.
type Config struct {
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Projection ProjectionConfig `yaml:"projection" mapstructure:"projection"`
	Chainage   ChainageConfig   `yaml:"chainage" mapstructure:"chainage"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the centreline and roadnames tables.
type InputConfig struct {
	Centreline     string `yaml:"centreline" mapstructure:"centreline"`
	Roadnames      string `yaml:"roadnames" mapstructure:"roadnames"`
	RoadnamesSheet string `yaml:"roadnames_sheet" mapstructure:"roadnames_sheet"`
}

// ProjectionConfig tunes point projection onto the partial centreline.
type ProjectionConfig struct {
	MaxDistanceM  float64 `yaml:"max_distance_m" mapstructure:"max_distance_m"`
	TieToleranceM float64 `yaml:"tie_tolerance_m" mapstructure:"tie_tolerance_m"`
	CellSizeDeg   float64 `yaml:"cell_size_deg" mapstructure:"cell_size_deg"`
}

// ChainageConfig configures marker layer generation.
type ChainageConfig struct {
	IntervalM   float64 `yaml:"interval_m" mapstructure:"interval_m"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CHAINAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("input.centreline", "")
	v.SetDefault("input.roadnames", "")
	v.SetDefault("input.roadnames_sheet", "")
	v.SetDefault("projection.max_distance_m", 500.0)
	v.SetDefault("projection.tie_tolerance_m", 0.05)
	v.SetDefault("projection.cell_size_deg", 0.01)
	v.SetDefault("chainage.interval_m", 100.0)
	v.SetDefault("chainage.concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is the command name.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "position":
		problems = append(problems, c.requireCentreline()...)
		if c.Projection.MaxDistanceM <= 0 {
			problems = append(problems, "projection.max_distance_m must be > 0")
		}
		if c.Projection.TieToleranceM < 0 {
			problems = append(problems, "projection.tie_tolerance_m must be >= 0")
		}
		if c.Projection.CellSizeDeg < centreline.MinCellSizeDeg {
			problems = append(problems, fmt.Sprintf("projection.cell_size_deg must be >= %g", centreline.MinCellSizeDeg))
		}
	case "layer":
		problems = append(problems, c.requireCentreline()...)
		if c.Chainage.IntervalM <= 0 {
			problems = append(problems, "chainage.interval_m must be > 0")
		}
		if c.Chainage.Concurrency < 1 || c.Chainage.Concurrency > 64 {
			problems = append(problems, "chainage.concurrency must be between 1 and 64")
		}
	case "roads":
		problems = append(problems, c.requireCentreline()...)
	case "merge":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) requireCentreline() []string {
	if strings.TrimSpace(c.Input.Centreline) == "" {
		return []string{"input.centreline is required"}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
