// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Assets AssetsConfig `yaml:"assets" mapstructure:"assets"`
	Run    RunConfig    `yaml:"run" mapstructure:"run"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// AssetsConfig locates the read-only input assets.
type AssetsConfig struct {
	Root         string `yaml:"root" mapstructure:"root"`
	BoundaryFile string `yaml:"boundary_file" mapstructure:"boundary_file"`
	NameField    string `yaml:"name_field" mapstructure:"name_field"`
	LabelField   string `yaml:"label_field" mapstructure:"label_field"`
}

// RunConfig holds per-invocation defaults, overridable by flags.
type RunConfig struct {
	Region string `yaml:"region" mapstructure:"region"`
	Year   string `yaml:"year" mapstructure:"year"`
	Start  string `yaml:"start" mapstructure:"start"`
	End    string `yaml:"end" mapstructure:"end"`
	Trees  int    `yaml:"trees" mapstructure:"trees"`
}

// ExportConfig configures the raster export target.
type ExportConfig struct {
	Root      string  `yaml:"root" mapstructure:"root"`
	Dataset   string  `yaml:"dataset" mapstructure:"dataset"`
	Scale     float64 `yaml:"scale" mapstructure:"scale"`
	EPSG      int     `yaml:"epsg" mapstructure:"epsg"`
	MaxPixels int64   `yaml:"max_pixels" mapstructure:"max_pixels"`
}

// OutputConfig configures local render output.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Palette string `yaml:"palette" mapstructure:"palette"`
}

// StoreConfig configures the local run database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("CROPMASK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("assets.root", "./assets")
	v.SetDefault("assets.boundary_file", "boundaries/sudan_admin1.shp")
	v.SetDefault("assets.name_field", "NAME")
	v.SetDefault("assets.label_field", "LABEL")
	v.SetDefault("run.trees", 20)
	v.SetDefault("export.root", "./exports")
	v.SetDefault("export.dataset", "Sudan")
	v.SetDefault("export.scale", 10)
	v.SetDefault("export.epsg", 4326)
	v.SetDefault("export.max_pixels", int64(1e13))
	v.SetDefault("output.dir", "./out")
	v.SetDefault("output.palette", "cmocean-speed")
	v.SetDefault("store.path", "cropmask.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
