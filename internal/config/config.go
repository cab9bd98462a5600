package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"autodash/domain/dashboard"
	"autodash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server ServerConfig
	Export ExportConfig
	Charts ChartConfig
	Data   DataConfig
	Log    LogConfig
}

// ServerConfig holds live dashboard server settings
type ServerConfig struct {
	Port string
}

// ExportConfig holds document export settings
type ExportConfig struct {
	OutputDir string
	Author    string
	Title     string
	// FontPaths are tried in order; the first that loads wins
	FontPaths []string
}

// ChartConfig holds raster sizes for exported charts
type ChartConfig struct {
	Width  int
	Height int
}

// DataConfig holds dataset and synthesis settings
type DataConfig struct {
	File     string
	Strategy dashboard.Strategy
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// DefaultFontPaths lists CJK-capable TrueType fonts commonly found on
// macOS, Windows and Linux hosts
var DefaultFontPaths = []string{
	"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	`C:\Windows\Fonts\simhei.ttf`,
	`C:\Windows\Fonts\simsun.ttf`,
	"/usr/share/fonts/truetype/wqy/wqy-microhei.ttf",
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/usr/share/fonts/truetype/arphic/uming.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: *loadServerConfig(),
		Export: *loadExportConfig(),
		Charts: *loadChartConfig(),
		Data:   *loadDataConfig(),
		Log:    LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: getEnvOrDefault("PORT", "5006"),
	}
}

func loadExportConfig() *ExportConfig {
	fonts := DefaultFontPaths
	if raw := os.Getenv("AUTODASH_FONTS"); raw != "" {
		fonts = filepath.SplitList(raw)
	}
	return &ExportConfig{
		OutputDir: getEnvOrDefault("AUTODASH_OUTPUT_DIR", filepath.Join("outputs", "reports")),
		Author:    getEnvOrDefault("AUTODASH_AUTHOR", "Data Analyst"),
		Title:     getEnvOrDefault("AUTODASH_TITLE", "Data Analysis Report"),
		FontPaths: fonts,
	}
}

func loadChartConfig() *ChartConfig {
	return &ChartConfig{
		Width:  getEnvIntOrDefault("AUTODASH_CHART_WIDTH", 1200),
		Height: getEnvIntOrDefault("AUTODASH_CHART_HEIGHT", 800),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:     getEnvOrDefault("AUTODASH_DATA_FILE", ""),
		Strategy: dashboard.ParseStrategy(getEnvOrDefault("AUTODASH_STRATEGY", "all")),
	}
}

func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Export.OutputDir) == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	if config.Charts.Width <= 0 || config.Charts.Height <= 0 {
		return errors.ConfigInvalid("chart width and height must be positive")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
