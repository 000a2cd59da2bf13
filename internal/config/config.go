package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/bensuskins/harvest-planner/internal/planner"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabasePath               string
	LogLevel                   string
	Port                       string
	Location                   *time.Location
	WeekStart                  time.Weekday
	CommoditySource            string
	IncludeAllCommoditySources bool
	PersistTimeout             time.Duration
	ReferenceTTL               time.Duration
	BoardCacheSize             int
	Palette                    planner.ColorPalette
}

// Load reads the environment, after applying an optional .env file from the
// working directory. Variables already set take precedence over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	config := Config{
		DatabasePath:    envOrDefault("DATABASE_PATH", "./data/harvest-planner.db"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		Port:            envOrDefault("PORT", "8080"),
		CommoditySource: envOrDefault("COMMODITY_SOURCE", "cobblestone"),
	}

	var err error
	if config.Location, err = loadLocation(envOrDefault("TZ_NAME", "Local")); err != nil {
		return Config{}, err
	}
	if config.WeekStart, err = parseWeekday(envOrDefault("WEEK_START", "monday")); err != nil {
		return Config{}, err
	}
	if config.IncludeAllCommoditySources, err = parseBool("INCLUDE_ALL_COMMODITY_SOURCES", "false"); err != nil {
		return Config{}, err
	}
	if config.PersistTimeout, err = parseDuration("PERSIST_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if config.ReferenceTTL, err = parseDuration("REFERENCE_TTL", "30m"); err != nil {
		return Config{}, err
	}
	if config.BoardCacheSize, err = parseInt("BOARD_CACHE_SIZE", "16"); err != nil {
		return Config{}, err
	}
	if config.BoardCacheSize <= 0 {
		return Config{}, fmt.Errorf("BOARD_CACHE_SIZE must be positive, got %d", config.BoardCacheSize)
	}

	config.Palette = planner.DefaultPalette()
	if path := os.Getenv("COLOR_PALETTE_PATH"); path != "" {
		if config.Palette, err = LoadPalette(path); err != nil {
			return Config{}, err
		}
	}

	return config, nil
}

// LoadPalette reads a YAML palette. Curated entries extend the built-in ones;
// a non-empty fallback list replaces the built-in list.
func LoadPalette(path string) (planner.ColorPalette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return planner.ColorPalette{}, fmt.Errorf("reading palette file: %w", err)
	}

	var override planner.ColorPalette
	if err := yaml.Unmarshal(data, &override); err != nil {
		return planner.ColorPalette{}, fmt.Errorf("parsing palette file: %w", err)
	}

	palette := planner.DefaultPalette()
	for name, color := range override.Curated {
		palette.Curated[strings.ToUpper(strings.TrimSpace(name))] = color
	}
	if len(override.Fallback) > 0 {
		palette.Fallback = override.Fallback
	}
	return palette, nil
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadLocation(name string) (*time.Location, error) {
	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TZ_NAME: %w", err)
	}
	return location, nil
}

func parseWeekday(value string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "monday":
		return time.Monday, nil
	case "sunday":
		return time.Sunday, nil
	}
	return 0, fmt.Errorf("WEEK_START must be monday or sunday, got %q", value)
}

func parseBool(key, defaultValue string) (bool, error) {
	value, err := strconv.ParseBool(envOrDefault(key, defaultValue))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	value, err := time.ParseDuration(envOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func parseInt(key, defaultValue string) (int, error) {
	value, err := strconv.Atoi(envOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}
