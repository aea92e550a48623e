package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/util"
	"gopkg.in/yaml.v3"
)

const EnvironmentPrefix = "DEPARTUREBOARD_"

type Config struct {
	Listen        string `yaml:"listen" validate:"required"`
	DataDirectory string `yaml:"data_directory" validate:"required"`
	WebDirectory  string `yaml:"web_directory"`

	// Timezone of the stop, all clock times are read in it
	Timezone string `yaml:"timezone" validate:"required"`

	WindowDays   int           `yaml:"window_days" validate:"min=1,max=31"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"min=1s"`
	EditTimeout  time.Duration `yaml:"edit_timeout"`

	// CarouselInterval is how long one announcement page stays on screen
	CarouselInterval time.Duration `yaml:"carousel_interval" validate:"min=1s"`

	ExtraServicePrefix string `yaml:"extra_service_prefix" validate:"required"`
	StationFilter      string `yaml:"station_filter"`

	Feed  FeedConfig  `yaml:"feed"`
	Redis RedisConfig `yaml:"redis"`
}

type FeedConfig struct {
	BaseURL  string        `yaml:"base_url" validate:"omitempty,url"`
	ClientID string        `yaml:"client_id"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout" validate:"min=1s"`
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// LookaheadHours is how many hourly plan slices are fetched from the feed
	LookaheadHours int `yaml:"lookahead_hours" validate:"min=1,max=12"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Database int    `yaml:"database" validate:"min=0"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

func Default() Config {
	return Config{
		Listen:             ":8080",
		DataDirectory:      "data",
		WebDirectory:       "web",
		Timezone:           "Europe/Berlin",
		WindowDays:         7,
		PollInterval:       60 * time.Second,
		EditTimeout:        10 * time.Minute,
		CarouselInterval:   8 * time.Second,
		ExtraServicePrefix: "EXTRA:",
		Feed: FeedConfig{
			BaseURL:        "https://apis.deutschebahn.com/db-api-marketplace/apis/timetables/v1",
			Timeout:        10 * time.Second,
			CacheTTL:       45 * time.Second,
			LookaheadHours: 2,
		},
	}
}

// Load reads the optional yaml file at path, applies DEPARTUREBOARD_*
// environment overrides and validates the result
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("path", path).Msg("No config file, using defaults")
		} else if err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvironment(util.GetPrefixedEnvironmentVariables(EnvironmentPrefix)); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c *Config) applyEnvironment(env map[string]string) error {
	texts := map[string]*string{
		"LISTEN":               &c.Listen,
		"DATA_DIRECTORY":       &c.DataDirectory,
		"WEB_DIRECTORY":        &c.WebDirectory,
		"TIMEZONE":             &c.Timezone,
		"EXTRA_SERVICE_PREFIX": &c.ExtraServicePrefix,
		"STATION_FILTER":       &c.StationFilter,
		"FEED_BASE_URL":        &c.Feed.BaseURL,
		"FEED_CLIENT_ID":       &c.Feed.ClientID,
		"FEED_API_KEY":         &c.Feed.APIKey,
		"REDIS_ADDRESS":        &c.Redis.Address,
		"REDIS_PASSWORD":       &c.Redis.Password,
	}
	for name, target := range texts {
		if value, exists := env[name]; exists && value != "" {
			*target = value
		}
	}

	integers := map[string]*int{
		"WINDOW_DAYS":     &c.WindowDays,
		"REDIS_DATABASE":  &c.Redis.Database,
		"LOOKAHEAD_HOURS": &c.Feed.LookaheadHours,
	}
	for name, target := range integers {
		if value, exists := env[name]; exists && value != "" {
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%s%s must be an integer: %w", EnvironmentPrefix, name, err)
			}
			*target = n
		}
	}

	durations := map[string]*time.Duration{
		"POLL_INTERVAL":     &c.PollInterval,
		"EDIT_TIMEOUT":      &c.EditTimeout,
		"CAROUSEL_INTERVAL": &c.CarouselInterval,
		"FEED_TIMEOUT":      &c.Feed.Timeout,
		"FEED_CACHE_TTL":    &c.Feed.CacheTTL,
	}
	for name, target := range durations {
		if value, exists := env[name]; exists && value != "" {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("%s%s must be a duration: %w", EnvironmentPrefix, name, err)
			}
			*target = d
		}
	}

	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return nil
}

func (c *Config) Location() *time.Location {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return location
}
