package config

import (
	"errors"
	"fmt"
	"time"

	"depthsim/internal/exchange"
	"depthsim/internal/types"
)

// Config holds all application configuration
type Config struct {
	Venues  map[exchange.Venue]VenueConfig `yaml:"venues"`
	Feed    FeedConfig                     `yaml:"feed"`
	Display DisplayConfig                  `yaml:"display"`
	Server  ServerConfig                   `yaml:"server"`
	Log     LogConfig                      `yaml:"log"`
}

// VenueConfig holds venue-specific configuration
type VenueConfig struct {
	// ThrottleInterval bounds how often snapshots propagate to consumers
	ThrottleInterval time.Duration `yaml:"throttle_interval"`

	// Endpoint overrides the adapter's public websocket URL when set
	Endpoint string `yaml:"endpoint"`
}

// FeedConfig holds connection supervisor settings
type FeedConfig struct {
	MaxLevels       int           `yaml:"max_levels"`
	ConnectDebounce time.Duration `yaml:"connect_debounce"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	MockSeed        int64         `yaml:"mock_seed"`
}

// DisplayConfig holds display-related configuration
type DisplayConfig struct {
	DefaultTickLevel types.TickLevel `yaml:"default_tick_level"`
	PushInterval     time.Duration   `yaml:"push_interval"`
	LogInterval      time.Duration   `yaml:"log_interval"`
}

// ServerConfig holds the UI-facing server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

const (
	// DefaultMaxLevels is the number of book levels retained per side
	DefaultMaxLevels = 15

	// DefaultThrottleInterval applies to venues without an explicit setting
	DefaultThrottleInterval = 500 * time.Millisecond
)

// Default returns the default configuration
func Default() Config {
	return Config{
		Venues: map[exchange.Venue]VenueConfig{
			exchange.OKX:     {ThrottleInterval: 500 * time.Millisecond},
			exchange.Bybit:   {ThrottleInterval: 500 * time.Millisecond},
			exchange.Deribit: {ThrottleInterval: 1000 * time.Millisecond},
		},
		Feed: FeedConfig{
			MaxLevels:       DefaultMaxLevels,
			ConnectDebounce: 500 * time.Millisecond,
			DialTimeout:     10 * time.Second,
			WriteTimeout:    5 * time.Second,
		},
		Display: DisplayConfig{
			DefaultTickLevel: types.Tick1,
			PushInterval:     200 * time.Millisecond,
			LogInterval:      10 * time.Second,
		},
		Server: ServerConfig{
			Port: "8086",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Venue returns the settings for venue, falling back to defaults for
// venues outside the configured set.
func (c *Config) Venue(venue exchange.Venue) VenueConfig {
	vc, ok := c.Venues[venue]
	if !ok {
		return VenueConfig{ThrottleInterval: DefaultThrottleInterval}
	}
	if vc.ThrottleInterval <= 0 {
		vc.ThrottleInterval = DefaultThrottleInterval
	}
	return vc
}

// SetThrottleInterval updates the throttle interval of one venue
func (c *Config) SetThrottleInterval(venue exchange.Venue, interval time.Duration) {
	if c.Venues == nil {
		c.Venues = make(map[exchange.Venue]VenueConfig)
	}
	vc := c.Venues[venue]
	vc.ThrottleInterval = interval
	c.Venues[venue] = vc
}

// SetEndpoint overrides the websocket URL of one venue
func (c *Config) SetEndpoint(venue exchange.Venue, endpoint string) {
	if c.Venues == nil {
		c.Venues = make(map[exchange.Venue]VenueConfig)
	}
	vc := c.Venues[venue]
	vc.Endpoint = endpoint
	c.Venues[venue] = vc
}

// Validate checks the configuration for values the feed cannot run with
func (c *Config) Validate() error {
	var errs []error
	for venue, vc := range c.Venues {
		if _, err := exchange.ParseVenue(string(venue)); err != nil {
			errs = append(errs, fmt.Errorf("venues: %w", err))
		}
		if vc.ThrottleInterval < 0 {
			errs = append(errs, fmt.Errorf("venues.%s.throttle_interval must not be negative", venue))
		}
	}
	if c.Feed.MaxLevels <= 0 {
		errs = append(errs, errors.New("feed.max_levels must be positive"))
	}
	if c.Feed.ConnectDebounce < 0 {
		errs = append(errs, errors.New("feed.connect_debounce must not be negative"))
	}
	if c.Feed.DialTimeout <= 0 {
		errs = append(errs, errors.New("feed.dial_timeout must be positive"))
	}
	if !types.IsValidTickLevel(c.Display.DefaultTickLevel) {
		errs = append(errs, fmt.Errorf("display.default_tick_level %g is not available", float64(c.Display.DefaultTickLevel)))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	return errors.Join(errs...)
}
