package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"depthsim/internal/exchange"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file at path over the defaults, applies ORDERBOOK_*
// environment overrides (a .env file is honoured if present) and validates
// the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	setStr(&cfg.Server.Port, "ORDERBOOK_PORT")
	setStr(&cfg.Log.Level, "ORDERBOOK_LOG_LEVEL")

	if err := setBool(&cfg.Log.Pretty, "ORDERBOOK_LOG_PRETTY"); err != nil {
		return err
	}
	if err := setInt(&cfg.Feed.MaxLevels, "ORDERBOOK_MAX_LEVELS"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Feed.ConnectDebounce, "ORDERBOOK_CONNECT_DEBOUNCE"); err != nil {
		return err
	}

	if cfg.Venues == nil {
		cfg.Venues = make(map[exchange.Venue]VenueConfig)
	}

	// ORDERBOOK_<VENUE>_THROTTLE / ORDERBOOK_<VENUE>_ENDPOINT
	for _, venue := range []exchange.Venue{exchange.OKX, exchange.Bybit, exchange.Deribit} {
		prefix := "ORDERBOOK_" + strings.ToUpper(string(venue))
		vc := cfg.Venue(venue)
		if err := setDuration(&vc.ThrottleInterval, prefix+"_THROTTLE"); err != nil {
			return err
		}
		setStr(&vc.Endpoint, prefix+"_ENDPOINT")
		cfg.Venues[venue] = vc
	}
	return nil
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
