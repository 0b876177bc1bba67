package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type BLE struct {
	Adapter         string        `mapstructure:"adapter"`
	ScanTimeout     time.Duration `mapstructure:"scan_timeout"`
	ExchangeTimeout time.Duration `mapstructure:"exchange_timeout"`
}

type MQTT struct {
	Broker          string        `mapstructure:"broker"`
	Port            int           `mapstructure:"port"`
	ClientID        string        `mapstructure:"client_id"`
	TopicPrefix     string        `mapstructure:"topic_prefix"`
	PublishInterval time.Duration `mapstructure:"publish_interval"`
}

type Config struct {
	AppEnv   string     `mapstructure:"app_env"`
	LogLevel slog.Level `mapstructure:"-"`
	BLE      BLE        `mapstructure:"ble"`
	MQTT     MQTT       `mapstructure:"mqtt"`
}

// Load reads an optional config.yaml (working directory, then the user
// config directory) and applies METER_* environment overrides, e.g.
// METER_LOG_LEVEL or METER_BLE_ADAPTER. Missing file and missing keys fall
// back to defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "meter-reader"))
	}

	v.SetEnvPrefix("METER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app_env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("ble.adapter", "hci0")
	v.SetDefault("ble.scan_timeout", "10s")
	v.SetDefault("ble.exchange_timeout", "10s")
	v.SetDefault("mqtt.broker", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "meter-reader")
	v.SetDefault("mqtt.topic_prefix", "meters")
	v.SetDefault("mqtt.publish_interval", "30s")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid app_env %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(v.GetString("log_level"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	if strings.TrimSpace(cfg.BLE.Adapter) == "" {
		return Config{}, errors.New("ble.adapter must not be empty")
	}
	if cfg.BLE.ScanTimeout <= 0 {
		return Config{}, fmt.Errorf("ble.scan_timeout must be positive, got %v", cfg.BLE.ScanTimeout)
	}
	if cfg.BLE.ExchangeTimeout <= 0 {
		return Config{}, fmt.Errorf("ble.exchange_timeout must be positive, got %v", cfg.BLE.ExchangeTimeout)
	}
	if cfg.MQTT.Port <= 0 || cfg.MQTT.Port > 65535 {
		return Config{}, fmt.Errorf("invalid mqtt.port %d", cfg.MQTT.Port)
	}
	if cfg.MQTT.PublishInterval < 0 {
		return Config{}, fmt.Errorf("mqtt.publish_interval must not be negative, got %v", cfg.MQTT.PublishInterval)
	}

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q (allowed: debug, info, warn, error)", s)
	}
}
