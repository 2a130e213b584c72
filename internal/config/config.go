package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "TASKBOARD_"

type Config struct {
	Dashboard ServerConfig   `yaml:"dashboard"`
	API       ServerConfig   `yaml:"api"`
	Analytics ServerConfig   `yaml:"analytics"`
	Storage   StorageConfig  `yaml:"storage"`
	Log       LogConfig      `yaml:"log"`
	Telegram  TelegramConfig `yaml:"telegram"`
	Reporter  ReporterConfig `yaml:"reporter"`
	// APIURL - адрес REST API для адаптеров в отдельных процессах
	APIURL string `yaml:"api_url"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Enabled         bool          `yaml:"enabled"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Seed   bool   `yaml:"seed"`
	// RandomSeed фиксирует даты демонстрационных задач; 0 - случайный
	RandomSeed uint64 `yaml:"random_seed"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
	Debug bool   `yaml:"debug"`
}

type ReporterConfig struct {
	Schedule string `yaml:"schedule"`
}

func Default() *Config {
	return &Config{
		Dashboard: ServerConfig{Addr: ":5000", Enabled: true, ShutdownTimeout: 5 * time.Second},
		API:       ServerConfig{Addr: ":8000", Enabled: true, ShutdownTimeout: 5 * time.Second},
		Analytics: ServerConfig{Addr: ":8501", Enabled: true, ShutdownTimeout: 5 * time.Second},
		Storage:   StorageConfig{Driver: "memory", Seed: true},
		Log:       LogConfig{Level: "info"},
		Reporter:  ReporterConfig{Schedule: "@every 30s"},
		APIURL:    "http://localhost:8000",
	}
}

// Load читает .env (если есть), затем YAML-файл поверх значений по умолчанию,
// затем переменные окружения TASKBOARD_*. Пустой path - только умолчания и env.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения конфига %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфига %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
		return nil
	}

	str("DASHBOARD_ADDR", &c.Dashboard.Addr)
	str("API_ADDR", &c.API.Addr)
	str("ANALYTICS_ADDR", &c.Analytics.Addr)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("LOG_LEVEL", &c.Log.Level)
	str("TELEGRAM_TOKEN", &c.Telegram.Token)
	str("REPORTER_SCHEDULE", &c.Reporter.Schedule)
	str("API_URL", &c.APIURL)

	if err := boolean("STORAGE_SEED", &c.Storage.Seed); err != nil {
		return err
	}
	if err := boolean("TELEGRAM_DEBUG", &c.Telegram.Debug); err != nil {
		return err
	}

	if v, ok := lookup(EnvPrefix + "RANDOM_SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sRANDOM_SEED: %w", EnvPrefix, err)
		}
		c.Storage.RandomSeed = n
	}
	return nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("storage.driver должен быть memory или sqlite, получено %q", c.Storage.Driver)
	}
	for name, srv := range map[string]ServerConfig{"dashboard": c.Dashboard, "api": c.API, "analytics": c.Analytics} {
		if srv.Enabled && srv.Addr == "" {
			return fmt.Errorf("%s.addr не задан", name)
		}
	}
	return nil
}
