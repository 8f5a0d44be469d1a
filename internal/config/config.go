package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
	} `yaml:"redis"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // минуты
	} `yaml:"jwt"`

	PII struct {
		Secret string `yaml:"secret"`
	} `yaml:"pii"`

	Distribution struct {
		PrimarySize           int  `yaml:"primary_size"`
		ReserveSize           int  `yaml:"reserve_size"`
		MaxRounds             int  `yaml:"max_rounds"`
		RoundIntervalMinutes  int  `yaml:"round_interval_minutes"`
		DistributionTTLHours  int  `yaml:"distribution_ttl_hours"`
		TickIntervalSeconds   int  `yaml:"tick_interval_seconds"`
		ExcludePriorAssignees bool `yaml:"exclude_prior_assignees"`
	} `yaml:"distribution"`

	Retention struct {
		CronSpec   string `yaml:"cron_spec"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"retention"`
}

var AppConfig *Config

func (c *Config) RoundInterval() time.Duration {
	return time.Duration(c.Distribution.RoundIntervalMinutes) * time.Minute
}

func (c *Config) DistributionTTL() time.Duration {
	return time.Duration(c.Distribution.DistributionTTLHours) * time.Hour
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Distribution.TickIntervalSeconds) * time.Second
}

func (c *Config) RetentionMaxAge() time.Duration {
	return time.Duration(c.Retention.MaxAgeDays) * 24 * time.Hour
}

// applyDefaults заполняет константы распределения значениями по умолчанию.
func (c *Config) applyDefaults() {
	if c.Distribution.PrimarySize == 0 {
		c.Distribution.PrimarySize = 3
	}
	if c.Distribution.ReserveSize == 0 {
		c.Distribution.ReserveSize = 2
	}
	if c.Distribution.MaxRounds == 0 {
		c.Distribution.MaxRounds = 5
	}
	if c.Distribution.RoundIntervalMinutes == 0 {
		c.Distribution.RoundIntervalMinutes = 180
	}
	if c.Distribution.DistributionTTLHours == 0 {
		c.Distribution.DistributionTTLHours = 24
	}
	if c.Distribution.TickIntervalSeconds == 0 {
		c.Distribution.TickIntervalSeconds = 60
	}
	if c.Retention.CronSpec == "" {
		c.Retention.CronSpec = "@daily"
	}
	if c.Retention.MaxAgeDays == 0 {
		c.Retention.MaxAgeDays = 90
	}
}

func LoadConfig() {
	var cfg Config

	// .env не обязателен, ошибки игнорируем
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		cfg.applyDefaults()
		AppConfig = &cfg
		return
	}

	// Режим переменных окружения (тесты, контейнерные деплои)
	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60
	cfg.PII.Secret = os.Getenv("PII_SECRET")

	cfg.Redis.Host = os.Getenv("REDIS_HOST")
	if portStr := os.Getenv("REDIS_PORT"); portStr != "" {
		cfg.Redis.Port, _ = strconv.Atoi(portStr)
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")

	if v := os.Getenv("DISTRIBUTION_TICK_SECONDS"); v != "" {
		cfg.Distribution.TickIntervalSeconds, _ = strconv.Atoi(v)
	}
	cfg.Distribution.ExcludePriorAssignees = os.Getenv("EXCLUDE_PRIOR_ASSIGNEES") == "true"

	cfg.applyDefaults()
	AppConfig = &cfg
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
