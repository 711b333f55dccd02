package shared

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string `yaml:"app_env" env:"APP_ENV" env-default:"prod"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTPAddr    string `yaml:"http_addr" env:"HTTP_ADDR" env-default:":8080"`
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`

	DBDriver    string `yaml:"db_driver" env:"DB_DRIVER" env-default:"mysql"` // mysql|postgres
	MySQLDSN    string `yaml:"mysql_dsn" env:"MYSQL_DSN" env-default:"root:root@tcp(localhost:3306)/drivent?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`
	PostgresDSN string `yaml:"postgres_dsn" env:"POSTGRES_DSN" env-default:"host=localhost port=5432 user=postgres password=postgres dbname=drivent sslmode=disable"`

	RedisAddr string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPass string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB   int           `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	CacheTTL  time.Duration `yaml:"cache_ttl" env:"CACHE_TTL" env-default:"5m"`

	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"15s"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS" env-default:"10"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST" env-default:"20"`
}

// Load reads CONFIG_PATH (if set) and the environment, exiting on error.
func Load() Config {
	c, err := LoadFrom(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty")
	}
	return c
}

// LoadFrom reads a YAML file when path is non-empty; environment variables override it.
func LoadFrom(path string) (Config, error) {
	var c Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &c); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&c); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return c, nil
}
