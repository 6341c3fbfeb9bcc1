package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env            string   `env:"APP_ENV" env-default:"local"`
	Port           int      `env:"PORT" env-default:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" env-default:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`

	Mongo     MongoConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI" env-required:"true"`
	Database string `env:"MONGO_DATABASE" env-default:"galleria"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" env-default:"72h"`
}

type StorageConfig struct {
	Bucket          string `env:"GCS_BUCKET" env-required:"true"`
	PublicBaseURL   string `env:"GCS_PUBLIC_BASE_URL" env-default:"https://storage.googleapis.com"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

// RedisConfig is optional; an empty Addr keeps token revocation in Mongo.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type UploadConfig struct {
	MaxFileBytes int64 `env:"UPLOAD_MAX_FILE_BYTES" env-default:"10485760"`
	MaxFiles     int   `env:"UPLOAD_MAX_FILES" env-default:"10"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" env-default:"3"`
	Burst int     `env:"RATE_LIMIT_BURST" env-default:"5"`
}

// Load reads the process environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if cfg.Upload.MaxFiles < 1 {
		return nil, fmt.Errorf("UPLOAD_MAX_FILES must be at least 1")
	}
	return &cfg, nil
}

// MustLoad is Load for process startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func (c *Config) IsLocal() bool {
	return c.Env == "local"
}
