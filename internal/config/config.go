package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
)

// アプリ全体の設定。
type Config struct {
	Port  string
	GoEnv string // dev/prod

	DatabaseURL      string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret string

	StorageDriver string
	UploadDir     string
	PublicBaseURL string
	MaxUploadSize int64
	CloudinaryURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ListCacheTTL  time.Duration

	LogLevel    string
	LogEncoding string

	CurrencyLocale string
	CurrencySuffix string
}

func (c Config) IsDev() bool {
	return c.GoEnv != "prod"
}

// 環境変数から設定を読み込む。
func Load() (Config, error) {
	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	redisDB, err := atoiDefault("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	ttl, err := atoiDefault("LIST_CACHE_TTL_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	maxUpload, err := atoiDefault("MAX_UPLOAD_SIZE", 5<<20)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:  getEnv("PORT", "8080"),
		GoEnv: getEnv("GO_ENV", "dev"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "storefront"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		MaxUploadSize: int64(maxUpload),
		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		ListCacheTTL:  time.Duration(ttl) * time.Second,

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "json"),

		CurrencyLocale: getEnv("CURRENCY_LOCALE", "vi"),
		CurrencySuffix: getEnv("CURRENCY_SUFFIX", "₫"),
	}

	// 必須
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.MaxUploadSize <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	switch cfg.StorageDriver {
	case StorageLocal:
	case StorageCloudinary:
		if cfg.CloudinaryURL == "" {
			return Config{}, fmt.Errorf("CLOUDINARY_URL is required for storage driver cloudinary")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

// postgres接続文字列。DATABASE_URLがあればそちらを優先。
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
