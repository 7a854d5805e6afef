package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"tokobuku/internal/apperrors"

	"github.com/spf13/viper"
)

// StockPolicy decides how cart quantity updates treat available stock.
type StockPolicy string

const (
	// StockPolicyNone sets the requested quantity without checking stock.
	StockPolicyNone StockPolicy = "none"
	// StockPolicyReject refuses quantities above the available stock.
	StockPolicyReject StockPolicy = "reject"
	// StockPolicyClamp caps quantities at the available stock.
	StockPolicyClamp StockPolicy = "clamp"
)

// ParseStockPolicy returns the policy named by s.
func ParseStockPolicy(s string) (StockPolicy, error) {
	switch p := StockPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case StockPolicyNone, StockPolicyReject, StockPolicyClamp:
		return p, nil
	case "":
		return StockPolicyNone, nil
	}
	return "", fmt.Errorf("unknown cart stock policy %q: %w", s, apperrors.ErrInvalidInput)
}

// Config holds the application settings.
type Config struct {
	AppPort string

	DBDriver    string
	DatabaseDSN string
	DBLogLevel  string

	JWTSecret string
	JWTTTL    time.Duration

	RabbitMQURL      string
	RabbitMQExchange string

	CartUpdateStockPolicy StockPolicy

	RecommendationLimit     int
	RecommendationCacheSize int
	RecommendationCacheTTL  time.Duration

	SeedCatalog bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:tokobuku.db?cache=shared")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "bookstore")
	v.SetDefault("CART_UPDATE_STOCK_POLICY", string(StockPolicyNone))
	v.SetDefault("RECOMMENDATION_LIMIT", 5)
	v.SetDefault("RECOMMENDATION_CACHE_SIZE", 256)
	v.SetDefault("RECOMMENDATION_CACHE_TTL", 5*time.Minute)
	v.SetDefault("SEED_CATALOG", true)
}

// Load reads the configuration from environment variables and, when
// CONFIG_FILE is set, from that file.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.AutomaticEnv() // Load environment variables

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		log.Printf("Loaded configuration from %s", file)
	}

	policy, err := ParseStockPolicy(v.GetString("CART_UPDATE_STOCK_POLICY"))
	if err != nil {
		return Config{}, err
	}

	driver := strings.ToLower(v.GetString("DB_DRIVER"))
	if driver != "sqlite" && driver != "postgres" {
		return Config{}, fmt.Errorf("unknown database driver %q: %w", driver, apperrors.ErrInvalidInput)
	}

	limit := v.GetInt("RECOMMENDATION_LIMIT")
	if limit < 1 {
		return Config{}, fmt.Errorf("recommendation limit %d must be positive: %w", limit, apperrors.ErrInvalidInput)
	}

	return Config{
		AppPort:                 v.GetString("APP_PORT"),
		DBDriver:                driver,
		DatabaseDSN:             v.GetString("DATABASE_DSN"),
		DBLogLevel:              strings.ToLower(v.GetString("DB_LOG_LEVEL")),
		JWTSecret:               v.GetString("JWT_SECRET"),
		JWTTTL:                  v.GetDuration("JWT_TTL"),
		RabbitMQURL:             v.GetString("RABBITMQ_URL"),
		RabbitMQExchange:        v.GetString("RABBITMQ_EXCHANGE"),
		CartUpdateStockPolicy:   policy,
		RecommendationLimit:     limit,
		RecommendationCacheSize: v.GetInt("RECOMMENDATION_CACHE_SIZE"),
		RecommendationCacheTTL:  v.GetDuration("RECOMMENDATION_CACHE_TTL"),
		SeedCatalog:             v.GetBool("SEED_CATALOG"),
	}, nil
}
