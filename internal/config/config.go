package config

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"bankcards/internal/pkg/cardcrypto"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Card      CardConfig
	Admin     AdminConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application behaviour settings
type AppConfig struct {
	MaxSessionsPerUser int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
	TxTimeout  time.Duration
}

// JWTConfig holds access token and session settings
type JWTConfig struct {
	AccessSecret    string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	CleanupInterval time.Duration
}

// CardConfig holds the card number encryption envelope
type CardConfig struct {
	EncryptionKey string
	IV            []byte
}

// AdminConfig holds the bootstrap administrator
type AdminConfig struct {
	Username string
	Password string
}

// RedisConfig holds the optional rate-limiter store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQConfig holds the optional domain event broker
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// RateLimitConfig holds requests per minute per IP
type RateLimitConfig struct {
	Max     int
	AuthMax int
}

// Global holds the configuration set by Load
var Global *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	config, err := FromEnv()
	if err != nil {
		return nil, err
	}

	// Set global config
	Global = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", config.AppMode, config.Database.Driver)
	return config, nil
}

// FromEnv builds and validates the configuration from environment variables only
func FromEnv() (*Config, error) {
	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}
	prefix := modePrefix(appMode)

	database, err := loadDatabaseConfig(prefix)
	if err != nil {
		return nil, err
	}
	jwtCfg, err := loadJWTConfig(appMode, prefix)
	if err != nil {
		return nil, err
	}
	card, err := loadCardConfig(prefix)
	if err != nil {
		return nil, err
	}

	maxSessions, err := getInt("APP_MAX_SESSIONS_PER_USER", 5)
	if err != nil {
		return nil, err
	}
	if maxSessions < 1 {
		return nil, fmt.Errorf("APP_MAX_SESSIONS_PER_USER must be positive, got %d", maxSessions)
	}

	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	rateMax, err := getInt("RATE_LIMIT_MAX", 100)
	if err != nil {
		return nil, err
	}
	authRateMax, err := getInt("AUTH_RATE_LIMIT_MAX", 20)
	if err != nil {
		return nil, err
	}

	return &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "8080"),
		App:      AppConfig{MaxSessionsPerUser: maxSessions},
		Database: database,
		JWT:      jwtCfg,
		Card:     card,
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv(prefix+"ADMIN_PASSWORD", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("EVENTS_EXCHANGE", "bankcards.events"),
		},
		RateLimit: RateLimitConfig{
			Max:     rateMax,
			AuthMax: authRateMax,
		},
	}, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(prefix string) (DatabaseConfig, error) {
	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))
	switch driver {
	case "mysql", "postgres", "sqlite":
	default:
		return DatabaseConfig{}, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql', 'postgres' or 'sqlite')", driver)
	}

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	timeout, err := getDuration("DB_TX_TIMEOUT", 10*time.Second)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		Driver:     driver,
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", defaultPort),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "bankcards"),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "bankcards.db"),
		TxTimeout:  timeout,
	}, nil
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode, prefix string) (JWTConfig, error) {
	secret := getEnv(prefix+"JWT_ACCESS_SECRET", "")
	if secret == "" {
		if mode == "prod" {
			return JWTConfig{}, fmt.Errorf("%sJWT_ACCESS_SECRET is required in prod", prefix)
		}
		secret = "default_access_secret"
	}

	accessTTL, err := getDuration("JWT_ACCESS_EXPIRATION", 15*time.Minute)
	if err != nil {
		return JWTConfig{}, err
	}
	refreshTTL, err := getDuration("JWT_REFRESH_EXPIRATION", 7*24*time.Hour)
	if err != nil {
		return JWTConfig{}, err
	}
	cleanup, err := getDuration("JWT_CLEANUP_INTERVAL", time.Hour)
	if err != nil {
		return JWTConfig{}, err
	}

	return JWTConfig{
		AccessSecret:    secret,
		AccessTTL:       accessTTL,
		RefreshTTL:      refreshTTL,
		CleanupInterval: cleanup,
	}, nil
}

// loadCardConfig loads and checks the encryption key and IV
func loadCardConfig(prefix string) (CardConfig, error) {
	key := getEnv(prefix+"CARD_ENCRYPTION_KEY", "")
	if key == "" {
		return CardConfig{}, fmt.Errorf("%sCARD_ENCRYPTION_KEY is required", prefix)
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil || (len(raw) != 16 && len(raw) != 32) {
		return CardConfig{}, fmt.Errorf("%sCARD_ENCRYPTION_KEY: %w", prefix, cardcrypto.ErrInvalidKey)
	}

	iv := cardcrypto.DefaultIV
	if v := getEnv("CARD_ENCRYPTION_IV", ""); v != "" {
		iv, err = base64.StdEncoding.DecodeString(v)
		if err != nil || len(iv) != 16 {
			return CardConfig{}, fmt.Errorf("CARD_ENCRYPTION_IV: %w", cardcrypto.ErrInvalidIV)
		}
	}

	return CardConfig{EncryptionKey: key, IV: iv}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: '%s'", key, v)
	}
	return n, nil
}

// getDuration accepts a Go duration ("15m") or a number of milliseconds ("900000")
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return defaultValue, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		if ms <= 0 {
			return 0, fmt.Errorf("invalid %s: '%s' (must be positive)", key, v)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: '%s'", key, v)
	}
	return d, nil
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:8080"
	}
	return origins
}
