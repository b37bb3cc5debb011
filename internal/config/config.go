package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	App      AppConfig
	Engine   EngineConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig is optional: with an empty Addr the service falls back to
// the in-process memory store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// EngineConfig holds the attendance policy knobs.
type EngineConfig struct {
	MaxShiftsPerDay        int
	MinGapMinutes          int
	MaxGapMinutes          int
	OvertimeAfterShifts    int
	MaxGPSAccuracyMeters   float64
	DefaultRadiusMeters    int
	CheckinToleranceEarly  int
	CheckinToleranceLate   int
	CheckoutToleranceEarly int
	CheckoutToleranceLate  int
	DefaultShiftTemplateID string
	ToleranceCacheTTL      time.Duration
	SweepInterval          time.Duration
}

func Load() (*Config, error) {
	// .env opsional; variabel lingkungan asli tetap menang.
	_ = godotenv.Load()

	config := &Config{}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "klinika-attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	engine, err := loadEngineConfig()
	if err != nil {
		return nil, err
	}
	config.Engine = engine

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadEngineConfig() (EngineConfig, error) {
	cfg := EngineConfig{
		DefaultShiftTemplateID: getEnv("DEFAULT_SHIFT_TEMPLATE_ID", ""),
	}

	var err error
	intFields := []struct {
		dest *int
		key  string
		def  string
	}{
		{&cfg.MaxShiftsPerDay, "MAX_SHIFTS_PER_DAY", "3"},
		{&cfg.MinGapMinutes, "MIN_GAP_BETWEEN_SHIFTS_MINUTES", "60"},
		{&cfg.MaxGapMinutes, "MAX_GAP_BETWEEN_SHIFTS_MINUTES", "720"},
		{&cfg.OvertimeAfterShifts, "OVERTIME_AFTER_SHIFTS", "2"},
		{&cfg.DefaultRadiusMeters, "DEFAULT_LOCATION_RADIUS_METERS", "100"},
		{&cfg.CheckinToleranceEarly, "CHECKIN_TOLERANCE_EARLY", "30"},
		{&cfg.CheckinToleranceLate, "CHECKIN_TOLERANCE_LATE", "60"},
		{&cfg.CheckoutToleranceEarly, "CHECKOUT_TOLERANCE_EARLY", "30"},
		{&cfg.CheckoutToleranceLate, "CHECKOUT_TOLERANCE_LATE", "60"},
	}
	for _, f := range intFields {
		*f.dest, err = strconv.Atoi(getEnv(f.key, f.def))
		if err != nil {
			return EngineConfig{}, fmt.Errorf("invalid %s: %w", f.key, err)
		}
	}

	cfg.MaxGPSAccuracyMeters, err = strconv.ParseFloat(getEnv("MAX_GPS_ACCURACY_METERS", "50"), 64)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("invalid MAX_GPS_ACCURACY_METERS: %w", err)
	}

	cfg.ToleranceCacheTTL, err = time.ParseDuration(getEnv("TOLERANCE_CACHE_TTL", "5m"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("invalid TOLERANCE_CACHE_TTL: %w", err)
	}

	cfg.SweepInterval, err = time.ParseDuration(getEnv("SWEEP_INTERVAL", "15m"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Engine.MinGapMinutes > c.Engine.MaxGapMinutes {
		return fmt.Errorf("MIN_GAP_BETWEEN_SHIFTS_MINUTES must not exceed MAX_GAP_BETWEEN_SHIFTS_MINUTES")
	}
	return nil
}

// IsProduction enables the stricter shift-availability rule.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
