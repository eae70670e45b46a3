package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arenaplay/arena/database"
	"github.com/arenaplay/arena/domain/entities"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Messaging and presence
	NATSServers string // Empty disables event broadcasting
	RedisAddr   string

	// HTTP surface
	HTTPAddr string

	// Economy
	PlatformAccountID   int64
	CommissionRate      decimal.Decimal // Fraction of held ticket revenue, e.g. 0.10
	DicePrizeMultiplier decimal.Decimal // Applied to stake * 3

	// Game loops
	DefaultDrawInterval time.Duration
	MatchmakingInterval time.Duration
	SpinRevealDuration  time.Duration
	BattleTimeout       time.Duration
	TicketTimeout       time.Duration
	CleanupInterval     time.Duration // 0 disables the periodic sweep

	// OpenTelemetry
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	LogLevel    string
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// CommissionRateBps returns the commission rate in basis points
func (c *Config) CommissionRateBps() int64 {
	return entities.RateToBasisPoints(c.CommissionRate)
}

// DiceMultiplierBps returns the dice prize multiplier in basis points
func (c *Config) DiceMultiplierBps() int64 {
	return entities.RateToBasisPoints(c.DicePrizeMultiplier)
}

// load loads configuration from the environment, reading a .env file first when present
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to read .env file")
	}

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		NATSServers: os.Getenv("NATS_SERVERS"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		HTTPAddr:    getEnvWithDefault("HTTP_ADDR", ":8080"),

		OTelServiceName:  getEnvWithDefault("OTEL_SERVICE_NAME", "arena"),
		OTelExporterType: getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint: getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var err error
	if config.PlatformAccountID, err = getInt64("PLATFORM_ACCOUNT_ID", 1); err != nil {
		return nil, err
	}
	if config.CommissionRate, err = getDecimal("COMMISSION_RATE", "0.10"); err != nil {
		return nil, err
	}
	if config.DicePrizeMultiplier, err = getDecimal("DICE_PRIZE_MULTIPLIER", "2"); err != nil {
		return nil, err
	}
	if config.DefaultDrawInterval, err = getDuration("DEFAULT_DRAW_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if config.MatchmakingInterval, err = getDuration("MATCHMAKING_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if config.SpinRevealDuration, err = getDuration("SPIN_REVEAL_DURATION", 3*time.Second); err != nil {
		return nil, err
	}
	if config.BattleTimeout, err = getDuration("BATTLE_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}
	if config.TicketTimeout, err = getDuration("TICKET_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if config.CleanupInterval, err = getDuration("CLEANUP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	config.OTelEnabled = os.Getenv("OTEL_ENABLED") == "true"
	config.OTelExportIntervalMillis = 30000
	if v := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks invariants that would otherwise surface as bad settlements
func (c *Config) Validate() error {
	if c.Environment != "test" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.PlatformAccountID <= 0 {
		return fmt.Errorf("PLATFORM_ACCOUNT_ID must be positive")
	}
	if c.CommissionRate.IsNegative() || c.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("COMMISSION_RATE must be between 0 and 1, got %s", c.CommissionRate)
	}
	if !c.DicePrizeMultiplier.IsPositive() {
		return fmt.Errorf("DICE_PRIZE_MULTIPLIER must be positive, got %s", c.DicePrizeMultiplier)
	}
	if c.DefaultDrawInterval <= 0 || c.MatchmakingInterval <= 0 {
		return fmt.Errorf("draw and matchmaking intervals must be positive")
	}
	if c.SpinRevealDuration < 0 || c.CleanupInterval < 0 {
		return fmt.Errorf("durations cannot be negative")
	}
	if c.BattleTimeout <= 0 || c.TicketTimeout <= 0 {
		return fmt.Errorf("battle and ticket timeouts must be positive")
	}
	return nil
}

// ConfigureLogging applies LOG_LEVEL and picks the JSON formatter outside development
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.Environment == "development" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := getEnvWithDefault(key, defaultValue)
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// getDuration accepts Go durations ("1500ms", "2s") or a bare number of milliseconds
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		HTTPAddr:                 ":0",
		PlatformAccountID:        999,
		CommissionRate:           decimal.RequireFromString("0.10"),
		DicePrizeMultiplier:      decimal.NewFromInt(2),
		DefaultDrawInterval:      10 * time.Millisecond,
		MatchmakingInterval:      10 * time.Millisecond,
		SpinRevealDuration:       3 * time.Second,
		BattleTimeout:            10 * time.Minute,
		TicketTimeout:            5 * time.Minute,
		OTelServiceName:          "arena-test",
		OTelExporterType:         "none",
		OTelExportIntervalMillis: 1000,
		LogLevel:                 "debug",
		Environment:              "test",
	}
}
