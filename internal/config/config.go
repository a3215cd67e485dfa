package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dex-alert-bot/internal/secrets"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string

	// Database (optional; persistence is disabled when the DSN is empty)
	DatabaseDSN         string
	DatabaseMaxConns    int
	DatabaseMaxIdleTime time.Duration

	// DexScreener
	DexScreenerBaseURL string
	DexScreenerQuery   string
	DexScreenerWindow  string // m5, h1, h24
	DexScreenerRPS     float64

	// Birdeye (optional; disabled when the API key is empty)
	BirdeyeBaseURL string
	BirdeyeAPIKey  string
	BirdeyeChain   string
	BirdeyeLimit   int
	BirdeyeRPS     float64

	// PumpPortal WebSocket (optional; disabled when the URL is empty)
	PumpPortalURL string

	// Entry filter thresholds
	MinLiquidityUSD   float64
	MaxLiquidityUSD   float64
	MinVolumeUSD      float64
	MinTxns           int
	MinBuyRatio       float64
	MinPriceChangePct float64
	MaxAgeMinutes     float64

	// Exit thresholds (whole percents)
	MaxDrawdownPct      float64
	TrailingStartPct    float64
	TrailingGapPct      float64
	LiquidityDropRugPct float64
	GrowthStepPct       float64

	// Position lifecycle
	PositionTTL time.Duration
	SeenTTL     time.Duration

	// Polling
	PollIntervalSec   int
	HeartbeatEnabled  bool
	HeartbeatInterval time.Duration

	// Alerts
	AlertMode       string // log, telegram, or comma-separated list
	TelegramToken   string
	TelegramChatIDs []int64

	// Metrics/Health
	MetricsPort int
	HealthPort  int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "production"),
		DatabaseDSN:         getEnv("DATABASE_DSN", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 10),
		DatabaseMaxIdleTime: time.Duration(getEnvInt("DATABASE_MAX_IDLE_TIME_MINS", 5)) * time.Minute,

		DexScreenerBaseURL: getEnv("DEXSCREENER_BASE_URL", "https://api.dexscreener.com"),
		DexScreenerQuery:   getEnv("DEXSCREENER_QUERY", "solana"),
		DexScreenerWindow:  getEnv("DEXSCREENER_WINDOW", "m5"),
		DexScreenerRPS:     getEnvFloat("DEXSCREENER_RPS", 1.0),

		BirdeyeBaseURL: getEnv("BIRDEYE_BASE_URL", "https://public-api.birdeye.so"),
		BirdeyeAPIKey:  secrets.GetOptionalSecret("BIRDEYE_API_KEY", ""),
		BirdeyeChain:   getEnv("BIRDEYE_CHAIN", "solana"),
		BirdeyeLimit:   getEnvInt("BIRDEYE_LIMIT", 50),
		BirdeyeRPS:     getEnvFloat("BIRDEYE_RPS", 0.5),

		PumpPortalURL: getEnv("PUMPPORTAL_URL", ""),

		MinLiquidityUSD:   getEnvFloat("MIN_LIQUIDITY_USD", 10000),
		MaxLiquidityUSD:   getEnvFloat("MAX_LIQUIDITY_USD", 250000),
		MinVolumeUSD:      getEnvFloat("MIN_VOLUME_USD", 5000),
		MinTxns:           getEnvInt("MIN_TXNS", 10),
		MinBuyRatio:       getEnvFloat("MIN_BUY_RATIO", 0.6),
		MinPriceChangePct: getEnvFloat("MIN_PRICE_CHANGE_PCT", 5),
		MaxAgeMinutes:     getEnvFloat("MAX_AGE_MINUTES", 120),

		MaxDrawdownPct:      getEnvFloat("MAX_DRAWDOWN_PCT", 30),
		TrailingStartPct:    getEnvFloat("TRAILING_START_PCT", 20),
		TrailingGapPct:      getEnvFloat("TRAILING_GAP_PCT", 15),
		LiquidityDropRugPct: getEnvFloat("LIQUIDITY_DROP_RUG_PCT", 50),
		GrowthStepPct:       getEnvFloat("GROWTH_STEP_PCT", 25),

		PositionTTL: time.Duration(getEnvInt("POSITION_TTL_HOURS", 24)) * time.Hour,
		SeenTTL:     time.Duration(getEnvInt("SEEN_TTL_HOURS", 24)) * time.Hour,

		PollIntervalSec:   getEnvInt("POLL_INTERVAL_SEC", 60),
		HeartbeatEnabled:  getEnvBool("HEARTBEAT_ENABLED", true),
		HeartbeatInterval: time.Duration(getEnvInt("HEARTBEAT_INTERVAL_MINS", 60)) * time.Minute,

		AlertMode:       getEnv("ALERT_MODE", "log"),
		TelegramToken:   secrets.GetOptionalSecret("TELEGRAM_BOT_TOKEN", ""),
		MetricsPort:     getEnvInt("METRICS_PORT", 9090),
		HealthPort:      getEnvInt("HEALTH_PORT", 8080),
	}

	// Parse TELEGRAM_CHAT_IDS (comma-separated)
	chatIDs := getEnv("TELEGRAM_CHAT_IDS", "")
	if chatIDs != "" {
		ids, err := parseChatIDs(chatIDs)
		if err != nil {
			return nil, err
		}
		cfg.TelegramChatIDs = ids
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	switch c.DexScreenerWindow {
	case "m5", "h1", "h24":
	default:
		return fmt.Errorf("invalid DEXSCREENER_WINDOW: %s (must be m5, h1, or h24)", c.DexScreenerWindow)
	}

	if c.MinLiquidityUSD > 0 && c.MaxLiquidityUSD > 0 && c.MinLiquidityUSD > c.MaxLiquidityUSD {
		return fmt.Errorf("MIN_LIQUIDITY_USD (%.0f) exceeds MAX_LIQUIDITY_USD (%.0f)", c.MinLiquidityUSD, c.MaxLiquidityUSD)
	}

	if c.PollIntervalSec < 1 {
		return fmt.Errorf("POLL_INTERVAL_SEC must be at least 1")
	}

	if c.HeartbeatEnabled && c.HeartbeatInterval < time.Minute {
		return fmt.Errorf("HEARTBEAT_INTERVAL_MINS must be at least 1")
	}

	hasTelegram := false
	for _, mode := range strings.Split(c.AlertMode, ",") {
		mode = strings.TrimSpace(mode)
		switch mode {
		case "log":
		case "telegram":
			hasTelegram = true
		default:
			return fmt.Errorf("invalid ALERT_MODE value: %s (valid values: log, telegram)", mode)
		}
	}

	if hasTelegram {
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when telegram is in ALERT_MODE")
		}
		if len(c.TelegramChatIDs) == 0 {
			return fmt.Errorf("TELEGRAM_CHAT_IDS is required when telegram is in ALERT_MODE")
		}
	}

	return nil
}

func parseChatIDs(s string) ([]int64, error) {
	var ids []int64
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_IDS entry %q: %w", item, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
