package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret string
	JWTIssuer string

	// TxnSigningKey is the HMAC secret for transaction integrity signatures.
	// Empty disables signing; unsigned rows then verify as "cannot verify".
	TxnSigningKey string

	// WebhookAllowedIPs is the banking partner's known source addresses. The
	// partner provides no payload signature, so this list is the primary
	// trust control on inbound notifications.
	WebhookAllowedIPs []string
	// TrustedProxies are the reverse proxies whose forwarding headers we
	// accept when resolving the real client IP.
	TrustedProxies []string
	// WebhookRateLimit uses the limiter format "<count>-<period>", e.g. "60-M".
	WebhookRateLimit string

	// GracePeriod is the client-cancelable hold window on new transfers.
	GracePeriod time.Duration
	// SweepInterval is how often the background sweep claims expired holds.
	SweepInterval time.Duration
	// CutoffHour is the local hour (0-23) at which the daily commission
	// cutoff runs.
	CutoffHour int

	// RedisURL enables the shared-cache backend for webhook dedup and per-IP
	// counters. Empty falls back to in-process state, which is only correct
	// for single-instance deployments.
	RedisURL string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "spei-ledger")
	viper.SetDefault("TXN_SIGNING_KEY", "")
	viper.SetDefault("WEBHOOK_ALLOWED_IPS", "")
	viper.SetDefault("TRUSTED_PROXIES", "")
	viper.SetDefault("WEBHOOK_RATE_LIMIT", "60-M")
	viper.SetDefault("GRACE_PERIOD", "10s")
	viper.SetDefault("SWEEP_INTERVAL", "1s")
	viper.SetDefault("CUTOFF_HOUR", 17)
	viper.SetDefault("REDIS_URL", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.TxnSigningKey = viper.GetString("TXN_SIGNING_KEY")
	if cfg.TxnSigningKey == "" {
		log.Println("Warning: TXN_SIGNING_KEY not set. Transaction integrity signing is disabled.")
	}

	cfg.WebhookAllowedIPs = splitCSV(viper.GetString("WEBHOOK_ALLOWED_IPS"))
	if len(cfg.WebhookAllowedIPs) == 0 {
		log.Println("Warning: WEBHOOK_ALLOWED_IPS not set. Webhook source filtering is disabled.")
	}
	cfg.TrustedProxies = splitCSV(viper.GetString("TRUSTED_PROXIES"))
	cfg.WebhookRateLimit = viper.GetString("WEBHOOK_RATE_LIMIT")

	gracePeriodStr := viper.GetString("GRACE_PERIOD")
	gracePeriod, err := time.ParseDuration(gracePeriodStr)
	if err != nil {
		gracePeriod = 10 * time.Second
		log.Printf("Warning: Invalid value for GRACE_PERIOD ('%s'). Defaulting to %s.\n", gracePeriodStr, gracePeriod)
	}
	cfg.GracePeriod = gracePeriod

	sweepIntervalStr := viper.GetString("SWEEP_INTERVAL")
	sweepInterval, err := time.ParseDuration(sweepIntervalStr)
	if err != nil {
		sweepInterval = time.Second
		log.Printf("Warning: Invalid value for SWEEP_INTERVAL ('%s'). Defaulting to %s.\n", sweepIntervalStr, sweepInterval)
	}
	cfg.SweepInterval = sweepInterval

	cfg.CutoffHour = viper.GetInt("CUTOFF_HOUR")
	if cfg.CutoffHour < 0 || cfg.CutoffHour > 23 {
		log.Printf("Warning: CUTOFF_HOUR %d out of range. Defaulting to 17.\n", cfg.CutoffHour)
		cfg.CutoffHour = 17
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set. Webhook dedup cache and rate counters are process-local.")
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
