package config

import (
	"log"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

type Config struct {
	Port          string
	DatabaseDSN   string
	Env           string
	VATRate       decimal.Decimal
	QuotePrefix   string
	InvoicePrefix string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "seeall_database.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.VATRate = parseDecimal("VAT_RATE", "0.20")
	cfg.QuotePrefix = getEnv("QUOTE_PREFIX", "SA")
	cfg.InvoicePrefix = getEnv("INVOICE_PREFIX", "FA")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDecimal(key, def string) decimal.Decimal {
	raw := getEnv(key, def)
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		log.Printf("invalid rate for %s: %s, using default %s", key, raw, def)
		d, _ = decimal.NewFromString(def)
	}
	return d
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}
