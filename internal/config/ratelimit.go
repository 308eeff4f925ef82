package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig controls the Redis token bucket placed in front of the
// credential endpoints (register, login, refresh).  Login is the endpoint an
// attacker hammers, so the defaults are deliberately small.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string // ip | route | ip_route
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables, falling back to defaults
// and clamping values that would disable the bucket by accident.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "pw:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if cfg.Capacity < 1 { cfg.Capacity = 1 }
	if cfg.RefillTokens < 1 { cfg.RefillTokens = 1 }
	if cfg.RefillInterval <= 0 { cfg.RefillInterval = time.Second }
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL { cfg.TTL = minTTL }
	return cfg
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" { return d }
	if b, err := strconv.ParseBool(v); err == nil { return b }
	switch v {
	case "yes", "YES", "on", "ON": return true
	case "no", "NO", "off", "OFF": return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k); if v == "" { return d }
	if n, err := strconv.Atoi(v); err == nil { return n }
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k); if v == "" { return d }
	if dur, err := time.ParseDuration(v); err == nil { return dur }
	return d
}
