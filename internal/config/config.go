package config // package config loads application configuration from environment variables

import (
	"errors"  // errors builds the sentinel configuration faults
	"fmt"     // fmt formats error messages with the offending variable
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses token lifetimes
)

// ErrMissingVar is returned by Parse when a required variable is unset or empty.
var ErrMissingVar = errors.New("missing required env var")

// ErrSecretsReused is returned when the access and refresh signing secrets
// are identical.  A refresh token must never verify as an access token.
var ErrSecretsReused = errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	AutoMigrate   bool          // create tables on startup when missing
	AccessSecret  string        // secret used to sign access tokens
	RefreshSecret string        // secret used to sign refresh tokens
	AccessTTL     time.Duration // access token lifetime
	RefreshTTL    time.Duration // refresh token lifetime
	BcryptCost    int           // bcrypt cost for password hashing
	AdminSignup   bool          // let /api/auth/register honour role=admin (dev seeding only)
}

// IsProd reports whether internal error details must be hidden from clients.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// Load reads configuration values from environment variables and returns a
// Config.  Missing or invalid values cause the program to exit with a fatal
// log message: running without signing secrets is never acceptable.
func Load() Config {
	cfg, err := Parse(os.LookupEnv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse builds a Config from the given lookup function.  It is the
// error-returning core of Load.
func Parse(lookup func(string) (string, bool)) (Config, error) {
	p := parser{lookup: lookup}
	cfg := Config{
		Env:           p.opt("APP_ENV", "dev"),
		Port:          p.must("APP_PORT"),
		DBUser:        p.must("DB_USER"),
		DBPass:        p.opt("DB_PASS", ""),
		DBHost:        p.must("DB_HOST"),
		DBPort:        p.must("DB_PORT"),
		DBName:        p.must("DB_NAME"),
		AutoMigrate:   p.boolean("DB_AUTO_MIGRATE", true),
		AccessSecret:  p.must("ACCESS_TOKEN_SECRET"),
		RefreshSecret: p.must("REFRESH_TOKEN_SECRET"),
		AccessTTL:     p.duration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:    p.duration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:    p.integer("BCRYPT_COST", 10),
		AdminSignup:   p.boolean("AUTH_ALLOW_ADMIN_SIGNUP", false),
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return Config{}, ErrSecretsReused
	}
	return cfg, nil
}

// parser records the first error encountered so Parse can read every field
// in one expression.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) must(key string) string {
	v, ok := p.lookup(key)
	if (!ok || v == "") && p.err == nil {
		p.err = fmt.Errorf("%w: %s", ErrMissingVar, key)
	}
	return v
}

func (p *parser) opt(key, def string) string {
	if v, ok := p.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	s := p.opt(key, "")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid int for %s: %q", key, s)
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	s := p.opt(key, "")
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if (err != nil || d <= 0) && p.err == nil {
		p.err = fmt.Errorf("invalid duration for %s: %q", key, s)
	}
	return d
}

func (p *parser) boolean(key string, def bool) bool {
	s := p.opt(key, "")
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid bool for %s: %q", key, s)
	}
	return b
}
