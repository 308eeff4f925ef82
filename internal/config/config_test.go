package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		"APP_PORT":             "8080",
		"DB_USER":              "root",
		"DB_HOST":              "localhost",
		"DB_PORT":              "3306",
		"DB_NAME":              "pollution",
		"ACCESS_TOKEN_SECRET":  "access-secret",
		"REFRESH_TOKEN_SECRET": "refresh-secret",
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(envLookup(baseEnv()))
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 10, cfg.BcryptCost)
	require.True(t, cfg.AutoMigrate)
	require.False(t, cfg.IsProd())
}

func TestParse_MissingSecrets(t *testing.T) {
	for _, key := range []string{"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET"} {
		t.Run(key, func(t *testing.T) {
			env := baseEnv()
			delete(env, key)
			_, err := Parse(envLookup(env))
			require.ErrorIs(t, err, ErrMissingVar)
			require.Contains(t, err.Error(), key)
		})
	}

	t.Run("empty value", func(t *testing.T) {
		env := baseEnv()
		env["ACCESS_TOKEN_SECRET"] = ""
		_, err := Parse(envLookup(env))
		require.ErrorIs(t, err, ErrMissingVar)
	})
}

func TestParse_SameSecretsRejected(t *testing.T) {
	env := baseEnv()
	env["REFRESH_TOKEN_SECRET"] = env["ACCESS_TOKEN_SECRET"]
	_, err := Parse(envLookup(env))
	require.ErrorIs(t, err, ErrSecretsReused)
}

func TestParse_InvalidValues(t *testing.T) {
	env := baseEnv()
	env["ACCESS_TOKEN_TTL"] = "soon"
	_, err := Parse(envLookup(env))
	require.Error(t, err)

	env = baseEnv()
	env["BCRYPT_COST"] = "ten"
	_, err = Parse(envLookup(env))
	require.Error(t, err)
}

func TestParse_Overrides(t *testing.T) {
	env := baseEnv()
	env["APP_ENV"] = "prod"
	env["ACCESS_TOKEN_TTL"] = "5m"
	env["DB_AUTO_MIGRATE"] = "false"
	cfg, err := Parse(envLookup(env))
	require.NoError(t, err)
	require.True(t, cfg.IsProd())
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.False(t, cfg.AutoMigrate)
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	require.Equal(t, 1, cfg.Capacity)
	require.Equal(t, 10*time.Second, cfg.TTL)
}
