package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", StoreDriverMemory)
	t.Setenv("JWT_SECRET_KEY", "secret")
	for _, key := range []string{
		"DATABASE_URL", "SERVER_PORT", "KNOCKOUT_SIZE", "BYE_POINTS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS", "NATS_URL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 8, cfg.KnockoutSize)
	assert.Equal(t, 1, cfg.ByePoints)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KNOCKOUT_SIZE", "16")
	t.Setenv("BYE_POINTS", "0")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 16, cfg.KnockoutSize)
	assert.Equal(t, 0, cfg.ByePoints)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORE_DRIVER": StoreDriverPostgres}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "redis"}},
		{"missing secret", map[string]string{"JWT_SECRET_KEY": ""}},
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}},
		{"port not a number", map[string]string{"SERVER_PORT": "http"}},
		{"knockout too small", map[string]string{"KNOCKOUT_SIZE": "1"}},
		{"negative bye points", map[string]string{"BYE_POINTS": "-1"}},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}},
		{"bad rps", map[string]string{"RATE_LIMIT_RPS": "fast"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
