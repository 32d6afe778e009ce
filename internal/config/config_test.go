package config

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://zeladoria@localhost/zeladoria")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
}

func TestLoadDefaults(t *testing.T) {
	setBase(t)
	t.Setenv("ALLOW_ORIGINS", " https://painel.gov , ,https://app.gov")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, "zeladoria:report-events", cfg.EventsChannel)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, []string{"https://painel.gov", "https://app.gov"}, cfg.AllowOrigins)
	assert.Equal(t, PasswordHashConfig{MemoryKiB: 65536, Iterations: 3, Parallelism: 1}, cfg.PasswordHash)
}

func TestLoadPasswordHashFromEnv(t *testing.T) {
	t.Setenv("ARGON2_MEMORY_KIB", "19456")
	t.Setenv("ARGON2_ITERATIONS", "2")
	t.Setenv("ARGON2_PARALLELISM", "2")

	got, err := LoadPasswordHash()
	require.NoError(t, err)
	assert.Equal(t, PasswordHashConfig{MemoryKiB: 19456, Iterations: 2, Parallelism: 2}, got)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string][2]string{
		"porta":    {"PORT", "abc"},
		"segredo":  {"JWT_SECRET", "curto"},
		"dsn":      {"DB_DSN", ""},
		"conexões": {"DB_MAX_CONNS", "0"},
		"nível":    {"LOG_LEVEL", "verboso"},
		"memória":  {"ARGON2_MEMORY_KIB", "512"},
		"threads":  {"ARGON2_PARALLELISM", "300"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setBase(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
