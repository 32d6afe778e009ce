package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	DBDSN           string
	DBMaxConns      int32
	RedisURL        string
	EventsChannel   string
	JWTSecret       string
	AllowOrigins    []string
	LogLevel        zerolog.Level
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	PasswordHash    PasswordHashConfig
}

// PasswordHashConfig define os custos do argon2id para novas senhas.
type PasswordHashConfig struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	if err != nil || maxConns <= 0 {
		return nil, errors.New("DB_MAX_CONNS inválido")
	}
	cfg.DBMaxConns = int32(maxConns)

	// Sem REDIS_URL os eventos de ciclo de vida não são publicados.
	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))
	cfg.EventsChannel = strings.TrimSpace(getEnv("EVENTS_CHANNEL", "zeladoria:report-events"))
	if cfg.EventsChannel == "" {
		cfg.EventsChannel = "zeladoria:report-events"
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		return nil, errors.New("LOG_LEVEL inválido")
	}
	cfg.LogLevel = level

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 1, Burst: 5}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	if cfg.PasswordHash, err = LoadPasswordHash(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadPasswordHash lê ARGON2_MEMORY_KIB, ARGON2_ITERATIONS e ARGON2_PARALLELISM.
// Também é usada pela CLI, que não carrega o restante da configuração.
func LoadPasswordHash() (PasswordHashConfig, error) {
	memory, err := strconv.ParseUint(getEnv("ARGON2_MEMORY_KIB", "65536"), 10, 32)
	if err != nil || memory < 1024 {
		return PasswordHashConfig{}, errors.New("ARGON2_MEMORY_KIB inválido (mínimo 1024)")
	}
	iterations, err := strconv.ParseUint(getEnv("ARGON2_ITERATIONS", "3"), 10, 32)
	if err != nil || iterations == 0 {
		return PasswordHashConfig{}, errors.New("ARGON2_ITERATIONS inválido")
	}
	parallelism, err := strconv.ParseUint(getEnv("ARGON2_PARALLELISM", "1"), 10, 8)
	if err != nil || parallelism == 0 {
		return PasswordHashConfig{}, errors.New("ARGON2_PARALLELISM inválido")
	}
	return PasswordHashConfig{
		MemoryKiB:   uint32(memory),
		Iterations:  uint32(iterations),
		Parallelism: uint8(parallelism),
	}, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}
