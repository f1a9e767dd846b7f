package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port             int
	Env              string
	LogLevel         string
	DBDSN            string
	RedisURL         string
	SecretKey        string
	FrontendURL      string
	PasswordResetTTL time.Duration
	TokenCacheTTL    time.Duration
	AllowOrigins     []string
	RateLimitPublic  RateLimitConfig
	RateLimitAuth    RateLimitConfig
	Email            EmailConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// EmailConfig descreve o transporte SMTP. Host vazio desativa o envio real.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled indica se há servidor SMTP configurado.
func (c EmailConfig) Enabled() bool {
	return c.Host != ""
}

// IsDevelopment indica ambiente local.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.Env = strings.TrimSpace(getEnv("APP_ENV", "production"))
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", "info"))

	cfg.DBDSN = strings.TrimSpace(getEnv("DB_DSN", ""))
	if cfg.DBDSN == "" {
		cfg.DBDSN = strings.TrimSpace(getEnv("DATABASE_URL", ""))
	}
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	cfg.SecretKey = strings.TrimSpace(getEnv("SECRET_KEY", ""))
	if len(cfg.SecretKey) < 32 {
		return nil, errors.New("SECRET_KEY deve ter pelo menos 32 caracteres")
	}

	cfg.FrontendURL = strings.TrimRight(strings.TrimSpace(getEnv("FRONTEND_URL", "http://localhost:3000")), "/")

	if cfg.PasswordResetTTL, err = parseDurationEnv("PASSWORD_RESET_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TokenCacheTTL, err = parseDurationEnv("TOKEN_CACHE_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(getEnv("ALLOW_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	if cfg.RateLimitPublic, err = parseRateLimit("RATE_LIMIT_PUBLIC", RateLimitConfig{RequestsPerSecond: 5, Burst: 10}); err != nil {
		return nil, err
	}
	if cfg.RateLimitAuth, err = parseRateLimit("RATE_LIMIT_AUTH", RateLimitConfig{RequestsPerSecond: 10, Burst: 40}); err != nil {
		return nil, err
	}

	emailPort, err := strconv.Atoi(getEnv("EMAIL_PORT", "587"))
	if err != nil || emailPort <= 0 {
		return nil, errors.New("EMAIL_PORT inválida")
	}
	cfg.Email = EmailConfig{
		Host:     strings.TrimSpace(getEnv("EMAIL_HOST", "")),
		Port:     emailPort,
		User:     strings.TrimSpace(getEnv("EMAIL_HOST_USER", "")),
		Password: getEnv("EMAIL_HOST_PASSWORD", ""),
		From:     strings.TrimSpace(getEnv("DEFAULT_FROM_EMAIL", "noreply@localhost")),
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseRateLimit(prefix string, def RateLimitConfig) (RateLimitConfig, error) {
	out := def
	if val := getEnv(prefix+"_RPS", ""); val != "" {
		rps, err := strconv.ParseFloat(val, 64)
		if err != nil || rps <= 0 {
			return out, errors.New(prefix + "_RPS inválido")
		}
		out.RequestsPerSecond = rps
	}
	if val := getEnv(prefix+"_BURST", ""); val != "" {
		burst, err := strconv.Atoi(val)
		if err != nil || burst <= 0 {
			return out, errors.New(prefix + "_BURST inválido")
		}
		out.Burst = burst
	}
	return out, nil
}
