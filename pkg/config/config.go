package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Session     SessionConfig
	LLM         LLMConfig
	Redis       RedisConfig
	Upload      UploadConfig
	RateLimit   RateLimitConfig
	Idempotency IdempotencyConfig
	Logger      LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

// DSN prefers DATABASE_URL and falls back to the discrete connection fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

type SessionConfig struct {
	// SingleActive keeps only the most recently issued token valid per user.
	SingleActive bool
}

type LLMConfig struct {
	Provider   string // gigachat | gemini
	APIKey     string
	Model      string
	Models     []string
	Timeout    time.Duration
	MaxRetries int

	GigaChatScope      string
	InsecureSkipVerify bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type UploadConfig struct {
	Dir      string
	MaxBytes int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type IdempotencyConfig struct {
	TTL time.Duration
}

func Load() (*Config, error) {
	// .env is optional, plain environment variables win in containers
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "gigachat"))
	defaultModel := "GigaChat"
	if provider == "gemini" {
		defaultModel = "gemini-2.5-flash"
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", getEnv("PORT", "5000")),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 90)) * time.Second,
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "costsage"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET", "your-jwt-secret-key"),
			Expiration: time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		},
		Session: SessionConfig{
			SingleActive: getEnvBool("SESSION_SINGLE_ACTIVE", true),
		},
		LLM: LLMConfig{
			Provider:           provider,
			APIKey:             getEnv("LLM_API_KEY", ""),
			Model:              getEnv("LLM_MODEL", defaultModel),
			Models:             getEnvList("LLM_MODELS"),
			Timeout:            time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxRetries:         getEnvInt("LLM_MAX_RETRIES", 2),
			GigaChatScope:      getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: getEnvBool("GIGACHAT_INSECURE_SKIP_VERIFY", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: getEnvInt("UPLOAD_MAX_BYTES", 10<<20),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("RATE_LIMIT_RPS", 1),
			Burst: getEnvInt("RATE_LIMIT_BURST", 5),
		},
		Idempotency: IdempotencyConfig{
			TTL: time.Duration(getEnvInt("IDEMPOTENCY_TTL_HOURS", 24)) * time.Hour,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "gigachat", "gemini":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be positive")
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
