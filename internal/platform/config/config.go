package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Environment string
	APIPort     string
	LogLevel    string

	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSslMode        string
	DBConnStr        string
	DBMigrateOnStart bool
	StorageBackend   string // "postgres" or "memory"

	RedisAddr       string // empty disables the session cache
	RedisPassword   string
	RedisDB         int
	SessionCacheTTL time.Duration

	JWTKey              []byte
	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool

	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthAPIBaseURL   string
	OAuthRedirectURL  string

	RankingMaxWindow      int
	MaxProblemsPerContest int
	RecentContestLimit    int
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		APIPort:     getEnv("API_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "user"),
		DBPassword:       getEnv("DB_PASSWORD", "password"),
		DBName:           getEnv("DB_NAME", "atcoder_problems"),
		DBSslMode:        getEnv("DB_SSLMODE", "disable"),
		DBMigrateOnStart: getEnvAsBool("DB_MIGRATE_ON_START", true),
		StorageBackend:   getEnv("STORAGE_BACKEND", "postgres"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		SessionCacheTTL: time.Duration(getEnvAsInt("SESSION_CACHE_TTL_SECONDS", 300)) * time.Second,

		JWTKey:              []byte(getEnv("JWT_SECRET", defaultJWTSecret)),
		SessionTTL:          time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24*30)) * time.Hour,
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "token"),
		SessionCookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),

		OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
		OAuthAuthURL:      getEnv("OAUTH_AUTH_URL", "https://github.com/login/oauth/authorize"),
		OAuthTokenURL:     getEnv("OAUTH_TOKEN_URL", "https://github.com/login/oauth/access_token"),
		OAuthAPIBaseURL:   getEnv("OAUTH_API_BASE_URL", "https://api.github.com"),
		OAuthRedirectURL:  getEnv("OAUTH_REDIRECT_URL", "/"),

		RankingMaxWindow:      getEnvAsInt("RANKING_MAX_WINDOW", 1000),
		MaxProblemsPerContest: getEnvAsInt("MAX_PROBLEMS_PER_CONTEST", 100),
		RecentContestLimit:    getEnvAsInt("RECENT_CONTEST_LIMIT", 1000),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
}

// Validate rejects configurations that cannot serve traffic safely.
func (c *Config) Validate() error {
	if c.StorageBackend != "postgres" && c.StorageBackend != "memory" {
		return errors.New("STORAGE_BACKEND must be postgres or memory")
	}
	if c.Environment != "development" && string(c.JWTKey) == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set outside development")
	}
	if c.RankingMaxWindow <= 0 || c.MaxProblemsPerContest <= 0 || c.RecentContestLimit <= 0 {
		return errors.New("ranking window and contest limits must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
