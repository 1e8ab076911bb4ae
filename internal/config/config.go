package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreSource   = "source"
	StorePostgres = "postgres"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	FrontendCallbackURL string
	BaseURL             string

	GitHub             OAuthConfig
	AllowedGitHubLogin string

	Site SiteConfig

	EventsPath   string
	NewsPath     string
	EventsExport string
	NewsExport   string

	EvalTimeout      time.Duration
	MaxWriteAttempts int
	StoreBackend     string
	GitHubRatePerSec float64
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// SiteConfig identifies the repository holding the content files.
type SiteConfig struct {
	Owner  string
	Repo   string
	Branch string
	Token  string
	APIURL string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"))
	if err != nil {
		refreshExpiry = 168 * time.Hour
	}

	evalTimeout, err := time.ParseDuration(getEnv("EVAL_TIMEOUT", "1s"))
	if err != nil || evalTimeout <= 0 {
		evalTimeout = time.Second
	}

	maxAttempts, err := strconv.Atoi(getEnv("MAX_WRITE_ATTEMPTS", "3"))
	if err != nil || maxAttempts < 1 {
		maxAttempts = 3
	}

	ratePerSec, err := strconv.ParseFloat(getEnv("GITHUB_RATE_PER_SEC", "1.2"), 64)
	if err != nil {
		ratePerSec = 1.2
	}

	store := getEnv("STORE_BACKEND", StoreSource)
	if store != StorePostgres {
		store = StoreSource
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnvOrPanic("DATABASE_URL"),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		FrontendCallbackURL: getEnv("FRONTEND_CALLBACK_URL", "http://localhost:3000/admin/callback"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),

		GitHub: OAuthConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GITHUB_REDIRECT_URL", ""),
		},
		AllowedGitHubLogin: getEnv("ALLOWED_GITHUB_LOGIN", ""),

		Site: SiteConfig{
			Owner:  getEnv("SITE_OWNER", ""),
			Repo:   getEnv("SITE_REPO", ""),
			Branch: getEnv("SITE_BRANCH", "main"),
			Token:  getEnv("GH_TOKEN", ""),
			APIURL: getEnv("GITHUB_API_URL", ""),
		},

		EventsPath:   getEnv("EVENTS_PATH", "data/eventsData.ts"),
		NewsPath:     getEnv("NEWS_PATH", "data/newsData.ts"),
		EventsExport: getEnv("EVENTS_EXPORT", "eventsData"),
		NewsExport:   getEnv("NEWS_EXPORT", "newsData"),

		EvalTimeout:      evalTimeout,
		MaxWriteAttempts: maxAttempts,
		StoreBackend:     store,
		GitHubRatePerSec: ratePerSec,
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
