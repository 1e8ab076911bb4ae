package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/sitecms")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, "main", cfg.Site.Branch)
	assert.Equal(t, "data/eventsData.ts", cfg.EventsPath)
	assert.Equal(t, "newsData", cfg.NewsExport)
	assert.Equal(t, time.Second, cfg.EvalTimeout)
	assert.Equal(t, 3, cfg.MaxWriteAttempts)
	assert.Equal(t, StoreSource, cfg.StoreBackend)
	assert.InDelta(t, 1.2, cfg.GitHubRatePerSec, 0.0001)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("SITE_OWNER", "acme")
	t.Setenv("SITE_REPO", "website")
	t.Setenv("SITE_BRANCH", "content")
	t.Setenv("GH_TOKEN", "")
	t.Setenv("GITHUB_API_URL", "")
	t.Setenv("ALLOWED_GITHUB_LOGIN", "octocat")
	t.Setenv("EVAL_TIMEOUT", "250ms")
	t.Setenv("MAX_WRITE_ATTEMPTS", "5")
	t.Setenv("STORE_BACKEND", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, SiteConfig{Owner: "acme", Repo: "website", Branch: "content"}, cfg.Site)
	assert.Equal(t, "octocat", cfg.AllowedGitHubLogin)
	assert.Equal(t, 250*time.Millisecond, cfg.EvalTimeout)
	assert.Equal(t, 5, cfg.MaxWriteAttempts)
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("EVAL_TIMEOUT", "soon")
	t.Setenv("MAX_WRITE_ATTEMPTS", "0")
	t.Setenv("STORE_BACKEND", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.EvalTimeout)
	assert.Equal(t, 3, cfg.MaxWriteAttempts)
	assert.Equal(t, StoreSource, cfg.StoreBackend)
}

func TestLoad_PanicsWithoutSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sitecms")
	t.Setenv("JWT_SECRET", "")

	assert.Panics(t, func() { _, _ = Load() })
}
