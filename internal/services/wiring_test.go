package services

import (
	"context"
	"testing"

	"github.com/dimitrije/sitecms/internal/config"
	"github.com/dimitrije/sitecms/internal/database"
	"github.com/dimitrije/sitecms/internal/models"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wiringConfig() *config.Config {
	return &config.Config{
		Site: config.SiteConfig{
			Owner:  "acme",
			Repo:   "website",
			Branch: "main",
			Token:  "token",
		},
		EventsPath:       "data/eventsData.ts",
		NewsPath:         "data/newsData.ts",
		EventsExport:     "upcomingEvents",
		NewsExport:       "",
		GitHubRatePerSec: 1.2,
		StoreBackend:     config.StoreSource,
	}
}

func TestSourceTargets(t *testing.T) {
	targets := SourceTargets(wiringConfig())

	require.Len(t, targets, 2)
	assert.Equal(t, "data/eventsData.ts", targets[models.KindEvents].Path)
	assert.Equal(t, "upcomingEvents", targets[models.KindEvents].Schema.Export)
	assert.Equal(t, "data/newsData.ts", targets[models.KindNews].Path)
	assert.Equal(t, "newsData", targets[models.KindNews].Schema.Export)
}

func TestNewBackend_Source(t *testing.T) {
	backend, err := NewBackend(context.Background(), wiringConfig(), nil)

	require.NoError(t, err)
	_, ok := backend.(*SourceBackend)
	assert.True(t, ok)
}

func TestNewBackend_SourceMissingRepository(t *testing.T) {
	cfg := wiringConfig()
	cfg.Site.Repo = ""

	_, err := NewBackend(context.Background(), cfg, nil)

	assert.Error(t, err)
}

func TestNewBackend_Postgres(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cfg := wiringConfig()
	cfg.StoreBackend = config.StorePostgres

	backend, err := NewBackend(context.Background(), cfg, &database.DB{Pool: mock})
	require.NoError(t, err)
	_, ok := backend.(*PostgresBackend)
	assert.True(t, ok)

	_, err = NewBackend(context.Background(), cfg, nil)
	assert.Error(t, err)
}
