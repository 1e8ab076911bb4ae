package services

import (
	"context"
	"fmt"
	"log"

	"github.com/dimitrije/sitecms/internal/codec"
	"github.com/dimitrije/sitecms/internal/config"
	"github.com/dimitrije/sitecms/internal/database"
	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/remote"
)

// SourceTargets binds each collection kind to its file and export name.
func SourceTargets(cfg *config.Config) map[models.Kind]SourceTarget {
	return map[models.Kind]SourceTarget{
		models.KindEvents: {Path: cfg.EventsPath, Schema: codec.Events.WithExport(cfg.EventsExport)},
		models.KindNews:   {Path: cfg.NewsPath, Schema: codec.News.WithExport(cfg.NewsExport)},
	}
}

// NewBackend builds the collection store selected by STORE_BACKEND.
func NewBackend(ctx context.Context, cfg *config.Config, db *database.DB) (Backend, error) {
	if cfg.StoreBackend == config.StorePostgres {
		if db == nil {
			return nil, fmt.Errorf("postgres store requires a database")
		}
		log.Println("Using postgres collection store")
		return NewPostgresBackend(db), nil
	}

	client, err := remote.NewGitHubClient(ctx, cfg.Site.Token, remote.Repository{
		Owner:  cfg.Site.Owner,
		Name:   cfg.Site.Repo,
		Branch: cfg.Site.Branch,
	},
		remote.WithBaseURL(cfg.Site.APIURL),
		remote.WithRateLimiter(remote.NewRateLimiter(cfg.GitHubRatePerSec)),
	)
	if err != nil {
		return nil, fmt.Errorf("site repository client: %w", err)
	}

	log.Printf("Using source store %s/%s@%s", cfg.Site.Owner, cfg.Site.Repo, cfg.Site.Branch)
	return NewSourceBackend(client, SourceTargets(cfg), cfg.EvalTimeout), nil
}
