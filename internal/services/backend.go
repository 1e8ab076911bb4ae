package services

import (
	"context"

	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/remote"
)

// Backend is a versioned store for whole collections. Write replaces the
// collection only if it is still at expectedVersion; an empty expectedVersion
// means the version observed by the write's own fetch.
type Backend interface {
	Read(ctx context.Context, kind models.Kind) (*models.Document, error)
	Write(ctx context.Context, kind models.Kind, records []models.Record, expectedVersion, message string) (*models.Document, error)
}

// SourceEditor is implemented by backends that keep collections inside
// source files and allow the whole file to be edited.
type SourceEditor interface {
	Source(ctx context.Context, kind models.Kind) (*remote.Asset, error)
	SaveSource(ctx context.Context, kind models.Kind, body, expectedVersion, message string) (*models.Document, error)
}

// AssetStore reads and conditionally writes single files of the site
// repository.
type AssetStore interface {
	Fetch(ctx context.Context, path string) (*remote.Asset, error)
	Commit(ctx context.Context, path, body, expectedVersion, message string) (string, error)
}
