package services

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/dimitrije/sitecms/internal/codec"
	"github.com/dimitrije/sitecms/internal/literal"
	"github.com/dimitrije/sitecms/internal/locator"
	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/remote"
)

// SourceTarget is where one collection lives in the site repository.
type SourceTarget struct {
	Path   string
	Schema codec.Schema
}

// SourceBackend keeps each collection as an exported array literal inside a
// source file of the site repository. Every operation fetches the file fresh.
type SourceBackend struct {
	store       AssetStore
	targets     map[models.Kind]SourceTarget
	evalTimeout time.Duration
}

func NewSourceBackend(store AssetStore, targets map[models.Kind]SourceTarget, evalTimeout time.Duration) *SourceBackend {
	return &SourceBackend{
		store:       store,
		targets:     targets,
		evalTimeout: evalTimeout,
	}
}

func (b *SourceBackend) target(kind models.Kind) (SourceTarget, error) {
	t, ok := b.targets[kind]
	if !ok {
		return SourceTarget{}, fmt.Errorf("%w: %s", models.ErrUnknownKind, kind)
	}
	return t, nil
}

func (b *SourceBackend) Read(ctx context.Context, kind models.Kind) (*models.Document, error) {
	t, err := b.target(kind)
	if err != nil {
		return nil, err
	}

	asset, err := b.store.Fetch(ctx, t.Path)
	if err != nil {
		return nil, err
	}

	records, err := b.decode(ctx, t, asset.Body)
	if err != nil {
		return nil, err
	}

	return &models.Document{
		Kind:    kind,
		Path:    t.Path,
		Records: records,
		Version: asset.Version,
	}, nil
}

func (b *SourceBackend) Write(ctx context.Context, kind models.Kind, records []models.Record, expectedVersion, message string) (*models.Document, error) {
	t, err := b.target(kind)
	if err != nil {
		return nil, err
	}

	asset, err := b.store.Fetch(ctx, t.Path)
	if err != nil {
		return nil, err
	}
	if expectedVersion != "" && asset.Version != expectedVersion {
		return nil, fmt.Errorf("%w: %s is at %s, expected %s", models.ErrVersionConflict, t.Path, asset.Version, expectedVersion)
	}

	span, err := locator.Locate(asset.Body, t.Schema.Export)
	if err != nil {
		return nil, err
	}

	text, err := t.Schema.Encode(records)
	if err != nil {
		return nil, err
	}

	if message == "" {
		message = DefaultCommitMessage(t.Path)
	}

	body := locator.Splice(asset.Body, span, text)
	version, err := b.store.Commit(ctx, t.Path, body, asset.Version, message)
	if err != nil {
		return nil, err
	}

	written := make([]models.Record, len(records))
	copy(written, records)
	models.SortByIDDesc(written)

	return &models.Document{
		Kind:    kind,
		Path:    t.Path,
		Records: written,
		Version: version,
		Parent:  asset.Version,
	}, nil
}

func (b *SourceBackend) Source(ctx context.Context, kind models.Kind) (*remote.Asset, error) {
	t, err := b.target(kind)
	if err != nil {
		return nil, err
	}
	return b.store.Fetch(ctx, t.Path)
}

// SaveSource commits a whole file body. The body must still hold a readable
// collection block so the next Read does not fail.
func (b *SourceBackend) SaveSource(ctx context.Context, kind models.Kind, body, expectedVersion, message string) (*models.Document, error) {
	t, err := b.target(kind)
	if err != nil {
		return nil, err
	}
	if expectedVersion == "" {
		return nil, ErrVersionRequired
	}

	records, err := b.decode(ctx, t, body)
	if err != nil {
		return nil, err
	}
	if err := models.CheckUniqueIDs(records); err != nil {
		return nil, err
	}

	if message == "" {
		message = DefaultCommitMessage(t.Path)
	}

	version, err := b.store.Commit(ctx, t.Path, body, expectedVersion, message)
	if err != nil {
		return nil, err
	}

	return &models.Document{
		Kind:    kind,
		Path:    t.Path,
		Records: records,
		Version: version,
		Parent:  expectedVersion,
	}, nil
}

func (b *SourceBackend) decode(ctx context.Context, t SourceTarget, body string) ([]models.Record, error) {
	span, err := locator.Locate(body, t.Schema.Export)
	if err != nil {
		return nil, err
	}

	value, err := literal.Evaluate(ctx, span.Text(body), b.evalTimeout)
	if err != nil {
		return nil, err
	}

	return t.Schema.Decode(value)
}

// DefaultCommitMessage names the file being updated.
func DefaultCommitMessage(filePath string) string {
	return fmt.Sprintf("Update %s from admin", path.Base(filePath))
}
