package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/remote"
	"github.com/dimitrije/sitecms/internal/services"
	"github.com/dimitrije/sitecms/internal/sse"
)

// CollectionServiceInterface defines the methods used by handlers from CollectionService
type CollectionServiceInterface interface {
	ReadDocument(ctx context.Context, editor models.Editor, kind models.Kind) (*models.Document, error)
	WriteDocument(ctx context.Context, editor models.Editor, kind models.Kind, records []models.Record, expectedVersion, message string) (*models.Document, error)
	AddRecord(ctx context.Context, editor models.Editor, kind models.Kind, fields map[string]any) (*models.Record, *models.Document, error)
	DeleteRecord(ctx context.Context, editor models.Editor, kind models.Kind, id int64) (*models.Document, error)
	Source(ctx context.Context, editor models.Editor, kind models.Kind) (*remote.Asset, error)
	SaveSource(ctx context.Context, editor models.Editor, kind models.Kind, body, expectedVersion, message string) (*models.Document, error)
}

// AuditServiceInterface defines the methods used by handlers from AuditService
type AuditServiceInterface interface {
	List(ctx context.Context, kind models.Kind, limit int) ([]models.CommitEntry, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, login, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (string, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllEditorTokens(ctx context.Context, login string) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(login string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (string, error)
	RefreshExpiry() time.Duration
}

// HubInterface defines the methods used by handlers from the SSE hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	Subscribe(clientID string, kind models.Kind)
	Unsubscribe(clientID string, kind models.Kind)
	BroadcastCollectionUpdate(kind models.Kind, version, updatedBy string)
}
