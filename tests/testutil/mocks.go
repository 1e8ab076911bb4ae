package testutil

import (
	"context"
	"time"

	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/oauth"
	"github.com/dimitrije/sitecms/internal/remote"
	"github.com/dimitrije/sitecms/internal/services"
	"github.com/dimitrije/sitecms/internal/sse"
	"github.com/stretchr/testify/mock"
)

// MockCollectionService mocks the CollectionService
type MockCollectionService struct {
	mock.Mock
}

func (m *MockCollectionService) ReadDocument(ctx context.Context, editor models.Editor, kind models.Kind) (*models.Document, error) {
	args := m.Called(ctx, editor, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockCollectionService) WriteDocument(ctx context.Context, editor models.Editor, kind models.Kind, records []models.Record, expectedVersion, message string) (*models.Document, error) {
	args := m.Called(ctx, editor, kind, records, expectedVersion, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockCollectionService) AddRecord(ctx context.Context, editor models.Editor, kind models.Kind, fields map[string]any) (*models.Record, *models.Document, error) {
	args := m.Called(ctx, editor, kind, fields)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Record), args.Get(1).(*models.Document), args.Error(2)
}

func (m *MockCollectionService) DeleteRecord(ctx context.Context, editor models.Editor, kind models.Kind, id int64) (*models.Document, error) {
	args := m.Called(ctx, editor, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockCollectionService) Source(ctx context.Context, editor models.Editor, kind models.Kind) (*remote.Asset, error) {
	args := m.Called(ctx, editor, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remote.Asset), args.Error(1)
}

func (m *MockCollectionService) SaveSource(ctx context.Context, editor models.Editor, kind models.Kind, body, expectedVersion, message string) (*models.Document, error) {
	args := m.Called(ctx, editor, kind, body, expectedVersion, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

// MockAuditService mocks the AuditService
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) List(ctx context.Context, kind models.Kind, limit int) ([]models.CommitEntry, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CommitEntry), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, login, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, login, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (string, error) {
	args := m.Called(ctx, tokenHash)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllEditorTokens(ctx context.Context, login string) error {
	args := m.Called(ctx, login)
	return args.Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(login string) (*services.TokenPair, error) {
	args := m.Called(login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockHub mocks the SSE hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) Subscribe(clientID string, kind models.Kind) {
	m.Called(clientID, kind)
}

func (m *MockHub) Unsubscribe(clientID string, kind models.Kind) {
	m.Called(clientID, kind)
}

func (m *MockHub) BroadcastCollectionUpdate(kind models.Kind, version, updatedBy string) {
	m.Called(kind, version, updatedBy)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}
