package remote

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/dimitrije/sitecms/internal/models"
)

// BlobSHA computes the git blob hash GitHub reports as a file's SHA.
func BlobSHA(body string) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(body))
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}

type CommitRecord struct {
	Path    string
	Message string
	Version string
}

// MemoryStore is an in-process file store with the same version semantics as
// the contents API. Used for local runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	files   map[string]string
	commits []CommitRecord

	// BeforeCommit runs ahead of the version check with the lock released.
	BeforeCommit func(path string)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]string)}
}

// Put writes a file unconditionally and returns its new version.
func (m *MemoryStore) Put(path, body string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = body
	return BlobSHA(body)
}

func (m *MemoryStore) Fetch(ctx context.Context, path string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.TransportError{Op: "fetch " + path, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	body, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, path)
	}
	return &Asset{Path: path, Body: body, Version: BlobSHA(body)}, nil
}

func (m *MemoryStore) Commit(ctx context.Context, path, body, expectedVersion, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &models.TransportError{Op: "commit " + path, Err: err}
	}
	if m.BeforeCommit != nil {
		m.BeforeCommit(path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrNotFound, path)
	}
	if BlobSHA(current) != expectedVersion {
		return "", fmt.Errorf("%w: %s", models.ErrVersionConflict, path)
	}

	m.files[path] = body
	version := BlobSHA(body)
	m.commits = append(m.commits, CommitRecord{Path: path, Message: message, Version: version})
	return version, nil
}

func (m *MemoryStore) Commits() []CommitRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CommitRecord, len(m.commits))
	copy(out, m.commits)
	return out
}
