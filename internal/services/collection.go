package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/remote"
	"github.com/google/uuid"
)

const DefaultMaxWriteAttempts = 3

var (
	ErrVersionRequired  = errors.New("version is required")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)

// CommitRecorder receives one entry per successful write.
type CommitRecorder interface {
	Record(ctx context.Context, entry models.CommitEntry) error
}

// MutateFunc derives the new record list from the current one. Returning an
// error aborts the update without retrying.
type MutateFunc func(records []models.Record) ([]models.Record, error)

// CollectionService is the sync engine: every operation reads the current
// document from the backend and writes whole collections back under an
// optimistic version check.
type CollectionService struct {
	backend     Backend
	recorder    CommitRecorder
	maxAttempts int
}

func NewCollectionService(backend Backend, recorder CommitRecorder, maxAttempts int) *CollectionService {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxWriteAttempts
	}
	return &CollectionService{
		backend:     backend,
		recorder:    recorder,
		maxAttempts: maxAttempts,
	}
}

func authorize(editor models.Editor) error {
	if !editor.Authorized {
		return fmt.Errorf("%w: %q", models.ErrUnauthorized, editor.Login)
	}
	return nil
}

// Read returns the records of a collection, newest first.
func (s *CollectionService) Read(ctx context.Context, editor models.Editor, kind models.Kind) ([]models.Record, error) {
	doc, err := s.ReadDocument(ctx, editor, kind)
	if err != nil {
		return nil, err
	}
	return doc.Records, nil
}

func (s *CollectionService) ReadDocument(ctx context.Context, editor models.Editor, kind models.Kind) (*models.Document, error) {
	if err := authorize(editor); err != nil {
		return nil, err
	}
	return s.backend.Read(ctx, kind)
}

// Write replaces a collection with records. The version check uses the
// version observed by the write itself, so a change landing between that
// fetch and the commit is still rejected.
func (s *CollectionService) Write(ctx context.Context, editor models.Editor, kind models.Kind, records []models.Record) (*models.Document, error) {
	return s.WriteDocument(ctx, editor, kind, records, "", "")
}

// WriteDocument replaces a collection only if it is still at expectedVersion.
// An empty expectedVersion behaves like Write.
func (s *CollectionService) WriteDocument(ctx context.Context, editor models.Editor, kind models.Kind, records []models.Record, expectedVersion, message string) (*models.Document, error) {
	if err := authorize(editor); err != nil {
		return nil, err
	}
	if err := models.CheckUniqueIDs(records); err != nil {
		return nil, err
	}

	doc, err := s.backend.Write(ctx, kind, records, expectedVersion, message)
	if err != nil {
		return nil, err
	}
	s.committed(ctx, editor, doc)
	return doc, nil
}

// Update reads the collection, applies mutate and writes the result. On a
// version conflict the read and mutate are repeated, up to maxAttempts writes
// in total; the last conflict is returned to the caller.
func (s *CollectionService) Update(ctx context.Context, editor models.Editor, kind models.Kind, message string, mutate MutateFunc) (*models.Document, error) {
	if err := authorize(editor); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		current, err := s.backend.Read(ctx, kind)
		if err != nil {
			return nil, err
		}

		records, err := mutate(cloneRecords(current.Records))
		if err != nil {
			return nil, err
		}
		if err := models.CheckUniqueIDs(records); err != nil {
			return nil, err
		}

		doc, err := s.backend.Write(ctx, kind, records, current.Version, message)
		if err == nil {
			s.committed(ctx, editor, doc)
			return doc, nil
		}
		if !errors.Is(err, models.ErrVersionConflict) {
			return nil, err
		}

		lastErr = err
		log.Printf("collection %s changed during update by %s (attempt %d/%d)", kind, editor.Login, attempt, s.maxAttempts)
	}
	return nil, lastErr
}

// AddRecord appends a record with id max(existing id)+1.
func (s *CollectionService) AddRecord(ctx context.Context, editor models.Editor, kind models.Kind, fields map[string]any) (*models.Record, *models.Document, error) {
	if len(fields) == 0 {
		return nil, nil, ErrNoFieldsToUpdate
	}

	var added models.Record
	doc, err := s.Update(ctx, editor, kind, "", func(records []models.Record) ([]models.Record, error) {
		fieldsCopy := make(map[string]any, len(fields))
		for k, v := range fields {
			if k == "id" {
				continue
			}
			fieldsCopy[k] = v
		}
		added = models.NewRecord(models.NextID(records), fieldsCopy)
		return append(records, added), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &added, doc, nil
}

func (s *CollectionService) DeleteRecord(ctx context.Context, editor models.Editor, kind models.Kind, id int64) (*models.Document, error) {
	return s.Update(ctx, editor, kind, "", func(records []models.Record) ([]models.Record, error) {
		out := records[:0]
		found := false
		for _, r := range records {
			if r.ID == id {
				found = true
				continue
			}
			out = append(out, r)
		}
		if !found {
			return nil, fmt.Errorf("%w: %d", models.ErrRecordNotFound, id)
		}
		return out, nil
	})
}

func (s *CollectionService) Source(ctx context.Context, editor models.Editor, kind models.Kind) (*remote.Asset, error) {
	if err := authorize(editor); err != nil {
		return nil, err
	}
	se, ok := s.backend.(SourceEditor)
	if !ok {
		return nil, models.ErrUnsupported
	}
	return se.Source(ctx, kind)
}

func (s *CollectionService) SaveSource(ctx context.Context, editor models.Editor, kind models.Kind, body, expectedVersion, message string) (*models.Document, error) {
	if err := authorize(editor); err != nil {
		return nil, err
	}
	se, ok := s.backend.(SourceEditor)
	if !ok {
		return nil, models.ErrUnsupported
	}

	doc, err := se.SaveSource(ctx, kind, body, expectedVersion, message)
	if err != nil {
		return nil, err
	}
	s.committed(ctx, editor, doc)
	return doc, nil
}

func (s *CollectionService) committed(ctx context.Context, editor models.Editor, doc *models.Document) {
	log.Printf("collection %s committed by %s: %s -> %s (%d records)",
		doc.Kind, editor.Login, doc.Parent, doc.Version, len(doc.Records))

	if s.recorder == nil {
		return
	}
	entry := models.CommitEntry{
		ID:          uuid.New(),
		Kind:        doc.Kind,
		Editor:      editor.Login,
		OldVersion:  doc.Parent,
		NewVersion:  doc.Version,
		RecordCount: len(doc.Records),
		CreatedAt:   time.Now(),
	}
	// audit failures never fail a committed write
	if err := s.recorder.Record(ctx, entry); err != nil {
		log.Printf("failed to record commit of %s: %v", doc.Kind, err)
	}
}

func cloneRecords(records []models.Record) []models.Record {
	out := make([]models.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
