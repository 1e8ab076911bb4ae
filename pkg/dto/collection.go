package dto

import "github.com/dimitrije/sitecms/internal/models"

type CollectionResponse struct {
	Kind    models.Kind     `json:"kind"`
	Version string          `json:"version"`
	Items   []models.Record `json:"items"`
}

// UpdateCollectionRequest replaces a whole collection. When Version is set the
// write only succeeds if the collection is still at that version.
type UpdateCollectionRequest struct {
	Items   []models.Record `json:"items"`
	Version string          `json:"version,omitempty"`
	Message string          `json:"message,omitempty"`
}

type AddItemRequest struct {
	Fields map[string]any `json:"fields"`
}

type AddItemResponse struct {
	Item    models.Record `json:"item"`
	Version string        `json:"version"`
}

type SourceResponse struct {
	Path    string `json:"path"`
	Version string `json:"version"`
	Body    string `json:"body"`
}

type UpdateSourceRequest struct {
	Body    string `json:"body"`
	Version string `json:"version"`
	Message string `json:"message,omitempty"`
}

type CommitResponse struct {
	Kind        models.Kind `json:"kind"`
	Version     string      `json:"version"`
	Parent      string      `json:"parent,omitempty"`
	RecordCount int         `json:"record_count"`
}

type HistoryResponse struct {
	Kind    models.Kind          `json:"kind"`
	Entries []models.CommitEntry `json:"entries"`
}

type ErrorResponse struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	CurrentVersion string `json:"current_version,omitempty"`
}
