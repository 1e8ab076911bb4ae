package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/services"
	"github.com/dimitrije/sitecms/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

var unprocessable = []struct {
	err  error
	code string
}{
	{models.ErrMalformedLiteral, "MALFORMED_LITERAL"},
	{models.ErrEvalTimeout, "EVAL_TIMEOUT"},
	{models.ErrSchemaViolation, "SCHEMA_VIOLATION"},
}

// respondError maps a collection operation failure onto an HTTP response.
// Nothing was changed remotely unless the failure is a version conflict, in
// which case something else changed it first.
func (h *CollectionHandler) respondError(c *drift.Context, editor models.Editor, kind models.Kind, err error) {
	for _, u := range unprocessable {
		if errors.Is(err, u.err) {
			_ = c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Code: u.code, Message: err.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		c.Forbidden("editor is not allowed to change site content")
	case errors.Is(err, models.ErrUnknownKind):
		c.NotFound("unknown collection")
	case errors.Is(err, models.ErrVersionConflict):
		h.respondConflict(c, editor, kind)
	case errors.Is(err, models.ErrRecordNotFound):
		c.NotFound("item not found")
	case errors.Is(err, models.ErrNotFound):
		_ = c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, models.ErrBlockNotFound):
		_ = c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: "BLOCK_NOT_FOUND", Message: err.Error()})
	case errors.Is(err, models.ErrDuplicateID):
		_ = c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: "DUPLICATE_ID", Message: err.Error()})
	case errors.Is(err, services.ErrVersionRequired):
		c.BadRequest("version is required")
	case errors.Is(err, services.ErrNoFieldsToUpdate):
		c.BadRequest("fields are required")
	case errors.Is(err, models.ErrUnsupported):
		_ = c.JSON(http.StatusNotImplemented, dto.ErrorResponse{Code: "UNSUPPORTED", Message: "not available for this store"})
	case errors.Is(err, models.ErrAuthFailure):
		log.Printf("site repository rejected credentials for %s: %v", kind, err)
		c.BadGateway("site repository rejected the configured credentials")
	case errors.Is(err, context.DeadlineExceeded):
		c.GatewayTimeout("site repository timed out")
	case errors.Is(err, models.ErrTransport):
		log.Printf("site repository error for %s: %v", kind, err)
		c.BadGateway("site repository unavailable")
	default:
		log.Printf("collection %s operation failed: %v", kind, err)
		c.InternalServerError("collection operation failed")
	}
}

func (h *CollectionHandler) respondConflict(c *drift.Context, editor models.Editor, kind models.Kind) {
	resp := dto.ErrorResponse{
		Code:    "VERSION_CONFLICT",
		Message: "collection was modified by another editor, reload and reapply your changes",
	}
	if current, err := h.collectionService.ReadDocument(c.Request.Context(), editor, kind); err == nil {
		resp.CurrentVersion = current.Version
	}
	_ = c.JSON(http.StatusConflict, resp)
}
