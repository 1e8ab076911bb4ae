package handlers

import (
	"strconv"

	"github.com/dimitrije/sitecms/internal/middleware"
	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type CollectionHandler struct {
	collectionService CollectionServiceInterface
	auditService      AuditServiceInterface
	hub               HubInterface
}

func NewCollectionHandler(
	collectionService CollectionServiceInterface,
	auditService AuditServiceInterface,
	hub HubInterface,
) *CollectionHandler {
	return &CollectionHandler{
		collectionService: collectionService,
		auditService:      auditService,
		hub:               hub,
	}
}

// target resolves the authenticated editor and the :kind parameter. It writes
// the error response itself and reports false when the request cannot proceed.
func (h *CollectionHandler) target(c *drift.Context) (models.Editor, models.Kind, bool) {
	editor := middleware.GetEditor(c)
	if editor.Login == "" {
		c.Unauthorized("not authenticated")
		return editor, "", false
	}

	kind, err := models.ParseKind(c.Param("kind"))
	if err != nil {
		c.NotFound("unknown collection")
		return editor, "", false
	}
	return editor, kind, true
}

func (h *CollectionHandler) committed(editor models.Editor, doc *models.Document) {
	if h.hub != nil {
		h.hub.BroadcastCollectionUpdate(doc.Kind, doc.Version, editor.Login)
	}
}

func (h *CollectionHandler) Get(c *drift.Context) {
	editor, kind, ok := h.target(c)
	if !ok {
		return
	}

	doc, err := h.collectionService.ReadDocument(c.Request.Context(), editor, kind)
	if err != nil {
		h.respondError(c, editor, kind, err)
		return
	}

	_ = c.JSON(200, dto.CollectionResponse{
		Kind:    doc.Kind,
		Version: doc.Version,
		Items:   doc.Records,
	})
}

func (h *CollectionHandler) Update(c *drift.Context) {
	editor, kind, ok := h.target(c)
	if !ok {
		return
	}

	var req dto.UpdateCollectionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Items == nil {
		c.BadRequest("items is required")
		return
	}

	doc, err := h.collectionService.WriteDocument(c.Request.Context(), editor, kind, req.Items, req.Version, req.Message)
	if err != nil {
		h.respondError(c, editor, kind, err)
		return
	}

	h.committed(editor, doc)

	_ = c.JSON(200, dto.CollectionResponse{
		Kind:    doc.Kind,
		Version: doc.Version,
		Items:   doc.Records,
	})
}

func (h *CollectionHandler) AddItem(c *drift.Context) {
	editor, kind, ok := h.target(c)
	if !ok {
		return
	}

	var req dto.AddItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if len(req.Fields) == 0 {
		c.BadRequest("fields are required")
		return
	}

	item, doc, err := h.collectionService.AddRecord(c.Request.Context(), editor, kind, req.Fields)
	if err != nil {
		h.respondError(c, editor, kind, err)
		return
	}

	h.committed(editor, doc)

	_ = c.JSON(201, dto.AddItemResponse{
		Item:    *item,
		Version: doc.Version,
	})
}

func (h *CollectionHandler) DeleteItem(c *drift.Context) {
	editor, kind, ok := h.target(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.BadRequest("invalid item id")
		return
	}

	doc, err := h.collectionService.DeleteRecord(c.Request.Context(), editor, kind, id)
	if err != nil {
		h.respondError(c, editor, kind, err)
		return
	}

	h.committed(editor, doc)

	_ = c.JSON(200, commitResponse(doc))
}

func (h *CollectionHandler) GetSource(c *drift.Context) {
	editor, kind, ok := h.target(c)
	if !ok {
		return
	}

	asset, err := h.collectionService.Source(c.Request.Context(), editor, kind)
	if err != nil {
		h.respondError(c, editor, kind, err)
		return
	}

	_ = c.JSON(200, dto.SourceResponse{
		Path:    asset.Path,
		Version: asset.Version,
		Body:    asset.Body,
	})
}

func (h *CollectionHandler) UpdateSource(c *drift.Context) {
	editor, kind, ok := h.target(c)
	if !ok {
		return
	}

	var req dto.UpdateSourceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Body == "" {
		c.BadRequest("body is required")
		return
	}

	doc, err := h.collectionService.SaveSource(c.Request.Context(), editor, kind, req.Body, req.Version, req.Message)
	if err != nil {
		h.respondError(c, editor, kind, err)
		return
	}

	h.committed(editor, doc)

	_ = c.JSON(200, commitResponse(doc))
}

func (h *CollectionHandler) History(c *drift.Context) {
	editor, kind, ok := h.target(c)
	if !ok {
		return
	}

	if !editor.Authorized {
		c.Forbidden("editor is not allowed to change site content")
		return
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.BadRequest("invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.auditService.List(c.Request.Context(), kind, limit)
	if err != nil {
		c.InternalServerError("failed to load history")
		return
	}

	_ = c.JSON(200, dto.HistoryResponse{
		Kind:    kind,
		Entries: entries,
	})
}

func commitResponse(doc *models.Document) dto.CommitResponse {
	return dto.CommitResponse{
		Kind:        doc.Kind,
		Version:     doc.Version,
		Parent:      doc.Parent,
		RecordCount: len(doc.Records),
	}
}
