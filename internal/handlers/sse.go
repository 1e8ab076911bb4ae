package handlers

import (
	"fmt"
	"strings"

	"github.com/dimitrije/sitecms/internal/middleware"
	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SSEHandler struct {
	hub HubInterface
}

func NewSSEHandler(hub HubInterface) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// parseKinds reads the optional comma separated kinds filter. An empty filter
// subscribes to every collection.
func parseKinds(raw string) (map[models.Kind]bool, error) {
	kinds := make(map[models.Kind]bool)
	if raw == "" {
		return kinds, nil
	}
	for _, part := range strings.Split(raw, ",") {
		kind, err := models.ParseKind(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		kinds[kind] = true
	}
	return kinds, nil
}

func authorizedEditor(c *drift.Context) (models.Editor, bool) {
	editor := middleware.GetEditor(c)
	if editor.Login == "" {
		c.Unauthorized("not authenticated")
		return editor, false
	}
	if !editor.Authorized {
		c.Forbidden("editor is not allowed to change site content")
		return editor, false
	}
	return editor, true
}

func (h *SSEHandler) Connect(c *drift.Context) {
	editor, ok := authorizedEditor(c)
	if !ok {
		return
	}

	kinds, err := parseKinds(c.QueryParam("kinds"))
	if err != nil {
		c.BadRequest("unknown collection in kinds")
		return
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:    clientID,
		Login: editor.Login,
		Kinds: kinds,
		Send:  make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *SSEHandler) Subscribe(c *drift.Context) {
	clientID, kind, ok := h.subscription(c)
	if !ok {
		return
	}

	h.hub.Subscribe(clientID, kind)

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("subscribed to %s", kind),
	})
}

func (h *SSEHandler) Unsubscribe(c *drift.Context) {
	clientID, kind, ok := h.subscription(c)
	if !ok {
		return
	}

	h.hub.Unsubscribe(clientID, kind)

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("unsubscribed from %s", kind),
	})
}

func (h *SSEHandler) subscription(c *drift.Context) (string, models.Kind, bool) {
	if _, ok := authorizedEditor(c); !ok {
		return "", "", false
	}

	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return "", "", false
	}

	kind, err := models.ParseKind(c.Param("kind"))
	if err != nil {
		c.NotFound("unknown collection")
		return "", "", false
	}
	return clientID, kind, true
}
