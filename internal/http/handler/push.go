package handler

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"cartstream.app/ingest/internal/http/dto"
	"cartstream.app/ingest/internal/model"
	"cartstream.app/ingest/internal/service"
)

// PushHandler is the delivery adapter: it decodes the push envelope, hands
// the payload to the router, and translates the outcome into the status
// code the broker keys its retry decision on.
//
//	2xx — handled, or permanently invalid data; do not redeliver.
//	4xx — malformed envelope; do not redeliver.
//	5xx — transient failure; redeliver (and eventually dead-letter).
type PushHandler struct {
	router service.EventRouter
}

func NewPushHandler(router service.EventRouter) *PushHandler {
	return &PushHandler{router: router}
}

func (h *PushHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	var envelope dto.PushEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		slog.WarnContext(ctx, "invalid push envelope", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid push envelope"})
		return
	}

	if envelope.Message == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid push envelope: missing message"})
		return
	}
	if envelope.Message.Data == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid push envelope: missing data"})
		return
	}

	payloadBytes, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: data is not base64"})
		return
	}
	if !utf8.Valid(payloadBytes) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: data is not UTF-8"})
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: not a JSON object"})
		return
	}

	meta := model.DeliveryMetadata{
		MessageID:   envelope.Message.MessageID,
		PublishTime: envelope.Message.PublishTime,
		Attributes:  envelope.Message.Attributes,
	}

	result, err := h.router.Route(ctx, payload, meta)
	if err != nil {
		// Transient storage failure: the broker retries on 5xx, which is
		// safe because every write is idempotent on the same insert id.
		slog.ErrorContext(ctx, "failed to process delivery", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !result.IsValid {
		slog.DebugContext(ctx, "acked invalid event", "defects", len(result.Defects))
	}
	c.JSON(http.StatusOK, dto.PushResponse{Status: "accepted"})
}
