// Package sse streams authoritative character updates to browsers.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/chargen/cache"
	"github.com/kasuganosora/chargen/game/character"
	"github.com/kasuganosora/chargen/game/chargen"
	mw "github.com/kasuganosora/chargen/middleware"
	"go.uber.org/zap"
)

// Handler handles the SSE endpoint.
type Handler struct {
	pubsub    cache.PubSub
	chars     *character.Service
	logger    *zap.Logger
	keepalive time.Duration
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, chars *character.Service, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, chars: chars, logger: logger, keepalive: 30 * time.Second}
}

// WithKeepalive sets the interval between keepalive comments.
func (h *Handler) WithKeepalive(d time.Duration) *Handler {
	h.keepalive = d
	return h
}

// ServeSSE handles GET /sse?token=<jwt>&character=<id>. It must run behind
// mw.Auth. The stream opens with a "snapshot" event holding the stored build
// and then carries one "update" event per accepted change. Updates at or below
// the snapshot's version can be ignored.
func (h *Handler) ServeSSE(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	id, err := strconv.ParseInt(c.Query("character"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	// Subscribe before reading the snapshot so no update falls in between.
	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, character.Channel(id))
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer unsub()

	rec, err := h.chars.Get(subCtx, accountID, id)
	if errors.Is(err, character.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return
	}
	if err != nil {
		h.logger.Error("sse snapshot failed", zap.Int64("char_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	snapshot, err := json.Marshal(character.Update{
		CharacterID: rec.ID, Version: rec.Version, Field: chargen.FieldBuild, State: rec.State,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: snapshot\ndata: %s\n\n", snapshot)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: update\ndata: %s\n\n", msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-subCtx.Done():
			return
		}
	}
}
