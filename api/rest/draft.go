package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/chargen/audit"
	"github.com/kasuganosora/chargen/game/character"
	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/game/draft"
	mw "github.com/kasuganosora/chargen/middleware"
	"github.com/kasuganosora/chargen/plugin/hook"
	"go.uber.org/zap"
)

// DraftHandler serves the unsaved-build slots of the signed-in account.
type DraftHandler struct {
	store  *draft.Store
	chars  *character.Service
	audit  *audit.Service
	hooks  *hook.HookCenter
	logger *zap.Logger
}

// NewDraftHandler creates a DraftHandler. auditSvc and hooks may be nil.
func NewDraftHandler(store *draft.Store, chars *character.Service, auditSvc *audit.Service, hooks *hook.HookCenter, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{store: store, chars: chars, audit: auditSvc, hooks: hooks, logger: logger}
}

func (h *DraftHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, draft.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
	case errors.Is(err, draft.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "draft expired"})
	case errors.Is(err, draft.ErrInvalidSlot), errors.Is(err, draft.ErrEmptyState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, character.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
	default:
		h.logger.Error("draft request failed", zap.String("trace_id", mw.GetTraceID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// List handles GET /api/drafts.
func (h *DraftHandler) List(c *gin.Context) {
	drafts, err := h.store.List(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts, "ttl_hours": h.store.TTL().Hours()})
}

// Get handles GET /api/drafts/:slot.
func (h *DraftHandler) Get(c *gin.Context) {
	d, err := h.store.Load(c.Request.Context(), mw.GetAccountID(c), c.Param("slot"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type putDraftRequest struct {
	CharacterID int64                   `json:"character_id"`
	BaseVersion int64                   `json:"base_version"`
	State       *chargen.CharacterState `json:"state" binding:"required"`
}

// Put handles PUT /api/drafts/:slot.
func (h *DraftHandler) Put(c *gin.Context) {
	var req putDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.store.Save(c.Request.Context(), draft.Draft{
		Owner:       mw.GetAccountID(c),
		Slot:        c.Param("slot"),
		CharacterID: req.CharacterID,
		BaseVersion: req.BaseVersion,
		State:       req.State,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": d.Slot, "saved_at": d.SavedAt})
}

// Delete handles DELETE /api/drafts/:slot.
func (h *DraftHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), mw.GetAccountID(c), c.Param("slot")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// Restore handles POST /api/drafts/:slot/restore/:id. It returns the draft
// with the salient differences from the stored character; the client decides
// whether to submit it.
func (h *DraftHandler) Restore(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}
	ctx := c.Request.Context()
	rec, err := h.chars.Get(ctx, accountID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	d, conflicts, err := h.store.Restore(ctx, accountID, c.Param("slot"), rec.State)
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.hooks != nil {
		_, _ = h.hooks.Trigger(ctx, hook.OnDraftRestore, d)
	}
	if h.audit != nil {
		h.audit.Log(audit.AuditEntry{
			TraceID: mw.GetTraceID(c), CharID: &id, AccountID: &accountID,
			Action: audit.ActionDraftRestore, Version: rec.Version,
			Request: map[string]string{"slot": d.Slot},
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"draft":     d,
		"conflicts": conflicts,
		"stale":     d.BaseVersion != 0 && d.BaseVersion < rec.Version,
		"version":   rec.Version,
	})
}
