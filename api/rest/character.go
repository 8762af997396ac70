package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/chargen/game/character"
	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/game/reconcile"
	mw "github.com/kasuganosora/chargen/middleware"
	"go.uber.org/zap"
)

// CharacterHandler handles character REST endpoints.
type CharacterHandler struct {
	svc    *character.Service
	logger *zap.Logger
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(svc *character.Service, logger *zap.Logger) *CharacterHandler {
	return &CharacterHandler{svc: svc, logger: logger}
}

func charID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return 0, false
	}
	return id, true
}

// fail maps service errors to responses.
func (h *CharacterHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, character.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
	case errors.Is(err, character.ErrNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "name already in use"})
	case errors.Is(err, character.ErrInvalidName),
		errors.Is(err, character.ErrUnknownPreset),
		errors.Is(err, chargen.ErrUnknownOp):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, character.ErrLocked):
		c.JSON(http.StatusConflict, gin.H{"error": "character is saved"})
	case errors.Is(err, character.ErrVetoed):
		c.JSON(http.StatusForbidden, gin.H{"error": "rejected"})
	case errors.Is(err, character.ErrBusy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many concurrent edits"})
	default:
		h.logger.Error("character request failed", zap.String("trace_id", mw.GetTraceID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// List handles GET /api/characters.
func (h *CharacterHandler) List(c *gin.Context) {
	recs, err := h.svc.List(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": recs})
}

type createCharacterRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=64"`
	Preset string `json:"preset"`
}

// Create handles POST /api/characters.
func (h *CharacterHandler) Create(c *gin.Context) {
	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.svc.Create(c.Request.Context(), mw.GetAccountID(c), req.Name, req.Preset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Get handles GET /api/characters/:id.
func (h *CharacterHandler) Get(c *gin.Context) {
	id, ok := charID(c)
	if !ok {
		return
	}
	rec, err := h.svc.Get(c.Request.Context(), mw.GetAccountID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /api/characters/:id.
func (h *CharacterHandler) Delete(c *gin.Context) {
	id, ok := charID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), mw.GetAccountID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// Dashboard handles GET /api/characters/:id/dashboard.
func (h *CharacterHandler) Dashboard(c *gin.Context) {
	id, ok := charID(c)
	if !ok {
		return
	}
	d, res, err := h.svc.Dashboard(c.Request.Context(), mw.GetAccountID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": d, "validation": res})
}

// Mutate handles POST /api/characters/:id/mutations. The body is a single
// command; the response is the store's ack.
func (h *CharacterHandler) Mutate(c *gin.Context) {
	id, ok := charID(c)
	if !ok {
		return
	}
	var cmd chargen.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ack, err := h.svc.Apply(c.Request.Context(), mw.GetAccountID(c), id, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(ackStatus(ack), ack)
}

// Submit handles POST /api/characters/:id/submissions, the wire form of the
// tracker's transport.
func (h *CharacterHandler) Submit(c *gin.Context) {
	id, ok := charID(c)
	if !ok {
		return
	}
	var sub reconcile.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ack, err := h.svc.Submit(c.Request.Context(), mw.GetAccountID(c), id, sub)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(ackStatus(ack), ack)
}

// ackStatus is 200 for accepted acks and 409 for rejected ones. Both carry
// the authoritative state.
func ackStatus(ack reconcile.Ack) int {
	if ack.Accepted {
		return http.StatusOK
	}
	return http.StatusConflict
}

// Save handles POST /api/characters/:id/save.
func (h *CharacterHandler) Save(c *gin.Context) {
	id, ok := charID(c)
	if !ok {
		return
	}
	rec, res, err := h.svc.Save(c.Request.Context(), mw.GetAccountID(c), id)
	if errors.Is(err, character.ErrNotSavable) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "build has blocking issues", "validation": res})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"character": rec, "validation": res})
}
