package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/chargen/resource"
)

// CatalogHandler serves read-only catalog listings.
type CatalogHandler struct {
	views *resource.Views
}

func NewCatalogHandler(views *resource.Views) *CatalogHandler {
	return &CatalogHandler{views: views}
}

// Kinds handles GET /api/catalog.
func (h *CatalogHandler) Kinds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"kinds": resource.Kinds()})
}

// List handles GET /api/catalog/:kind?q=&sort=.
func (h *CatalogHandler) List(c *gin.Context) {
	entries, err := h.views.List(c.Param("kind"), c.Query("q"), c.Query("sort"))
	switch {
	case errors.Is(err, resource.ErrUnknownKind):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, resource.ErrUnknownSort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": c.Param("kind"), "entries": entries})
}
