package rest

import "github.com/gin-gonic/gin"

// Handlers groups every REST handler mounted under /api.
type Handlers struct {
	Auth      *AuthHandler
	Character *CharacterHandler
	Draft     *DraftHandler
	Catalog   *CatalogHandler
}

// Mount registers the REST routes on api. requireAuth guards everything except
// login and the catalog.
func (h Handlers) Mount(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	authG := api.Group("/auth")
	authG.POST("/login", h.Auth.Login)
	authG.POST("/logout", requireAuth, h.Auth.Logout)
	authG.POST("/refresh", requireAuth, h.Auth.Refresh)

	catG := api.Group("/catalog")
	catG.GET("", h.Catalog.Kinds)
	catG.GET("/:kind", h.Catalog.List)

	charsG := api.Group("/characters", requireAuth)
	charsG.GET("", h.Character.List)
	charsG.POST("", h.Character.Create)
	charsG.GET("/:id", h.Character.Get)
	charsG.DELETE("/:id", h.Character.Delete)
	charsG.GET("/:id/dashboard", h.Character.Dashboard)
	charsG.POST("/:id/mutations", h.Character.Mutate)
	charsG.POST("/:id/submissions", h.Character.Submit)
	charsG.POST("/:id/save", h.Character.Save)

	draftsG := api.Group("/drafts", requireAuth)
	draftsG.GET("", h.Draft.List)
	draftsG.GET("/:slot", h.Draft.Get)
	draftsG.PUT("/:slot", h.Draft.Put)
	draftsG.DELETE("/:slot", h.Draft.Delete)
	draftsG.POST("/:slot/restore/:id", h.Draft.Restore)
}
