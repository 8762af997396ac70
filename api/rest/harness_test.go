package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/chargen/api/rest"
	"github.com/kasuganosora/chargen/cache"
	"github.com/kasuganosora/chargen/config"
	"github.com/kasuganosora/chargen/game/character"
	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/game/draft"
	mw "github.com/kasuganosora/chargen/middleware"
	"github.com/kasuganosora/chargen/plugin/hook"
	"github.com/kasuganosora/chargen/resource"
	"github.com/kasuganosora/chargen/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	r       *gin.Engine
	db      *gorm.DB
	cache   cache.Cache
	chars   *character.Service
	drafts  *draft.Store
	catalog *chargen.Catalog
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	cat := testutil.Catalog(t)
	logger := testutil.Logger()
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: 72 * time.Hour}
	hooks := hook.NewHookCenter()

	e := &env{
		db:      db,
		cache:   c,
		catalog: cat,
		chars:   character.NewService(db, cat, nil, hooks, ps, logger),
		drafts:  draft.NewStore(c, logger),
	}
	h := rest.Handlers{
		Auth:      rest.NewAuthHandler(db, c, sec, nil).WithBcryptCost(bcrypt.MinCost),
		Character: rest.NewCharacterHandler(e.chars, logger),
		Draft:     rest.NewDraftHandler(e.drafts, e.chars, nil, hooks, logger),
		Catalog:   rest.NewCatalogHandler(resource.NewViews(cat, 32)),
	}
	e.r = gin.New()
	e.r.Use(mw.TraceID())
	h.Mount(e.r.Group("/api"), mw.Auth(sec, c))
	return e
}

func (e *env) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *env) login(t *testing.T, username string) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/auth/login", map[string]string{"username": username, "password": "pass1234"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["token"].(string)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
