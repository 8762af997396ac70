package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/chargen/api/rest"
	"github.com/kasuganosora/chargen/api/sse"
	"github.com/kasuganosora/chargen/audit"
	"github.com/kasuganosora/chargen/cache"
	"github.com/kasuganosora/chargen/config"
	"github.com/kasuganosora/chargen/game/character"
	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/game/draft"
	"github.com/kasuganosora/chargen/game/reconcile"
	mw "github.com/kasuganosora/chargen/middleware"
	"github.com/kasuganosora/chargen/plugin/hook"
	"github.com/kasuganosora/chargen/resource"
	"github.com/kasuganosora/chargen/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// TestServer is a real HTTP server with every chargen service wired together
// the way main.go wires them.
type TestServer struct {
	DB      *gorm.DB
	Cache   cache.Cache
	PubSub  cache.PubSub
	Catalog *chargen.Catalog
	Chars   *character.Service
	Drafts  *draft.Store
	Hooks   *hook.HookCenter
	Audit   *audit.Service
	Server  *httptest.Server
	URL     string
	Sec     config.SecurityConfig
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	cat := testutil.Catalog(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}

	auditSvc := audit.New(db, logger)
	hooks := hook.NewHookCenter()
	chars := character.NewService(db, cat, auditSvc, hooks, pubsub, logger)
	drafts := draft.NewStore(c, logger)

	ctx, cancel := context.WithCancel(context.Background())
	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := mw.Auth(sec, c)
	apirest.Handlers{
		Auth:      apirest.NewAuthHandler(db, c, sec, auditSvc).WithBcryptCost(bcrypt.MinCost),
		Character: apirest.NewCharacterHandler(chars, logger),
		Draft:     apirest.NewDraftHandler(drafts, chars, auditSvc, hooks, logger),
		Catalog:   apirest.NewCatalogHandler(resource.NewViews(cat, 32)),
	}.Mount(r.Group("/api"), requireAuth)
	r.GET("/sse", requireAuth, sse.NewHandler(pubsub, chars, logger).WithKeepalive(100*time.Millisecond).ServeSSE)

	server := httptest.NewServer(r)
	t.Cleanup(func() {
		server.Close()
		cancel()
		stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		auditSvc.Stop(stopCtx)
	})

	return &TestServer{
		DB:      db,
		Cache:   c,
		PubSub:  pubsub,
		Catalog: cat,
		Chars:   chars,
		Drafts:  drafts,
		Hooks:   hooks,
		Audit:   auditSvc,
		Server:  server,
		URL:     server.URL,
		Sec:     sec,
	}
}

// Client is a logged-in HTTP client.
type Client struct {
	t         *testing.T
	ts        *TestServer
	Token     string
	AccountID int64
}

// Login registers (on first use) and logs in an account.
func (ts *TestServer) Login(t *testing.T, username string) *Client {
	t.Helper()
	cl := &Client{t: t, ts: ts}
	var out struct {
		Token     string `json:"token"`
		AccountID int64  `json:"account_id"`
	}
	code := cl.Do(http.MethodPost, "/api/auth/login",
		map[string]string{"username": username, "password": "pass1234"}, &out)
	require.Equal(t, http.StatusOK, code)
	cl.Token, cl.AccountID = out.Token, out.AccountID
	return cl
}

// Do sends a JSON request and decodes the response into out when non-nil.
func (cl *Client) Do(method, path string, body, out any) int {
	cl.t.Helper()
	code, raw, err := cl.send(context.Background(), method, path, body)
	require.NoError(cl.t, err)
	if out != nil && len(raw) > 0 {
		require.NoError(cl.t, json.Unmarshal(raw, out), string(raw))
	}
	return code
}

func (cl *Client) send(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, cl.ts.URL+path, &buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if cl.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.Token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	return resp.StatusCode, raw, err
}

// Transport posts tracker submissions to the character's submissions endpoint.
// Rejected acks arrive as 409 and still carry the authoritative state.
func (cl *Client) Transport(id int64) reconcile.Transport {
	path := fmt.Sprintf("/api/characters/%d/submissions", id)
	return reconcile.TransportFunc(func(ctx context.Context, sub reconcile.Submission) (reconcile.Ack, error) {
		code, raw, err := cl.send(ctx, http.MethodPost, path, sub)
		if err != nil {
			return reconcile.Ack{}, err
		}
		if code != http.StatusOK && code != http.StatusConflict {
			return reconcile.Ack{}, fmt.Errorf("submit: status %d: %s", code, raw)
		}
		var ack reconcile.Ack
		err = json.Unmarshal(raw, &ack)
		return ack, err
	})
}

// Event is one server-sent event.
type Event struct {
	Name   string
	Update character.Update
}

// Stream opens the SSE stream of a character. Events are delivered on the
// returned channel until the test ends.
func (cl *Client) Stream(id int64) <-chan Event {
	cl.t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cl.t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/sse?token=%s&character=%d", cl.ts.URL, cl.Token, id), nil)
	require.NoError(cl.t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(cl.t, err)
	require.Equal(cl.t, http.StatusOK, resp.StatusCode)

	events := make(chan Event, 16)
	go func() {
		defer resp.Body.Close()
		defer close(events)
		r := bufio.NewReader(resp.Body)
		var ev Event
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "" && ev.Name != "":
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
				ev = Event{}
			case strings.HasPrefix(line, "event: "):
				ev.Name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				_ = json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev.Update)
			}
		}
	}()
	return events
}

// Next waits for the next event on a stream.
func Next(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for event")
	}
	return Event{}
}
