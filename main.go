package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/chargen/api/rest"
	"github.com/kasuganosora/chargen/api/sse"
	"github.com/kasuganosora/chargen/audit"
	"github.com/kasuganosora/chargen/cache"
	"github.com/kasuganosora/chargen/config"
	dbadapter "github.com/kasuganosora/chargen/db"
	"github.com/kasuganosora/chargen/game/character"
	"github.com/kasuganosora/chargen/game/draft"
	mw "github.com/kasuganosora/chargen/middleware"
	"github.com/kasuganosora/chargen/model"
	"github.com/kasuganosora/chargen/plugin/hook"
	"github.com/kasuganosora/chargen/resource"
	"github.com/kasuganosora/chargen/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	} else if _, err := os.Stat(cfgPath); err != nil {
		cfgPath = ""
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	logger, err := newLogger(cfg.Server)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		logger.Fatal("security.jwt_secret must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Catalog ----
	rules, err := resource.BuildRules(cfg.Rules)
	if err != nil {
		logger.Fatal("rules", zap.Error(err))
	}
	catalog, err := resource.LoadCatalog(cfg.Catalog.DataPath, rules)
	if err != nil {
		logger.Fatal("catalog", zap.Error(err))
	}
	logger.Info("catalog loaded",
		zap.String("rules", rules.Version),
		zap.Int("presets", len(catalog.Presets)),
		zap.Bool("builtin", cfg.Catalog.DataPath == ""))

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		auditSvc.Stop(stopCtx)
	}()

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}
	defer c.Close()
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		logger.Fatal("pubsub", zap.Error(err))
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Services ----
	hooks := hook.NewHookCenter()
	chars := character.NewService(db, catalog, auditSvc, hooks, pubsub, logger)
	drafts := draft.NewStore(c, logger, draft.WithTTL(cfg.Drafts.TTL))

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.AddTicker("draft_prune", cfg.Drafts.PruneInterval, func(ctx context.Context) {
		if _, err := drafts.Prune(ctx); err != nil {
			logger.Warn("draft prune failed", zap.Error(err))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.AllowOrigins(cfg.Security.AllowedOrigins))
	r.Use(mw.RateLimit(ctx, rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "rules": catalog.Rules.Version})
	})

	requireAuth := mw.Auth(cfg.Security, c)
	handlers := apirest.Handlers{
		Auth:      apirest.NewAuthHandler(db, c, cfg.Security, auditSvc),
		Character: apirest.NewCharacterHandler(chars, logger),
		Draft:     apirest.NewDraftHandler(drafts, chars, auditSvc, hooks, logger),
		Catalog:   apirest.NewCatalogHandler(resource.NewViews(catalog, cfg.Catalog.ViewCacheSize)),
	}
	handlers.Mount(r.Group("/api"), requireAuth)

	sseH := sse.NewHandler(pubsub, chars, logger)
	r.GET("/sse", requireAuth, sseH.ServeSSE)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Streams end when the process is asked to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
