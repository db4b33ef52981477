package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bookora/internal/auth"
	"bookora/internal/cache"
	"bookora/internal/catalog"
	"bookora/internal/config"
	"bookora/internal/handler"
	"bookora/internal/jobs"
	"bookora/internal/media"
	"bookora/internal/middleware"
	"bookora/internal/repository"
	"bookora/internal/service"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

// A book index entry changes on every view, keep cached copies short lived
const bookCacheTTL = 2 * time.Minute

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}
	logger := config.NewLogger(cfg.Environment, logOut)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store", cfg.StoreDriver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opened, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer opened.Close()
	if !opened.Store.IsConfigured() {
		logger.Warn("document store not configured, serving bundled data read-only")
	}

	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	var bookCache cache.BookCache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisBookCache(ctx, cfg.RedisURL, bookCacheTTL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisCache.Close()
		bookCache = redisCache
		logger.Info("book cache enabled")
	}

	storage, err := media.NewStorage(media.Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		PublicURL: cfg.S3PublicURL,
		KeyPrefix: "media",
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create media storage: %v", err)
	}
	if !storage.IsConfigured() {
		logger.Info("object storage not configured, media stays inline")
	}

	authority, err := auth.NewHMACAuthority(cfg.AuthSecret, cfg.TokenTTL, logger)
	if err != nil {
		log.Fatalf("Failed to create token authority: %v", err)
	}
	var verifier auth.JWTVerifier = authority
	if cfg.AuthJWKSURL != "" {
		jwks, err := auth.NewJWKSVerifier(ctx, cfg.AuthJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWKS verifier: %v", err)
		}
		verifier = auth.ChainVerifier{authority, jwks}
	}
	defer verifier.Close()

	svc := service.SetupServices(service.Dependencies{
		Store:         opened.Store,
		DataPrefix:    cfg.DataPrefix,
		Catalog:       registry,
		Cache:         bookCache,
		Media:         storage,
		Tokens:        authority,
		AdminEmails:   cfg.AdminEmails,
		AutosaveDelay: cfg.AutosaveDelay,
	}, logger)

	// A cold mirror is served empty and refilled by the reload job
	if err := svc.Reload(ctx); err != nil {
		logger.Error("initial load failed", "error", err)
	}
	logger.Info("services initialized")

	var scheduled []jobs.Job
	if cfg.ReloadSchedule != "" {
		scheduled = append(scheduled, jobs.FuncJob{JobName: "reload-mirrors", Spec: cfg.ReloadSchedule, Fn: svc.Reload})
	}
	if cfg.SessionSweepSchedule != "" {
		scheduled = append(scheduled, jobs.FuncJob{
			JobName: "expire-sessions",
			Spec:    cfg.SessionSweepSchedule,
			Fn: func(ctx context.Context) error {
				return svc.ExpireSessions(ctx, cfg.SessionIdle)
			},
		})
	}
	var runner *jobs.Runner
	if len(scheduled) > 0 {
		runner = jobs.NewRunner(scheduled, time.Minute, logger)
		if err := runner.Start(); err != nil {
			log.Fatalf("Failed to start scheduled jobs: %v", err)
		}
	}

	origins := splitOrigins(cfg.CORSOrigins)
	allowed := mapset.NewSet(origins...)
	checkOrigin := func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed.Contains("*") {
			return true
		}
		if allowed.Contains(origin) {
			return true
		}
		// same-host clients without a configured origin
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}

	mux := handler.NewRouter(handler.Handlers{
		Health:        handler.NewHealthHandler(opened.Store, opened.Driver),
		Catalog:       handler.NewCatalogHandler(registry),
		Auth:          handler.NewAuthHandler(svc.Users, logger),
		Books:         handler.NewBookHandler(svc.Books, logger),
		Import:        handler.NewImportHandler(svc.Imports, logger),
		Media:         handler.NewMediaHandler(storage, logger),
		Feed:          handler.NewFeedHandler(svc.Feed, logger),
		Editor:        handler.NewEditorHandler(svc.Editor, logger),
		Reader:        handler.NewReaderHandler(svc.Reader),
		Notifications: handler.NewNotificationHandler(svc.Notifications, checkOrigin, logger),
		Admin:         handler.NewAdminHandler(svc.Activity, svc.Admins),
	}, svc.Admins)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestLogger → Authenticate → Routes
	var h http.Handler = mux
	h = middleware.Authenticate(verifier, logger)(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Sync-Error"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  60 * time.Second, // imports upload up to 100MB
		WriteTimeout: 0,                // Disabled to allow long-lived WebSocket streams
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if runner != nil {
		runner.Stop()
	}
	// flush unsaved editor sessions before the store goes away
	svc.Editor.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
