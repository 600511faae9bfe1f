package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/medscanx/internal/application"
	appreports "github.com/bryanwahyu/medscanx/internal/application/reports"
	appshare "github.com/bryanwahyu/medscanx/internal/application/share"
	"github.com/bryanwahyu/medscanx/internal/config"
	"github.com/bryanwahyu/medscanx/internal/domain/reporterrors"
	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
	aiclient "github.com/bryanwahyu/medscanx/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/medscanx/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/medscanx/internal/infra/db/postgres"
	"github.com/bryanwahyu/medscanx/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/medscanx/internal/infra/storage"
	"github.com/bryanwahyu/medscanx/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database; mysql is the default, postgres is opt-in
	var (
		db      *sql.DB
		repo    domain.Repository
		failLog reporterrors.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		repo = postgresp.NewReportRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		repo = mysqlp.NewReportRepository(db)
		failLog = mysqlp.NewReportErrorRepository(db)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// init oracle client
	oracle := aiclient.NewClient(cfg.AI.APIKey, cfg.AI.Model)

	// init services
	reportsSvc := &appreports.Service{
		Repo:   repo,
		Oracle: oracle,
		Images: store,
		Errors: failLog,
		Clock:  application.SystemClock{},
	}
	shareSvc := appshare.NewService(
		repo,
		[]byte(cfg.Share.Secret),
		time.Duration(cfg.Share.TTLHours)*time.Hour,
		application.SystemClock{},
	)

	// health checks: db + object store
	health := middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"storage":  middleware.CheckerFunc(store.Ping),
	})

	// init router with middleware chain
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.JWTAuth([]byte(cfg.Auth.Secret)))
	if cfg.RateLimit.Capacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	}
	mux.Mount("/", httpserver.NewRouter(reportsSvc, shareSvc, cfg.Server.BaseURL, health))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // oracle calls are slow
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
