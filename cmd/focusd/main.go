package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focusService/internal/auth"
	"focusService/internal/clock"
	"focusService/internal/notify"
	"focusService/internal/settings"
	"focusService/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

var webPort = envOr("WEB_PORT", "8080")
var redisAddr = os.Getenv("REDIS_ADDR")
var dsn = os.Getenv("DSN")
var storeDriver = envOr("STORE_DRIVER", store.DriverSQLite)
var storeDSN = envOr("STORE_DSN", "focus.db")
var settingsPath = os.Getenv("SETTINGS_PATH")

type Config struct {
	Registry *clock.Registry
	Settings *settings.Provider
	Store    *store.Store
	AuthRepo auth.AuthRepository
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		auth.SetJWTSecret(secret)
	}

	taskStore, err := store.Open(storeDriver, storeDSN)
	if err != nil {
		log.Fatalf("failed to open task store: %v", err)
	}
	defer taskStore.Close()
	log.Printf("✅ Task store ready (%s)", taskStore.Driver())

	provider, err := openSettings()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	opts := []clock.Option{clock.WithFocusRecorder(taskStore)}
	notifiers := notify.Multi{notify.LogNotifier{}}
	if redisAddr != "" {
		redisPersistence, err := clock.NewRedisPersistence(ctx, redisAddr)
		if err != nil {
			log.Printf("Warning: failed to initialize Redis persistence, falling back to in-memory: %v", err)
		} else {
			opts = append(opts, clock.WithSnapshotStore(redisPersistence))
			notifiers = append(notifiers, notify.NewRedisPublisher(redisPersistence.Client(), ""))
		}
	}
	opts = append(opts, clock.WithNotifier(notifiers))

	registry := clock.NewRegistry(opts...)
	defer registry.Close()

	report := registry.Recover(ctx)
	log.Printf("🔄 Server startup: %s", report)

	app := Config{
		Registry: registry,
		Settings: provider,
		Store:    taskStore,
	}
	if dsn != "" {
		conn := connectToDB()
		if conn == nil {
			log.Panic("Can't connect to Postgres")
		}
		defer conn.Close()
		app.setupRepo(ctx, conn)
	} else {
		log.Printf("⚠️ DSN not set, session routes are unauthenticated")
	}

	go func() {
		if err := registry.Run(ctx, time.Second); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("ticker stopped: %v", err)
		}
	}()
	go func() {
		if err := provider.Watch(ctx, nil); err != nil {
			log.Printf("settings watcher stopped: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", webPort),
		Handler: app.routes(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting focus service on port %s\n", webPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Panic(err)
	}

	// The process is going away; persist the suspension point for the next boot.
	if err := registry.Suspend(context.Background()); err != nil {
		log.Printf("❌ Failed to persist snapshot on shutdown: %v", err)
	}
}

func (app *Config) setupRepo(ctx context.Context, conn *pgxpool.Pool) {
	repo := auth.NewPostgresRepository(conn)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Panicf("failed to prepare users table: %v", err)
	}
	app.AuthRepo = repo
}

func openSettings() (*settings.Provider, error) {
	path := settingsPath
	if path == "" {
		var err error
		path, err = settings.DefaultPath("focus")
		if err != nil {
			return nil, err
		}
	}
	return settings.NewProvider(path)
}
