package main // Entry point package

import (
	"context"   // startup and shutdown deadlines
	"errors"    // errors.Is on server close
	"log"       // Logging library
	"net/http"  // http.ErrServerClosed
	"os"        // signals
	"os/signal" // graceful shutdown
	"syscall"   // SIGTERM
	"time"      // timeouts

	"github.com/google/uuid"                        // request ids
	"github.com/joho/godotenv"                      // .env loading for local runs
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's built-in middleware
	glog "github.com/labstack/gommon/log"           // Echo logger levels

	"github.com/iliyamo/bookletify-api/internal/catalog"    // Discogs client
	"github.com/iliyamo/bookletify-api/internal/config"     // Internal config loader
	"github.com/iliyamo/bookletify-api/internal/database"   // MySQL pool and schema
	"github.com/iliyamo/bookletify-api/internal/handler"    // HTTP handlers
	"github.com/iliyamo/bookletify-api/internal/middleware" // response cache
	"github.com/iliyamo/bookletify-api/internal/queue"      // audit consumer
	"github.com/iliyamo/bookletify-api/internal/repository" // MySQL stores
	"github.com/iliyamo/bookletify-api/internal/router"     // Internal router setup
	"github.com/iliyamo/bookletify-api/internal/service"    // audit publisher
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	discogs, err := catalog.NewClient(catalog.Config{
		Token:   cfg.DiscogsToken,
		BaseURL: cfg.DiscogsBaseURL,
		Timeout: cfg.DiscogsTimeout,
	})
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var audit service.AuditPublisher = service.LogPublisher{}
	if cfg.AMQPURL != "" {
		audit = service.NewAMQPPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartAuditConsumer(rootCtx, cfg.AMQPURL, cfg.AuditLogPath); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("audit consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	if cfg.IsDev() {
		e.Logger.SetLevel(glog.DEBUG)
	} else {
		e.Logger.SetLevel(glog.INFO)
	}
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Logger())

	users := repository.NewUserRepo(db)
	router.Register(e, router.Deps{ // Register application routes
		JWTSecret: cfg.JWTSecret,
		Users:     users,
		DB:        db,
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		Auth:      handler.NewAuthHandler(cfg, users),
		Catalog:   handler.NewCatalogHandler(discogs),
		Reviews:   handler.NewReviewHandler(repository.NewReviewRepo(db)),
		Favorites: handler.NewFavoriteHandler(repository.NewFavoriteRepo(db)),
		Admin:     handler.NewAdminHandler(repository.NewAdminRepo(db), audit),
	})

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal(err) // Log and exit if server fails
	case <-rootCtx.Done():
		log.Println("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
