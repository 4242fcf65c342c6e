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

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/WanDrewBerry/mall-map-backend/internal/blocklist"
	"github.com/WanDrewBerry/mall-map-backend/internal/config"
	"github.com/WanDrewBerry/mall-map-backend/internal/es"
	"github.com/WanDrewBerry/mall-map-backend/internal/handlers"
	"github.com/WanDrewBerry/mall-map-backend/internal/logging"
	authmw "github.com/WanDrewBerry/mall-map-backend/internal/middleware/auth"
	"github.com/WanDrewBerry/mall-map-backend/internal/mykafka"
	"github.com/WanDrewBerry/mall-map-backend/internal/repo"
	"github.com/WanDrewBerry/mall-map-backend/internal/service"
	"github.com/WanDrewBerry/mall-map-backend/internal/storage"
	"github.com/WanDrewBerry/mall-map-backend/internal/tokens"
	httpserver "github.com/WanDrewBerry/mall-map-backend/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.Production())

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var revoked blocklist.Blocklist
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis init error: %v", err)
		}
		cancel()
		revoked = blocklist.NewRedis(client, cfg.AccessTokenTTL)
		logger.Info("blocklist backend", "kind", "redis", "addr", cfg.RedisAddr)
	} else {
		revoked = blocklist.NewMemory(cfg.AccessTokenTTL)
		logger.Info("blocklist backend", "kind", "memory")
	}

	issuer := &tokens.Issuer{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
		IssuerName:    cfg.TokenIssuer,
		Audience:      cfg.TokenAudience,
		AccessTTL:     cfg.AccessTokenTTL,
	}
	verifier := &authmw.Verifier{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.TokenIssuer,
		Audience:  cfg.TokenAudience,
		Blocklist: revoked,
	}

	files, err := storage.NewDisk(cfg.UploadDir)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	producer := mykafka.NewProducer(cfg.KafkaBrokers)

	var searchHandler *handlers.SearchHandler
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: "malls"}
	}

	authSvc := &service.AuthService{
		Repo:      repo.GormRepo{DB: db},
		Issuer:    issuer,
		Blocklist: revoked,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(logging.Middleware(logger))
	if cfg.ClientURL != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     []string{cfg.ClientURL},
			AllowCredentials: true,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token"},
		}))
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			Svc:      authSvc,
			Verifier: verifier,
			Producer: producer,
			Secure:   cfg.Production(),
		},
		MallHandler: &handlers.MallHandler{
			DB:       db,
			Producer: producer,
			Files:    files,
		},
		SearchHandler: searchHandler,
		Verifier:      verifier,
		CSRFSecret:    cfg.SessionSecret,
		Secure:        cfg.Production(),
		UploadDir:     cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown complete")
}
