package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"omifemcuts/internal/util"
	"omifemcuts/pkg/storage"
	"omifemcuts/pkg/store"
	"omifemcuts/services/shop/internal/app"
	"omifemcuts/services/shop/internal/config"
	"omifemcuts/services/shop/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)
	jwtLeeway, err := config.ParseJWTLeeway(cfg.JWTLeeway)
	if err != nil {
		log.Fatalf("failed to parse jwt leeway: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session ttl: %v", err)
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:   cfg.DatabaseURL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		JWTSecret:     cfg.JWTSecret,
		JWT: store.JWTOptions{
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Leeway:   jwtLeeway,
		},
		SessionTTL: sessionTTL,
		Minio: app.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		},
		Cloudinary: storage.CloudinaryConfig{
			CloudName:    cfg.CloudinaryCloudName,
			UploadPreset: cfg.CloudinaryUploadPreset,
			Folder:       cfg.CloudinaryFolder,
		},
		GoogleClientID: cfg.GoogleClientID,
		GoogleJWKSURL:  cfg.GoogleJWKSURL,
		Events: app.EventsConfig{
			Backend:  cfg.EventsBackend,
			Stream:   cfg.EventsStream,
			AMQPURL:  cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
		},
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	defer appCore.Close()

	httpServer, err := server.New(server.Config{
		App:                        appCore,
		PublicBaseURL:              cfg.PublicBaseURL,
		RedisAddr:                  cfg.RedisAddr,
		RedisPassword:              cfg.RedisPassword,
		CORSOrigins:                cfg.CORSOrigins,
		TrustedProxies:             cfg.TrustedProxyCIDRs,
		SignupRateLimitPerMinute:   cfg.SignupRateLimitPerMinute,
		LoginRateLimitPerMinute:    cfg.LoginRateLimitPerMinute,
		LikeRateLimitPerMinute:     cfg.LikeRateLimitPerMinute,
		FeedbackRateLimitPerMinute: cfg.FeedbackRateLimitPerMinute,
		ContactRateLimitPerMinute:  cfg.ContactRateLimitPerMinute,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "err", err)
		}
	}()

	slog.Info("shop server listening", "addr", addr, "image_host", appCore.ImageHostName(), "events", cfg.EventsBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}
