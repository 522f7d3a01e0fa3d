package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/shinyyama/motors-backend/internal/ai"
	"github.com/shinyyama/motors-backend/internal/auth"
	"github.com/shinyyama/motors-backend/internal/cache"
	"github.com/shinyyama/motors-backend/internal/config"
	"github.com/shinyyama/motors-backend/internal/db"
	appmw "github.com/shinyyama/motors-backend/internal/middleware"
	"github.com/shinyyama/motors-backend/internal/server"
	"github.com/shinyyama/motors-backend/internal/storage"
)

var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config load error")
	}
	logger := newLogger(cfg.LogLevel)
	zlog.Logger = logger
	zerolog.DefaultContextLogger = &logger

	ctx := context.Background()
	deps := server.Deps{Logger: logger, SHA: gitSHA, BuildTime: buildTime}

	fbAuth, err := appmw.NewFirebaseAuth(ctx, cfg.FirebaseProjectID, cfg.CredentialsFile)
	if err != nil {
		logger.Warn().Err(err).Msg("firebase auth disabled; only public routes are served")
	} else {
		admins := auth.NewEmailAllowlist(cfg.AdminEmails)
		if admins.Len() == 0 {
			logger.Warn().Msg("ADMIN_EMAILS is empty; moderation routes will refuse everyone")
		}
		deps.Auth = appmw.NewAuthMiddleware(fbAuth, admins)
		deps.Users = fbAuth
	}

	if cfg.RedisAddr != "" {
		rctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		rdb, err := cache.Connect(rctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; package cache disabled")
		} else {
			defer rdb.Close()
			deps.PackageCache = cache.NewPackageCache(rdb)
		}
	}

	if cfg.StorageBucket != "" {
		store, err := storage.NewReceiptStore(ctx, cfg.StorageBucket, cfg.CredentialsFile)
		if err != nil {
			logger.Warn().Err(err).Msg("receipt storage unavailable; receipts will get placeholder references")
		} else {
			defer store.Close()
			deps.Receipts = store
		}
	}

	if cfg.GeminiAPIKey != "" {
		reader, err := ai.NewReceiptClient(ctx, cfg.GeminiAPIKey, cfg.GeminiReceiptModel)
		if err != nil {
			logger.Warn().Err(err).Msg("receipt reader disabled")
		} else {
			deps.Reader = reader
		}
	}

	srv := server.New(nil, deps)
	addr := ":" + cfg.Port

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("starting server")
		errCh <- srv.Start(addr)
	}()

	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			logger.Error().Err(err).Msg("db connect error")
			return
		}
		if err := db.Migrate(conn); err != nil {
			logger.Error().Err(err).Msg("auto migrate error")
		}
		srv.SetDB(conn)
		logger.Info().Msg("database attached")
	}()

	if err := <-errCh; err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
