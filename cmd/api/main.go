package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/config"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/feed"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/flags"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/journal"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/jupiter"
	"github.com/aman-zulfiqar/jupiter-swap-api-client/internal/server"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	client, err := jupiter.NewClient(cfg.ClientConfig(logger))
	if err != nil {
		logger.WithError(err).Fatal("failed to create jupiter client")
	}

	h := &server.Handlers{
		Jupiter: client,
		DevMode: cfg.DevMode,
		Logger:  logger,
	}

	// Route toggles and the quote feed are optional; without Redis every route stays enabled
	if cfg.RedisAddr != "" {
		rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := rclient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, route toggles disabled")
			_ = rclient.Close()
		} else {
			defer rclient.Close()
			store, err := flags.NewStore(rclient)
			if err != nil {
				logger.WithError(err).Fatal("failed to create route toggle store")
			}
			h.Flags = store

			qf, err := feed.New(rclient, logger)
			if err != nil {
				logger.WithError(err).Fatal("failed to create quote feed")
			}
			h.Feed = qf
		}
	}

	// Quote journal is optional as well
	if cfg.ClickHouseAddr != "" {
		openCtx, openCancel := context.WithTimeout(ctx, 10*time.Second)
		j, err := journal.Open(openCtx, journal.Config{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err == nil {
			err = j.EnsureSchema(openCtx)
			if err != nil {
				_ = j.Close()
			}
		}
		openCancel()
		if err != nil {
			logger.WithError(err).Warn("clickhouse unavailable, quote journal disabled")
		} else {
			defer j.Close()
			h.Journal = j
		}
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:          cfg.APIAddr,
			APIKey:        cfg.APIKey,
			SwapRateLimit: cfg.SwapRateLimit,
			SwapBurst:     cfg.SwapBurst,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":     cfg.APIAddr,
		"upstream": client.BaseURL(),
		"toggles":  h.Flags != nil,
		"journal":  h.Journal != nil,
		"feed":     h.Feed != nil,
	}).Info("api server starting")
	if err := srv.Start(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			_ = srv.WaitClosed(context.Background())
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}
}
