package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/decktrace/decktrace/internal/server"
	"github.com/decktrace/decktrace/internal/util/logger"
)

func main() {
	configPath := flag.String("config", "", "path to collector config YAML")
	flag.Parse()

	cfg := server.Config{
		Port:         8088,
		DatabasePath: "decktrace.db",
	}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			logger.Fatalf("collector: read config: %v", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			logger.Fatalf("collector: parse config: %v", err)
		}
	}
	logger.Init(&cfg.Logger)
	defer logger.Sync()

	store, err := server.NewStore(cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("collector: open store: %v", err)
	}
	defer store.Close()

	cache := server.NewTokenCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	defer cache.Close()

	publisher := server.NewReportPublisher(cfg.Kafka)
	defer publisher.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.New(store, cache, publisher, cfg.AllowOrigin).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("collector: listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("collector: serve: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("collector: shutdown: %v", err)
	}
}
