package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"hanamikoji-server/config"
	"hanamikoji-server/loghandler"
	"hanamikoji-server/room"
	"hanamikoji-server/snapshot"
	"hanamikoji-server/ws"
)

var startTime = time.Now()

func main() {
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("server/.env")
	}

	log := slog.New(loghandler.NewCompactHandler(os.Stdout, slog.LevelInfo))
	cfg := config.Load()

	log.Info("configuration loaded", "tag", "main", "port", cfg.Port, "nodeEnv", cfg.NodeEnv, "redis", cfg.RedisURL != "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisStore, err := snapshot.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "tag", "main", "err", err)
		os.Exit(1)
	}
	// A nil *RedisStore boxed directly into the snapshot.Store interface
	// would make every `store == nil` check downstream false (the classic
	// typed-nil-in-interface trap), so only assign the interface when the
	// store is genuinely present.
	var store snapshot.Store
	if redisStore != nil {
		store = redisStore
		defer redisStore.Close()
		log.Info("snapshot persistence enabled", "tag", "main")
	} else {
		log.Info("snapshot persistence disabled (REDIS_URL not set)", "tag", "main")
	}

	reg := room.NewRegistry(cfg, log, store)
	go reg.RunJanitor(ctx, time.Minute)

	hub := ws.NewHub(cfg, reg, log)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/health", healthHandler(cfg))

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: withCORS(cfg, mux)}

	go func() {
		log.Info("hanamikoji server listening", "tag", "main", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "tag", "main", "err", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down", "tag", "main")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}

func healthHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"status":      "ok",
			"environment": cfg.NodeEnv,
			"timestamp":   time.Now().Format(time.RFC3339),
			"corsOrigins": cfg.CORSOrigins,
			"uptime":      time.Since(startTime).String(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func withCORS(cfg *config.Config, next http.Handler) http.Handler {
	origin := "*"
	if len(cfg.CORSOrigins) > 0 {
		origin = cfg.CORSOrigins[0]
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
