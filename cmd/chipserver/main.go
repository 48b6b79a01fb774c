package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chiptrack/chiptrack/internal/httpapi"
	"github.com/chiptrack/chiptrack/internal/hub"
	"github.com/chiptrack/chiptrack/internal/store"
)

func main() {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	st, mode, err := store.NewStoreFromEnv()
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}
	defer st.Close()
	log.Info("store ready", zap.String("mode", mode))

	ctx := context.Background()
	h := hub.NewHub(ctx, st, log)

	handler := httpapi.SetupRoutes(h, log)

	addr := os.Getenv("CHIPTRACK_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal("serve", zap.Error(err))
	}
}
