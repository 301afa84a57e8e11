package main

import (
	"context"
	"log"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"harvest/internal/config"
	"harvest/internal/handlers"
	"harvest/internal/store"
)

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "mongo":
		return store.OpenMongoStore(ctx, cfg.MongoURI, cfg.DBName)
	case "mysql":
		return store.OpenMySQLStore(cfg.MySQLDSN)
	default:
		return store.OpenFileStore(cfg.DataFile)
	}
}

func main() {
	config.Load()
	cfg := config.AppEnv

	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store (%s) unavailable: %v", cfg.StoreDriver, err)
	}
	defer st.Close(ctx)

	log.Printf("store connected: driver=%s", cfg.StoreDriver)

	if err := st.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("admin bootstrap failed: %v", err)
	}

	uploads := &handlers.Uploads{PublicDir: cfg.PublicDir}

	r := gin.Default()
	r.Static("/uploads", filepath.Join(cfg.PublicDir, "uploads"))
	r.StaticFile("/", filepath.Join(cfg.PublicDir, "index.html"))

	handlers.RegisterRoutes(r, st, uploads, cfg.JWTSecret, cfg.SessionTTL)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
