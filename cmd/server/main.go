package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/david/rfp-tracker/internal/api"
	"github.com/david/rfp-tracker/internal/config"
	"github.com/david/rfp-tracker/internal/db"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Print("Loaded environment from .env")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	srv := api.NewServer(pool, cfg)
	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
}
