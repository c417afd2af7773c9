// Command seed loads demo users and pets into MongoDB.
//
//	go run ./cmd/seed -file seed.example.json
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/xyz-asif/oipet/internal/config"
	"github.com/xyz-asif/oipet/internal/database"
	"github.com/xyz-asif/oipet/internal/features/auth"
	"github.com/xyz-asif/oipet/internal/features/pets"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/password"
	"github.com/xyz-asif/oipet/internal/seed"
)

func main() {
	path := flag.String("file", "seed.example.json", "seed file")
	workers := flag.Int("workers", 0, "parallel password hashes (default: number of CPUs)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.Init(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	fh, err := os.Open(*path)
	if err != nil {
		lg.Fatal("open seed file", zap.Error(err))
	}
	file, err := seed.Parse(fh)
	_ = fh.Close()
	if err != nil {
		lg.Fatal("parse seed file", zap.Error(err))
	}

	db, err := database.Connect(database.Config{
		URI:     cfg.MongoURI,
		DBName:  cfg.MongoDB,
		Timeout: cfg.MongoTimeout,
		MaxPool: cfg.MongoMaxPool,
	})
	if err != nil {
		lg.Fatal("mongo connection failed", zap.Error(err))
	}
	defer func() { _ = db.Disconnect(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	users, err := auth.NewRepository(ctx, db.Database)
	if err != nil {
		lg.Fatal("users store", zap.Error(err))
	}
	petStore, err := pets.NewRepository(ctx, db.Database)
	if err != nil {
		lg.Fatal("pets store", zap.Error(err))
	}

	res, err := seed.Run(ctx, file, seed.Options{
		Users:   users,
		Pets:    pets.NewService(petStore, nil, nil),
		Hasher:  password.NewHasher(cfg.BcryptCost),
		Workers: *workers,
	})
	if err != nil {
		lg.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seed finished",
		zap.Int("users_created", res.UsersCreated),
		zap.Int("users_skipped", res.UsersSkipped),
		zap.Int("pets_created", res.PetsCreated))
}
