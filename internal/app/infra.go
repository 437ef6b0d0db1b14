package app

import (
	"context"
	"database/sql"

	"github.com/valtervalik/InstaShare/internal/config"
	"github.com/valtervalik/InstaShare/internal/db"
	"github.com/valtervalik/InstaShare/internal/logger"
	"github.com/valtervalik/InstaShare/internal/redis"
	"github.com/valtervalik/InstaShare/internal/secrets"

	_ "github.com/lib/pq"
)

type Infra struct {
	DB     *db.DB
	Redis  *redis.Client
	Cipher *secrets.Cipher
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := db.RunPrincipalMigration(ctx, sqlDB); err != nil {
		return nil, err
	}

	logger.Info("database ready", nil)

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", nil)

	cipher, err := secrets.Load(cfg.PrivateKeyPath, cfg.PublicKeyPath)
	if err != nil {
		return nil, err
	}

	logger.Info("secret cipher ready", nil)

	return &Infra{
		DB:     &db.DB{DB: sqlDB},
		Redis:  redisClient,
		Cipher: cipher,
	}, nil
}
