// Package db opens the configured session token backend.
package db

import (
	"context"
	"fmt"

	"github.com/ntuclms/lms-client/internal/core/ports"
	"github.com/ntuclms/lms-client/internal/infrastructure/config"
	"github.com/ntuclms/lms-client/internal/infrastructure/db/file"
	"github.com/ntuclms/lms-client/internal/infrastructure/db/memory"
	mongostore "github.com/ntuclms/lms-client/internal/infrastructure/db/mongo"
	redisstore "github.com/ntuclms/lms-client/internal/infrastructure/db/redis"
)

// OpenTokenStore returns the TokenStore selected by cfg.Token.Store and a
// function releasing any connection it holds.
func OpenTokenStore(ctx context.Context, cfg *config.Config) (ports.TokenStore, func(), error) {
	noop := func() {}

	switch cfg.Token.Store {
	case config.StoreMemory:
		return memory.NewTokenStore(), noop, nil

	case config.StoreFile:
		return file.NewTokenStore(cfg.Token.File, cfg.Token.Key), noop, nil

	case config.StoreRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewTokenStore(client, cfg.Token.Key), func() { _ = client.Close() }, nil

	case config.StoreMongo:
		database, disconnect, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, err
		}
		closer := func() { _ = disconnect(context.Background()) }
		return mongostore.NewTokenStore(database, cfg.Token.Key), closer, nil

	default:
		return nil, nil, fmt.Errorf("unknown token store %q", cfg.Token.Store)
	}
}
