package http

import (
	"context"
	"errors"
	"fmt"

	cache "github.com/lutheralien/to-do-api/internal/adapter/cache/redis"
	"github.com/lutheralien/to-do-api/internal/adapter/database/memory"
	memrepo "github.com/lutheralien/to-do-api/internal/adapter/database/memory/repository"
	database "github.com/lutheralien/to-do-api/internal/adapter/database/mongodb"
	repository "github.com/lutheralien/to-do-api/internal/adapter/database/mongodb/repository"
	"github.com/lutheralien/to-do-api/internal/adapter/http/handler"
	"github.com/lutheralien/to-do-api/internal/core/port"
	"github.com/lutheralien/to-do-api/internal/core/service"
	"github.com/lutheralien/to-do-api/pkg/config"
)

type Container struct {
	TodoRepo    port.TodoRepository
	TodoUseCase port.TodoService
	Cache       port.CacheRepository

	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler

	db *database.DB
}

func NewContainer(ctx context.Context, cfg *config.AppConfig, logger *config.LokiLogger, probe port.Telemetry) (*Container, error) {
	c := &Container{}

	var health port.HealthChecker

	switch cfg.StoreDriver {
	case config.StoreMemory:
		repo := memrepo.NewTodoRepository()
		c.TodoRepo = repo
		health = repo
	default:
		db, err := database.NewDB(ctx, database.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Timeout:    cfg.MongoTimeout,
			Migrations: cfg.MigrationsEnabled,
			LogLevel:   cfg.ZerologLevel(),
		})
		if err != nil {
			return nil, err
		}

		c.db = db
		c.TodoRepo = repository.NewTodoRepository(db.Collection(database.TodosCollection), probe)
		health = db
	}

	if cfg.CacheEnabled {
		store, err := newCache(ctx, cfg)
		if err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
		c.Cache = store
	}

	c.TodoUseCase = service.NewTodoService(c.TodoRepo, probe)
	c.TodoHandler = handler.NewTodoHandler(c.TodoUseCase, logger)
	c.HealthHandler = handler.NewHealthHandler(health, logger)

	return c, nil
}

func newCache(ctx context.Context, cfg *config.AppConfig) (port.CacheRepository, error) {
	if cfg.CacheDriver == config.CacheRedis {
		store, err := cache.NewRedisRepository(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return store, nil
	}

	return memory.NewMemoryRepository(), nil
}

func (c *Container) Close(ctx context.Context) error {
	var errs []error

	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}

	if c.db != nil {
		errs = append(errs, c.db.Close(ctx))
	}

	return errors.Join(errs...)
}
