package container

import (
	"context"
	"fmt"
	"time"

	"storefront/pixel/internal/cache"
	"storefront/pixel/internal/client"
	"storefront/pixel/internal/config"
	"storefront/pixel/internal/pixel"
	"storefront/pixel/internal/queue"
	"storefront/pixel/internal/repository"
	"storefront/pixel/internal/service"
	"storefront/pixel/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// source is what a platform backend has to provide
type source interface {
	pixel.StoreManager
	pixel.CategoryRepository
	pixel.ProductCatalog
	service.ProductLoader
}

// postgresSource joins the three repositories into one backend
type postgresSource struct {
	repository.StoreRepository
	repository.CategoryRepository
	repository.ProductRepository
}

// Container holds all initialized components
type Container struct {
	Config  *config.Config
	Helper  *pixel.Helper
	Queue   *queue.RedisQueue
	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	var src source
	switch cfg.Platform.Source {
	case config.SourcePostgres:
		db, err := pgxpool.New(ctx,
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
			))
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		container.db = db

		src = &postgresSource{
			StoreRepository:    repository.NewStoreRepository(db, cfg.Platform.StoreCode),
			CategoryRepository: repository.NewCategoryRepository(db),
			ProductRepository:  repository.NewProductRepository(db, cfg.Platform.StoreCode),
		}
		log.Info("✅ Using postgres catalog source")
	case config.SourceREST:
		src = client.NewPlatformClient(cfg.Platform)
		log.Infof("✅ Using REST catalog source at %s", cfg.Platform.BaseURL)
	default:
		return nil, fmt.Errorf("unknown platform source %q", cfg.Platform.Source)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})
	container.redis = rdb

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")

	var categories pixel.CategoryRepository = src
	if cfg.Redis.CategoryCacheTTL > 0 {
		categories = cache.NewCategoryCache(src, rdb, time.Duration(cfg.Redis.CategoryCacheTTL)*time.Second)
	}

	container.Helper = pixel.NewHelper(cfg.Pixel, src, categories, src)

	redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Queue = redisQueue

	container.Service = service.NewService(
		src,
		container.Helper,
		redisQueue,
		state.NewRedisViewStore(rdb),
		cfg.Redis.MinIdleTime,
	)

	return container, nil
}

// Run processes queued products until ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	return c.Service.RunWorkers(ctx, c.Config.Workers.Count)
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis client: %w", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
