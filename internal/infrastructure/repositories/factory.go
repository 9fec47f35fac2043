package repositories

import (
	"streamshare/internal/core/ports"
	"streamshare/internal/infrastructure/repositories/memory"
	redisrepo "streamshare/internal/infrastructure/repositories/redis"
	"streamshare/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory wires the storage adapters. The ledger is always the
// in-memory store; chat history can be backed by Redis with a memory fallback
// when the connection fails.
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory chat history",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
		}
	}

	if factory.useRedis {
		logger.Info("using Redis chat repository")
	} else {
		logger.Info("using memory chat repository")
	}

	return factory, nil
}

func (f *RepositoryFactory) CreateLedger() ports.Ledger {
	return memory.NewStore()
}

func (f *RepositoryFactory) CreateChatRepository() ports.ChatRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisChatRepository(f.redisClient)
	}
	return memory.NewMemoryChatRepository()
}

func (f *RepositoryFactory) Close() error {
	return redisrepo.CloseRedisClient(f.redisClient)
}
