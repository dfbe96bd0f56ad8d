package bootstrap

import (
	"log/slog"

	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/sightline-labs/sightline/internal/items"
	"github.com/sightline-labs/sightline/internal/memory"
	"github.com/sightline-labs/sightline/internal/vision"
)

func ProvideItemStore(db *gorm.DB) *items.Store {
	return items.NewStore(db)
}

func ProvideMemoryStore(db *gorm.DB, qdrantClient *qdrant.Client, logger *slog.Logger) *memory.Store {
	return memory.NewStore(db, qdrantClient, logger)
}

func ProvideFrameStore(redisClient *redis.Client, cfg *Config) *vision.FrameStore {
	return vision.NewFrameStore(redisClient, cfg.FrameTTL)
}

func RunMigrations(itemStore *items.Store, memoryStore *memory.Store) error {
	if err := itemStore.Migrate(); err != nil {
		return err
	}
	return memoryStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideItemStore,
		ProvideMemoryStore,
		ProvideFrameStore,
	),
	fx.Invoke(RunMigrations),
)
