package app

import (
	"context"
	"net/http"

	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	redisadapter "github.com/worldboard/server/internal/adapter/outbound/redis"
	"github.com/worldboard/server/internal/infra/events"
	"github.com/worldboard/server/internal/infra/httpclient"
	"github.com/worldboard/server/internal/module/auth"
	"github.com/worldboard/server/internal/module/identity"
	"github.com/worldboard/server/internal/module/task"
	"github.com/worldboard/server/internal/module/world"
	"github.com/worldboard/server/internal/shared/cache"
	"github.com/worldboard/server/internal/shared/config"
	"github.com/worldboard/server/internal/shared/database"
	"github.com/worldboard/server/internal/shared/logger"
	"github.com/worldboard/server/internal/utils/metrics"
	"github.com/worldboard/server/internal/utils/middleware"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideDatabase,
	ProvideRedisClient,
	ProvideHTTPClient,
	ProvideRateLimiter,
	ProvideLogger,
	ProvideZapLogger,
	ProvideMetrics,
	ProvideEventBus,
	ProvideTokenVerifier,
)

// ProvideDatabase creates a database connection.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}

// ProvideRedisClient creates a Redis client. Redis is optional: without it
// identity lookups are not cached and requests are not rate limited.
func ProvideRedisClient(cfg *config.Config, zapLog *zap.Logger) (goredis.UniversalClient, func()) {
	client, err := cache.NewRedisClient(context.Background(), &cfg.Redis)
	if err != nil {
		zapLog.Warn("Redis connection failed, continuing without cache", zap.Error(err))
		return nil, func() {}
	}
	if client == nil {
		return nil, func() {}
	}
	return client, func() { _ = cache.Close(client) }
}

// ProvideLogger creates the request logger.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideZapLogger creates the zap logger used by services.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return zapLog, func() { _ = zapLog.Sync() }, nil
}

// ProvideHTTPClient creates a shared HTTP client with connection pooling.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(&cfg.HTTPClient)
}

// ProvideRateLimiter creates the API rate limiter, or nil without Redis.
func ProvideRateLimiter(redis goredis.UniversalClient) middleware.RateLimiter {
	if redis == nil {
		return nil
	}
	return redisadapter.NewRateLimiter(redis)
}

// ProvideMetrics creates a metrics instance.
func ProvideMetrics() *metrics.Metrics {
	return metrics.New("worldboard")
}

// ProvideEventBus creates the event bus with the metrics and audit handlers.
func ProvideEventBus(zapLog *zap.Logger, m *metrics.Metrics) *events.Bus {
	bus := events.NewBus(zapLog)
	bus.Register(events.NewMetricsHandler(m))
	bus.Register(events.NewAuditHandler(zapLog))
	return bus
}

// ProvideTokenVerifier creates the bearer token verifier.
func ProvideTokenVerifier(cfg *config.Config) *auth.TokenVerifier {
	return auth.NewTokenVerifier(auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	})
}

// ===== Identity Providers =====

// IdentitySet provides the identity lookup chain.
var IdentitySet = wire.NewSet(
	ProvideIdentityModule,
	ProvideIdentityProvider,
	identity.NewModuleHandler,
)

// ProvideIdentityModule assembles the configured identity provider chain.
func ProvideIdentityModule(
	cfg *config.Config,
	db *gorm.DB,
	redis goredis.UniversalClient,
	client *http.Client,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) (*identity.Module, error) {
	return identity.New(&cfg.Identity, db, redis, client, m, zapLog)
}

// ProvideIdentityProvider exposes the outermost provider of the chain.
func ProvideIdentityProvider(mod *identity.Module) identity.Provider {
	return mod.Provider
}

// ===== Board Providers =====

// WorldSet provides world, membership and invite dependencies.
var WorldSet = wire.NewSet(
	world.NewRepository,
	world.NewService,
	world.NewHandler,
)

// TaskSet provides task list dependencies.
var TaskSet = wire.NewSet(
	task.NewRepository,
	ProvideMembershipReader,
	task.NewService,
	task.NewHandler,
)

// ProvideMembershipReader lets the task service read worlds and
// memberships through the world repository.
func ProvideMembershipReader(repo world.Repository) task.MembershipReader {
	return repo
}

// AppSet is the complete provider set.
var AppSet = wire.NewSet(
	InfraSet,
	IdentitySet,
	WorldSet,
	TaskSet,
)
