package identity

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/worldboard/server/internal/shared/config"
	"github.com/worldboard/server/internal/utils/metrics"
)

// Module is the assembled identity lookup chain.
type Module struct {
	// Provider is the outermost provider: breaker, then cache, then source.
	Provider Provider
	// Directory is set in directory mode.
	Directory *Directory
	// Cache is set when Redis is available.
	Cache *Cached
}

// New assembles the configured provider chain.
func New(
	cfg *config.IdentityConfig,
	db *gorm.DB,
	rdb redis.UniversalClient,
	httpClient *http.Client,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*Module, error) {
	mod := &Module{}

	var source Provider
	switch cfg.Mode {
	case "directory", "":
		mod.Directory = NewDirectory(db)
		source = mod.Directory
	case "remote":
		source = NewRemoteProvider(httpClient, cfg.BaseURL, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported identity mode %q", cfg.Mode)
	}

	if rdb != nil {
		mod.Cache = NewCached(source, rdb, cfg.CacheTTL, m, logger)
		source = mod.Cache
	}

	mod.Provider = NewGuarded(source, BreakerConfig{
		FailureThreshold: cfg.FailureThreshold,
		Timeout:          cfg.CircuitTimeout,
	}, m, logger)
	return mod, nil
}

// NewModuleHandler creates the profile handler for mod.
func NewModuleHandler(mod *Module, logger *zap.Logger) *Handler {
	return NewHandler(mod.Provider, mod.Directory, mod.Cache, logger)
}
