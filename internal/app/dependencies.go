package app

import (
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/worldboard/server/internal/infra/events"
	"github.com/worldboard/server/internal/module/auth"
	"github.com/worldboard/server/internal/module/identity"
	"github.com/worldboard/server/internal/module/task"
	"github.com/worldboard/server/internal/module/world"
	"github.com/worldboard/server/internal/shared/config"
	"github.com/worldboard/server/internal/shared/logger"
	"github.com/worldboard/server/internal/utils/metrics"
	"github.com/worldboard/server/internal/utils/middleware"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config        *config.Config
	DB            *gorm.DB
	Redis         goredis.UniversalClient
	HTTPClient    *http.Client
	RateLimiter   middleware.RateLimiter
	Logger        *logger.Logger
	ZapLogger     *zap.Logger
	Metrics       *metrics.Metrics
	EventBus      *events.Bus
	TokenVerifier *auth.TokenVerifier

	// HTTP Handlers
	IdentityHandler *identity.Handler
	WorldHandler    *world.Handler
	TaskHandler     *task.Handler
}
