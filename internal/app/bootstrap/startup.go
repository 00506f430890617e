// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/waffle/config"
	cooldownstore "github.com/volcani/experimenthub/internal/app/store/cooldowns"
	resettokenstore "github.com/volcani/experimenthub/internal/app/store/resettokens"
	"github.com/volcani/experimenthub/internal/app/system/ratelimit"
	"github.com/volcani/experimenthub/internal/app/system/workers"
	"go.uber.org/zap"
)

// background owns the goroutines started here and stopped in Shutdown.
type background struct {
	mu      sync.Mutex
	cleanup *workers.ExpiryCleanup
	limiter *ratelimit.AuthLimiter
}

var bg background

// authLimiter returns the shared sign-in/reset limiter, creating it on
// first use.
func (b *background) authLimiter(perIP int) *ratelimit.AuthLimiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limiter == nil {
		b.limiter = ratelimit.NewAuthLimiter(perIP, 5)
	}
	return b.limiter
}

func (b *background) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cleanup != nil {
		b.cleanup.Stop()
		b.cleanup = nil
	}
	if b.limiter != nil {
		b.limiter.Stop()
		b.limiter = nil
	}
}

// Startup runs after the schema is in place and before the handler is
// built. It starts the sweep that removes expired cooldowns and reset
// tokens.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	w := workers.NewExpiryCleanup(map[string]workers.Expirer{
		"cooldowns":    cooldownstore.New(db),
		"reset_tokens": resettokenstore.New(db),
	}, logger, appCfg.CleanupInterval)
	w.Start()

	bg.mu.Lock()
	bg.cleanup = w
	bg.mu.Unlock()
	return nil
}
