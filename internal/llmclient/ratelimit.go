package llmclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/scout-cli/api/schemas"
)

// RateLimited throttles calls to an underlying client. Parallel tasks share
// one instance so the provider quota is respected across all of them.
type RateLimited struct {
	next    schemas.LLMClient
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimited wraps next with a limiter allowing requestsPerMinute calls,
// with a burst of one.
func NewRateLimited(next schemas.LLMClient, requestsPerMinute float64, logger *zap.Logger) *RateLimited {
	interval := time.Duration(float64(time.Minute) / requestsPerMinute)
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger.Named("llm_ratelimit"),
	}
}

// Generate blocks until the limiter admits the call or ctx is done.
func (r *RateLimited) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}
	if waited := time.Since(start); waited > time.Second {
		r.logger.Debug("LLM request delayed by rate limit", zap.Duration("waited", waited))
	}
	return r.next.Generate(ctx, req)
}

// Close closes the wrapped client.
func (r *RateLimited) Close() error {
	return r.next.Close()
}
