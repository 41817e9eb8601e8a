package embeddings

import (
	"context"

	"golang.org/x/time/rate"

	"parley/pkg/errors"
)

// RateLimitedProvider wraps a Provider with a token bucket limiter so that
// burst snippet retrievals cannot exhaust the embedding API quota
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider creates a rate-limited wrapper around a provider
// requestsPerMinute: maximum number of requests allowed per minute
func NewRateLimitedProvider(inner Provider, requestsPerMinute int) *RateLimitedProvider {
	rps := float64(requestsPerMinute) / 60.0

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// GenerateEmbedding waits for the limiter, then delegates to the inner provider
func (p *RateLimitedProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(err, "embedding rate limiter %s", p.inner.Name())
	}
	return p.inner.GenerateEmbedding(ctx, text)
}

// Dimensions delegates to the inner provider
func (p *RateLimitedProvider) Dimensions() int {
	return p.inner.Dimensions()
}

// Name delegates to the inner provider
func (p *RateLimitedProvider) Name() string {
	return p.inner.Name()
}
