// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit gives each source client its own minimum
// inter-request gate ("each client enforces its own minimum
// inter-request interval via a token-bucket or sleep-to-interval
// mechanism; no global rate limiter"). Built on golang.org/x/time/rate,
// the standard ecosystem token bucket — no example repo in the corpus
// hand-rolls one for HTTP clients.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Gate serializes requests to a single source to its configured rate.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate builds a Gate allowing ratePerSecond requests/second with a
// burst of 1 (a strict minimum-interval gate, not a bursty bucket).
func NewGate(ratePerSecond float64) *Gate {
	return &Gate{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1)}
}

// Wait blocks until a token is available or ctx is cancelled, releasing
// the slot cooperatively on cancellation
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// SetRate adjusts the gate's rate at runtime, e.g. when an API key raises
// a source's rate policy.
func (g *Gate) SetRate(ratePerSecond float64) {
	g.limiter.SetLimit(rate.Limit(ratePerSecond))
}
