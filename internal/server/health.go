package server

import (
	"context"

	"github.com/johnrak/payrelay/internal/dedup"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// StoreHealthService verifies dedup-store connectivity as part of health
// checks. With the in-memory store this always succeeds.
type StoreHealthService struct {
	Store dedup.Store
}

// Probe implements the HealthService interface.
func (s StoreHealthService) Probe(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Ping(ctx)
}
