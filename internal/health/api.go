package health

import (
	"context"
)

// Pinger is anything with a health endpoint, such as the upstream API client
type Pinger interface {
	Health(ctx context.Context) error
}

// APIChecker checks the upstream API
type APIChecker struct {
	api Pinger
}

// NewAPIChecker creates a checker for the upstream API
func NewAPIChecker(api Pinger) *APIChecker {
	return &APIChecker{api: api}
}

func (c *APIChecker) Name() string { return "api" }

func (c *APIChecker) HealthCheck(ctx context.Context) error {
	return c.api.Health(ctx)
}
