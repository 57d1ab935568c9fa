// Package modulemanager provides interfaces for the module system
package modulemanager

import (
	"context"
	"fmt"
	"time"
)

// ServiceInjector is an optional interface for modules that need services injected
type ServiceInjector interface {
	// InjectServices is called right before Init with every service
	// registered by modules initialized earlier
	InjectServices(services map[string]interface{}) error
}

// ServiceRegistrar is an optional interface for modules that export services
type ServiceRegistrar interface {
	// RegisterServices is called right after a successful Init
	RegisterServices() error
}

// HealthChecker is an optional interface for modules that can report health status
type HealthChecker interface {
	HealthCheck(ctx context.Context) HealthStatus
}

// Shutdowner is an optional interface for modules owning background work
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// HealthStatus represents the health of a module
type HealthStatus struct {
	Status      HealthState            `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"lastChecked"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// HealthState represents the state of a module's health
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
	HealthStateUnknown   HealthState = "unknown"
)

// ServiceFrom picks a typed service out of the map handed to InjectServices
func ServiceFrom[T any](available map[string]interface{}, name string) (T, error) {
	var zero T
	raw, ok := available[name]
	if !ok {
		return zero, fmt.Errorf("service '%s' not available", name)
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("service '%s' has wrong type %T", name, raw)
	}
	return typed, nil
}
