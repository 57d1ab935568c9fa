// Package services is a name-keyed registry modules use to expose
// functionality to each other without importing one another.
package services

import (
	"fmt"
	"sort"
	"sync"
)

// Well-known service names
const (
	// AuthService resolves sessions and guards routes (*auth.Service)
	AuthService = "auth"
	// TransactionService runs work in a transaction (*databasemodule.TransactionManager)
	TransactionService = "database.transactions"
)

type registry struct {
	mu       sync.RWMutex
	services map[string]interface{}
}

var globalRegistry = &registry{
	services: make(map[string]interface{}),
}

// RegisterService registers a service with the given name
func RegisterService[T any](name string, service T) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	globalRegistry.services[name] = service
}

// GetService retrieves a service by name with type safety
func GetService[T any](name string) (T, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	var zero T

	service, exists := globalRegistry.services[name]
	if !exists {
		return zero, fmt.Errorf("service '%s' not found", name)
	}

	typedService, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("service '%s' has wrong type %T", name, service)
	}

	return typedService, nil
}

// Get returns the untyped service registered under name
func Get(name string) (interface{}, error) {
	return GetService[interface{}](name)
}

// List returns all registered service names in sorted order
func List() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	names := make([]string, 0, len(globalRegistry.services))
	for name := range globalRegistry.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset removes every registered service. For tests.
func Reset() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.services = make(map[string]interface{})
}
