// Package modulemanager provides module dependency management and initialization ordering
package modulemanager

import (
	"fmt"
	"sort"

	"github.com/mantonx/mediacatalog/internal/logger"
)

// DependencyProvider is an optional interface for modules that declare dependencies
type DependencyProvider interface {
	// Dependencies returns the list of module IDs this module depends on
	Dependencies() []string
}

// ServiceProvider is an optional interface for modules that provide services
type ServiceProvider interface {
	// ProvidedServices returns the list of service names this module provides
	ProvidedServices() []string
}

// ServiceConsumer is an optional interface for modules that consume services
type ServiceConsumer interface {
	// RequiredServices returns the list of service names this module requires
	RequiredServices() []string
}

// ModuleDependencyGraph represents the dependency relationships between modules
type ModuleDependencyGraph struct {
	nodes        map[string]*DependencyNode
	serviceGraph map[string]string // service name -> module ID that provides it
}

// DependencyNode represents a module in the dependency graph
type DependencyNode struct {
	ModuleID         string
	Module           Module
	Dependencies     []string // Module IDs this module depends on
	Dependents       []string // Module IDs that depend on this module
	ProvidedServices []string
	RequiredServices []string
	visited          bool
	inStack          bool
	InitOrder        int // lower = earlier
}

// BuildDependencyGraph creates a dependency graph from registered modules
func BuildDependencyGraph(modules map[string]Module) (*ModuleDependencyGraph, error) {
	graph := &ModuleDependencyGraph{
		nodes:        make(map[string]*DependencyNode),
		serviceGraph: make(map[string]string),
	}

	for _, id := range sortedKeys(modules) {
		module := modules[id]
		node := &DependencyNode{
			ModuleID: id,
			Module:   module,
		}

		if depProvider, ok := module.(DependencyProvider); ok {
			node.Dependencies = append(node.Dependencies, depProvider.Dependencies()...)
		}

		if serviceProvider, ok := module.(ServiceProvider); ok {
			node.ProvidedServices = serviceProvider.ProvidedServices()
			for _, service := range node.ProvidedServices {
				if existingProvider, exists := graph.serviceGraph[service]; exists {
					return nil, fmt.Errorf("service '%s' is provided by multiple modules: %s and %s",
						service, existingProvider, id)
				}
				graph.serviceGraph[service] = id
			}
		}

		if serviceConsumer, ok := module.(ServiceConsumer); ok {
			node.RequiredServices = serviceConsumer.RequiredServices()
		}

		graph.nodes[id] = node
	}

	// Required services become dependencies on their provider
	for id, node := range graph.nodes {
		for _, requiredService := range node.RequiredServices {
			providerID, exists := graph.serviceGraph[requiredService]
			if !exists || providerID == id {
				continue
			}
			node.Dependencies = append(node.Dependencies, providerID)
		}
	}

	for _, id := range sortedKeys(graph.nodes) {
		for _, depID := range graph.nodes[id].Dependencies {
			depNode, exists := graph.nodes[depID]
			if !exists {
				return nil, fmt.Errorf("module %s depends on non-existent module %s", id, depID)
			}
			depNode.Dependents = append(depNode.Dependents, id)
		}
	}

	if err := graph.detectCycles(); err != nil {
		return nil, err
	}

	return graph, nil
}

// detectCycles uses DFS to detect dependency cycles
func (g *ModuleDependencyGraph) detectCycles() error {
	for _, id := range sortedKeys(g.nodes) {
		if !g.nodes[id].visited {
			if err := g.detectCyclesDFS(id, []string{}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *ModuleDependencyGraph) detectCyclesDFS(nodeID string, path []string) error {
	node := g.nodes[nodeID]
	node.visited = true
	node.inStack = true
	path = append(path, nodeID)

	for _, depID := range node.Dependencies {
		depNode := g.nodes[depID]
		if !depNode.visited {
			if err := g.detectCyclesDFS(depID, path); err != nil {
				return err
			}
		} else if depNode.inStack {
			for i, id := range path {
				if id == depID {
					cyclePath := append(append([]string{}, path[i:]...), depID)
					return fmt.Errorf("circular dependency detected: %v", cyclePath)
				}
			}
		}
	}

	node.inStack = false
	return nil
}

// GetInitializationOrder returns modules in the order they should be
// initialized. Ties are broken by module ID so the order is stable.
func (g *ModuleDependencyGraph) GetInitializationOrder() ([]Module, error) {
	order := make([]Module, 0, len(g.nodes))
	visited := make(map[string]bool)

	var visit func(string)
	visit = func(nodeID string) {
		if visited[nodeID] {
			return
		}
		visited[nodeID] = true

		node := g.nodes[nodeID]
		deps := append([]string(nil), node.Dependencies...)
		sort.Strings(deps)
		for _, depID := range deps {
			visit(depID)
		}

		order = append(order, node.Module)
		node.InitOrder = len(order)
	}

	for _, id := range sortedKeys(g.nodes) {
		visit(id)
	}

	return order, nil
}

// PrintDependencyInfo logs dependency information for debugging
func (g *ModuleDependencyGraph) PrintDependencyInfo() {
	for _, id := range sortedKeys(g.nodes) {
		node := g.nodes[id]
		logger.Debug("module dependencies",
			"module", id,
			"depends_on", node.Dependencies,
			"provides", node.ProvidedServices,
			"requires", node.RequiredServices,
		)
	}
}

// GetModuleDependencies returns the dependencies for a specific module
func (g *ModuleDependencyGraph) GetModuleDependencies(moduleID string) ([]string, error) {
	node, exists := g.nodes[moduleID]
	if !exists {
		return nil, fmt.Errorf("module %s not found", moduleID)
	}
	return node.Dependencies, nil
}

// GetModuleDependents returns the modules that depend on a specific module
func (g *ModuleDependencyGraph) GetModuleDependents(moduleID string) ([]string, error) {
	node, exists := g.nodes[moduleID]
	if !exists {
		return nil, fmt.Errorf("module %s not found", moduleID)
	}
	return node.Dependents, nil
}

// ValidateServiceRequirements checks if all required services are available
func (g *ModuleDependencyGraph) ValidateServiceRequirements() []error {
	var errs []error

	for _, id := range sortedKeys(g.nodes) {
		for _, requiredService := range g.nodes[id].RequiredServices {
			if _, exists := g.serviceGraph[requiredService]; !exists {
				errs = append(errs, fmt.Errorf("module %s requires service '%s' but no provider found",
					id, requiredService))
			}
		}
	}

	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
