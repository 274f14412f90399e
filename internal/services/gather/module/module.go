// Package module wires the gathering service and exposes its ports
package module

import (
	"leakhound/internal/modkit"
	"leakhound/internal/services/gather/service"

	gh "leakhound/internal/adapters/github"
)

// Module defines the gathering module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the gathering module with its ports
func New(deps modkit.Deps, client *gh.Client, overrides Options) *Module {
	// Load defaults from config then apply overrides from CLI (if provided)
	opts := FromConfig(deps.Cfg)

	if overrides.Workers != 0 {
		opts.Workers = overrides.Workers
	}

	svc := service.New(deps, client, service.Config{
		Workers: opts.Workers,
	})

	m := &Module{deps: deps}
	m.ports = Ports{
		Gatherer: svc,
	}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "gather" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
