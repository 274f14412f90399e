// Package module wires the assessment pipeline and exposes its ports
package module

import (
	"leakhound/internal/core/signatures"
	"leakhound/internal/modkit"
	"leakhound/internal/services/analyze/domain"
	"leakhound/internal/services/analyze/service"

	gatherdom "leakhound/internal/services/gather/domain"
)

// Module defines the assessment module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the assessment module with its ports
func New(
	deps modkit.Deps,
	sigs *signatures.Set,
	source gatherdom.GathererPort,
	progress domain.ProgressPort,
	overrides Options,
) *Module {
	// Load defaults from config then apply overrides from CLI (if provided)
	opts := FromConfig(deps.Cfg)

	if overrides.Workers != 0 {
		opts.Workers = overrides.Workers
	}

	svc := service.New(deps, service.Config{
		Workers: opts.Workers,
	}, sigs, source, progress)

	m := &Module{deps: deps}
	m.ports = Ports{
		Runner: svc,
	}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "analyze" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
