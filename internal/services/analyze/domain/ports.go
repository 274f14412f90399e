package domain

import "context"

// RunnerPort drives a complete assessment over the gathered accounts
type RunnerPort interface {
	// Run gathers the targets, classifies every reachable blob and persists
	// the assessment tree. The returned summary reflects whatever was
	// persisted, even when the run aborts partway
	Run(ctx context.Context, params RunParams) (Summary, error)
}

// ProgressPort receives human-facing run milestones. Implementations must be
// safe for concurrent use; the pipeline reports from worker goroutines
type ProgressPort interface {
	Phase(name string)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// NopProgress discards all progress output
type NopProgress struct{}

// Phase implements ProgressPort
func (NopProgress) Phase(string) {}

// Info implements ProgressPort
func (NopProgress) Info(string, ...any) {}

// Warn implements ProgressPort
func (NopProgress) Warn(string, ...any) {}

// Error implements ProgressPort
func (NopProgress) Error(string, ...any) {}
