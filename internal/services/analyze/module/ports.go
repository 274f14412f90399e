package module

import "leakhound/internal/services/analyze/domain"

// Ports defines the assessment module ports exposed via the registry
type Ports struct {
	Runner domain.RunnerPort
}
