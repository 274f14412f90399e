package module

import "leakhound/internal/services/gather/domain"

// Ports defines the gathering module ports exposed via the registry
type Ports struct {
	Gatherer domain.GathererPort
}
