package repositories

import "fmt"

// ProviderMode tells whether an adapter calls a real backend or simulates one
type ProviderMode string

const (
	ModeSimulated ProviderMode = "simulated"
	ModeLive      ProviderMode = "live"
)

// Provider is implemented by every adapter so callers can report its resolved mode
type Provider interface {
	Mode() ProviderMode
}

// ResolveMode is the single mode-selection rule shared by all adapters: live only when
// every required value is present and simulation is not forced.
func ResolveMode(forceSimulated bool, required ...string) ProviderMode {
	if forceSimulated || len(required) == 0 {
		return ModeSimulated
	}
	for _, v := range required {
		if v == "" {
			return ModeSimulated
		}
	}
	return ModeLive
}

// ProviderError is returned when a live backend answers with a non-success status
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s failed: %d", e.Provider, e.StatusCode)
}
