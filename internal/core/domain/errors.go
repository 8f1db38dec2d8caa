package domain

import "fmt"

// GeocodeError is returned when the geocoding provider reports a non-OK
// status or resolves zero results. Status carries the provider's status
// string for diagnostics.
type GeocodeError struct {
	Status string
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("geocoding failed: %s", e.Status)
}

// ProviderError is returned when the place-search provider reports a status
// other than OK or ZERO_RESULTS.
type ProviderError struct {
	Status  string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("places provider error: %s - %s", e.Status, e.Message)
	}
	return fmt.Sprintf("places provider error: %s", e.Status)
}
