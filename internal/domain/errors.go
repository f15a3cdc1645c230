package domain

import "fmt"

// ConfigurationError reports a malformed registry entry. It is only ever
// returned while building the registry at startup.
type ConfigurationError struct {
	Service string
	Field   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Service == "" {
		return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("configuration: service %q: %s: %s", e.Service, e.Field, e.Reason)
}

// InvalidRequestError reports caller input rejected before any fan-out.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}
