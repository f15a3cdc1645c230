package domain

import (
	"fmt"
	"strings"
)

// Capability names a unified view a backend service can contribute to.
type Capability string

const (
	CapabilityMessages Capability = "messages"
	CapabilityCalendar Capability = "calendar"
	CapabilityTasks    Capability = "tasks"
	CapabilitySearch   Capability = "search"
)

// Capabilities lists every known capability in a stable order.
var Capabilities = []Capability{
	CapabilityMessages,
	CapabilityCalendar,
	CapabilityTasks,
	CapabilitySearch,
}

// ParseCapability accepts a capability name in any case.
func ParseCapability(s string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Capabilities {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown capability %q", s)
}

func (c Capability) String() string { return string(c) }
