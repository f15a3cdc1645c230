package domain

// Binding tells the dispatcher how one service serves one capability.
type Binding struct {
	// Tool overrides the tool name requested by the caller. Empty keeps the caller's.
	Tool string

	// Args are merged into every call. Caller arguments win on key conflicts.
	Args map[string]any

	// Forward restricts which caller arguments reach the backend.
	// Nil forwards everything, an empty slice forwards nothing.
	Forward []string

	// Domain labels search results from this service (emails, messages, pages, code).
	Domain string
}

// ServiceDescriptor is one registered backend service.
//
// Descriptors are built once at startup and never mutated afterwards.
type ServiceDescriptor struct {
	// Name is the unique registry key (outlook, google, slack...).
	Name string

	// Endpoint is the absolute base URL of the service.
	Endpoint string

	// Capabilities in declaration order.
	Capabilities []Capability

	// Bindings per capability. A capability without binding uses the caller's tool.
	Bindings map[Capability]Binding

	// Credential is a static bearer token used when the caller forwards none.
	Credential string
}

// Supports reports whether the service contributes to capability c.
func (d ServiceDescriptor) Supports(c Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Binding returns the binding for c, or the zero binding.
func (d ServiceDescriptor) Binding(c Capability) Binding {
	if d.Bindings == nil {
		return Binding{}
	}
	return d.Bindings[c]
}

// CallFor resolves the tool name and arguments sent to this service for capability c.
func (d ServiceDescriptor) CallFor(c Capability, tool string, args map[string]any) (string, map[string]any) {
	b := d.Binding(c)
	if b.Tool != "" {
		tool = b.Tool
	}

	out := make(map[string]any, len(args)+len(b.Args))
	for k, v := range b.Args {
		out[k] = v
	}

	if b.Forward == nil {
		for k, v := range args {
			out[k] = v
		}
		return tool, out
	}

	for _, k := range b.Forward {
		if v, ok := args[k]; ok {
			out[k] = v
		}
	}
	return tool, out
}
