package registry

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/integrator/internal/config"
	"github.com/MrSnakeDoc/integrator/internal/domain"
)

// defaultSearchDomain labels search groups of services that do not name one.
const defaultSearchDomain = "results"

// Registry is the read-only set of backend services, in registration order.
// It is built once at startup and safe for concurrent use afterwards.
type Registry struct {
	services []domain.ServiceDescriptor
	byName   map[string]int
	byCap    map[domain.Capability][]int
}

// New validates specs and builds the registry. Every error is a
// *domain.ConfigurationError.
func New(specs []config.ServiceSpec) (*Registry, error) {
	r := &Registry{
		services: make([]domain.ServiceDescriptor, 0, len(specs)),
		byName:   make(map[string]int, len(specs)),
		byCap:    make(map[domain.Capability][]int, len(domain.Capabilities)),
	}

	for _, spec := range specs {
		desc, err := describe(spec)
		if err != nil {
			return nil, err
		}
		if _, dup := r.byName[desc.Name]; dup {
			return nil, &domain.ConfigurationError{Service: desc.Name, Field: "name", Reason: "declared twice"}
		}

		idx := len(r.services)
		r.services = append(r.services, desc)
		r.byName[desc.Name] = idx
		for _, c := range desc.Capabilities {
			r.byCap[c] = append(r.byCap[c], idx)
		}
	}

	return r, nil
}

// Resolve returns the services contributing to c, in registration order.
func (r *Registry) Resolve(c domain.Capability) []domain.ServiceDescriptor {
	idxs := r.byCap[c]
	out := make([]domain.ServiceDescriptor, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, r.services[i])
	}
	return out
}

// All returns every registered service, in registration order.
func (r *Registry) All() []domain.ServiceDescriptor {
	return append([]domain.ServiceDescriptor(nil), r.services...)
}

// Lookup finds a service by name.
func (r *Registry) Lookup(name string) (domain.ServiceDescriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return domain.ServiceDescriptor{}, false
	}
	return r.services[i], true
}

// Len returns the number of registered services.
func (r *Registry) Len() int { return len(r.services) }

func describe(spec config.ServiceSpec) (domain.ServiceDescriptor, error) {
	name := strings.ToLower(strings.TrimSpace(spec.Name))
	if name == "" {
		return domain.ServiceDescriptor{}, &domain.ConfigurationError{Field: "name", Reason: "must not be empty"}
	}

	endpoint, err := normalizeEndpoint(spec.URL)
	if err != nil {
		return domain.ServiceDescriptor{}, &domain.ConfigurationError{Service: name, Field: "url", Reason: err.Error()}
	}

	desc := domain.ServiceDescriptor{
		Name:       name,
		Endpoint:   endpoint,
		Credential: spec.Token,
	}

	if spec.Capabilities == nil {
		entry := catalog[name]
		desc.Capabilities = append([]domain.Capability(nil), entry.capabilities...)
		desc.Bindings = entry.bindings
		return desc, nil
	}

	desc.Bindings = make(map[domain.Capability]domain.Binding, len(spec.Capabilities))
	for _, cs := range spec.Capabilities {
		c, err := domain.ParseCapability(cs.Name)
		if err != nil {
			return domain.ServiceDescriptor{}, &domain.ConfigurationError{Service: name, Field: "capabilities", Reason: err.Error()}
		}
		if desc.Supports(c) {
			return domain.ServiceDescriptor{}, &domain.ConfigurationError{Service: name, Field: "capabilities", Reason: "capability " + string(c) + " declared twice"}
		}

		b := domain.Binding{
			Tool:    strings.TrimSpace(cs.Tool),
			Args:    cs.Args,
			Forward: cs.Forward,
			Domain:  strings.TrimSpace(cs.Domain),
		}
		if c == domain.CapabilitySearch && b.Domain == "" {
			b.Domain = defaultSearchDomain
		}

		desc.Capabilities = append(desc.Capabilities, c)
		desc.Bindings[c] = b
	}

	return desc, nil
}

// normalizeEndpoint accepts absolute http(s) URLs with a host and strips
// the trailing slash so paths can be appended directly.
func normalizeEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("endpoint is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("endpoint is malformed: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("endpoint scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("endpoint has no host")
	}

	return strings.TrimRight(u.String(), "/"), nil
}
