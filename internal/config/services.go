package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ServiceSpec is the raw declaration of one backend service.
// Nil Capabilities means "use the built-in catalog for this name".
type ServiceSpec struct {
	Name         string           `yaml:"name" toml:"name"`
	URL          string           `yaml:"url" toml:"url"`
	Token        string           `yaml:"token,omitempty" toml:"token,omitempty"`
	Capabilities []CapabilitySpec `yaml:"capabilities,omitempty" toml:"capabilities,omitempty"`
}

// CapabilitySpec declares how a service serves one capability.
type CapabilitySpec struct {
	Name    string         `yaml:"name" toml:"name"`
	Tool    string         `yaml:"tool,omitempty" toml:"tool,omitempty"`
	Args    map[string]any `yaml:"args,omitempty" toml:"args,omitempty"`
	Forward []string       `yaml:"forward,omitempty" toml:"forward,omitempty"`
	Domain  string         `yaml:"domain,omitempty" toml:"domain,omitempty"`
}

// ServicesFile is the top-level structure of the services file.
type ServicesFile struct {
	Services []ServiceSpec `yaml:"services" toml:"services"`
}

// ServiceSpecs merges environment addresses with the optional services file.
//
// Known services come first in their fixed order, then file-only services in
// file order. A file entry naming a known service overrides it in place. A
// file-only entry whose url is blank (for instance an unset ${VAR}) is left
// out, the same way an empty environment address is.
func (c *Config) ServiceSpecs() ([]ServiceSpec, error) {
	specs := c.envSpecs()

	if c.ServicesFile == "" {
		return specs, nil
	}

	file, err := LoadServicesFile(c.ServicesFile)
	if err != nil {
		return nil, err
	}
	return mergeSpecs(specs, file.Services), nil
}

// envSpecs returns one spec per known service with a non-empty address.
func (c *Config) envSpecs() []ServiceSpec {
	pairs := []struct {
		name, url, token string
	}{
		{"outlook", c.URLs.Outlook, c.Tokens.Outlook},
		{"google", c.URLs.Google, c.Tokens.Google},
		{"todoist", c.URLs.Todoist, c.Tokens.Todoist},
		{"slack", c.URLs.Slack, c.Tokens.Slack},
		{"notion", c.URLs.Notion, c.Tokens.Notion},
		{"github", c.URLs.GitHub, c.Tokens.GitHub},
		{"homeassistant", c.URLs.HomeAssistant, c.Tokens.HomeAssistant},
		{"icloud", c.URLs.ICloud, c.Tokens.ICloud},
	}

	specs := make([]ServiceSpec, 0, len(pairs))
	for _, p := range pairs {
		url := strings.TrimSpace(p.url)
		if url == "" {
			continue
		}
		specs = append(specs, ServiceSpec{Name: p.name, URL: url, Token: p.token})
	}
	return specs
}

func mergeSpecs(base, overrides []ServiceSpec) []ServiceSpec {
	out := append([]ServiceSpec(nil), base...)
	pos := make(map[string]int, len(out))
	for i, s := range out {
		pos[s.Name] = i
	}

	for _, o := range overrides {
		o.Name = strings.ToLower(strings.TrimSpace(o.Name))
		o.URL = strings.TrimSpace(o.URL)
		i, ok := pos[o.Name]
		if !ok {
			if o.URL == "" {
				continue
			}
			pos[o.Name] = len(out)
			out = append(out, o)
			continue
		}
		if o.URL != "" {
			out[i].URL = o.URL
		}
		if o.Token != "" {
			out[i].Token = o.Token
		}
		if o.Capabilities != nil {
			out[i].Capabilities = o.Capabilities
		}
	}
	return out
}

// LoadServicesFile reads a YAML (.yaml, .yml) or TOML (.toml) services file.
// ${VAR} references are expanded from the environment before parsing.
func LoadServicesFile(path string) (*ServicesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read services file: %w", err)
	}
	data = expandEnv(data)

	var file ServicesFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse services yaml: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse services toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported services file extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}

	return &file, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with its environment value. Unset variables
// expand to the empty string.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
