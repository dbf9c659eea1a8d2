package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"kvhttpd/internal/errors"
)

// Manifest declares static file endpoints, stored as routes.toml or routes.yaml
type Manifest struct {
	Routes []Route `toml:"routes" yaml:"routes"`
}

// Route is one file-serving endpoint
type Route struct {
	// Endpoint is the exact request path, e.g. "/readme"
	Endpoint string `toml:"endpoint" yaml:"endpoint"`

	// File is the file to stream; relative paths resolve against the base dir
	File string `toml:"file" yaml:"file"`

	// Methods restricts the accepted verbs; empty accepts all
	Methods []string `toml:"methods,omitempty" yaml:"methods,omitempty"`

	// Description is shown in the help table
	Description string `toml:"description,omitempty" yaml:"description,omitempty"`

	// Properties are free-form tags shown in the help table
	Properties []string `toml:"properties,omitempty" yaml:"properties,omitempty"`
}

// LoadManifest reads a manifest, choosing the decoder by file extension
// (.toml, .yaml or .yml).
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.InvalidManifest, "failed to read route manifest", err)
	}

	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, errors.New(errors.InvalidManifest, "failed to parse "+path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, errors.New(errors.InvalidManifest, "failed to parse "+path, err)
		}
	default:
		return nil, errors.Newf(errors.InvalidManifest, "unsupported manifest format %q", ext)
	}

	for i := range m.Routes {
		if len(m.Routes[i].Methods) == 0 {
			m.Routes[i].Methods = nil
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks endpoints, files and verbs
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Routes))
	for i, r := range m.Routes {
		where := fmt.Sprintf("route %d", i+1)
		if !strings.HasPrefix(r.Endpoint, "/") {
			return errors.Newf(errors.InvalidManifest, "%s: endpoint %q must start with /", where, r.Endpoint)
		}
		if seen[r.Endpoint] {
			return errors.Newf(errors.InvalidManifest, "%s: duplicate endpoint %q", where, r.Endpoint)
		}
		seen[r.Endpoint] = true

		if strings.TrimSpace(r.File) == "" {
			return errors.Newf(errors.InvalidManifest, "%s: endpoint %q has no file", where, r.Endpoint)
		}
		for _, method := range r.Methods {
			if !isStandardMethod(method) {
				return errors.Newf(errors.InvalidManifest, "%s: unknown method %q", where, method)
			}
		}
	}
	return nil
}

func isStandardMethod(method string) bool {
	for _, m := range StandardMethods {
		if m == method {
			return true
		}
	}
	return false
}
