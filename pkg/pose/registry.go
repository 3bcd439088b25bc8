package pose

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var templateJSON = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed templates.json
var defaultTemplates []byte

// PoseTemplate is the reference layout of a named pose. Only the Critical
// parts are compared; Reference may cover more.
type PoseTemplate struct {
	Name      string             `json:"name"`
	Reference map[BodyPart]Point `json:"reference"`
	Critical  []BodyPart         `json:"critical"`
}

func (t PoseTemplate) clone() PoseTemplate {
	ref := make(map[BodyPart]Point, len(t.Reference))
	for k, v := range t.Reference {
		ref[k] = v
	}
	critical := make([]BodyPart, len(t.Critical))
	copy(critical, t.Critical)
	return PoseTemplate{Name: t.Name, Reference: ref, Critical: critical}
}

// Registry maps pose names to templates. It is immutable once built and safe
// for concurrent use.
type Registry struct {
	version   int
	templates map[string]PoseTemplate
	names     []string
}

type templateFile struct {
	Version int `json:"version"`
	Poses   []struct {
		Name      string           `json:"name"`
		Critical  []string         `json:"critical"`
		Reference map[string]Point `json:"reference"`
	} `json:"poses"`
}

// NewRegistry parses a template document:
//
//	{"version": 1, "poses": [{"name": "...", "critical": ["left_knee"], "reference": {"left_knee": {"x": 0.3, "y": 0.8}}}]}
func NewRegistry(data []byte) (*Registry, error) {
	var doc templateFile
	if err := templateJSON.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	r := &Registry{
		version:   doc.Version,
		templates: make(map[string]PoseTemplate, len(doc.Poses)),
	}

	for i, p := range doc.Poses {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: pose #%d has no name", ErrInvalidTemplate, i)
		}
		if _, dup := r.templates[name]; dup {
			return nil, fmt.Errorf("%w: duplicate pose %q", ErrInvalidTemplate, name)
		}

		tpl := PoseTemplate{Name: name, Reference: make(map[BodyPart]Point, len(p.Reference))}
		for key, pt := range p.Reference {
			part, err := ParseBodyPart(key)
			if err != nil {
				return nil, fmt.Errorf("%w: pose %q: %v", ErrInvalidTemplate, name, err)
			}
			tpl.Reference[part] = pt
		}

		if len(p.Critical) == 0 {
			return nil, fmt.Errorf("%w: pose %q has no critical body parts", ErrInvalidTemplate, name)
		}
		seen := make(map[BodyPart]bool, len(p.Critical))
		for _, key := range p.Critical {
			part, err := ParseBodyPart(key)
			if err != nil {
				return nil, fmt.Errorf("%w: pose %q: %v", ErrInvalidTemplate, name, err)
			}
			if _, ok := tpl.Reference[part]; !ok {
				return nil, fmt.Errorf("%w: pose %q: critical part %s missing from reference", ErrInvalidTemplate, name, part)
			}
			if seen[part] {
				return nil, fmt.Errorf("%w: pose %q: critical part %s listed twice", ErrInvalidTemplate, name, part)
			}
			seen[part] = true
			tpl.Critical = append(tpl.Critical, part)
		}

		r.templates[name] = tpl
		r.names = append(r.names, name)
	}

	sort.Strings(r.names)
	return r, nil
}

// LoadRegistryFile reads a template document from disk.
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pose templates %s: %w", path, err)
	}
	return NewRegistry(data)
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// DefaultRegistry returns the registry built from the templates compiled into
// the binary.
func DefaultRegistry() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = NewRegistry(defaultTemplates)
	})
	return defaultRegistry, defaultErr
}

// Lookup returns a copy of the named template. There is no fallback pose.
func (r *Registry) Lookup(name string) (PoseTemplate, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return PoseTemplate{}, &UnknownPoseError{Name: name}
	}
	return tpl.clone(), nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Names returns the registered pose names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry) Version() int {
	return r.version
}
