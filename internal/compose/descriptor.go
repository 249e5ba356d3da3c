// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/invowk/launchpad/internal/dag"
)

const (
	keyServices  = "services"
	keyExtension = "x-launchpad"

	// dumpIndent matches the two-space indentation used by compose tooling.
	dumpIndent = 2
)

type (
	// Descriptor is an in-memory deployment descriptor.
	// The zero value is not usable; construct with Load or Parse.
	Descriptor struct {
		doc    *yaml.Node
		source string
		ext    extension
		// removed records services dropped by FilterServices so their environment
		// references can be pruned later.
		removed []string
	}

	// extension is the decoded "x-launchpad" block.
	extension struct {
		Required    []string            `yaml:"required"`
		Environment map[string][]string `yaml:"environment"`
		Initialize  initializeExtension `yaml:"initialize"`
	}

	initializeExtension struct {
		KeepVolumes     []string `yaml:"keep-volumes"`
		DropEnvironment []string `yaml:"drop-environment"`
	}
)

// Load reads and parses the descriptor at path.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses descriptor bytes. source is used in error messages only.
func Parse(data []byte, source string) (*Descriptor, error) {
	if source == "" {
		source = "<input>"
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed(source, "invalid YAML", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, malformed(source, "top level must be a mapping", nil)
	}

	d := &Descriptor{doc: &doc, source: source}
	if ext := mappingValue(d.root(), keyExtension); ext != nil {
		if err := ext.Decode(&d.ext); err != nil {
			return nil, malformed(source, "invalid "+keyExtension+" block", err)
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the structural invariants: a services mapping exists, every service is a
// mapping, every dependency resolves to a service in the same descriptor, every required
// service is present and depends_on has no cycle.
func (d *Descriptor) Validate() error {
	services := d.servicesNode()
	if services == nil || services.Kind != yaml.MappingNode {
		return malformed(d.source, "missing services mapping", nil)
	}
	for i := 0; i+1 < len(services.Content); i += 2 {
		name := services.Content[i].Value
		svc := resolve(services.Content[i+1])
		if svc == nil || svc.Kind != yaml.MappingNode {
			return malformed(d.source, fmt.Sprintf("service %q must be a mapping", name), nil)
		}
		for _, dep := range parseDependsOn(mappingValue(svc, keyDependsOn)) {
			if !d.HasService(dep) {
				return malformed(d.source, fmt.Sprintf("service %q depends on unknown service %q", name, dep), nil)
			}
		}
	}
	for _, name := range d.ext.Required {
		if !d.HasService(name) {
			return malformed(d.source, fmt.Sprintf("required service %q is not defined", name), nil)
		}
	}
	if _, err := d.StartOrder(); err != nil {
		return malformed(d.source, "invalid depends_on graph", err)
	}
	return nil
}

// StartOrder returns the services ordered so that every service follows its
// dependencies. Services without a mutual constraint keep descriptor order.
func (d *Descriptor) StartOrder() ([]string, error) {
	services := d.servicesNode()
	g := dag.FromDependencies(d.Services(), func(name string) []string {
		return parseDependsOn(mappingValue(mappingValue(services, name), keyDependsOn))
	})
	return g.TopologicalSort()
}

// Source returns the path the descriptor was loaded from.
func (d *Descriptor) Source() string {
	return d.source
}

// Services returns service names in insertion order.
func (d *Descriptor) Services() []string {
	return mappingKeys(d.servicesNode())
}

// HasService reports whether a service named name is present.
func (d *Descriptor) HasService(name string) bool {
	return mappingValue(d.servicesNode(), name) != nil
}

// Service returns a snapshot view of the named service.
func (d *Descriptor) Service(name string) (ServiceDescriptor, bool) {
	svc := mappingValue(d.servicesNode(), name)
	if svc == nil {
		return ServiceDescriptor{}, false
	}
	return newServiceDescriptor(name, svc), true
}

// IsRequired reports whether name belongs to the mandatory baseline.
func (d *Descriptor) IsRequired(name string) bool {
	for _, r := range d.ext.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy that shares no nodes with the receiver.
func (d *Descriptor) Clone() *Descriptor {
	c := &Descriptor{
		doc:     deepCopy(d.doc),
		source:  d.source,
		removed: append([]string(nil), d.removed...),
	}
	c.ext = extension{
		Required:    append([]string(nil), d.ext.Required...),
		Environment: make(map[string][]string, len(d.ext.Environment)),
		Initialize: initializeExtension{
			KeepVolumes:     append([]string(nil), d.ext.Initialize.KeepVolumes...),
			DropEnvironment: append([]string(nil), d.ext.Initialize.DropEnvironment...),
		},
	}
	for k, v := range d.ext.Environment {
		c.ext.Environment[k] = append([]string(nil), v...)
	}
	return c
}

// Marshal serializes the descriptor, preserving key order and untouched content.
func (d *Descriptor) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(dumpIndent)
	if err := enc.Encode(d.doc); err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return buf.Bytes(), nil
}

// Dump writes the descriptor to path, creating parent directories as needed.
func (d *Descriptor) Dump(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create descriptor directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write descriptor %s: %w", path, err)
	}
	return nil
}

func (d *Descriptor) root() *yaml.Node {
	return d.doc.Content[0]
}

func (d *Descriptor) servicesNode() *yaml.Node {
	return mappingValue(d.root(), keyServices)
}
