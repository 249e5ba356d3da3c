// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	keyEnvironment = "environment"
	keyVolumes     = "volumes"
	keyDependsOn   = "depends_on"
	keyEntrypoint  = "entrypoint"
)

type (
	// ServiceDescriptor is a read-only view of one service entry.
	// It is a snapshot: mutating it does not change the Descriptor.
	ServiceDescriptor struct {
		Name        string
		Environment []EnvVar
		Volumes     []Volume
		DependsOn   []string
		// Entrypoint is the executable of the entrypoint override, empty when the
		// image default applies.
		Entrypoint string
	}

	// EnvVar is one environment assignment. HasValue is false for pass-through
	// entries such as "- XDEBUG_CONFIG" that only name a variable.
	EnvVar struct {
		Name     string
		Value    string
		HasValue bool
	}

	// Volume is one mount binding.
	Volume struct {
		Source string
		Target string
		// Bind is true for host-path bind mounts, false for named volumes and tmpfs.
		Bind bool
	}
)

// String renders the assignment in KEY=VALUE form.
func (e EnvVar) String() string {
	if !e.HasValue {
		return e.Name
	}
	return e.Name + "=" + e.Value
}

// String renders the mount in short "source:target" form.
func (v Volume) String() string {
	if v.Source == "" {
		return v.Target
	}
	return v.Source + ":" + v.Target
}

// newServiceDescriptor builds the view for a service mapping node.
func newServiceDescriptor(name string, svc *yaml.Node) ServiceDescriptor {
	sd := ServiceDescriptor{Name: name}
	sd.Environment = parseEnvironment(mappingValue(svc, keyEnvironment))
	sd.DependsOn = parseDependsOn(mappingValue(svc, keyDependsOn))
	sd.Entrypoint = parseEntrypoint(mappingValue(svc, keyEntrypoint))
	if vols := mappingValue(svc, keyVolumes); vols != nil && vols.Kind == yaml.SequenceNode {
		for _, item := range vols.Content {
			if v, ok := parseVolume(resolve(item)); ok {
				sd.Volumes = append(sd.Volumes, v)
			}
		}
	}
	return sd
}

// parseEnvironment accepts both the list ("- KEY=VALUE") and the mapping ("KEY: VALUE") syntax.
func parseEnvironment(env *yaml.Node) []EnvVar {
	if env == nil {
		return nil
	}
	var out []EnvVar
	switch env.Kind {
	case yaml.SequenceNode:
		for _, item := range env.Content {
			if item = resolve(item); item != nil && item.Kind == yaml.ScalarNode {
				out = append(out, parseEnvEntry(item.Value))
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(env.Content); i += 2 {
			val := resolve(env.Content[i+1])
			ev := EnvVar{Name: env.Content[i].Value}
			if val != nil && val.Tag != "!!null" {
				ev.Value, ev.HasValue = val.Value, true
			}
			out = append(out, ev)
		}
	}
	return out
}

func parseEnvEntry(entry string) EnvVar {
	name, value, found := strings.Cut(entry, "=")
	return EnvVar{Name: strings.TrimSpace(name), Value: value, HasValue: found}
}

// parseEntrypoint returns the executable of a string or list entrypoint.
func parseEntrypoint(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if fields := strings.Fields(n.Value); len(fields) > 0 {
			return fields[0]
		}
	case yaml.SequenceNode:
		if args := scalarStrings(n); len(args) > 0 {
			return args[0]
		}
	}
	return ""
}

// parseDependsOn accepts both the list syntax and the long (mapping) syntax.
func parseDependsOn(deps *yaml.Node) []string {
	if deps == nil {
		return nil
	}
	switch deps.Kind {
	case yaml.SequenceNode:
		return scalarStrings(deps)
	case yaml.MappingNode:
		return mappingKeys(deps)
	default:
		return nil
	}
}

// parseVolume understands the short "src:dst[:mode]" form and the long mapping form.
func parseVolume(item *yaml.Node) (Volume, bool) {
	if item == nil {
		return Volume{}, false
	}
	switch item.Kind {
	case yaml.ScalarNode:
		parts := splitVolumeSpec(item.Value)
		if len(parts) == 1 {
			// Anonymous volume: only a container path.
			return Volume{Target: parts[0]}, true
		}
		v := Volume{Source: parts[0], Target: parts[1]}
		v.Bind = isHostPath(v.Source)
		return v, true
	case yaml.MappingNode:
		v := Volume{}
		if n := mappingValue(item, "source"); n != nil {
			v.Source = n.Value
		}
		if n := mappingValue(item, "target"); n != nil {
			v.Target = n.Value
		}
		if n := mappingValue(item, "type"); n != nil {
			v.Bind = n.Value == "bind"
		} else {
			v.Bind = isHostPath(v.Source)
		}
		return v, true
	default:
		return Volume{}, false
	}
}

// splitVolumeSpec splits a short volume spec on ':' while leaving ${VAR:-default}
// interpolations intact.
func splitVolumeSpec(spec string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(spec); i++ {
		switch {
		case spec[i] == '$' && i+1 < len(spec) && spec[i+1] == '{':
			depth++
			i++
		case spec[i] == '}' && depth > 0:
			depth--
		case spec[i] == ':' && depth == 0:
			parts = append(parts, spec[start:i])
			start = i + 1
		}
	}
	return append(parts, spec[start:])
}

// isHostPath reports whether a short-syntax volume source names a host path rather than a
// named volume. Sources built from variables (${PROJECTCOMPOSEPATH}/...) count as host paths.
func isHostPath(source string) bool {
	if source == "" {
		return false
	}
	switch source[0] {
	case '/', '.', '~', '$':
		return true
	}
	return strings.Contains(source, "/")
}

// filterEnvironment removes every assignment whose name matches drop.
// An environment section left empty is removed entirely. Reports whether anything changed.
func filterEnvironment(svc *yaml.Node, drop func(name string) bool) bool {
	env := mappingValue(svc, keyEnvironment)
	if env == nil {
		return false
	}
	changed := false
	switch env.Kind {
	case yaml.SequenceNode:
		kept := env.Content[:0:0]
		for _, item := range env.Content {
			r := resolve(item)
			if r != nil && r.Kind == yaml.ScalarNode && drop(parseEnvEntry(r.Value).Name) {
				changed = true
				continue
			}
			kept = append(kept, item)
		}
		env.Content = kept
	case yaml.MappingNode:
		kept := env.Content[:0:0]
		for i := 0; i+1 < len(env.Content); i += 2 {
			if drop(env.Content[i].Value) {
				changed = true
				continue
			}
			kept = append(kept, env.Content[i], env.Content[i+1])
		}
		env.Content = kept
	}
	if len(env.Content) == 0 {
		removeMappingKey(resolve(svc), keyEnvironment)
	}
	return changed
}

// filterVolumes keeps only the mounts accepted by keep. An empty volumes section is removed.
func filterVolumes(svc *yaml.Node, keep func(Volume) bool) {
	vols := mappingValue(svc, keyVolumes)
	if vols == nil || vols.Kind != yaml.SequenceNode {
		return
	}
	kept := vols.Content[:0:0]
	for _, item := range vols.Content {
		v, ok := parseVolume(resolve(item))
		if ok && !keep(v) {
			continue
		}
		kept = append(kept, item)
	}
	vols.Content = kept
	if len(vols.Content) == 0 {
		removeMappingKey(resolve(svc), keyVolumes)
	}
}

// pruneDependsOn removes dependencies for which present returns false.
func pruneDependsOn(svc *yaml.Node, present func(name string) bool) {
	deps := mappingValue(svc, keyDependsOn)
	if deps == nil {
		return
	}
	switch deps.Kind {
	case yaml.SequenceNode:
		kept := deps.Content[:0:0]
		for _, item := range deps.Content {
			if r := resolve(item); r != nil && r.Kind == yaml.ScalarNode && !present(r.Value) {
				continue
			}
			kept = append(kept, item)
		}
		deps.Content = kept
	case yaml.MappingNode:
		kept := deps.Content[:0:0]
		for i := 0; i+1 < len(deps.Content); i += 2 {
			if !present(deps.Content[i].Value) {
				continue
			}
			kept = append(kept, deps.Content[i], deps.Content[i+1])
		}
		deps.Content = kept
	}
	if len(deps.Content) == 0 {
		removeMappingKey(resolve(svc), keyDependsOn)
	}
}
