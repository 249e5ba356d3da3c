// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// FilterServices removes every service that is neither required, selected, nor a transitive
// dependency of a kept service. Unknown names in selected are ignored. Environment assignments
// referencing removed services are pruned as well.
//
// The result depends only on the set of selected names, never on their order.
func (d *Descriptor) FilterServices(selected []string) {
	keep := d.closure(selected)

	services := d.servicesNode()
	kept := services.Content[:0:0]
	gone := make(map[*yaml.Node]bool)
	for i := 0; i+1 < len(services.Content); i += 2 {
		name := services.Content[i].Value
		if keep[name] {
			kept = append(kept, services.Content[i], services.Content[i+1])
			continue
		}
		collectNodes(services.Content[i], gone)
		collectNodes(services.Content[i+1], gone)
		if !slices.Contains(d.removed, name) {
			d.removed = append(d.removed, name)
		}
	}
	services.Content = kept
	// Anchors inside removed services would leave dangling aliases behind.
	if len(gone) > 0 {
		inlineAliases(d.doc, gone)
	}

	for i := 1; i < len(services.Content); i += 2 {
		pruneDependsOn(services.Content[i], d.HasService)
	}
	d.RemoveUselessEnvironmentsVariables()
}

// closure computes required ∪ selected ∪ their transitive dependencies.
func (d *Descriptor) closure(selected []string) map[string]bool {
	keep := make(map[string]bool)
	var queue []string
	push := func(name string) {
		if keep[name] || !d.HasService(name) {
			return
		}
		keep[name] = true
		queue = append(queue, name)
	}
	for _, name := range d.ext.Required {
		push(name)
	}
	for _, name := range selected {
		push(name)
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, dep := range parseDependsOn(mappingValue(mappingValue(d.servicesNode(), name), keyDependsOn)) {
			push(dep)
		}
	}
	return keep
}

// RemoveUselessEnvironmentsVariables strips environment assignments that reference services no
// longer present: services removed by FilterServices and any extension-declared owner that is
// absent from the descriptor. Applying it more than once has no further effect.
func (d *Descriptor) RemoveUselessEnvironmentsVariables() {
	var absent []string
	absent = append(absent, d.removed...)
	for owner := range d.ext.Environment {
		if !d.HasService(owner) && !slices.Contains(absent, owner) {
			absent = append(absent, owner)
		}
	}
	if len(absent) == 0 {
		return
	}
	slices.Sort(absent)

	drop := func(name string) bool {
		for _, owner := range absent {
			if d.referencesService(name, owner) {
				return true
			}
		}
		return false
	}
	services := d.servicesNode()
	for i := 1; i < len(services.Content); i += 2 {
		filterEnvironment(services.Content[i], drop)
	}
}

// CleanForInitialize returns a copy suited for the first build pass: host bind mounts are
// removed (except targets listed under initialize.keep-volumes and the mount providing the
// service's own entrypoint) together with every variable owned by an optional service or
// listed under initialize.drop-environment.
// The receiver is left untouched.
func (d *Descriptor) CleanForInitialize() *Descriptor {
	c := d.Clone()

	dropVar := func(name string) bool {
		if slices.Contains(c.ext.Initialize.DropEnvironment, name) {
			return true
		}
		for _, vars := range c.ext.Environment {
			if slices.Contains(vars, name) {
				return true
			}
		}
		return false
	}

	services := c.servicesNode()
	for i := 1; i < len(services.Content); i += 2 {
		svc := services.Content[i]
		entrypoint := parseEntrypoint(mappingValue(svc, keyEntrypoint))
		filterVolumes(svc, func(v Volume) bool {
			if !v.Bind || slices.Contains(c.ext.Initialize.KeepVolumes, v.Target) {
				return true
			}
			return entrypoint != "" && v.Target == entrypoint
		})
		filterEnvironment(svc, dropVar)
	}
	return c
}

// RemovedServices lists services dropped by FilterServices, in document order.
func (d *Descriptor) RemovedServices() []string {
	return append([]string(nil), d.removed...)
}

// referencesService reports whether variable name belongs to service owner, either by
// extension declaration or by the UPPER(owner)_ naming convention.
func (d *Descriptor) referencesService(name, owner string) bool {
	if slices.Contains(d.ext.Environment[owner], name) {
		return true
	}
	return strings.HasPrefix(name, envPrefix(owner))
}

func envPrefix(service string) string {
	return strings.ToUpper(strings.ReplaceAll(service, "-", "_")) + "_"
}
