// SPDX-License-Identifier: MPL-2.0

package compose

import "gopkg.in/yaml.v3"

// resolve follows alias nodes to the anchored node they point at.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// mappingValue returns the value node stored under key in mapping m, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	m = resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return resolve(m.Content[i+1])
		}
	}
	return nil
}

// removeMappingKey deletes key (and its value) from mapping m.
// Reports whether the key was present.
func removeMappingKey(m *yaml.Node, key string) bool {
	if m == nil || m.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

// mappingKeys returns the keys of mapping m in document order.
func mappingKeys(m *yaml.Node) []string {
	m = resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// scalarStrings returns the values of a sequence of scalars. Non-scalar items are skipped.
func scalarStrings(seq *yaml.Node) []string {
	seq = resolve(seq)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(seq.Content))
	for _, item := range seq.Content {
		if item = resolve(item); item != nil && item.Kind == yaml.ScalarNode {
			out = append(out, item.Value)
		}
	}
	return out
}

// deepCopy clones a node tree. Anchors are remapped so that aliases in the copy
// point into the copy, never back into the original tree.
func deepCopy(n *yaml.Node) *yaml.Node {
	return copyNode(n, make(map[*yaml.Node]*yaml.Node))
}

func copyNode(n *yaml.Node, seen map[*yaml.Node]*yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if c, ok := seen[n]; ok {
		return c
	}
	c := &yaml.Node{}
	*c = *n
	seen[n] = c
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = copyNode(child, seen)
		}
	}
	if n.Alias != nil {
		c.Alias = copyNode(n.Alias, seen)
	}
	return c
}

// collectNodes adds n and every node below it to set. Aliases are not followed.
func collectNodes(n *yaml.Node, set map[*yaml.Node]bool) {
	if n == nil || set[n] {
		return
	}
	set[n] = true
	for _, child := range n.Content {
		collectNodes(child, set)
	}
}

// inlineAliases replaces every alias below n whose anchor lies in gone with a
// copy of the anchored node.
func inlineAliases(n *yaml.Node, gone map[*yaml.Node]bool) {
	if n == nil {
		return
	}
	for i, child := range n.Content {
		if child.Kind == yaml.AliasNode && gone[child.Alias] {
			n.Content[i] = expandNode(child.Alias)
			continue
		}
		inlineAliases(child, gone)
	}
}

// expandNode copies n with every alias replaced by its target and anchors dropped.
func expandNode(n *yaml.Node) *yaml.Node {
	n = resolve(n)
	c := &yaml.Node{}
	*c = *n
	c.Anchor = ""
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = expandNode(child)
		}
	}
	return c
}
