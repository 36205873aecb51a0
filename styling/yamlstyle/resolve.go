package yamlstyle

import (
	"github.com/jamesrr39/goutil/errorsx"
	"gopkg.in/yaml.v3"
)

// anchors nested deeper than this are treated as a reference cycle
const maxAliasDepth = 64

// resolve returns a copy of the tree with every alias replaced by its own copy of the anchored node,
// and every merge key ("<<") expanded into the mapping that holds it.
// Two identities reusing one anchored block therefore never share attribute maps.
func resolve(node *yaml.Node) (*yaml.Node, errorsx.Error) {
	return resolveDepth(node, 0)
}

func resolveDepth(node *yaml.Node, depth int) (*yaml.Node, errorsx.Error) {
	if depth > maxAliasDepth {
		return nil, nodeError(node, "aliases nested too deeply")
	}

	switch node.Kind {
	case yaml.AliasNode:
		if node.Alias == nil {
			return nil, nodeError(node, "unknown alias")
		}
		return resolveDepth(node.Alias, depth+1)
	case yaml.MappingNode:
		return resolveMapping(node, depth)
	}

	copied := *node
	copied.Anchor = ""
	copied.Content = nil
	for _, child := range node.Content {
		resolvedChild, err := resolveDepth(child, depth)
		if err != nil {
			return nil, err
		}
		copied.Content = append(copied.Content, resolvedChild)
	}

	return &copied, nil
}

func resolveMapping(node *yaml.Node, depth int) (*yaml.Node, errorsx.Error) {
	copied := *node
	copied.Anchor = ""
	copied.Content = nil

	// explicit keys are collected first, so they override merged ones regardless of position
	var merged [][2]*yaml.Node
	var explicit [][2]*yaml.Node

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == mergeKey && keyNode.Tag != "!!str" {
			pairs, err := mergeSources(valueNode, depth)
			if err != nil {
				return nil, err
			}
			merged = append(merged, pairs...)
			continue
		}

		resolvedKey, err := resolveDepth(keyNode, depth)
		if err != nil {
			return nil, err
		}
		resolvedValue, err := resolveDepth(valueNode, depth)
		if err != nil {
			return nil, err
		}
		explicit = append(explicit, [2]*yaml.Node{resolvedKey, resolvedValue})
	}

	explicitKeys := make(map[string]bool)
	for _, pair := range explicit {
		explicitKeys[pair[0].Value] = true
	}

	seenMergedKeys := make(map[string]bool)
	for _, pair := range merged {
		key := pair[0].Value
		if explicitKeys[key] || seenMergedKeys[key] {
			continue
		}
		seenMergedKeys[key] = true
		copied.Content = append(copied.Content, pair[0], pair[1])
	}

	for _, pair := range explicit {
		copied.Content = append(copied.Content, pair[0], pair[1])
	}

	return &copied, nil
}

// mergeSources gives the key/value pairs of a merge value: one mapping, or a list of mappings where earlier ones win
func mergeSources(valueNode *yaml.Node, depth int) ([][2]*yaml.Node, errorsx.Error) {
	var sources []*yaml.Node
	if valueNode.Kind == yaml.SequenceNode {
		sources = valueNode.Content
	} else {
		sources = []*yaml.Node{valueNode}
	}

	var pairs [][2]*yaml.Node
	for _, source := range sources {
		resolvedSource, err := resolveDepth(source, depth+1)
		if err != nil {
			return nil, err
		}

		if resolvedSource.Kind != yaml.MappingNode {
			return nil, nodeError(source, "merge value must be a mapping or a list of mappings")
		}

		for i := 0; i+1 < len(resolvedSource.Content); i += 2 {
			pairs = append(pairs, [2]*yaml.Node{resolvedSource.Content[i], resolvedSource.Content[i+1]})
		}
	}

	return pairs, nil
}
