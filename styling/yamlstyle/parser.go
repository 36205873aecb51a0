package yamlstyle

import (
	"errors"
	"io"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/styling"
	"gopkg.in/yaml.v3"
)

// top level keys of a stylesheet document
const (
	KeyZoomLevels    = "ZOOMLEVELS"
	KeyMapBackground = "MAP_BACKGROUND"
	KeySeaBackground = "SEA_BACKGROUND"
)

const mergeKey = "<<"

var ErrDuplicateKey = errors.New("duplicate key")

// Parse reads a stylesheet document. Other top level keys are ignored, so they can hold anchored blocks for reuse.
func Parse(styleID string, reader io.Reader) (*styling.Stylesheet, errorsx.Error) {
	return parse(styleID, "", reader)
}

func parse(styleID, baseDir string, reader io.Reader) (*styling.Stylesheet, errorsx.Error) {
	var document yaml.Node
	err := yaml.NewDecoder(reader).Decode(&document)
	if err != nil {
		if err == io.EOF {
			return nil, errorsx.Errorf("empty stylesheet document")
		}
		return nil, errorsx.Wrap(err)
	}

	root, err := resolve(&document)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}

	if root.Kind != yaml.MappingNode {
		return nil, nodeError(root, "a stylesheet must be a mapping")
	}

	topLevel, err := mappingByKey(root)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	zoomLevelsNode, ok := topLevel[KeyZoomLevels]
	if !ok {
		return nil, errorsx.Wrap(styling.ErrInvalidZoomRegistry, "reason", "missing "+KeyZoomLevels)
	}

	zoomRegistry, err := parseZoomLevels(zoomLevelsNode)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	builder := styling.NewStylesheetBuilder(styleID, zoomRegistry).SetBaseDir(baseDir)

	if node, ok := topLevel[KeyMapBackground]; ok {
		c, err := parseColor(node)
		if err != nil {
			return nil, errorsx.Wrap(err, "key", KeyMapBackground)
		}
		builder.SetMapBackground(c)
	}

	if node, ok := topLevel[KeySeaBackground]; ok {
		c, err := parseColor(node)
		if err != nil {
			return nil, errorsx.Wrap(err, "key", KeySeaBackground)
		}
		builder.SetSeaBackground(c)
	}

	// geometry type keys are the upper case names, e.g. POLYGON
	for _, geometryType := range ownmap.GeometryTypes {
		node, ok := topLevel[geometryType.String()]
		if !ok || isNull(node) {
			continue
		}

		err = parseGeometryTypeTree(builder, geometryType, node)
		if err != nil {
			return nil, errorsx.Wrap(err, "geometryType", geometryType.String())
		}
	}

	stylesheet, err := builder.Build()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return stylesheet, nil
}

func parseZoomLevels(node *yaml.Node) (*styling.ZoomRegistry, errorsx.Error) {
	if node.Kind != yaml.MappingNode {
		return nil, nodeError(node, KeyZoomLevels+" must be a mapping of zoom level name to [min scale, max scale]")
	}

	var levels []*styling.ZoomLevel
	for i := 0; i < len(node.Content); i += 2 {
		nameNode, rangeNode := node.Content[i], node.Content[i+1]

		if rangeNode.Kind != yaml.SequenceNode || len(rangeNode.Content) != 2 {
			return nil, nodeError(rangeNode, "a zoom level must be [min scale, max scale]", "zoomLevel", nameNode.Value)
		}

		var minScale, maxScale float64
		err := rangeNode.Content[0].Decode(&minScale)
		if err != nil {
			return nil, nodeError(rangeNode, "min scale is not a number", "zoomLevel", nameNode.Value)
		}
		err = rangeNode.Content[1].Decode(&maxScale)
		if err != nil {
			return nil, nodeError(rangeNode, "max scale is not a number", "zoomLevel", nameNode.Value)
		}

		levels = append(levels, &styling.ZoomLevel{
			Name:     strings.TrimSpace(nameNode.Value),
			MinScale: minScale,
			MaxScale: maxScale,
		})
	}

	registry, err := styling.NewZoomRegistry(levels)
	if err != nil {
		return nil, errorsx.Wrap(err, "line", node.Line)
	}

	return registry, nil
}

// parseGeometryTypeTree walks tag name -> tag value selector -> [{zoom selector: attributes}]
func parseGeometryTypeTree(builder *styling.StylesheetBuilder, geometryType ownmap.GeometryType, node *yaml.Node) errorsx.Error {
	if node.Kind != yaml.MappingNode {
		return nodeError(node, "expected a mapping of tag names")
	}

	for i := 0; i < len(node.Content); i += 2 {
		tagNameNode, valuesNode := node.Content[i], node.Content[i+1]
		if valuesNode.Kind != yaml.MappingNode {
			return nodeError(valuesNode, "expected a mapping of tag values", "tagName", tagNameNode.Value)
		}

		for j := 0; j < len(valuesNode.Content); j += 2 {
			valueNode, overlaysNode := valuesNode.Content[j], valuesNode.Content[j+1]

			overlays, err := parseOverlays(builder, geometryType, overlaysNode)
			if err != nil {
				return errorsx.Wrap(err, "tagName", tagNameNode.Value, "tagValue", valueNode.Value)
			}

			err = builder.AddRules(geometryType, tagNameNode.Value, valueNode.Value, overlays)
			if err != nil {
				return errorsx.Wrap(err, "line", valueNode.Line)
			}
		}
	}

	return nil
}

func parseOverlays(builder *styling.StylesheetBuilder, geometryType ownmap.GeometryType, node *yaml.Node) ([]*styling.ZoomOverlay, errorsx.Error) {
	var entries []*yaml.Node
	switch node.Kind {
	case yaml.SequenceNode:
		entries = node.Content
	case yaml.MappingNode:
		// a single {zoom selector: attributes} block without the list
		entries = []*yaml.Node{node}
	default:
		return nil, nodeError(node, "expected a list of {zoom selector: attributes}")
	}

	var overlays []*styling.ZoomOverlay
	for _, entry := range entries {
		if entry.Kind != yaml.MappingNode {
			return nil, nodeError(entry, "expected {zoom selector: attributes}")
		}

		for i := 0; i < len(entry.Content); i += 2 {
			zoomNode, attributesNode := entry.Content[i], entry.Content[i+1]

			attributes, err := parseAttributes(geometryType, attributesNode)
			if err != nil {
				return nil, err
			}

			overlay, err := builder.NewOverlay(zoomNode.Value, attributes)
			if err != nil {
				return nil, errorsx.Wrap(err, "line", zoomNode.Line)
			}

			overlays = append(overlays, overlay)
		}
	}

	return overlays, nil
}

func parseAttributes(geometryType ownmap.GeometryType, node *yaml.Node) (styling.AttributeMap, errorsx.Error) {
	attributes := make(styling.AttributeMap)
	if isNull(node) {
		return attributes, nil
	}

	if node.Kind != yaml.MappingNode {
		return nil, nodeError(node, "expected a mapping of attributes")
	}

	for i := 0; i < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		fields, err := scalarFields(valueNode)
		if err != nil {
			return nil, errorsx.Wrap(err, "attribute", keyNode.Value)
		}

		value, err := styling.ParseAttribute(geometryType, keyNode.Value, fields)
		if err != nil {
			return nil, errorsx.Wrap(err, "line", keyNode.Line)
		}

		attributes[keyNode.Value] = value
	}

	return attributes, nil
}

func parseColor(node *yaml.Node) (styling.ColorValue, errorsx.Error) {
	fields, err := scalarFields(node)
	if err != nil {
		return styling.ColorValue{}, err
	}

	c, err := styling.ParseColor(fields)
	if err != nil {
		return styling.ColorValue{}, errorsx.Wrap(err, "line", node.Line)
	}

	return c, nil
}

// scalarFields flattens a scalar, or a sequence of scalars, into its raw string values
func scalarFields(node *yaml.Node) ([]string, errorsx.Error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var fields []string
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, nodeError(item, "expected a scalar")
			}
			fields = append(fields, item.Value)
		}
		return fields, nil
	default:
		return nil, nodeError(node, "expected a scalar or a list of scalars")
	}
}

// mappingByKey indexes a mapping node. A key given twice is an error.
func mappingByKey(node *yaml.Node) (map[string]*yaml.Node, errorsx.Error) {
	m := make(map[string]*yaml.Node)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		if _, ok := m[keyNode.Value]; ok {
			return nil, errorsx.Wrap(ErrDuplicateKey, "key", keyNode.Value, "line", keyNode.Line, "column", keyNode.Column)
		}
		m[keyNode.Value] = node.Content[i+1]
	}
	return m, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func nodeError(node *yaml.Node, message string, kvPairs ...interface{}) errorsx.Error {
	kvPairs = append(kvPairs, "line", node.Line, "column", node.Column)
	return errorsx.Wrap(errorsx.Errorf("%s", message), kvPairs...)
}
