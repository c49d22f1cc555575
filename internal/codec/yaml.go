// Package codec converts request documents between the formats callers
// hand to the engine. Everything funnels into the JSON wire form so that a
// single set of decoders applies.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fincalc/internal/core"
)

// YAMLToJSON re-encodes a YAML document as JSON. Unquoted YAML timestamps
// become DD-Mon-YY strings, the form the engine reads back as the same day.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	v, err := fromNode(&doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Decode reads a JSON or YAML document into v. name is used only to pick
// the format by extension; anything that is not .yaml or .yml must be JSON.
func Decode(name string, data []byte, v any) error {
	if IsYAML(name) {
		converted, err := YAMLToJSON(data)
		if err != nil {
			return err
		}
		data = converted
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(name), err)
	}
	return nil
}

// IsYAML reports whether name carries a YAML extension.
func IsYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// fromNode walks the node tree rather than decoding into any, because
// yaml.v3 hands timestamps to interface values as plain strings.
func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!timestamp" {
			var t time.Time
			if err := n.Decode(&t); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return core.FormatDate(t), nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
	}
}
