package node

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MarshalYAML encodes v as a yaml.Node so mapping order survives.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.yamlNode()
}

func (v Value) yamlNode() (*yaml.Node, error) {
	switch v.kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}, nil
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return nil, fmt.Errorf("unsupported number %v", v.n)
		}
		tag := "!!float"
		if v.n == math.Trunc(v.n) {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: formatNumber(v.n)}, nil
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}, nil
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.items {
			child, err := item.yamlNode()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i, k := range v.m.keys {
			child, err := v.m.vals[i].yamlNode()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				child,
			)
		}
		return n, nil
	}
	return nil, fmt.Errorf("unknown kind %d", v.kind)
}

// UnmarshalYAML decodes a YAML node into v, keeping mapping order.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	out, err := fromYAML(n)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func fromYAML(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for i, c := range n.Content {
			item, err := fromYAML(c)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, item)
		}
		return Value{kind: KindList, items: items}, nil
	case yaml.MappingNode:
		entries := make([]Entry, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			val, err := fromYAML(n.Content[i+1])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", key, err)
			}
			entries = append(entries, Entry{Key: key, Value: val})
		}
		return Map(entries...), nil
	case yaml.ScalarNode:
		var raw any
		if err := n.Decode(&raw); err != nil {
			return Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		switch t := raw.(type) {
		case nil, bool, string, int, int64, uint64, float64:
			return FromAny(t)
		default:
			// timestamps and other resolved scalars stay textual
			return String(n.Value), nil
		}
	}
	return Value{}, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
}
