package field

import (
	"bytes"
	"fmt"

	"github.com/artpar/cmsdesk/domain/node"
	"gopkg.in/yaml.v3"
)

// ParseSchema reads a schema document. The document is JSON or YAML and is
// either a bare array of fields or an object with a "fields" array.
// Sub-fields may be spelled subFields, sub_fields or fields; the default
// value may be spelled defaultValue or default.
func ParseSchema(data []byte) ([]Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	// YAML is a superset of JSON, so one decoder handles both.
	var doc node.Value
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return FromValue(doc)
}

// FromValue converts a decoded schema document into definitions.
func FromValue(doc node.Value) ([]Definition, error) {
	list := doc
	if doc.Kind() == node.KindMap {
		fields, ok := doc.Lookup("fields")
		if !ok {
			return nil, fmt.Errorf("parse schema: missing fields")
		}
		list = fields
	}
	if list.IsNull() {
		return nil, nil
	}
	if list.Kind() != node.KindList {
		return nil, fmt.Errorf("parse schema: fields must be a list, got %s", list.Kind())
	}
	return parseFields(list, "")
}

func parseFields(list node.Value, prefix string) ([]Definition, error) {
	defs := make([]Definition, 0, list.Len())
	for i, item := range list.Items() {
		at := fmt.Sprintf("%s[%d]", prefix, i)
		if item.Kind() != node.KindMap {
			return nil, fmt.Errorf("parse schema: %s: field must be an object", at)
		}
		d, err := parseField(item, at)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func parseField(m node.Value, at string) (Definition, error) {
	var d Definition
	d.Name = str(m, "name")
	if d.Name == "" {
		d.Name = str(m, "apiIdentifier")
	}
	d.Type = Type(str(m, "type"))
	d.Label = str(m, "label")
	d.Description = str(m, "description")
	if v, ok := m.Lookup("required"); ok {
		b, isBool := v.AsBool()
		if !isBool && !v.IsNull() {
			return d, fmt.Errorf("parse schema: %s: required must be a boolean", at)
		}
		d.Required = b
	}

	for _, key := range []string{"defaultValue", "default"} {
		if v, ok := m.Lookup(key); ok {
			dv := v
			d.DefaultValue = &dv
			break
		}
	}

	for _, key := range []string{"subFields", "sub_fields", "fields"} {
		v, ok := m.Lookup(key)
		if !ok || v.IsNull() {
			continue
		}
		if v.Kind() != node.KindList {
			return d, fmt.Errorf("parse schema: %s.%s must be a list", at, key)
		}
		sub, err := parseFields(v, at+"."+key)
		if err != nil {
			return d, err
		}
		d.SubFields = sub
		break
	}
	return d, nil
}

func str(m node.Value, key string) string {
	v, ok := m.Lookup(key)
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

// ToValue converts definitions back into a schema document value.
func ToValue(defs []Definition) node.Value {
	items := make([]node.Value, len(defs))
	for i, d := range defs {
		entries := []node.Entry{
			{Key: "name", Value: node.String(d.Name)},
			{Key: "type", Value: node.String(string(d.Type))},
			{Key: "required", Value: node.Bool(d.Required)},
		}
		if d.Label != "" {
			entries = append(entries, node.Entry{Key: "label", Value: node.String(d.Label)})
		}
		if d.Description != "" {
			entries = append(entries, node.Entry{Key: "description", Value: node.String(d.Description)})
		}
		if d.DefaultValue != nil {
			entries = append(entries, node.Entry{Key: "defaultValue", Value: *d.DefaultValue})
		}
		if len(d.SubFields) > 0 {
			entries = append(entries, node.Entry{Key: "subFields", Value: ToValue(d.SubFields)})
		}
		items[i] = node.Map(entries...)
	}
	return node.List(items...)
}
