// Package field describes content model schemas as trees of field definitions.
package field

import (
	"github.com/artpar/cmsdesk/domain/node"
)

// Type is the type of a schema field.
type Type string

const (
	TypeString    Type = "string"
	TypeText      Type = "text"
	TypeRichText  Type = "richText"
	TypeNumber    Type = "number"
	TypeBoolean   Type = "boolean"
	TypeDate      Type = "date"
	TypeFile      Type = "file"
	TypeReference Type = "reference"
	TypeList      Type = "list"
	TypeObject    Type = "object"
	TypeColor     Type = "color"
	TypeURL       Type = "url"
	TypeEmail     Type = "email"
)

var allTypes = []Type{
	TypeString, TypeText, TypeRichText, TypeNumber, TypeBoolean, TypeDate,
	TypeFile, TypeReference, TypeList, TypeObject, TypeColor, TypeURL, TypeEmail,
}

// Types returns every known field type.
func Types() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// Valid reports whether t is a known field type.
func (t Type) Valid() bool {
	for _, k := range allTypes {
		if k == t {
			return true
		}
	}
	return false
}

// CanHaveSubFields reports whether fields of type t may declare sub-fields.
func (t Type) CanHaveSubFields() bool {
	return t == TypeObject || t == TypeList || t == TypeReference
}

// Definition describes one named, typed slot in a content model.
type Definition struct {
	Name         string
	Type         Type
	Required     bool
	DefaultValue *node.Value
	SubFields    []Definition
	Label        string
	Description  string
}

// IsStructured reports whether d carries sub-field definitions.
func (d Definition) IsStructured() bool {
	return d.Type.CanHaveSubFields() && len(d.SubFields) > 0
}

// DisplayName returns the label, or the name when no label is set.
func (d Definition) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// Find returns the first definition named name among siblings.
func Find(defs []Definition, name string) (*Definition, bool) {
	for i := range defs {
		if defs[i].Name == name {
			return &defs[i], true
		}
	}
	return nil, false
}

// Names returns the sibling names in order.
func Names(defs []Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}
