package field

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/cmsdesk/domain/node"
)

// DefinitionError reports a problem with one field definition.
type DefinitionError struct {
	Field  string // dotted path of the field, e.g. "seo.title"
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Field == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: field %s: %s", e.Field, e.Reason)
}

// Validate checks a schema tree. It reports empty or duplicate names,
// unknown types and sub-fields on scalar types. All problems are returned
// together; nil means the schema is well formed.
func Validate(defs []Definition) error {
	return errors.Join(Problems(defs)...)
}

// Problems returns the problems Validate reports, one error each.
func Problems(defs []Definition) []error {
	var errs []error
	validateLevel(defs, "", &errs)
	return errs
}

func validateLevel(defs []Definition, prefix string, errs *[]error) {
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}

		if d.Name == "" {
			*errs = append(*errs, &DefinitionError{Field: full, Reason: "name is required"})
		} else if seen[d.Name] {
			*errs = append(*errs, &DefinitionError{Field: full, Reason: "duplicate name"})
		}
		seen[d.Name] = true

		if !d.Type.Valid() {
			*errs = append(*errs, &DefinitionError{Field: full, Reason: fmt.Sprintf("unknown type %q", d.Type)})
		}
		if len(d.SubFields) > 0 && !d.Type.CanHaveSubFields() {
			*errs = append(*errs, &DefinitionError{Field: full, Reason: fmt.Sprintf("type %s cannot have sub-fields", d.Type)})
		}

		validateLevel(d.SubFields, full, errs)
	}
}

// CheckRequired returns the dotted paths of required fields missing from data.
// Only map levels are checked; list elements are checked against the list's
// sub-fields.
func CheckRequired(defs []Definition, data node.Value) []string {
	var missing []string
	checkRequired(defs, data, "", &missing)
	return missing
}

func checkRequired(defs []Definition, data node.Value, prefix string, missing *[]string) {
	if data.Kind() != node.KindMap {
		return
	}
	for _, d := range defs {
		full := d.Name
		if prefix != "" {
			full = prefix + "." + d.Name
		}
		v, ok := data.Lookup(d.Name)
		if !ok || v.IsNull() || isBlank(v) {
			if d.Required {
				*missing = append(*missing, full)
			}
			continue
		}
		if len(d.SubFields) == 0 {
			continue
		}
		switch v.Kind() {
		case node.KindMap:
			checkRequired(d.SubFields, v, full, missing)
		case node.KindList:
			for i, item := range v.Items() {
				checkRequired(d.SubFields, item, fmt.Sprintf("%s[%d]", full, i), missing)
			}
		}
	}
}

func isBlank(v node.Value) bool {
	s, ok := v.AsString()
	return ok && strings.TrimSpace(s) == ""
}
