package field

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/cmsdesk/domain/node"
)

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// CoerceError reports raw input that does not fit a field type.
type CoerceError struct {
	Field string
	Type  Type
	Input string
	Err   error
}

func (e *CoerceError) Error() string {
	return fmt.Sprintf("field %s (%s): cannot use %q: %v", e.Field, e.Type, e.Input, e.Err)
}

func (e *CoerceError) Unwrap() error { return e.Err }

// Coerce turns user input into a value suited to def's type.
// A nil def accepts any JSON literal and otherwise keeps the raw string.
func Coerce(def *Definition, raw string) (node.Value, error) {
	if def == nil {
		if v, err := node.Parse([]byte(raw)); err == nil {
			return v, nil
		}
		return node.String(raw), nil
	}

	fail := func(err error) (node.Value, error) {
		return node.Value{}, &CoerceError{Field: def.Name, Type: def.Type, Input: raw, Err: err}
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "null" && !def.Required {
		return node.Null(), nil
	}

	switch def.Type {
	case TypeNumber:
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return fail(fmt.Errorf("not a number"))
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fail(fmt.Errorf("not a finite number"))
		}
		return node.Number(n), nil

	case TypeBoolean:
		switch strings.ToLower(trimmed) {
		case "true", "yes", "on", "1":
			return node.Bool(true), nil
		case "false", "no", "off", "0":
			return node.Bool(false), nil
		}
		return fail(fmt.Errorf("not a boolean"))

	case TypeList, TypeObject:
		v, err := node.Parse([]byte(trimmed))
		if err != nil {
			return fail(err)
		}
		want := node.KindMap
		if def.Type == TypeList {
			want = node.KindList
		}
		if v.Kind() != want {
			return fail(fmt.Errorf("expected a JSON %s, got %s", want, v.Kind()))
		}
		return v, nil

	case TypeReference:
		// references are either an id string or a structured object
		if strings.HasPrefix(trimmed, "{") {
			v, err := node.Parse([]byte(trimmed))
			if err != nil {
				return fail(err)
			}
			return v, nil
		}
		return node.String(trimmed), nil

	case TypeDate:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
			if _, err := time.Parse(layout, trimmed); err == nil {
				return node.String(trimmed), nil
			}
		}
		return fail(fmt.Errorf("not a date (want RFC3339 or YYYY-MM-DD)"))

	case TypeEmail:
		addr, err := mail.ParseAddress(trimmed)
		if err != nil || addr.Address != trimmed {
			return fail(fmt.Errorf("not an email address"))
		}
		return node.String(trimmed), nil

	case TypeURL:
		u, err := url.Parse(trimmed)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fail(fmt.Errorf("not an absolute URL"))
		}
		return node.String(trimmed), nil

	case TypeColor:
		if !colorPattern.MatchString(trimmed) {
			return fail(fmt.Errorf("not a hex color"))
		}
		return node.String(trimmed), nil

	default:
		return node.String(raw), nil
	}
}

// Default returns the definition's default value, or a zero value for its
// type. Used when adding a new field or list element.
func Default(def Definition) node.Value {
	if def.DefaultValue != nil {
		return *def.DefaultValue
	}
	switch def.Type {
	case TypeNumber:
		return node.Number(0)
	case TypeBoolean:
		return node.Bool(false)
	case TypeList:
		return node.List()
	case TypeObject:
		entries := make([]node.Entry, 0, len(def.SubFields))
		for _, sub := range def.SubFields {
			entries = append(entries, node.Entry{Key: sub.Name, Value: Default(sub)})
		}
		return node.Map(entries...)
	case TypeReference, TypeFile, TypeDate:
		return node.Null()
	default:
		return node.String("")
	}
}
