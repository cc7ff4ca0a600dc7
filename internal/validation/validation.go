// Package validation checks decoded JSON job input against a per-type schema.
//
// A schema is an ordered list of required fields. Validate reports every
// violation at once, in schema order, and drops fields the schema does not
// name.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Kind is the JSON type constraint of a field.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInteger
	KindURL
)

// Check inspects an already type-converted value and returns a message when
// the value is unacceptable, or "" when it is fine.
type Check func(v any) string

// Field describes one required input field.
type Field struct {
	Name   string
	Kind   Kind
	Checks []Check
	// InvalidMessage replaces the default type-mismatch message.
	InvalidMessage string
}

// Schema is an ordered set of required fields.
type Schema []Field

// Names returns field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// String declares a required string field.
func String(name string, checks ...Check) Field {
	return Field{Name: name, Kind: KindString, Checks: checks}
}

// Any declares a required field accepting any non-null JSON value.
func Any(name string, checks ...Check) Field {
	return Field{Name: name, Kind: KindAny, Checks: checks}
}

// Integer declares a required integer field.
func Integer(name string, checks ...Check) Field {
	return Field{Name: name, Kind: KindInteger, Checks: checks}
}

// URL declares a required absolute URL field; invalid values report msg.
func URL(name, msg string) Field {
	return Field{Name: name, Kind: KindURL, InvalidMessage: msg}
}

// NonEmpty rejects strings that are empty after trimming whitespace.
func NonEmpty(name string) Check {
	return func(v any) string {
		s, _ := v.(string)
		if strings.TrimSpace(s) == "" {
			return name + " cannot be empty"
		}
		return ""
	}
}

// Between rejects integers outside [lo, hi] with msg.
func Between(lo, hi int64, msg string) Check {
	return func(v any) string {
		n, _ := v.(int64)
		if n < lo || n > hi {
			return msg
		}
		return ""
	}
}

// FieldError is a single violation.
type FieldError struct {
	Field   string
	Message string
}

// Errors collects every violation found in one input.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Validate checks raw against s and returns the accepted fields with values
// normalised to plain Go types. On failure the error is of type Errors.
func Validate(s Schema, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s))
	var errs Errors

	for _, f := range s {
		v, present := raw[f.Name]
		switch {
		case !present:
			errs = append(errs, FieldError{f.Name, f.Name + " is required"})
			continue
		case v == nil:
			errs = append(errs, FieldError{f.Name, f.Name + " cannot be null"})
			continue
		}

		converted, msg := convert(f, v)
		if msg != "" {
			errs = append(errs, FieldError{f.Name, msg})
			continue
		}

		failed := false
		for _, check := range f.Checks {
			if m := check(converted); m != "" {
				errs = append(errs, FieldError{f.Name, m})
				failed = true
			}
		}
		if !failed {
			out[f.Name] = converted
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func convert(f Field, v any) (any, string) {
	switch f.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, invalid(f, "Not a valid string.")
		}
		return s, ""
	case KindInteger:
		n, ok := toInt(v)
		if !ok {
			return nil, invalid(f, "Not a valid integer.")
		}
		return n, ""
	case KindURL:
		s, ok := v.(string)
		if !ok || !isURL(s) {
			return nil, invalid(f, "Not a valid URL.")
		}
		return s, ""
	case KindAny:
		return Normalize(v), ""
	default:
		return nil, fmt.Sprintf("unsupported field kind %d", f.Kind)
	}
}

func invalid(f Field, fallback string) string {
	if f.InvalidMessage != "" {
		return f.InvalidMessage
	}
	return fallback
}

// toInt accepts integral JSON numbers and numeric strings.
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

var urlSchemes = map[string]bool{"http": true, "https": true, "ftp": true, "ftps": true}

func isURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return urlSchemes[strings.ToLower(u.Scheme)] && u.Hostname() != ""
}

// Normalize converts json.Number values (from a decoder with UseNumber) into
// int64 or float64, recursing into objects and arrays.
func Normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	default:
		return v
	}
}
