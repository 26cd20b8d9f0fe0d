/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package options

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies the semantic class of a Value.
type ValueKind int

const (
	// KindInvalid is the zero Value.
	KindInvalid ValueKind = iota

	// KindBool is a boolean.
	KindBool

	// KindInt is a signed integer.
	KindInt

	// KindFloat is a floating point number.
	KindFloat

	// KindString is a string.
	KindString

	// KindList is an ordered list of values.
	KindList

	// KindNull is the null value.
	KindNull
)

// Value is a semantic option value, independent of its source syntax.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	List  []Value
}

// BoolValue returns a boolean value.
func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// IntValue returns an integer value.
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

// FloatValue returns a float value.
func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// StringValue returns a string value.
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

// ListValue returns a list value.
func ListValue(vs ...Value) Value { return Value{Kind: KindList, List: vs} }

// NullValue returns the null value.
func NullValue() Value { return Value{Kind: KindNull} }

// Nix renders the value as a Nix expression.
func (v Value) Nix() string {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return quoteNixString(v.Str)
	case KindList:
		if len(v.List) == 0 {
			return "[ ]"
		}
		parts := make([]string, len(v.List))
		for i, elem := range v.List {
			parts[i] = elem.Nix()
		}
		return "[ " + strings.Join(parts, " ") + " ]"
	case KindNull:
		return "null"
	}
	return ""
}

// String returns a display form of the value: strings unquoted, the rest
// as their Nix rendering.
func (v Value) String() string {
	if v.Kind == KindString {
		return v.Str
	}
	return v.Nix()
}

// CoerceString interprets a plain text input as a semantic value of
// type t, for CLI and form inputs. Lists, attribute sets and
// expression-typed options cannot be coerced and require a raw
// expression edit.
func CoerceString(t *Type, s string) (Value, error) {
	if t == nil {
		return Value{}, fmt.Errorf("%w: unknown type", ErrTypeMismatch)
	}
	switch t.Kind {
	case TypeBool:
		switch s {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, s)

	case TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, s)
		}
		v := IntValue(n)
		if err := t.Check(v); err != nil {
			return Value{}, err
		}
		return v, nil

	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, s)
		}
		return FloatValue(f), nil

	case TypeString, TypeEnum:
		v := StringValue(s)
		if err := t.Check(v); err != nil {
			return Value{}, err
		}
		return v, nil

	case TypeNull:
		if s == "null" {
			return NullValue(), nil
		}
		return Value{}, fmt.Errorf("%w: %q is not null", ErrTypeMismatch, s)

	case TypeEither:
		for _, alt := range t.Alts {
			if v, err := CoerceString(alt, s); err == nil {
				return v, nil
			}
		}
		return Value{}, fmt.Errorf("%w: %q matches no alternative of %s", ErrTypeMismatch, s, t)
	}
	return Value{}, fmt.Errorf("%w: %s values require a raw expression edit", ErrTypeMismatch, t)
}

// quoteNixString renders s as a double-quoted Nix string literal.
func quoteNixString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				sb.WriteString(`\$`)
			} else {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
