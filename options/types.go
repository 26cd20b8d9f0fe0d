/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package options

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TypeKind identifies the declared type of an option. The set is closed;
// the edit engine dispatches validation over it by exhaustive switch.
type TypeKind int

const (
	// TypeUnsupported marks options absent from the metadata feed or with
	// an unrecognized type string. Editable only as raw text.
	TypeUnsupported TypeKind = iota

	// TypeBool is a boolean option.
	TypeBool

	// TypeInt is an integer option, optionally bounded.
	TypeInt

	// TypeFloat is a floating point option.
	TypeFloat

	// TypeString is a string option.
	TypeString

	// TypeEnum is a string restricted to declared choices.
	TypeEnum

	// TypeListOf is a homogeneous list.
	TypeListOf

	// TypeAttrsOf is an attribute set of element values; its children are
	// edited individually, never the set wholesale.
	TypeAttrsOf

	// TypeSubmodule is a nested option set.
	TypeSubmodule

	// TypeEither accepts any of its alternatives.
	TypeEither

	// TypeNull accepts only null (appears inside either/null-or types).
	TypeNull

	// TypeExpression marks options viewed and edited only as raw
	// expression text (paths, packages, functions).
	TypeExpression
)

// Type is the declared type of an option as a closed tagged variant.
type Type struct {
	Kind TypeKind

	// Choices holds the allowed values of an enum.
	Choices []string

	// Min and Max bound an integer type when non-nil.
	Min *int64
	Max *int64

	// Elem is the element type of list-of and attrs-of types.
	Elem *Type

	// Alts holds the alternatives of an either type.
	Alts []*Type
}

// String returns a short display name for the type.
func (t *Type) String() string {
	switch t.Kind {
	case TypeBool:
		return "boolean"
	case TypeInt:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeEnum:
		return "one of " + strings.Join(t.Choices, ", ")
	case TypeListOf:
		if t.Elem != nil {
			return "list of " + t.Elem.String()
		}
		return "list"
	case TypeAttrsOf:
		if t.Elem != nil {
			return "attribute set of " + t.Elem.String()
		}
		return "attribute set"
	case TypeSubmodule:
		return "submodule"
	case TypeEither:
		parts := make([]string, len(t.Alts))
		for i, alt := range t.Alts {
			parts[i] = alt.String()
		}
		return strings.Join(parts, " or ")
	case TypeNull:
		return "null"
	case TypeExpression:
		return "expression"
	}
	return "unsupported"
}

// Check reports whether v satisfies the type. Failures wrap
// ErrTypeMismatch.
func (t *Type) Check(v Value) error {
	switch t.Kind {
	case TypeBool:
		if v.Kind == KindBool {
			return nil
		}
	case TypeInt:
		if v.Kind == KindInt {
			if t.Min != nil && v.Int < *t.Min {
				return fmt.Errorf("%w: %d below minimum %d", ErrTypeMismatch, v.Int, *t.Min)
			}
			if t.Max != nil && v.Int > *t.Max {
				return fmt.Errorf("%w: %d above maximum %d", ErrTypeMismatch, v.Int, *t.Max)
			}
			return nil
		}
	case TypeFloat:
		if v.Kind == KindFloat || v.Kind == KindInt {
			return nil
		}
	case TypeString:
		if v.Kind == KindString {
			return nil
		}
	case TypeEnum:
		if v.Kind == KindString {
			for _, choice := range t.Choices {
				if v.Str == choice {
					return nil
				}
			}
			return fmt.Errorf("%w: %q is not one of %s", ErrTypeMismatch, v.Str, strings.Join(t.Choices, ", "))
		}
	case TypeListOf:
		if v.Kind == KindList {
			if t.Elem == nil {
				return nil
			}
			for i, elem := range v.List {
				if err := t.Elem.Check(elem); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
			return nil
		}
	case TypeEither:
		for _, alt := range t.Alts {
			if alt.Check(v) == nil {
				return nil
			}
		}
	case TypeNull:
		if v.Kind == KindNull {
			return nil
		}
	case TypeAttrsOf, TypeSubmodule:
		return fmt.Errorf("%w: %s options are edited per child attribute", ErrTypeMismatch, t.String())
	case TypeExpression, TypeUnsupported:
		return fmt.Errorf("%w: %s options accept only raw expression edits", ErrTypeMismatch, t.String())
	}
	return fmt.Errorf("%w: %s does not accept %s", ErrTypeMismatch, t.String(), v.Nix())
}

var intBoundsPattern = regexp.MustCompile(`between (-?\d+) and (-?\d+)`)

// ParseTypeString converts a NixOS option type description (the `type`
// field of the options catalog, e.g. "list of string" or `one of "a", "b"`)
// into a Type. Unrecognized descriptions yield TypeUnsupported.
func ParseTypeString(s string) *Type {
	s = strings.TrimSpace(s)
	if s == "" {
		return &Type{Kind: TypeUnsupported}
	}

	// A comma after "string" introduces a prose qualifier ("string, not
	// containing newlines or colons") whose "or" is not an alternative.
	if strings.HasPrefix(s, "string, ") {
		return &Type{Kind: TypeString}
	}

	alts := splitAlternatives(s)
	if len(alts) > 1 {
		parsed := make([]*Type, len(alts))
		for i, alt := range alts {
			parsed[i] = ParseTypeString(alt)
		}
		return &Type{Kind: TypeEither, Alts: parsed}
	}

	return parseSingleType(s)
}

// splitAlternatives splits a type description on top-level " or "
// separators. A "list of"/"attribute set of" prefix consumes the rest of
// the description, matching how the catalog renders nested types.
func splitAlternatives(s string) []string {
	var alts []string
	rest := s
	for {
		if strings.HasPrefix(rest, "list of ") || strings.HasPrefix(rest, "attribute set of ") {
			alts = append(alts, rest)
			return alts
		}
		idx := indexTopLevel(rest, " or ")
		if idx < 0 {
			alts = append(alts, rest)
			return alts
		}
		alts = append(alts, rest[:idx])
		rest = rest[idx+len(" or "):]
	}
}

// indexTopLevel finds sep outside quotes and parentheses.
func indexTopLevel(s, sep string) int {
	depth := 0
	quoted := false
	for i := 0; i+len(sep) <= len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case '(':
			depth++
		case ')':
			depth--
		}
		if !quoted && depth == 0 && strings.HasPrefix(s[i:], sep) {
			return i
		}
	}
	return -1
}

func parseSingleType(s string) *Type {
	// Compound heads first.
	if rest, ok := strings.CutPrefix(s, "list of "); ok {
		return &Type{Kind: TypeListOf, Elem: parseElem(rest)}
	}
	if rest, ok := strings.CutPrefix(s, "attribute set of "); ok {
		return &Type{Kind: TypeAttrsOf, Elem: parseElem(rest)}
	}
	if rest, ok := strings.CutPrefix(s, "non-empty list of "); ok {
		return &Type{Kind: TypeListOf, Elem: parseElem(rest)}
	}
	if strings.HasPrefix(s, "one of ") {
		return &Type{Kind: TypeEnum, Choices: parseChoices(strings.TrimPrefix(s, "one of "))}
	}

	switch {
	case s == "null":
		return &Type{Kind: TypeNull}
	case s == "boolean" || strings.HasPrefix(s, "boolean "):
		return &Type{Kind: TypeBool}
	case strings.Contains(s, "integer"):
		t := &Type{Kind: TypeInt}
		if m := intBoundsPattern.FindStringSubmatch(s); m != nil {
			min, _ := strconv.ParseInt(m[1], 10, 64)
			max, _ := strconv.ParseInt(m[2], 10, 64)
			t.Min, t.Max = &min, &max
		} else if strings.Contains(s, "unsigned") || strings.Contains(s, "positive") {
			zero := int64(0)
			t.Min = &zero
		}
		return t
	case strings.Contains(s, "floating point") || s == "float":
		return &Type{Kind: TypeFloat}
	case s == "string" || strings.HasPrefix(s, "string,") || strings.HasPrefix(s, "string "),
		strings.HasSuffix(s, "string"):
		return &Type{Kind: TypeString}
	case strings.HasPrefix(s, "submodule"):
		return &Type{Kind: TypeSubmodule}
	case s == "attribute set":
		return &Type{Kind: TypeAttrsOf}
	case s == "path" || strings.HasPrefix(s, "path ") || strings.HasPrefix(s, "absolute path"),
		s == "package" || strings.HasPrefix(s, "path,"),
		strings.Contains(s, "derivation"),
		strings.HasPrefix(s, "function"), strings.HasPrefix(s, "lambda"),
		s == "anything", s == "unspecified", s == "unspecified value", s == "raw value":
		return &Type{Kind: TypeExpression}
	}
	return &Type{Kind: TypeUnsupported}
}

// parseElem parses the element description of a compound type, retrying
// with a stripped plural suffix (older catalogs wrote "list of strings").
func parseElem(s string) *Type {
	t := ParseTypeString(s)
	if t.Kind != TypeUnsupported {
		return t
	}
	if inner, ok := strings.CutSuffix(s, "s"); ok {
		if retry := ParseTypeString(inner); retry.Kind != TypeUnsupported {
			return retry
		}
	}
	return t
}

// parseChoices extracts the quoted values of a `one of "a", "b"` clause.
func parseChoices(s string) []string {
	var choices []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `"`)
		if part != "" {
			choices = append(choices, part)
		}
	}
	return choices
}
