/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package options_test

import (
	"errors"
	"testing"

	"bennypowers.dev/nixedit/options"
)

func TestParseTypeString(t *testing.T) {
	tests := []struct {
		in   string
		kind options.TypeKind
	}{
		{"boolean", options.TypeBool},
		{"signed integer", options.TypeInt},
		{"16 bit unsigned integer; between 0 and 65535 (both inclusive)", options.TypeInt},
		{"floating point number", options.TypeFloat},
		{"string", options.TypeString},
		{"string, not containing newlines or colons", options.TypeString},
		{`one of "none", "iso9660", "usb"`, options.TypeEnum},
		{"list of string", options.TypeListOf},
		{"list of strings", options.TypeListOf},
		{"attribute set of string", options.TypeAttrsOf},
		{"submodule", options.TypeSubmodule},
		{"path", options.TypeExpression},
		{"package", options.TypeExpression},
		{"null or string", options.TypeEither},
		{"", options.TypeUnsupported},
		{"mysterious contraption", options.TypeUnsupported},
	}
	for _, tt := range tests {
		if got := options.ParseTypeString(tt.in); got.Kind != tt.kind {
			t.Errorf("ParseTypeString(%q).Kind = %v, want %v", tt.in, got.Kind, tt.kind)
		}
	}
}

func TestParseTypeStringBounds(t *testing.T) {
	typ := options.ParseTypeString("16 bit unsigned integer; between 0 and 65535 (both inclusive)")
	if typ.Min == nil || *typ.Min != 0 || typ.Max == nil || *typ.Max != 65535 {
		t.Fatalf("bounds not parsed: min=%v max=%v", typ.Min, typ.Max)
	}

	typ = options.ParseTypeString("unsigned integer, meaning >=0")
	if typ.Min == nil || *typ.Min != 0 {
		t.Fatalf("unsigned integer lower bound not parsed: %v", typ.Min)
	}
}

func TestParseTypeStringEnumChoices(t *testing.T) {
	typ := options.ParseTypeString(`one of "none", "iso9660", "usb"`)
	want := []string{"none", "iso9660", "usb"}
	if len(typ.Choices) != len(want) {
		t.Fatalf("got %d choices, want %d", len(typ.Choices), len(want))
	}
	for i, choice := range want {
		if typ.Choices[i] != choice {
			t.Errorf("Choices[%d] = %q, want %q", i, typ.Choices[i], choice)
		}
	}
}

func TestParseTypeStringListConsumesRest(t *testing.T) {
	// "or" after a list head belongs to the element type.
	typ := options.ParseTypeString("list of null or string")
	if typ.Kind != options.TypeListOf {
		t.Fatalf("Kind = %v, want TypeListOf", typ.Kind)
	}
	if typ.Elem == nil || typ.Elem.Kind != options.TypeEither {
		t.Fatalf("Elem = %+v, want either", typ.Elem)
	}
}

func TestParseTypeStringCompoundAlternatives(t *testing.T) {
	s := `16 bit unsigned integer; between 0 and 65535 (both inclusive) or one of "auto" or submodule or list of 16 bit unsigned integers; between 0 and 65535 (both inclusive)`
	typ := options.ParseTypeString(s)
	if typ.Kind != options.TypeEither {
		t.Fatalf("Kind = %v, want TypeEither", typ.Kind)
	}
	if len(typ.Alts) != 4 {
		t.Fatalf("got %d alternatives, want 4", len(typ.Alts))
	}
	wantKinds := []options.TypeKind{
		options.TypeInt,
		options.TypeEnum,
		options.TypeSubmodule,
		options.TypeListOf,
	}
	for i, kind := range wantKinds {
		if typ.Alts[i].Kind != kind {
			t.Errorf("Alts[%d].Kind = %v, want %v", i, typ.Alts[i].Kind, kind)
		}
	}
	if last := typ.Alts[3]; last.Elem == nil || last.Elem.Kind != options.TypeInt {
		t.Errorf("list alternative element = %+v, want bounded integer", typ.Alts[3].Elem)
	}
}

func TestCheck(t *testing.T) {
	boolType := options.ParseTypeString("boolean")
	if err := boolType.Check(options.BoolValue(true)); err != nil {
		t.Errorf("boolean rejects true: %v", err)
	}
	if err := boolType.Check(options.StringValue("yes")); !errors.Is(err, options.ErrTypeMismatch) {
		t.Errorf("boolean accepts a string: %v", err)
	}

	portType := options.ParseTypeString("16 bit unsigned integer; between 0 and 65535 (both inclusive)")
	if err := portType.Check(options.IntValue(8080)); err != nil {
		t.Errorf("port rejects 8080: %v", err)
	}
	if err := portType.Check(options.IntValue(70000)); !errors.Is(err, options.ErrTypeMismatch) {
		t.Errorf("port accepts 70000: %v", err)
	}

	enumType := options.ParseTypeString(`one of "a", "b"`)
	if err := enumType.Check(options.StringValue("a")); err != nil {
		t.Errorf("enum rejects declared variant: %v", err)
	}
	if err := enumType.Check(options.StringValue("c")); !errors.Is(err, options.ErrTypeMismatch) {
		t.Errorf("enum accepts undeclared variant: %v", err)
	}

	listType := options.ParseTypeString("list of string")
	if err := listType.Check(options.ListValue(options.StringValue("x"))); err != nil {
		t.Errorf("list of string rejects [\"x\"]: %v", err)
	}
	if err := listType.Check(options.ListValue(options.IntValue(1))); !errors.Is(err, options.ErrTypeMismatch) {
		t.Errorf("list of string accepts [1]: %v", err)
	}

	attrsType := options.ParseTypeString("attribute set of string")
	if err := attrsType.Check(options.StringValue("x")); !errors.Is(err, options.ErrTypeMismatch) {
		t.Error("attrs-of accepted a wholesale edit")
	}
}

func TestCoerceString(t *testing.T) {
	boolType := options.ParseTypeString("boolean")
	v, err := options.CoerceString(boolType, "true")
	if err != nil || v.Kind != options.KindBool || !v.Bool {
		t.Errorf("CoerceString(bool, true) = %+v, %v", v, err)
	}
	if _, err := options.CoerceString(boolType, "yes"); !errors.Is(err, options.ErrTypeMismatch) {
		t.Error("coerced 'yes' to a boolean")
	}

	intType := options.ParseTypeString("signed integer")
	if v, err := options.CoerceString(intType, "-42"); err != nil || v.Int != -42 {
		t.Errorf("CoerceString(int, -42) = %+v, %v", v, err)
	}

	eitherType := options.ParseTypeString("null or string")
	if v, err := options.CoerceString(eitherType, "null"); err != nil || v.Kind != options.KindNull {
		t.Errorf("CoerceString(null-or-string, null) = %+v, %v", v, err)
	}
	if v, err := options.CoerceString(eitherType, "hello"); err != nil || v.Kind != options.KindString {
		t.Errorf("CoerceString(null-or-string, hello) = %+v, %v", v, err)
	}

	listType := options.ParseTypeString("list of string")
	if _, err := options.CoerceString(listType, "[ ]"); !errors.Is(err, options.ErrTypeMismatch) {
		t.Error("list coercion should require a raw expression edit")
	}
}
