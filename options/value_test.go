/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package options_test

import (
	"testing"

	"bennypowers.dev/nixedit/options"
)

func TestValueNix(t *testing.T) {
	tests := []struct {
		name  string
		value options.Value
		want  string
	}{
		{"true", options.BoolValue(true), "true"},
		{"false", options.BoolValue(false), "false"},
		{"int", options.IntValue(8080), "8080"},
		{"negative int", options.IntValue(-1), "-1"},
		{"float", options.FloatValue(1.5), "1.5"},
		{"string", options.StringValue("hello"), `"hello"`},
		{"string escapes", options.StringValue("a\"b\\c\nd"), `"a\"b\\c\nd"`},
		{"interpolation escaped", options.StringValue("${HOME}/bin"), `"\${HOME}/bin"`},
		{"bare dollar kept", options.StringValue("cost: $5"), `"cost: $5"`},
		{"empty list", options.ListValue(), "[ ]"},
		{"list", options.ListValue(options.StringValue("a"), options.IntValue(2)), `[ "a" 2 ]`},
		{"null", options.NullValue(), "null"},
	}

	for _, tt := range tests {
		if got := tt.value.Nix(); got != tt.want {
			t.Errorf("%s: Nix() = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestValueString(t *testing.T) {
	if got := options.StringValue("plain").String(); got != "plain" {
		t.Errorf("String() = %q, want unquoted display form", got)
	}
	if got := options.IntValue(3).String(); got != "3" {
		t.Errorf("String() = %q", got)
	}
}
