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

func TestParsePath(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"services.foo.enable", []string{"services", "foo", "enable"}},
		{"networking.hostName", []string{"networking", "hostName"}},
		{`networking.hosts."127.0.0.1"`, []string{"networking", "hosts", "127.0.0.1"}},
		{`environment.etc."nginx/nginx.conf".text`, []string{"environment", "etc", "nginx/nginx.conf", "text"}},
		{"single", []string{"single"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := options.ParsePath(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("ParsePath(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("ParsePath(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestPathString(t *testing.T) {
	tests := []string{
		"services.foo.enable",
		`networking.hosts."127.0.0.1"`,
		`environment.etc."nginx/nginx.conf".text`,
	}
	for _, s := range tests {
		if got := options.ParsePath(s).String(); got != s {
			t.Errorf("round trip of %q = %q", s, got)
		}
	}
}

func TestPathRelations(t *testing.T) {
	p := options.ParsePath("services.foo.enable")

	if got := p.Parent().String(); got != "services.foo" {
		t.Errorf("Parent() = %q", got)
	}
	if got := p.Parent().Child("port").String(); got != "services.foo.port" {
		t.Errorf("Child() = %q", got)
	}
	if !p.HasPrefix(options.ParsePath("services.foo")) {
		t.Error("HasPrefix(services.foo) = false")
	}
	if p.HasPrefix(options.ParsePath("services.bar")) {
		t.Error("HasPrefix(services.bar) = true")
	}
	if !p.Equal(options.ParsePath("services.foo.enable")) {
		t.Error("Equal() = false for identical paths")
	}
	if p.Equal(p.Parent()) {
		t.Error("Equal() = true for distinct paths")
	}
}
