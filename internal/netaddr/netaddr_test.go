package netaddr

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    Endpoint
		wantErr bool
	}{
		{name: "wildcard star with port", in: "tcp://*:5550", want: Endpoint{Protocol: "tcp", Address: "*", Port: "5550"}},
		{name: "wildcard zero form with port", in: "tcp://0.0.0.0:5550", want: Endpoint{Protocol: "tcp", Address: "0.0.0.0", Port: "5550"}},
		{name: "loopback with port", in: "tcp://127.0.0.1:5551", want: Endpoint{Protocol: "tcp", Address: "127.0.0.1", Port: "5551"}},
		{name: "host without port", in: "tcp://192.168.1.5", want: Endpoint{Protocol: "tcp", Address: "192.168.1.5", Port: ""}},
		{name: "leading/trailing whitespace", in: "  tcp://127.0.0.1:5550  ", want: Endpoint{Protocol: "tcp", Address: "127.0.0.1", Port: "5550"}},
		{name: "missing protocol", in: "127.0.0.1:5550", wantErr: true},
		{name: "empty string", in: "", wantErr: true},
		{name: "non-numeric host", in: "tcp://localhost:5550", wantErr: true},
		{name: "non-numeric port", in: "tcp://127.0.0.1:abc", wantErr: true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Parse(c.in)
			if c.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q): expected error, got %+v", c.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): unexpected error: %v", c.in, err)
			}
			if got != c.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
			}
		})
	}
}

func TestEndpointIsWildcard(t *testing.T) {
	cases := []struct {
		address string
		want    bool
	}{
		{"*", true},
		{"0.0.0.0", true},
		{"127.0.0.1", false},
		{"192.168.1.5", false},
	}
	for _, c := range cases {
		e := Endpoint{Protocol: "tcp", Address: c.address, Port: "5550"}
		if got := e.IsWildcard(); got != c.want {
			t.Fatalf("Endpoint{Address: %q}.IsWildcard() = %v, want %v", c.address, got, c.want)
		}
	}
}

func TestEndpointString(t *testing.T) {
	withPort := Endpoint{Protocol: "tcp", Address: "127.0.0.1", Port: "5550"}
	if got := withPort.String(); got != "tcp://127.0.0.1:5550" {
		t.Fatalf("String() = %q", got)
	}
	noPort := Endpoint{Protocol: "tcp", Address: "127.0.0.1"}
	if got := noPort.String(); got != "tcp://127.0.0.1" {
		t.Fatalf("String() = %q", got)
	}
}

func TestRewriteForLocal(t *testing.T) {
	cases := []struct {
		name string
		in   Endpoint
		want Endpoint
	}{
		{
			name: "star rewritten to loopback",
			in:   Endpoint{Protocol: "tcp", Address: "*", Port: "5550"},
			want: Endpoint{Protocol: "tcp", Address: "127.0.0.1", Port: "5550"},
		},
		{
			name: "0.0.0.0 rewritten to loopback",
			in:   Endpoint{Protocol: "tcp", Address: "0.0.0.0", Port: "5550"},
			want: Endpoint{Protocol: "tcp", Address: "127.0.0.1", Port: "5550"},
		},
		{
			name: "non-wildcard passes through unchanged",
			in:   Endpoint{Protocol: "tcp", Address: "192.168.1.5", Port: "5550"},
			want: Endpoint{Protocol: "tcp", Address: "192.168.1.5", Port: "5550"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := RewriteForLocal(c.in); got != c.want {
				t.Fatalf("RewriteForLocal(%+v) = %+v, want %+v", c.in, got, c.want)
			}
		})
	}
}

func TestRewriteForLocalString(t *testing.T) {
	got, err := RewriteForLocalString("tcp://*:5550")
	if err != nil {
		t.Fatalf("RewriteForLocalString: unexpected error: %v", err)
	}
	if got != "tcp://127.0.0.1:5550" {
		t.Fatalf("RewriteForLocalString(tcp://*:5550) = %q", got)
	}

	got, err = RewriteForLocalString("tcp://192.168.1.5:5551")
	if err != nil {
		t.Fatalf("RewriteForLocalString: unexpected error: %v", err)
	}
	if got != "tcp://192.168.1.5:5551" {
		t.Fatalf("RewriteForLocalString(tcp://192.168.1.5:5551) = %q", got)
	}

	if _, err := RewriteForLocalString("not-an-endpoint"); err == nil {
		t.Fatalf("RewriteForLocalString: expected error for malformed input")
	}
}

func TestSHA1Hex(t *testing.T) {
	// Known vector from spec.md scenario 1: SHA-1("hello") uppercase hex.
	got := SHA1Hex([]byte("hello"))
	want := "AAF4C61DDCC5E8A2DABEDE0F3B482CD9AEA9434D"
	if got != want {
		t.Fatalf("SHA1Hex(hello) = %q, want %q", got, want)
	}

	if SHA1Hex([]byte("a")) == SHA1Hex([]byte("b")) {
		t.Fatalf("expected distinct payloads to hash differently")
	}
	if SHA1Hex([]byte("repeat")) != SHA1Hex([]byte("repeat")) {
		t.Fatalf("expected SHA1Hex to be deterministic")
	}
	if got != strings.ToUpper(got) {
		t.Fatalf("expected uppercase hex digest, got %q", got)
	}
}
