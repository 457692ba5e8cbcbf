// Package netaddr parses and rewrites the endpoint URIs used throughout the
// relay hub (receiver, publisher, and chain-link addresses) and provides the
// stable payload hash used by the ledger.
package netaddr

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Endpoint is a (protocol, address, port) triple, e.g. tcp://127.0.0.1:5550.
// Port may be empty when the caller's address string omits it.
type Endpoint struct {
	Protocol string
	Address  string
	Port     string
}

// String renders the endpoint back into URI form.
func (e Endpoint) String() string {
	if e.Port == "" {
		return fmt.Sprintf("%s://%s", e.Protocol, e.Address)
	}
	return fmt.Sprintf("%s://%s:%s", e.Protocol, e.Address, e.Port)
}

// IsWildcard reports whether the address is a bind-only wildcard form.
func (e Endpoint) IsWildcard() bool {
	return e.Address == "*" || e.Address == "0.0.0.0"
}

var endpointPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*)://([0-9.*]+)(?::([0-9]+))?$`)

// Parse accepts "<protocol>://<host>[:<port>]" with host matching [0-9.*]+.
func Parse(address string) (Endpoint, error) {
	m := endpointPattern.FindStringSubmatch(strings.TrimSpace(address))
	if m == nil {
		return Endpoint{}, fmt.Errorf("netaddr: malformed endpoint %q", address)
	}
	return Endpoint{Protocol: m[1], Address: m[2], Port: m[3]}, nil
}

// RewriteForLocal replaces a bind wildcard with the loopback address so the
// endpoint can be used for an outbound connect. Non-wildcard endpoints pass
// through unchanged.
func RewriteForLocal(e Endpoint) Endpoint {
	if e.IsWildcard() {
		e.Address = "127.0.0.1"
	}
	return e
}

// RewriteForLocalString is the string-in/string-out convenience form used by
// callers that only hold a raw endpoint string.
func RewriteForLocalString(address string) (string, error) {
	e, err := Parse(address)
	if err != nil {
		return "", err
	}
	return RewriteForLocal(e).String(), nil
}

// SHA1Hex returns the uppercase hex-encoded SHA-1 digest of payload. Callers
// comparing hashes produced elsewhere must compare case-sensitively.
func SHA1Hex(payload []byte) string {
	sum := sha1.Sum(payload)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
