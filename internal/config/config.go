// Package config defines the hub's command-line option surface and the
// configuration-error taxonomy from spec.md §7: missing required option,
// mutually exclusive options both set, or a malformed endpoint are all
// reported before any socket is opened.
package config

import (
	"errors"
	"fmt"

	"github.com/AxellH/tdrs/internal/netaddr"
)

// ErrMissingFlag is returned when a required flag was not supplied.
var ErrMissingFlag = errors.New("config: missing required flag")

// ErrMutuallyExclusive is returned when --discovery and --chain-link were
// both supplied.
var ErrMutuallyExclusive = errors.New("config: --discovery and --chain-link are mutually exclusive")

// Config holds the fully parsed and validated hub configuration.
type Config struct {
	ReceiverListen      string
	PublisherListen     string
	ChainLinks          []string
	Discovery           bool
	DiscoveryInterval   int
	DiscoveryInterface  string
	DiscoveryPort       uint16
	DiscoveryKey        string
	LogLevel            string
}

// Validate checks the required-flag and mutual-exclusion rules and that
// every endpoint-shaped flag actually parses as an endpoint. It does not
// open any socket.
func (c Config) Validate() error {
	if c.ReceiverListen == "" {
		return fmt.Errorf("%w: --receiver-listen", ErrMissingFlag)
	}
	if c.PublisherListen == "" {
		return fmt.Errorf("%w: --publisher-listen", ErrMissingFlag)
	}
	if _, err := netaddr.Parse(c.ReceiverListen); err != nil {
		return fmt.Errorf("config: --receiver-listen: %w", err)
	}
	if _, err := netaddr.Parse(c.PublisherListen); err != nil {
		return fmt.Errorf("config: --publisher-listen: %w", err)
	}
	if c.Discovery && len(c.ChainLinks) > 0 {
		return ErrMutuallyExclusive
	}
	for _, link := range c.ChainLinks {
		if _, err := netaddr.Parse(link); err != nil {
			return fmt.Errorf("config: --chain-link %q: %w", link, err)
		}
	}
	return nil
}
