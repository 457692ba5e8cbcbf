// gyre.go adapts github.com/zeromq/gyre's Node to the discovery.Substrate
// interface. Gyre is the Go port of Zyre, the same ZeroMQ proximity-based
// group membership protocol the original hub used directly
// (zyre::node_t, set_header, join, event()); this adapter exists so the
// listener's own logic never imports gyre directly and can be driven by a
// fake substrate in tests.
package discovery

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	gyre "github.com/zeromq/gyre"
)

// GyreOptions carries the --discovery-interface/--discovery-port/
// --discovery-interval flags (spec.md §6) through to the substrate. The
// retrieved gyre/zyre reference material (other_examples/*gyre*.go) shows
// the beacon hard-wired to the IANA ZRE discovery port with no exported
// setter for interface, port, or beacon interval on Node, so none of these
// are applied to the node itself; they are kept here, and logged whenever
// any of them is non-zero (which includes the CLI defaults), so the CLI
// surface stays intact for a substrate build that does support them.
type GyreOptions struct {
	Interface string
	Port      uint16
	Interval  int // milliseconds
}

type gyreSubstrate struct {
	node   *gyre.Node
	events chan Event
	done   chan struct{}
}

// NewGyreSubstrate constructs and starts a Gyre node. opts is recorded only
// for logging (see GyreOptions).
func NewGyreSubstrate(opts GyreOptions, log *logrus.Entry) (Substrate, error) {
	node, err := gyre.NewNode()
	if err != nil {
		return nil, fmt.Errorf("discovery: new gyre node: %w", err)
	}
	if opts.Interface != "" || opts.Port != 0 || opts.Interval != 0 {
		log.WithField("interface", opts.Interface).
			WithField("port", opts.Port).
			WithField("interval_ms", opts.Interval).
			Warn("discovery: gyre node has no interface/port/interval setters, flags ignored by this substrate")
	}

	g := &gyreSubstrate{
		node:   node,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go g.pump()
	return g, nil
}

func (g *gyreSubstrate) SetHeader(key, value string) {
	g.node.Set(key, value)
}

func (g *gyreSubstrate) Join(group string) error {
	g.node.Join(group)
	return nil
}

func (g *gyreSubstrate) Events() <-chan Event {
	return g.events
}

// PeerHeader looks up a header value the peer advertised, the same way
// pkg/zre/node.go's Node.requirePeer stores an incoming HELLO's headers on
// Node.Peers[id].Headers (the only place in the retrieved gyre/zre lineage
// that exposes per-peer headers at all; the events channel itself carries
// only Type and Peer).
func (g *gyreSubstrate) PeerHeader(peerID, key string) (string, bool) {
	peer, ok := g.node.Peers[peerID]
	if !ok {
		return "", false
	}
	v, ok := peer.Headers[key]
	return v, ok
}

// PeerAddr reports the host part of the peer's endpoint (Peer.Endpoint is
// "host:port", set from the observed beacon/HELLO address in requirePeer),
// stripping the port the way peerHost does for any other endpoint string.
func (g *gyreSubstrate) PeerAddr(peerID string) (string, bool) {
	peer, ok := g.node.Peers[peerID]
	if !ok {
		return "", false
	}
	return peerHost(peer.Endpoint), true
}

func (g *gyreSubstrate) Close() error {
	close(g.done)
	g.node.Disconnect()
	return nil
}

// pump translates raw gyre events into discovery.Event values until the
// node is disconnected, at which point its channel closes and pump returns.
func (g *gyreSubstrate) pump() {
	defer close(g.events)
	for {
		select {
		case <-g.done:
			return
		case ev, ok := <-g.node.Chan():
			if !ok {
				return
			}
			translated, keep := translate(ev)
			if !keep {
				continue
			}
			select {
			case g.events <- translated:
			case <-g.done:
				return
			}
		}
	}
}

// translate keeps only ENTER/EXIT events; Gyre also emits WHISPER, SHOUT,
// JOIN, LEAVE, and SET on the same channel, none of which the listener
// understands (spec.md §4.5: "any other event type: ignore").
func translate(ev *gyre.Event) (Event, bool) {
	switch ev.Type {
	case gyre.EventEnter, gyre.EventExit:
	default:
		return Event{}, false
	}
	return Event{Type: ev.Type, PeerID: ev.Peer}, true
}

// peerHost strips a trailing ":port" from an observed gossip address,
// tolerating addresses that are already bare hosts.
func peerHost(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}
