// Package discovery turns group-membership gossip events into the in-band
// PEER: control messages the hub understands (spec.md §4.5). The gossip
// substrate itself is an external collaborator (per spec.md §1); this file
// defines the narrow interface the listener depends on, and gyre.go adapts
// it to github.com/zeromq/gyre, the Go port of Zyre used by the original
// hub_discovery_service_listener.cpp (zyre::node_t).
package discovery

// Event is a substrate-agnostic group membership event. Only the peer id is
// guaranteed: the gyre/zyre lineage in the retrieved pack passes ENTER/EXIT
// with nothing more than the peer's identity on the events channel itself
// (see gyre.go), so a peer's advertised headers and observed gossip address
// are fetched separately through Substrate.PeerHeader/PeerAddr once an
// event names the peer.
type Event struct {
	Type   string // "ENTER" or "EXIT" (other types are ignored by the listener)
	PeerID string
}

// Substrate is the group-membership gossip transport the discovery listener
// rides on: join a named group, advertise headers, and receive ENTER/EXIT
// events for group members. PeerHeader/PeerAddr resolve a named peer's
// advertised header value and observed gossip address (host only) against
// the substrate's own peer table; both report ok=false once the peer is no
// longer known (e.g. looked up after its EXIT).
type Substrate interface {
	SetHeader(key, value string)
	Join(group string) error
	Events() <-chan Event
	PeerHeader(peerID, key string) (value string, ok bool)
	PeerAddr(peerID string) (addr string, ok bool)
	Close() error
}
