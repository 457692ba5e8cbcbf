// Package peerwire encodes and decodes the PEER: control messages carried
// in-band on the hub's REPLY receiver, and the OOK/NOK reply grammar the hub
// sends back to injectors. Keeping the wire format in one place means the
// hub, the discovery listener, and tests all agree on it by construction.
package peerwire

import (
	"fmt"
	"regexp"

	"github.com/AxellH/tdrs/internal/netaddr"
)

// Prefix is the in-band control prefix recognized by the hub receiver.
const Prefix = "PEER:"

// Event is the kind of peer-control message.
type Event string

const (
	// Enter announces a newly discovered (or statically configured) peer.
	Enter Event = "ENTER"
	// Exit announces that a peer should be retired.
	Exit Event = "EXIT"
)

// Control is a parsed PEER: message.
type Control struct {
	Event    Event
	PeerID   string
	Pub      netaddr.Endpoint
	Receiver netaddr.Endpoint
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

var controlPattern = regexp.MustCompile(
	`^PEER:(ENTER|EXIT):([A-Za-z0-9]+):([^:]*):([^:]*):([^:]*):([^:]*):([^:]*):([^:]*)$`,
)

// Parse decodes a PEER: control message. It returns ok=false (not an error)
// when text begins with the control prefix but the remainder doesn't match
// the grammar — per spec such payloads are treated as ordinary data, not
// rejected.
func Parse(text string) (Control, bool) {
	m := controlPattern.FindStringSubmatch(text)
	if m == nil {
		return Control{}, false
	}
	if !idPattern.MatchString(m[2]) {
		return Control{}, false
	}
	return Control{
		Event:  Event(m[1]),
		PeerID: m[2],
		Pub: netaddr.Endpoint{
			Protocol: m[3], Address: m[4], Port: m[5],
		},
		Receiver: netaddr.Endpoint{
			Protocol: m[6], Address: m[7], Port: m[8],
		},
	}, true
}

// FormatEnter builds a PEER:ENTER:... message from six raw endpoint fields,
// exactly as advertised by the discovery listener (§4.5): the publisher and
// receiver address fields both come from the peer's observed gossip
// address, not its advertised headers.
func FormatEnter(peerID, pubProto, pubAddr, pubPort, recProto, recAddr, recPort string) string {
	return fmt.Sprintf("PEER:ENTER:%s:%s:%s:%s:%s:%s:%s",
		peerID, pubProto, pubAddr, pubPort, recProto, recAddr, recPort)
}

// FormatExit builds a PEER:EXIT:<id>:*:*:*:*:*:* message.
func FormatExit(peerID string) string {
	return fmt.Sprintf("PEER:EXIT:%s:*:*:*:*:*:*", peerID)
}

// Reply prefixes emitted by the hub.
const (
	ReplyOK         = "OOK"
	ReplyNotOK      = "NOK"
	ReplyNotPresent = "NOK NOT AVAILABLE"
)

// ReplyOOK formats a successful-publish reply carrying the payload hash.
func ReplyOOK(hash string) string { return ReplyOK + " " + hash }

// ReplyFailed formats a failed-publish reply carrying the payload hash.
func ReplyFailed(hash string) string { return ReplyNotOK + " " + hash }
