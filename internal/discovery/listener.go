package discovery

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AxellH/tdrs/internal/netaddr"
	"github.com/AxellH/tdrs/internal/peerwire"
	"github.com/AxellH/tdrs/internal/transport"
)

// Header keys advertised by this node and read off peers, per spec.md §4.5
// and §6.
const (
	HeaderPubProto = "X-PUB-PTCL"
	HeaderPubAddr  = "X-PUB-ADDR"
	HeaderPubPort  = "X-PUB-PORT"
	HeaderRecProto = "X-REC-PTCL"
	HeaderRecAddr  = "X-REC-ADDR"
	HeaderRecPort  = "X-REC-PORT"
	HeaderKey      = "X-KEY"
)

// Config describes this node's own advertised endpoints and group key.
type Config struct {
	Group    string
	KeyHash  string // hex SHA-1 of the configured --discovery-key
	Pub      netaddr.Endpoint
	Receiver netaddr.Endpoint
}

// Listener is the singleton discovery listener: it joins a named group,
// advertises this node's endpoints and hashed key, and turns remote
// ENTER/EXIT events into PEER: control messages sent to the hub's own
// receiver.
type Listener struct {
	substrate Substrate
	cfg       Config
	requester transport.Requester
	log       *logrus.Entry
	done      chan struct{}
}

// New constructs a listener. hubReceiver is this hub's own receiver
// endpoint, already rewritten to loopback by the caller (§4.5: "a REQUEST
// socket connected to the loopback rewrite of the hub's own receiver
// endpoint").
func New(substrate Substrate, cfg Config, connectRequester func(string) (transport.Requester, error), hubReceiver string, log *logrus.Entry) (*Listener, error) {
	req, err := connectRequester(hubReceiver)
	if err != nil {
		return nil, fmt.Errorf("discovery: connect to hub receiver %s: %w", hubReceiver, err)
	}
	return &Listener{
		substrate: substrate,
		cfg:       cfg,
		requester: req,
		log:       log,
		done:      make(chan struct{}),
	}, nil
}

// Run advertises headers, joins the group, and processes events until
// Stop is called or the substrate's event channel closes.
func (l *Listener) Run() error {
	l.substrate.SetHeader(HeaderPubProto, l.cfg.Pub.Protocol)
	l.substrate.SetHeader(HeaderPubAddr, l.cfg.Pub.Address)
	l.substrate.SetHeader(HeaderPubPort, l.cfg.Pub.Port)
	l.substrate.SetHeader(HeaderRecProto, l.cfg.Receiver.Protocol)
	l.substrate.SetHeader(HeaderRecAddr, l.cfg.Receiver.Address)
	l.substrate.SetHeader(HeaderRecPort, l.cfg.Receiver.Port)
	l.substrate.SetHeader(HeaderKey, l.cfg.KeyHash)

	if err := l.substrate.Join(l.cfg.Group); err != nil {
		return fmt.Errorf("discovery: join group %s: %w", l.cfg.Group, err)
	}

	for {
		select {
		case <-l.done:
			return nil
		case ev, ok := <-l.substrate.Events():
			if !ok {
				return nil
			}
			l.handle(ev)
		}
	}
}

// Stop terminates Run and releases the requester socket.
func (l *Listener) Stop() {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
	_ = l.requester.Close()
	_ = l.substrate.Close()
}

func (l *Listener) handle(ev Event) {
	switch ev.Type {
	case "ENTER":
		l.handleEnter(ev)
	case "EXIT":
		l.handleExit(ev)
	default:
		// any other event type is ignored per spec.md §4.5
	}
}

func (l *Listener) handleEnter(ev Event) {
	keyHash, _ := l.substrate.PeerHeader(ev.PeerID, HeaderKey)
	if keyHash != l.cfg.KeyHash {
		l.log.WithField("peer", ev.PeerID).Debug("discovery: dropping ENTER, group key mismatch")
		return
	}

	addr, ok := l.substrate.PeerAddr(ev.PeerID)
	if !ok {
		l.log.WithField("peer", ev.PeerID).Warn("discovery: dropping ENTER, peer address unknown")
		return
	}

	pubProto, _ := l.substrate.PeerHeader(ev.PeerID, HeaderPubProto)
	recProto, _ := l.substrate.PeerHeader(ev.PeerID, HeaderRecProto)
	pubPort, _ := l.substrate.PeerHeader(ev.PeerID, HeaderPubPort)
	recPort, _ := l.substrate.PeerHeader(ev.PeerID, HeaderRecPort)

	// Both address fields come from the observed gossip address, not the
	// advertised headers, since the headers may carry bind wildcards
	// (spec.md §9 Open Questions — preserved intentionally).
	msg := peerwire.FormatEnter(ev.PeerID, pubProto, addr, pubPort, recProto, addr, recPort)
	l.sendToHub(ev.PeerID, msg)
}

func (l *Listener) handleExit(ev Event) {
	msg := peerwire.FormatExit(ev.PeerID)
	l.sendToHub(ev.PeerID, msg)
}

func (l *Listener) sendToHub(peerID, msg string) {
	reply, err := l.requester.SendRecv([]byte(msg))
	if err != nil {
		l.log.WithError(err).WithField("peer", peerID).Warn("discovery: failed to notify hub")
		return
	}
	l.log.WithField("peer", peerID).WithField("reply", string(reply)).Debug("discovery: hub acknowledged")
}
