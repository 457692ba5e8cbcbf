// Package hub implements the run-loop at the center of the relay: it binds
// the REPLY receiver and the PUBLISH publisher, serves one injector request
// at a time, recognizes in-band PEER: control messages, records ledger
// entries before every publish, and replies OOK/NOK to the injector.
package hub

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/AxellH/tdrs/internal/ledger"
	"github.com/AxellH/tdrs/internal/netaddr"
	"github.com/AxellH/tdrs/internal/peerwire"
	"github.com/AxellH/tdrs/internal/transport"
)

// Supervisor is the subset of supervisor.Supervisor the hub loop needs.
type Supervisor interface {
	Spawn(peerID, link string) error
	Stop(peerID string) bool
	StopAll()
	ActiveLinks() []string
}

// Hub binds its receiver and publisher and runs the request/reply loop
// described in spec.md §4.3. Its lifecycle is INIT -> CONFIGURED (caller's
// responsibility, before New) -> RUNNING (after Run's binds succeed) ->
// DRAINING (Shutdown called) -> STOPPED (Run returns).
type Hub struct {
	receiverEndpoint  string
	publisherEndpoint string

	sup    Supervisor
	ledger *ledger.Ledger
	log    *logrus.Entry

	bindReplier   func(string) (transport.Replier, error)
	bindPublisher func(string) (transport.Publisher, error)

	mu       sync.Mutex
	shutdown bool
}

// New constructs a Hub. Production callers pass transport.BindReplier and
// transport.BindPublisher; tests pass fakes.
func New(
	receiverEndpoint, publisherEndpoint string,
	sup Supervisor,
	led *ledger.Ledger,
	log *logrus.Entry,
	bindReplier func(string) (transport.Replier, error),
	bindPublisher func(string) (transport.Publisher, error),
) *Hub {
	return &Hub{
		receiverEndpoint:  receiverEndpoint,
		publisherEndpoint: publisherEndpoint,
		sup:               sup,
		ledger:            led,
		log:               log,
		bindReplier:       bindReplier,
		bindPublisher:     bindPublisher,
	}
}

// Shutdown requests a graceful stop. The run-loop notices between
// iterations (spec.md §4.3/§5) and is not required to notice mid-recv; the
// bounded poll interval in internal/transport keeps that window small.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdown = true
}

func (h *Hub) isShuttingDown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shutdown
}

// Run binds both sockets and serves requests until Shutdown is called. It
// returns once the run-loop has drained: workers stopped, the TERMINATE
// sentinel published, and both sockets closed. The hub does not stop a
// discovery listener; that is left to whoever started it.
func (h *Hub) Run() error {
	rep, err := h.bindReplier(h.receiverEndpoint)
	if err != nil {
		return fmt.Errorf("hub: bind receiver %s: %w", h.receiverEndpoint, err)
	}
	pub, err := h.bindPublisher(h.publisherEndpoint)
	if err != nil {
		_ = rep.Close()
		return fmt.Errorf("hub: bind publisher %s: %w", h.publisherEndpoint, err)
	}
	h.log.WithField("receiver", h.receiverEndpoint).WithField("publisher", h.publisherEndpoint).Info("hub: bound")

	for !h.isShuttingDown() {
		payload, timedOut, err := rep.RecvTimeout()
		if err != nil {
			h.log.WithError(err).Warn("hub: receiver recv error, continuing")
			continue
		}
		if timedOut {
			continue
		}
		h.handleRequest(payload, rep, pub)
	}

	h.drain(rep, pub)
	return nil
}

// handleRequest processes exactly one received request and sends exactly
// one reply before returning (L3).
func (h *Hub) handleRequest(payload []byte, rep transport.Replier, pub transport.Publisher) {
	text := asUTF8(payload)

	if strings.HasPrefix(text, peerwire.Prefix) {
		if ctl, ok := peerwire.Parse(text); ok {
			h.handleControl(ctl, payload, rep, pub)
			return
		}
		// PEER: prefix present but grammar doesn't match: treat as an
		// ordinary payload per spec.md §8 boundary behavior.
	}

	h.publishAndReply(payload, rep, pub)
}

// handleControl implements spec.md §4.3 step 3. Only an EXIT for an unknown
// peer suppresses the publish; a successful ENTER or EXIT still falls
// through to the same publish-and-reply path as an ordinary payload (step
// 4), republishing the control message itself to subscribers.
func (h *Hub) handleControl(ctl peerwire.Control, raw []byte, rep transport.Replier, pub transport.Publisher) {
	switch ctl.Event {
	case peerwire.Enter:
		if err := h.sup.Spawn(ctl.PeerID, ctl.Pub.String()); err != nil {
			h.log.WithError(err).WithField("peer", ctl.PeerID).Warn("hub: spawn failed")
		}
		h.publishAndReply(raw, rep, pub)
	case peerwire.Exit:
		if !h.sup.Stop(ctl.PeerID) {
			_ = rep.Send([]byte(peerwire.ReplyNotPresent))
			return
		}
		h.publishAndReply(raw, rep, pub)
	}
}

func (h *Hub) publishAndReply(payload []byte, rep transport.Replier, pub transport.Publisher) {
	hash := netaddr.SHA1Hex(payload)
	h.ledger.Record(hash, h.sup.ActiveLinks())

	if err := pub.Send(payload); err != nil {
		h.log.WithError(err).WithField("hash", hash).Warn("hub: publish failed")
		_ = rep.Send([]byte(peerwire.ReplyFailed(hash)))
		return
	}
	_ = rep.Send([]byte(peerwire.ReplyOOK(hash)))
}

func (h *Hub) drain(rep transport.Replier, pub transport.Publisher) {
	h.log.Info("hub: draining")
	h.sup.StopAll()
	if err := pub.Send([]byte(transport.TerminateSentinel)); err != nil {
		h.log.WithError(err).Warn("hub: failed to publish TERMINATE sentinel")
	}
	_ = pub.Close()
	_ = rep.Close()
	h.log.Info("hub: stopped")
}

func asUTF8(payload []byte) string {
	if !utf8.Valid(payload) {
		return ""
	}
	return string(payload)
}
