// Package chainclient implements the per-peer chain-client worker: a
// long-lived subscriber to a peer hub's publisher that re-injects received
// payloads into this hub's own receiver, honouring the ledger so a payload
// this hub just published is not immediately re-injected back into itself.
package chainclient

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AxellH/tdrs/internal/ledger"
	"github.com/AxellH/tdrs/internal/netaddr"
	"github.com/AxellH/tdrs/internal/peerwire"
	"github.com/AxellH/tdrs/internal/transport"
)

// identityTag is the ZMQ_IDENTITY every chain-client subscriber advertises,
// matching the original's convention of a single recognizable subscriber
// identity rather than a per-peer one.
const identityTag = "hub"

// Dialer opens the subscriber and requester sockets a worker needs. The
// default implementation connects real ZeroMQ sockets; tests supply a fake.
type Dialer interface {
	DialSubscriber(link string) (transport.Subscriber, error)
	DialRequester(receiver string) (transport.Requester, error)
}

type zmqDialer struct{}

// NewZMQDialer returns the production Dialer backed by internal/transport.
func NewZMQDialer() Dialer { return zmqDialer{} }

func (zmqDialer) DialSubscriber(link string) (transport.Subscriber, error) {
	return transport.ConnectSubscriber(link, identityTag)
}

func (zmqDialer) DialRequester(receiver string) (transport.Requester, error) {
	return transport.ConnectRequester(receiver)
}

// Worker is one chain-client: it owns exactly one subscriber and one
// requester socket and never shares them with another goroutine.
type Worker struct {
	PeerID   string
	Link     string // peer publisher endpoint, already rewritten for local use by the caller if needed
	Receiver string // this hub's receiver endpoint, loopback-rewritten

	ledger *ledger.Ledger
	dialer Dialer
	log    *logrus.Entry

	stop chan struct{}
	done chan struct{}
}

// New constructs a worker. It does not start it; call Start.
func New(peerID, link, receiver string, led *ledger.Ledger, dialer Dialer, log *logrus.Entry) *Worker {
	return &Worker{
		PeerID:   peerID,
		Link:     link,
		Receiver: receiver,
		ledger:   led,
		dialer:   dialer,
		log:      log.WithField("peer", peerID),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start dials both sockets and, once both are ready, launches the worker's
// run loop in its own goroutine. The worker only reaches RUNNING after this
// call returns nil.
func (w *Worker) Start() error {
	sub, err := w.dialer.DialSubscriber(w.Link)
	if err != nil {
		return fmt.Errorf("chainclient: subscribe to %s: %w", w.Link, err)
	}
	req, err := w.dialer.DialRequester(w.Receiver)
	if err != nil {
		_ = sub.Close()
		return fmt.Errorf("chainclient: connect requester to %s: %w", w.Receiver, err)
	}
	go w.run(sub, req)
	return nil
}

// Stop signals the worker to exit and blocks until its sockets are closed.
func (w *Worker) Stop() {
	select {
	case <-w.stop:
		// already stopping
	default:
		close(w.stop)
	}
	<-w.done
}

func (w *Worker) run(sub transport.Subscriber, req transport.Requester) {
	defer close(w.done)
	defer func() {
		_ = sub.Close()
		_ = req.Close()
	}()

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		payload, timedOut, err := sub.RecvTimeout()
		if err != nil {
			w.log.WithError(err).Warn("chain-client: subscriber recv error, retrying")
			continue
		}
		if timedOut {
			continue
		}

		hash := netaddr.SHA1Hex(payload)
		if w.ledger.Consume(hash, w.Link) {
			w.log.WithField("hash", hash).Debug("chain-client: ledger suppressed re-injection")
			continue
		}

		reply, err := req.SendRecv(payload)
		if err != nil {
			w.log.WithError(err).Warn("chain-client: re-inject request failed")
			continue
		}
		if len(reply) >= len(peerwire.ReplyOK) && string(reply[:len(peerwire.ReplyOK)]) == peerwire.ReplyOK {
			w.log.WithField("hash", hash).Debug("chain-client: re-injected")
		} else {
			w.log.WithField("hash", hash).WithField("reply", string(reply)).Warn("chain-client: re-injection rejected")
		}
	}
}
