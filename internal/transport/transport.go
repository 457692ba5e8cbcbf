// Package transport wraps the ZeroMQ socket types the relay hub needs
// (PUBLISH, SUBSCRIBE, REPLY, REQUEST) behind narrow interfaces so the rest
// of the codebase depends on behaviour, not on zmq4 directly. Every socket is
// opened with a zero-linger close so shutdown never blocks on undelivered
// buffers, matching the original hub's
// setsockopt(ZMQ_LINGER, &linger, sizeof(linger)) pairing.
package transport

import (
	"fmt"
	"time"

	zmq "github.com/pebbe/zmq4"
)

const lingerMillis = 0

// pollInterval bounds how long a blocking receive waits before giving the
// caller a chance to notice a shutdown request. The spec does not mandate a
// specific delay, only that the interrupt path be bounded (§5).
const pollInterval = 250 * time.Millisecond

// Publisher binds a PUB socket and fans a payload out to every connected
// subscriber on a best-effort basis.
type Publisher interface {
	Send(payload []byte) error
	Close() error
}

// Subscriber connects a SUB socket and yields payloads in arrival order.
// RecvTimeout blocks for at most pollInterval; timedOut is true and err is
// nil when nothing arrived in that window, so callers can poll a stop
// signal between attempts without abandoning the socket.
type Subscriber interface {
	RecvTimeout() (payload []byte, timedOut bool, err error)
	Close() error
}

// Replier binds a REP socket and services one strict request/reply turn at a
// time.
type Replier interface {
	RecvTimeout() (payload []byte, timedOut bool, err error)
	Send(payload []byte) error
	Close() error
}

// Requester connects a REQ socket and performs strict request/reply turns.
type Requester interface {
	SendRecv(payload []byte) ([]byte, error)
	Close() error
}

func newLingerFreeSocket(t zmq.Type) (*zmq.Socket, error) {
	sock, err := zmq.NewSocket(t)
	if err != nil {
		return nil, err
	}
	if err := sock.SetLinger(lingerMillis); err != nil {
		_ = sock.Close()
		return nil, err
	}
	return sock, nil
}

type publisher struct{ sock *zmq.Socket }

// BindPublisher binds a PUB socket at endpoint.
func BindPublisher(endpoint string) (Publisher, error) {
	sock, err := newLingerFreeSocket(zmq.PUB)
	if err != nil {
		return nil, fmt.Errorf("transport: new PUB socket: %w", err)
	}
	if err := sock.Bind(endpoint); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("transport: bind PUB %s: %w", endpoint, err)
	}
	return &publisher{sock: sock}, nil
}

func (p *publisher) Send(payload []byte) error {
	_, err := p.sock.SendBytes(payload, 0)
	return err
}

func (p *publisher) Close() error { return p.sock.Close() }

type subscriber struct{ sock *zmq.Socket }

// ConnectSubscriber connects a SUB socket to endpoint with the given
// identity (used as the ZMQ_IDENTITY so peers can tell a hub's chain-client
// apart from other subscribers) and an empty subscription filter, i.e.
// accept every published payload.
func ConnectSubscriber(endpoint, identity string) (Subscriber, error) {
	sock, err := newLingerFreeSocket(zmq.SUB)
	if err != nil {
		return nil, fmt.Errorf("transport: new SUB socket: %w", err)
	}
	if identity != "" {
		if err := sock.SetIdentity(identity); err != nil {
			_ = sock.Close()
			return nil, fmt.Errorf("transport: set identity: %w", err)
		}
	}
	if err := sock.SetSubscribe(""); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("transport: subscribe: %w", err)
	}
	if err := sock.Connect(endpoint); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("transport: connect SUB %s: %w", endpoint, err)
	}
	return &subscriber{sock: sock}, nil
}

func (s *subscriber) RecvTimeout() ([]byte, bool, error) {
	return recvTimeout(s.sock)
}

func (s *subscriber) Close() error { return s.sock.Close() }

// recvTimeout polls sock for POLLIN with a bounded timeout and receives the
// pending message if one is ready. A poll error or an interrupted syscall
// (zmq4 surfaces EINTR as an error from Poll/RecvBytes) is a transient
// transport error: the caller logs and retries on its own loop.
func recvTimeout(sock *zmq.Socket) ([]byte, bool, error) {
	poller := zmq.NewPoller()
	poller.Add(sock, zmq.POLLIN)
	polled, err := poller.Poll(pollInterval)
	if err != nil {
		return nil, false, err
	}
	if len(polled) == 0 {
		return nil, true, nil
	}
	payload, err := sock.RecvBytes(0)
	if err != nil {
		return nil, false, err
	}
	return payload, false, nil
}

type replier struct{ sock *zmq.Socket }

// BindReplier binds a REP socket at endpoint.
func BindReplier(endpoint string) (Replier, error) {
	sock, err := newLingerFreeSocket(zmq.REP)
	if err != nil {
		return nil, fmt.Errorf("transport: new REP socket: %w", err)
	}
	if err := sock.Bind(endpoint); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("transport: bind REP %s: %w", endpoint, err)
	}
	return &replier{sock: sock}, nil
}

func (r *replier) RecvTimeout() ([]byte, bool, error) {
	return recvTimeout(r.sock)
}

func (r *replier) Send(payload []byte) error {
	_, err := r.sock.SendBytes(payload, 0)
	return err
}

func (r *replier) Close() error { return r.sock.Close() }

type requester struct{ sock *zmq.Socket }

// ConnectRequester connects a REQ socket to endpoint.
func ConnectRequester(endpoint string) (Requester, error) {
	sock, err := newLingerFreeSocket(zmq.REQ)
	if err != nil {
		return nil, fmt.Errorf("transport: new REQ socket: %w", err)
	}
	if err := sock.Connect(endpoint); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("transport: connect REQ %s: %w", endpoint, err)
	}
	return &requester{sock: sock}, nil
}

func (q *requester) SendRecv(payload []byte) ([]byte, error) {
	if _, err := q.sock.SendBytes(payload, 0); err != nil {
		return nil, err
	}
	return q.sock.RecvBytes(0)
}

func (q *requester) Close() error { return q.sock.Close() }

// TerminateSentinel is the exact 9-byte payload the hub publishes on
// shutdown so subscribers know to disconnect.
const TerminateSentinel = "TERMINATE"
