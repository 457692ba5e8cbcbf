// Package transporttest provides in-memory fakes for the transport
// interfaces so the hub, chain-client, and supervisor can be exercised
// without a real ZeroMQ context.
package transporttest

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Recv/Send once the fake has been closed.
var ErrClosed = errors.New("transporttest: closed")

// Publisher records every payload sent through it.
type Publisher struct {
	mu      sync.Mutex
	Sent    [][]byte
	closed  bool
	FailNext bool
}

func (p *Publisher) Send(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.FailNext {
		p.FailNext = false
		return errors.New("transporttest: forced publish failure")
	}
	cp := append([]byte(nil), payload...)
	p.Sent = append(p.Sent, cp)
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Subscriber delivers queued payloads via RecvTimeout, returning timedOut
// when the queue is empty so callers behave like the real poller loop.
type Subscriber struct {
	mu     sync.Mutex
	queue  [][]byte
	closed bool
}

func NewSubscriber() *Subscriber { return &Subscriber{} }

// Push enqueues a payload to be delivered by a subsequent RecvTimeout.
func (s *Subscriber) Push(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, append([]byte(nil), payload...))
}

func (s *Subscriber) RecvTimeout() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	if len(s.queue) == 0 {
		return nil, true, nil
	}
	payload := s.queue[0]
	s.queue = s.queue[1:]
	return payload, false, nil
}

func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Replier is driven by the test: Push enqueues an inbound request, and the
// reply sent back by the code under test is recorded in Replies.
type Replier struct {
	mu      sync.Mutex
	queue   [][]byte
	Replies [][]byte
	closed  bool
}

func NewReplier() *Replier { return &Replier{} }

func (r *Replier) Push(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, append([]byte(nil), payload...))
}

func (r *Replier) RecvTimeout() ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, ErrClosed
	}
	if len(r.queue) == 0 {
		return nil, true, nil
	}
	payload := r.queue[0]
	r.queue = r.queue[1:]
	return payload, false, nil
}

func (r *Replier) Send(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.Replies = append(r.Replies, append([]byte(nil), payload...))
	return nil
}

func (r *Replier) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Requester routes SendRecv calls to a Handler supplied by the test, which
// stands in for "the hub's receiver" from the chain-client's point of view.
type Requester struct {
	mu      sync.Mutex
	Handler func(payload []byte) ([]byte, error)
	closed  bool
}

func NewRequester(handler func(payload []byte) ([]byte, error)) *Requester {
	return &Requester{Handler: handler}
}

func (q *Requester) SendRecv(payload []byte) ([]byte, error) {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return q.Handler(payload)
}

func (q *Requester) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
