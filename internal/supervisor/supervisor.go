// Package supervisor owns the set of chain-client workers keyed by peer id
// and reacts to ENTER/EXIT peer-control events by spawning or retiring them.
// Supervisor map mutations only ever happen on the hub's run-loop goroutine
// (§5), so the map itself needs no additional locking beyond what guards
// concurrent reads from diagnostics.
package supervisor

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AxellH/tdrs/internal/chainclient"
	"github.com/AxellH/tdrs/internal/ledger"
	"github.com/AxellH/tdrs/internal/netaddr"
)

// Worker is the subset of chainclient.Worker the supervisor depends on,
// narrowed to an interface so tests can substitute a fake without dialing
// real sockets.
type Worker interface {
	Start() error
	Stop()
}

// WorkerFactory builds a Worker for a peer id/link pair. Production code
// passes a function that constructs a *chainclient.Worker; tests pass a
// fake.
type WorkerFactory func(peerID, link, receiver string) Worker

// Supervisor tracks one worker per active peer id.
type Supervisor struct {
	receiver string
	factory  WorkerFactory
	log      *logrus.Entry

	mu      sync.RWMutex
	workers map[string]Worker
	links   map[string]string

	manualSeq int
}

// New returns a supervisor that re-injects via receiver using factory to
// build workers. receiver must already be loopback-rewritten by the caller:
// it is handed to every worker's REQUEST socket as-is (§4.4), and a
// wildcard bind endpoint is never valid for an outbound connect (§3).
func New(receiver string, factory WorkerFactory, log *logrus.Entry) *Supervisor {
	return &Supervisor{
		receiver: receiver,
		factory:  factory,
		log:      log,
		workers:  make(map[string]Worker),
		links:    make(map[string]string),
	}
}

// DefaultFactory adapts chainclient.New into a WorkerFactory against real
// ZeroMQ sockets.
func DefaultFactory(led *ledger.Ledger, log *logrus.Entry) WorkerFactory {
	dialer := chainclient.NewZMQDialer()
	return func(peerID, link, receiver string) Worker {
		return chainclient.New(peerID, link, receiver, led, dialer, log)
	}
}

// SeedStaticLinks populates the supervisor at startup from the
// --chain-link configuration, using synthetic ids manual-1, manual-2, ...
// so the same Spawn/Stop path serves both static and discovered peers.
func (s *Supervisor) SeedStaticLinks(links []string) error {
	for _, link := range links {
		s.manualSeq++
		id := fmt.Sprintf("manual-%d", s.manualSeq)
		if err := s.Spawn(id, link); err != nil {
			return fmt.Errorf("supervisor: seed %s: %w", id, err)
		}
	}
	return nil
}

// Spawn starts a worker for peerID if one doesn't already exist. It is a
// no-op, not an error, on a duplicate id (idempotent spawn, §4.6/L4).
// link is rewritten from a wildcard bind form to loopback before connecting,
// since a wildcard is only valid for binding (§3).
func (s *Supervisor) Spawn(peerID, link string) error {
	s.mu.Lock()
	if _, exists := s.workers[peerID]; exists {
		s.mu.Unlock()
		s.log.WithField("peer", peerID).Info("supervisor: spawn ignored, worker already running")
		return nil
	}
	s.mu.Unlock()

	resolvedLink, err := netaddr.RewriteForLocalString(link)
	if err != nil {
		return fmt.Errorf("supervisor: rewrite link %q: %w", link, err)
	}

	runID := uuid.NewString()
	w := s.factory(peerID, resolvedLink, s.receiver)
	if err := w.Start(); err != nil {
		return fmt.Errorf("supervisor: start worker %s: %w", peerID, err)
	}

	s.mu.Lock()
	s.workers[peerID] = w
	s.links[peerID] = resolvedLink
	s.mu.Unlock()
	// runID only correlates this worker's log lines across its lifetime; the
	// wire-visible identity remains peerID (spec.md §3 PeerRecord.id).
	s.log.WithField("peer", peerID).WithField("run", runID).WithField("link", resolvedLink).Info("supervisor: worker started")
	return nil
}

// Stop signals and removes the worker for peerID, returning false if none
// existed.
func (s *Supervisor) Stop(peerID string) bool {
	s.mu.Lock()
	w, ok := s.workers[peerID]
	if ok {
		delete(s.workers, peerID)
		delete(s.links, peerID)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	w.Stop()
	s.log.WithField("peer", peerID).Info("supervisor: worker stopped")
	return true
}

// StopAll signals every worker to stop and waits for each to release its
// resources.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	workers := make([]Worker, 0, len(s.workers))
	for id, w := range s.workers {
		workers = append(workers, w)
		delete(s.workers, id)
		delete(s.links, id)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(workers))
	for _, w := range workers {
		go func(w Worker) {
			defer wg.Done()
			w.Stop()
		}(w)
	}
	wg.Wait()
}

// ActiveLinks returns the peer publisher endpoints of every currently
// active worker, used by the hub to compute ledger fan-out on each publish.
func (s *Supervisor) ActiveLinks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	links := make([]string, 0, len(s.links))
	for _, link := range s.links {
		links = append(links, link)
	}
	return links
}

// Count reports the number of active workers. Exposed for tests and
// diagnostics.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workers)
}
