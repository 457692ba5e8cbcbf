package supervisor

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeWorker struct {
	startErr error
	started  bool
	stopped  bool
}

func (w *fakeWorker) Start() error {
	w.started = true
	return w.startErr
}

func (w *fakeWorker) Stop() { w.stopped = true }

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestSupervisor() (*Supervisor, map[string]*fakeWorker) {
	built := make(map[string]*fakeWorker)
	factory := func(peerID, link, receiver string) Worker {
		w := &fakeWorker{}
		built[peerID] = w
		return w
	}
	return New("tcp://127.0.0.1:5550", factory, testLogger()), built
}

func TestSpawnIdempotent(t *testing.T) {
	s, built := newTestSupervisor()
	if err := s.Spawn("peerA", "tcp://127.0.0.1:6001"); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if err := s.Spawn("peerA", "tcp://127.0.0.1:6001"); err != nil {
		t.Fatalf("second spawn: %v", err)
	}
	if len(built) != 1 {
		t.Fatalf("expected exactly one worker built, got %d", len(built))
	}
	if s.Count() != 1 {
		t.Fatalf("expected 1 active worker, got %d", s.Count())
	}
}

func TestExitThenEnterLeavesOneWorker(t *testing.T) {
	s, built := newTestSupervisor()
	if err := s.Spawn("peerA", "tcp://127.0.0.1:6001"); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if !s.Stop("peerA") {
		t.Fatalf("expected stop to find worker")
	}
	if !built["peerA"].stopped {
		t.Fatalf("expected worker.Stop to be called")
	}
	if err := s.Spawn("peerA", "tcp://127.0.0.1:6001"); err != nil {
		t.Fatalf("re-spawn: %v", err)
	}
	if s.Count() != 1 {
		t.Fatalf("expected exactly 1 worker after exit+enter, got %d", s.Count())
	}
}

func TestStopUnknownPeer(t *testing.T) {
	s, _ := newTestSupervisor()
	if s.Stop("ghost") {
		t.Fatalf("expected stop of unknown peer to return false")
	}
}

func TestSeedStaticLinksUsesManualIDs(t *testing.T) {
	s, built := newTestSupervisor()
	if err := s.SeedStaticLinks([]string{"tcp://127.0.0.1:6001", "tcp://127.0.0.1:6002"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := built["manual-1"]; !ok {
		t.Fatalf("expected manual-1 to be seeded")
	}
	if _, ok := built["manual-2"]; !ok {
		t.Fatalf("expected manual-2 to be seeded")
	}
}

func TestSpawnRewritesWildcardLink(t *testing.T) {
	var gotLink string
	factory := func(peerID, link, receiver string) Worker {
		gotLink = link
		return &fakeWorker{}
	}
	s := New("tcp://127.0.0.1:5550", factory, testLogger())
	if err := s.Spawn("peerA", "tcp://*:6001"); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if gotLink != "tcp://127.0.0.1:6001" {
		t.Fatalf("expected wildcard rewritten to loopback, got %q", gotLink)
	}
}

func TestStopAllStopsEveryWorker(t *testing.T) {
	s, built := newTestSupervisor()
	_ = s.Spawn("peerA", "tcp://127.0.0.1:6001")
	_ = s.Spawn("peerB", "tcp://127.0.0.1:6002")
	s.StopAll()
	if s.Count() != 0 {
		t.Fatalf("expected 0 workers after StopAll, got %d", s.Count())
	}
	for id, w := range built {
		if !w.stopped {
			t.Fatalf("expected worker %s to be stopped", id)
		}
	}
}
