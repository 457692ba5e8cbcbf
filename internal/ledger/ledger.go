// Package ledger implements the (hash, link) multiset that the hub uses to
// stop a relayed payload from being re-injected back into the chain it came
// from. It is a loop breaker, not a delivery guarantee: stale entries are
// left in place rather than actively collected (see Record).
package ledger

import "sync"

type entry struct {
	hash string
	link string
}

// Ledger is a mutex-guarded multiset of (hash, link) entries. The zero value
// is ready to use.
type Ledger struct {
	mu      sync.Mutex
	entries []entry
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Record appends one (hash, link) entry per link, atomically with respect to
// other Record/Consume calls. Callers insert these before attempting the
// matching publish, so any chain-client that echoes the payload back
// observes the entry.
func (l *Ledger) Record(hash string, links []string) {
	if len(links) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, link := range links {
		l.entries = append(l.entries, entry{hash: hash, link: link})
	}
}

// Consume removes at most one (hash, link) entry and reports whether one was
// present. Duplicate hashes on the same link are consumed FIFO: the first
// matching entry recorded is the first removed.
func (l *Ledger) Consume(hash, link string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.hash == hash && e.link == link {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len reports the current number of outstanding entries. Exposed for tests
// and diagnostics; not part of the protocol.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
