package ledger

import (
	"sort"
	"sync"
)

// PairKey identifies an unordered user pair within a group.
// PairKey(g, a, b) == PairKey(g, b, a).
func PairKey(groupID, a, b string) string {
	if b < a {
		a, b = b, a
	}
	return groupID + ":" + a + "|" + b
}

// pairLocks is a set of reference-counted mutexes keyed by PairKey.
// Entries are dropped once nobody holds or waits on them.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[string]*pairLock)}
}

// lock acquires every key in sorted order and returns a func releasing them.
// Sorting keeps two callers with overlapping key sets from deadlocking.
func (p *pairLocks) lock(keys []string) (unlock func()) {
	keys = dedupeSorted(keys)

	held := make([]*pairLock, 0, len(keys))
	for _, k := range keys {
		p.mu.Lock()
		l, ok := p.locks[k]
		if !ok {
			l = &pairLock{}
			p.locks[k] = l
		}
		l.refs++
		p.mu.Unlock()

		l.mu.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			p.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(p.locks, keys[i])
			}
			p.mu.Unlock()
		}
	}
}

// size reports the number of live lock entries.
func (p *pairLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}

func dedupeSorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i == 0 || k != out[n-1] {
			out[n] = k
			n++
		}
	}
	return out[:n]
}
