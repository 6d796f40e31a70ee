// Package engine implements the in-memory keyspace, its five primary value
// kinds plus streams, expiry, optimistic transactions, and pub/sub — the
// "core" spec.md §1 scopes this repository's engine to. Wire parsing,
// transport, and dispatch are separate packages (internal/resp,
// internal/server, internal/dispatch) that only ever call into Engine.
package engine

import (
	"math/rand"
	"sync"
	"time"
)

// Engine is the single opaque handle spec.md §9 calls for: "one owner,
// shared behind a mutex". Every exported method locks mu for its own
// duration; no method suspends or blocks (spec.md §5).
type Engine struct {
	mu sync.Mutex

	keys map[string]*value

	// watchers is the reverse index from key to every transaction state
	// that has WATCHed it (spec.md §9 "Cyclic back-references (WATCH)").
	watchers map[string]map[*TxState]struct{}

	channels map[string]map[*Subscriber]struct{}
	subs     map[*Subscriber]struct{}

	rng *rand.Rand
}

func New() *Engine {
	return &Engine{
		keys:     map[string]*value{},
		watchers: map[string]map[*TxState]struct{}{},
		channels: map[string]map[*Subscriber]struct{}{},
		subs:     map[*Subscriber]struct{}{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Close drains every container. Constructed fresh by New, so this exists
// mainly for symmetry with the teardown spec.md §6 describes and for tests
// that want to assert a clean slate.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.keys = map[string]*value{}
	e.watchers = map[string]map[*TxState]struct{}{}
	e.channels = map[string]map[*Subscriber]struct{}{}
	e.subs = map[*Subscriber]struct{}{}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// lookup returns the live value for key, lazily reaping it first if its
// expiry has passed (spec.md invariant 1). Caller must hold mu.
func (e *Engine) lookup(key string) (*value, bool) {
	v, ok := e.keys[key]
	if !ok {
		return nil, false
	}

	if v.expireAt != 0 && v.expireAt <= nowMs() {
		delete(e.keys, key)
		e.touchLocked(key)

		return nil, false
	}

	return v, true
}

// lookupKind is the "probe alive & fetch type" joint spec.md §9 describes:
// WRONGTYPE is raised here, uniformly, before any type-specific code runs.
func (e *Engine) lookupKind(key string, want Kind) (*value, bool, *Error) {
	v, ok := e.lookup(key)
	if !ok {
		return nil, false, nil
	}

	if v.kind != want {
		return nil, true, errWrongType()
	}

	return v, true, nil
}

// touchLocked marks every transaction watching key dirty. Caller must hold
// mu. Invoked by every mutating operation (spec.md §4.9's "just before
// returning, invoke a hook") and by lazy expiry (DESIGN.md's resolution of
// the WATCH/expiry open question).
func (e *Engine) touchLocked(key string) {
	for tx := range e.watchers[key] {
		tx.markDirty()
	}
}
