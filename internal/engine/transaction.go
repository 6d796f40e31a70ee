package engine

// TxState is the per-connection optimistic-transaction state spec.md §4.9
// describes: a WATCH set, a dirty flag set the instant any watched key is
// touched, and (owned by internal/dispatch, not here) a queue of commands
// accumulated between MULTI and EXEC.
//
// Dispatch owns one TxState per connection and calls Watch/Unwatch/Dirty
// directly; the engine never allocates or frees these itself, it
// only ever writes into the one each watcher map entry points at.
type TxState struct {
	watching map[string]struct{}
	dirty    bool
}

func NewTxState() *TxState {
	return &TxState{watching: map[string]struct{}{}}
}

func (t *TxState) markDirty() { t.dirty = true }

// Dirty reports whether any watched key has changed (or been deleted, or
// expired) since the last Unwatch.
func (t *TxState) Dirty() bool { return t.dirty }

// Watch registers tx as watching key. Safe to call multiple times; WATCH
// during an active transaction is a client-level error enforced above the
// engine (spec.md §4.9), not here.
func (e *Engine) Watch(tx *TxState, key string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, already := tx.watching[key]; already {
		return
	}

	tx.watching[key] = struct{}{}

	set, ok := e.watchers[key]
	if !ok {
		set = map[*TxState]struct{}{}
		e.watchers[key] = set
	}

	set[tx] = struct{}{}
}

// Unwatch clears every key tx is watching and resets its dirty flag, per
// UNWATCH and the implicit unwatch that follows EXEC/DISCARD.
func (e *Engine) Unwatch(tx *TxState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for key := range tx.watching {
		if set, ok := e.watchers[key]; ok {
			delete(set, tx)

			if len(set) == 0 {
				delete(e.watchers, key)
			}
		}
	}

	tx.watching = map[string]struct{}{}
	tx.dirty = false
}
