package engine

import "strings"

// Type reports the kind of key, or KindNone if key is absent or expired.
func (e *Engine) Type(key string) Kind {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.lookup(key)
	if !ok {
		return KindNone
	}

	return v.kind
}

// Exists returns how many of keys are present, counting duplicates per
// spec.md's "multi-key EXISTS" supplement.
func (e *Engine) Exists(keys ...string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0

	for _, k := range keys {
		if _, ok := e.lookup(k); ok {
			n++
		}
	}

	return n
}

// Del removes keys, returning the number actually removed.
func (e *Engine) Del(keys ...string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0

	for _, k := range keys {
		if _, ok := e.lookup(k); ok {
			delete(e.keys, k)
			e.touchLocked(k)

			n++
		}
	}

	return n
}

// Rename moves src's value (and expiry) to dst, overwriting dst if present.
// Returns ErrNoSuchKey if src is absent.
func (e *Engine) Rename(src, dst string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.lookup(src)
	if !ok {
		return ErrNoSuchKey
	}

	delete(e.keys, src)
	e.keys[dst] = v
	e.touchLocked(src)
	e.touchLocked(dst)

	return nil
}

// RenameNX is Rename but a no-op (returning false) if dst already exists.
func (e *Engine) RenameNX(src, dst string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.lookup(src); !ok {
		return false, ErrNoSuchKey
	}

	if _, ok := e.lookup(dst); ok {
		return false, nil
	}

	v := e.keys[src]
	delete(e.keys, src)
	e.keys[dst] = v
	e.touchLocked(src)
	e.touchLocked(dst)

	return true, nil
}

// Copy duplicates src's value onto dst. replace controls whether an
// existing dst is overwritten (spec.md's COPY supplement).
func (e *Engine) Copy(src, dst string, replace bool) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.lookup(src)
	if !ok {
		return false, ErrNoSuchKey
	}

	if _, exists := e.lookup(dst); exists && !replace {
		return false, nil
	}

	e.keys[dst] = cloneValue(v)
	e.touchLocked(dst)

	return true, nil
}

// Move is a supplemented no-op: this engine has exactly one logical
// database, so MOVE always reports failure (spec.md §11's "no-op" note).
func (e *Engine) Move(_ string, _ int) bool {
	return false
}

// Keys returns every live key matching pattern (spec.md §4.1's glob
// language). O(n) over the keyspace; reaps expired keys as it scans.
func (e *Engine) Keys(pattern string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.keys))

	for k := range e.keys {
		if _, ok := e.lookup(k); !ok {
			continue
		}

		if globMatch(pattern, k) {
			out = append(out, k)
		}
	}

	return out
}

// RandomKey returns an arbitrary live key, or "" if the keyspace is empty.
func (e *Engine) RandomKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	for k := range e.keys {
		if _, ok := e.lookup(k); ok {
			return k
		}
	}

	return ""
}

// DBSize reports the number of live keys, reaping expired ones first.
func (e *Engine) DBSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0

	for k := range e.keys {
		if _, ok := e.lookup(k); ok {
			n++
		}
	}

	return n
}

// FlushAll/FlushDB are identical in this single-database engine.
func (e *Engine) FlushAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for k := range e.keys {
		e.touchLocked(k)
	}

	e.keys = map[string]*value{}
}

func (e *Engine) FlushDB() { e.FlushAll() }

// ObjectEncoding reports a Redis-flavored encoding hint for key (spec.md
// §11's OBJECT ENCODING supplement); the decisions behind the thresholds
// are recorded in DESIGN.md.
func (e *Engine) ObjectEncoding(key string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}

	switch v.kind {
	case KindString:
		if looksInt(v.str) {
			return "int", true
		}

		if len(v.str) <= 44 {
			return "embstr", true
		}

		return "raw", true
	case KindList:
		if v.list.Len() <= 128 {
			return "listpack", true
		}

		return "quicklist", true
	case KindSet:
		if len(v.set) <= 128 {
			return "listpack", true
		}

		return "hashtable", true
	case KindHash:
		if v.hash.len() <= 128 {
			return "listpack", true
		}

		return "hashtable", true
	case KindZSet:
		if v.zset.len() <= 128 {
			return "listpack", true
		}

		return "skiplist", true
	case KindStream:
		return "stream", true
	default:
		return "", true
	}
}

// ObjectFreqIdleTime stubs the maxmemory-policy-dependent OBJECT FREQ /
// OBJECT IDLETIME pair: this engine runs no eviction policy, so both always
// report zero (spec.md §11).
func (e *Engine) ObjectFreqIdleTime(key string) (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.lookup(key)

	return 0, ok
}

func looksInt(b []byte) bool {
	if len(b) == 0 {
		return false
	}

	s := string(b)
	if s[0] == '-' {
		s = s[1:]
	}

	if s == "" {
		return false
	}

	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) == -1
}

func cloneValue(v *value) *value {
	cp := &value{kind: v.kind, expireAt: v.expireAt}

	switch v.kind {
	case KindString:
		cp.str = append([]byte(nil), v.str...)
	case KindList:
		cp.list = cloneList(v.list)
	case KindSet:
		cp.set = make(map[string]struct{}, len(v.set))
		for m := range v.set {
			cp.set[m] = struct{}{}
		}
	case KindHash:
		cp.hash = &hashValue{
			fields: make(map[string][]byte, len(v.hash.fields)),
			order:  append([]string(nil), v.hash.order...),
		}
		for f, val := range v.hash.fields {
			cp.hash.fields[f] = append([]byte(nil), val...)
		}
	case KindZSet:
		cp.zset = &zsetValue{
			byMember: make(map[string]float64, len(v.zset.byMember)),
			ordered:  append([]ZMember(nil), v.zset.ordered...),
		}
		for m, s := range v.zset.byMember {
			cp.zset.byMember[m] = s
		}
	case KindStream:
		// Streams are not a supported COPY source beyond their entry log;
		// groups/PEL are deliberately not duplicated.
		cp.stream = newStream()
		cp.stream.entries = append([]StreamEntry(nil), v.stream.entries...)
		cp.stream.lastID = v.stream.lastID
		cp.stream.maxDeletedID = v.stream.maxDeletedID
	}

	return cp
}
