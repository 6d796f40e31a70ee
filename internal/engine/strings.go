package engine

import (
	"math"
	"strconv"
)

// SetFlag selects SET's conditional-existence semantics.
type SetFlag int

const (
	SetAlways SetFlag = iota
	SetNX             // only if key does not exist
	SetXX             // only if key exists
)

// SetOpts carries the optional SET modifiers (spec.md §11's full SET
// surface): a condition flag, an expiry (mutually exclusive forms), and
// KEEPTTL.
type SetOpts struct {
	Flag       SetFlag
	ExpireAtMs int64 // 0 means "no explicit expiry in this call"
	KeepTTL    bool
	GetOld     bool
}

// SetResult carries back what Set needs to report: whether it applied, and
// (with GetOld) the previous string value.
type SetResult struct {
	Applied bool
	OldVal  []byte
	HadOld  bool
	OldWasWrongType bool
}

// Set implements SET, including NX/XX/EX/PX/EXAT/PXAT/KEEPTTL/GET
// (spec.md §4.2 plus §11 supplement).
func (e *Engine) Set(key string, val []byte, opts SetOpts) (SetResult, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res SetResult

	existing, exists := e.lookup(key)

	if opts.GetOld {
		if exists {
			if existing.kind != KindString {
				return SetResult{}, errWrongType()
			}

			res.OldVal = append([]byte(nil), existing.str...)
			res.HadOld = true
		}
	}

	switch opts.Flag {
	case SetNX:
		if exists {
			return res, nil
		}
	case SetXX:
		if !exists {
			return res, nil
		}
	}

	var expireAt int64

	if opts.KeepTTL && exists {
		expireAt = existing.expireAt
	} else {
		expireAt = opts.ExpireAtMs
	}

	e.keys[key] = &value{kind: KindString, str: append([]byte(nil), val...), expireAt: expireAt}
	e.touchLocked(key)
	res.Applied = true

	return res, nil
}

// Get implements GET: nil, false if absent.
func (e *Engine) Get(key string) ([]byte, bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindString)
	if wrongType != nil {
		return nil, false, wrongType
	}

	if !exists {
		return nil, false, nil
	}

	return v.str, true, nil
}

// GetSet atomically sets key to val and returns its previous value.
func (e *Engine) GetSet(key string, val []byte) ([]byte, bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindString)
	if wrongType != nil {
		return nil, false, wrongType
	}

	var old []byte

	if exists {
		old = v.str
	}

	e.keys[key] = newStringValue(append([]byte(nil), val...))
	e.touchLocked(key)

	return old, exists, nil
}

// GetDel atomically fetches and removes key.
func (e *Engine) GetDel(key string) ([]byte, bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindString)
	if wrongType != nil {
		return nil, false, wrongType
	}

	if !exists {
		return nil, false, nil
	}

	delete(e.keys, key)
	e.touchLocked(key)

	return v.str, true, nil
}

// SetNX is the legacy single-purpose form of SET NX.
func (e *Engine) SetNX(key string, val []byte) bool {
	res, _ := e.Set(key, val, SetOpts{Flag: SetNX})

	return res.Applied
}

func (e *Engine) MSet(pairs map[string][]byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for k, v := range pairs {
		e.keys[k] = newStringValue(append([]byte(nil), v...))
		e.touchLocked(k)
	}
}

// MSetNX sets every pair only if none of the keys exist; all-or-nothing.
func (e *Engine) MSetNX(pairs map[string][]byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for k := range pairs {
		if _, ok := e.lookup(k); ok {
			return false
		}
	}

	for k, v := range pairs {
		e.keys[k] = newStringValue(append([]byte(nil), v...))
		e.touchLocked(k)
	}

	return true
}

func (e *Engine) MGet(keys ...string) [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([][]byte, len(keys))

	for i, k := range keys {
		v, ok := e.lookup(k)
		if !ok || v.kind != KindString {
			continue
		}

		out[i] = v.str
	}

	return out
}

// Append implements APPEND, creating key as an empty string first if
// absent.
func (e *Engine) Append(key string, suffix []byte) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindString)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		v = newStringValue(nil)
		e.keys[key] = v
	}

	v.str = append(v.str, suffix...)
	e.touchLocked(key)

	return len(v.str), nil
}

// StrLen implements STRLEN.
func (e *Engine) StrLen(key string) (int, *Error) {
	v, exists, wrongType := func() (*value, bool, *Error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		return e.lookupKind(key, KindString)
	}()
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	return len(v.str), nil
}

// GetRange implements GETRANGE with Redis's negative-index and clamping
// rules.
func (e *Engine) GetRange(key string, start, end int) ([]byte, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindString)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	lo, hi, ok := clampRange(start, end, len(v.str))
	if !ok {
		return []byte{}, nil
	}

	return append([]byte(nil), v.str[lo:hi+1]...), nil
}

// SetRange implements SETRANGE, zero-padding as needed.
func (e *Engine) SetRange(key string, offset int, patch []byte) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if offset < 0 {
		return 0, newErr("ERR", "ERR offset is out of range")
	}

	v, exists, wrongType := e.lookupKind(key, KindString)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		if len(patch) == 0 {
			return 0, nil
		}

		v = newStringValue(nil)
		e.keys[key] = v
	}

	needed := offset + len(patch)
	if needed > len(v.str) {
		grown := make([]byte, needed)
		copy(grown, v.str)
		v.str = grown
	}

	copy(v.str[offset:], patch)
	e.touchLocked(key)

	return len(v.str), nil
}

// IncrBy implements INCR/INCRBY/DECR/DECRBY.
func (e *Engine) IncrBy(key string, delta int64) (int64, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindString)
	if wrongType != nil {
		return 0, wrongType
	}

	var cur int64

	if exists {
		parsed, err := strconv.ParseInt(string(v.str), 10, 64)
		if err != nil {
			return 0, errNotInt()
		}

		cur = parsed
	}

	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, errOverflow()
	}

	if exists {
		v.str = []byte(strconv.FormatInt(next, 10))
	} else {
		e.keys[key] = newStringValue([]byte(strconv.FormatInt(next, 10)))
	}

	e.touchLocked(key)

	return next, nil
}

// IncrByFloat implements INCRBYFLOAT/HINCRBYFLOAT's string half.
func (e *Engine) IncrByFloat(key string, delta float64) (float64, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindString)
	if wrongType != nil {
		return 0, wrongType
	}

	var cur float64

	if exists {
		parsed, err := strconv.ParseFloat(string(v.str), 64)
		if err != nil {
			return 0, errNotFloat()
		}

		cur = parsed
	}

	next := cur + delta
	if err := errIfNonFinite(next); err != nil {
		return 0, err
	}

	formatted := formatFloat(next)

	if exists {
		v.str = []byte(formatted)
	} else {
		e.keys[key] = newStringValue([]byte(formatted))
	}

	e.touchLocked(key)

	return next, nil
}

// errIfNonFinite rejects an INCRBYFLOAT/HINCRBYFLOAT result that isn't a
// finite number (spec.md §7's Range/overflow kind) before it is stored.
func errIfNonFinite(f float64) *Error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return newErr("ERR", "ERR increment would produce NaN or Infinity")
	}

	return nil
}

// formatFloat matches Redis's "shortest round-trippable, no trailing
// zeros, no exponent" float rendering — DESIGN.md's HINCRBYFLOAT decision
// reuses this for hashes too. Infinities render as the literal "inf"/
// "-inf" spec.md §6 requires instead of FormatFloat's "+Inf"/"-Inf".
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}

	if math.IsInf(f, -1) {
		return "-inf"
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// clampRange converts Redis-style possibly-negative start/end into a
// [lo, hi] inclusive byte range; ok is false when the range is empty.
func clampRange(start, end, length int) (lo, hi int, ok bool) {
	if length == 0 {
		return 0, 0, false
	}

	if start < 0 {
		start += length
	}

	if end < 0 {
		end += length
	}

	if start < 0 {
		start = 0
	}

	if end >= length {
		end = length - 1
	}

	if start > end || start >= length {
		return 0, 0, false
	}

	return start, end, true
}
