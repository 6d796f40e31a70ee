package engine

import "sort"

// ScanResult is the {cursor, items} pair every SCAN-family command returns.
// Cursor 0 means iteration is complete (spec.md §11's SCAN supplement).
type ScanResult struct {
	Cursor uint64
	Keys   []string
}

// scanCollection is the shared core behind SCAN/HSCAN/SSCAN/ZSCAN: a
// full, single-pass snapshot sliced by cursor. This engine has no
// incremental rehashing to survive, so unlike real Redis the cursor is
// simply "how many matching items have already been returned" rather than
// a reverse-binary bucket index — cheaper, and still satisfies SCAN's
// documented guarantee that a full iteration (cursor 0 to cursor 0)
// observes every element present for its entire duration.
func scanCollection(all []string, cursor uint64, count int, match string, typeFilter func(string) bool) ScanResult {
	if count <= 0 {
		count = 10
	}

	var filtered []string

	for _, k := range all {
		if match != "" && !globMatch(match, k) {
			continue
		}

		if typeFilter != nil && !typeFilter(k) {
			continue
		}

		filtered = append(filtered, k)
	}

	start := int(cursor)
	if start > len(filtered) {
		start = len(filtered)
	}

	end := start + count
	if end > len(filtered) {
		end = len(filtered)
	}

	next := uint64(end)
	if end >= len(filtered) {
		next = 0
	}

	return ScanResult{Cursor: next, Keys: filtered[start:end]}
}

// Scan implements SCAN over the top-level keyspace.
func (e *Engine) Scan(cursor uint64, match string, count int, typeName string) ScanResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := make([]string, 0, len(e.keys))

	for k := range e.keys {
		if _, ok := e.lookup(k); ok {
			all = append(all, k)
		}
	}

	sort.Strings(all)

	var typeFilter func(string) bool

	if typeName != "" {
		typeFilter = func(k string) bool {
			v, ok := e.lookup(k)

			return ok && v.kind.String() == typeName
		}
	}

	return scanCollection(all, cursor, count, match, typeFilter)
}

// HScan implements HSCAN, returning field/value pairs interleaved as
// Keys[2i]=field, Keys[2i+1]=value (matching RESP's flat array reply).
func (e *Engine) HScan(key string, cursor uint64, match string, count int) (ScanResult, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return ScanResult{}, wrongType
	}

	if !exists {
		return ScanResult{}, nil
	}

	res := scanCollection(v.hash.order, cursor, count, match, nil)

	flat := make([]string, 0, len(res.Keys)*2)

	for _, f := range res.Keys {
		flat = append(flat, f, string(v.hash.fields[f]))
	}

	res.Keys = flat

	return res, nil
}

// SScan implements SSCAN.
func (e *Engine) SScan(key string, cursor uint64, match string, count int) (ScanResult, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindSet)
	if wrongType != nil {
		return ScanResult{}, wrongType
	}

	if !exists {
		return ScanResult{}, nil
	}

	all := make([]string, 0, len(v.set))
	for m := range v.set {
		all = append(all, m)
	}

	sort.Strings(all)

	return scanCollection(all, cursor, count, match, nil), nil
}

// ZScan implements ZSCAN, interleaving member/score pairs like HSCAN does
// field/value.
func (e *Engine) ZScan(key string, cursor uint64, match string, count int) (ScanResult, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return ScanResult{}, wrongType
	}

	if !exists {
		return ScanResult{}, nil
	}

	all := make([]string, len(v.zset.ordered))
	for i, m := range v.zset.ordered {
		all[i] = m.Member
	}

	res := scanCollection(all, cursor, count, match, nil)

	flat := make([]string, 0, len(res.Keys)*2)

	for _, m := range res.Keys {
		score, _ := v.zset.score(m)
		flat = append(flat, m, formatFloat(score))
	}

	res.Keys = flat

	return res, nil
}
