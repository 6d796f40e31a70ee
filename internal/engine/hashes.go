package engine

import "strconv"

// HSet implements HSET, creating the hash if absent. Returns the number of
// fields newly created (existing fields overwritten don't count).
func (e *Engine) HSet(key string, pairs map[string][]byte) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		v = newHashValue()
		e.keys[key] = v
	}

	created := 0

	for field, val := range pairs {
		if v.hash.set(field, append([]byte(nil), val...)) {
			created++
		}
	}

	e.touchLocked(key)

	return created, nil
}

// HSetNX implements HSETNX.
func (e *Engine) HSetNX(key, field string, val []byte) (bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return false, wrongType
	}

	if !exists {
		v = newHashValue()
		e.keys[key] = v
	}

	if _, ok := v.hash.get(field); ok {
		return false, nil
	}

	v.hash.set(field, append([]byte(nil), val...))
	e.touchLocked(key)

	return true, nil
}

func (e *Engine) HGet(key, field string) ([]byte, bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return nil, false, wrongType
	}

	if !exists {
		return nil, false, nil
	}

	val, ok := v.hash.get(field)

	return val, ok, nil
}

// HMGet implements HMGET: a nil entry per field not present.
func (e *Engine) HMGet(key string, fields ...string) ([][]byte, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return nil, wrongType
	}

	out := make([][]byte, len(fields))

	if !exists {
		return out, nil
	}

	for i, f := range fields {
		if val, ok := v.hash.get(f); ok {
			out[i] = val
		}
	}

	return out, nil
}

// HGetAll implements HGETALL, preserving insertion order.
func (e *Engine) HGetAll(key string) ([]string, [][]byte, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return nil, nil, wrongType
	}

	if !exists {
		return nil, nil, nil
	}

	fields := make([]string, len(v.hash.order))
	vals := make([][]byte, len(v.hash.order))

	for i, f := range v.hash.order {
		fields[i] = f
		vals[i] = v.hash.fields[f]
	}

	return fields, vals, nil
}

func (e *Engine) HKeys(key string) ([]string, *Error) {
	fields, _, err := e.HGetAll(key)

	return fields, err
}

func (e *Engine) HVals(key string) ([][]byte, *Error) {
	_, vals, err := e.HGetAll(key)

	return vals, err
}

func (e *Engine) HLen(key string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	return v.hash.len(), nil
}

func (e *Engine) HExists(key, field string) (bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return false, wrongType
	}

	if !exists {
		return false, nil
	}

	_, ok := v.hash.get(field)

	return ok, nil
}

// HDel implements HDEL, deleting key once its last field is removed.
func (e *Engine) HDel(key string, fields ...string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	removed := 0

	for _, f := range fields {
		if v.hash.del(f) {
			removed++
		}
	}

	if removed == 0 {
		return 0, nil
	}

	if v.hash.len() == 0 {
		delete(e.keys, key)
	}

	e.touchLocked(key)

	return removed, nil
}

// HIncrBy implements HINCRBY.
func (e *Engine) HIncrBy(key, field string, delta int64) (int64, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		v = newHashValue()
		e.keys[key] = v
	}

	var cur int64

	if raw, ok := v.hash.get(field); ok {
		parsed, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, errNotInt()
		}

		cur = parsed
	}

	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, errOverflow()
	}

	v.hash.set(field, []byte(strconv.FormatInt(next, 10)))
	e.touchLocked(key)

	return next, nil
}

// HIncrByFloat implements HINCRBYFLOAT. Rendering follows formatFloat, the
// same shortest round-trippable format INCRBYFLOAT uses (DESIGN.md's Open
// Question decision).
func (e *Engine) HIncrByFloat(key, field string, delta float64) (float64, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		v = newHashValue()
		e.keys[key] = v
	}

	var cur float64

	if raw, ok := v.hash.get(field); ok {
		parsed, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return 0, errNotFloat()
		}

		cur = parsed
	}

	next := cur + delta
	if err := errIfNonFinite(next); err != nil {
		return 0, err
	}

	v.hash.set(field, []byte(formatFloat(next)))
	e.touchLocked(key)

	return next, nil
}

// HRandField implements HRANDFIELD, mirroring SRANDMEMBER's count
// semantics.
func (e *Engine) HRandField(key string, count int, hasCount bool) ([]string, [][]byte, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindHash)
	if wrongType != nil {
		return nil, nil, wrongType
	}

	if !exists {
		return nil, nil, nil
	}

	fields := append([]string(nil), v.hash.order...)

	if !hasCount {
		if len(fields) == 0 {
			return nil, nil, nil
		}

		f := fields[e.rng.Intn(len(fields))]

		return []string{f}, [][]byte{v.hash.fields[f]}, nil
	}

	if count >= 0 {
		if count > len(fields) {
			count = len(fields)
		}

		e.rng.Shuffle(len(fields), func(i, j int) { fields[i], fields[j] = fields[j], fields[i] })

		fields = fields[:count]
		vals := make([][]byte, len(fields))

		for i, f := range fields {
			vals[i] = v.hash.fields[f]
		}

		return fields, vals, nil
	}

	n := -count
	outFields := make([]string, n)
	outVals := make([][]byte, n)

	for i := range outFields {
		f := fields[e.rng.Intn(len(fields))]
		outFields[i] = f
		outVals[i] = v.hash.fields[f]
	}

	return outFields, outVals, nil
}
