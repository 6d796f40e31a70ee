package engine

// SAdd implements SADD, creating the set if absent. Returns the number of
// members actually added.
func (e *Engine) SAdd(key string, members ...string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindSet)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		v = newSetValue()
		e.keys[key] = v
	}

	added := 0

	for _, m := range members {
		if _, ok := v.set[m]; !ok {
			v.set[m] = struct{}{}
			added++
		}
	}

	e.touchLocked(key)

	return added, nil
}

// SRem implements SREM, deleting key once emptied.
func (e *Engine) SRem(key string, members ...string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindSet)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	removed := 0

	for _, m := range members {
		if _, ok := v.set[m]; ok {
			delete(v.set, m)
			removed++
		}
	}

	if removed == 0 {
		return 0, nil
	}

	if len(v.set) == 0 {
		delete(e.keys, key)
	}

	e.touchLocked(key)

	return removed, nil
}

// SMembers implements SMEMBERS.
func (e *Engine) SMembers(key string) ([]string, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindSet)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	out := make([]string, 0, len(v.set))
	for m := range v.set {
		out = append(out, m)
	}

	return out, nil
}

func (e *Engine) SCard(key string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindSet)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	return len(v.set), nil
}

func (e *Engine) SIsMember(key, member string) (bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindSet)
	if wrongType != nil {
		return false, wrongType
	}

	if !exists {
		return false, nil
	}

	_, ok := v.set[member]

	return ok, nil
}

// SMIsMember implements SMISMEMBER.
func (e *Engine) SMIsMember(key string, members ...string) ([]bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindSet)
	if wrongType != nil {
		return nil, wrongType
	}

	out := make([]bool, len(members))

	if !exists {
		return out, nil
	}

	for i, m := range members {
		_, out[i] = v.set[m]
	}

	return out, nil
}

// readSet fetches key's live member set, or nil if absent. Caller must
// hold mu.
func (e *Engine) readSet(key string) (map[string]struct{}, *Error) {
	v, exists, wrongType := e.lookupKind(key, KindSet)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	return v.set, nil
}

func setUnion(sets []map[string]struct{}) map[string]struct{} {
	out := map[string]struct{}{}

	for _, s := range sets {
		for m := range s {
			out[m] = struct{}{}
		}
	}

	return out
}

func setInter(sets []map[string]struct{}) map[string]struct{} {
	if len(sets) == 0 {
		return map[string]struct{}{}
	}

	out := map[string]struct{}{}

	for m := range sets[0] {
		inAll := true

		for _, s := range sets[1:] {
			if _, ok := s[m]; !ok {
				inAll = false

				break
			}
		}

		if inAll {
			out[m] = struct{}{}
		}
	}

	return out
}

func setDiff(sets []map[string]struct{}) map[string]struct{} {
	if len(sets) == 0 {
		return map[string]struct{}{}
	}

	out := map[string]struct{}{}

	for m := range sets[0] {
		out[m] = struct{}{}
	}

	for _, s := range sets[1:] {
		for m := range s {
			delete(out, m)
		}
	}

	return out
}

// SetOpKind selects which of SUNION/SINTER/SDIFF a combinator call runs.
type SetOpKind int

const (
	SetOpUnion SetOpKind = iota
	SetOpInter
	SetOpDiff
)

func (e *Engine) combine(op SetOpKind, keys []string) (map[string]struct{}, *Error) {
	sets := make([]map[string]struct{}, len(keys))

	for i, k := range keys {
		s, err := e.readSet(k)
		if err != nil {
			return nil, err
		}

		sets[i] = s
	}

	switch op {
	case SetOpUnion:
		return setUnion(sets), nil
	case SetOpInter:
		return setInter(sets), nil
	case SetOpDiff:
		return setDiff(sets), nil
	default:
		return nil, nil
	}
}

// SCombine implements SUNION/SINTER/SDIFF.
func (e *Engine) SCombine(op SetOpKind, keys ...string) ([]string, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.combine(op, keys)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(result))
	for m := range result {
		out = append(out, m)
	}

	return out, nil
}

// SCombineStore implements SUNIONSTORE/SINTERSTORE/SDIFFSTORE. Returns the
// stored cardinality.
func (e *Engine) SCombineStore(op SetOpKind, dest string, keys ...string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.combine(op, keys)
	if err != nil {
		return 0, err
	}

	if len(result) == 0 {
		delete(e.keys, dest)
	} else {
		e.keys[dest] = &value{kind: KindSet, set: result}
	}

	e.touchLocked(dest)

	return len(result), nil
}

// SInterCard implements SINTERCARD, optionally capped by limit (0 = no
// cap).
func (e *Engine) SInterCard(limit int, keys ...string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.combine(SetOpInter, keys)
	if err != nil {
		return 0, err
	}

	if limit > 0 && len(result) > limit {
		return limit, nil
	}

	return len(result), nil
}

// SMove implements SMOVE.
func (e *Engine) SMove(src, dst, member string) (bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sv, exists, wrongType := e.lookupKind(src, KindSet)
	if wrongType != nil {
		return false, wrongType
	}

	if !exists {
		return false, nil
	}

	if _, ok := sv.set[member]; !ok {
		return false, nil
	}

	dv, dExists, dWrongType := e.lookupKind(dst, KindSet)
	if dWrongType != nil {
		return false, dWrongType
	}

	if !dExists {
		dv = newSetValue()
		e.keys[dst] = dv
	}

	delete(sv.set, member)
	dv.set[member] = struct{}{}

	if len(sv.set) == 0 {
		delete(e.keys, src)
	}

	e.touchLocked(src)
	e.touchLocked(dst)

	return true, nil
}

// SPop implements SPOP with an optional count.
func (e *Engine) SPop(key string, count int, hasCount bool) ([]string, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindSet)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	n := 1
	if hasCount {
		n = count
	}

	if n > len(v.set) {
		n = len(v.set)
	}

	out := make([]string, 0, n)

	for m := range v.set {
		if len(out) >= n {
			break
		}

		out = append(out, m)
		delete(v.set, m)
	}

	if len(v.set) == 0 {
		delete(e.keys, key)
	}

	e.touchLocked(key)

	return out, nil
}

// SRandMember implements SRANDMEMBER. count==nil means "one member,
// without a surrounding array"; negative counts allow repeats.
func (e *Engine) SRandMember(key string, count int, hasCount bool) ([]string, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindSet)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	members := make([]string, 0, len(v.set))
	for m := range v.set {
		members = append(members, m)
	}

	if !hasCount {
		if len(members) == 0 {
			return nil, nil
		}

		return []string{members[e.rng.Intn(len(members))]}, nil
	}

	if count >= 0 {
		if count > len(members) {
			count = len(members)
		}

		e.rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })

		return members[:count], nil
	}

	n := -count
	out := make([]string, n)

	for i := range out {
		out[i] = members[e.rng.Intn(len(members))]
	}

	return out, nil
}
