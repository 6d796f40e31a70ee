package engine

import "container/list"

// Side selects an end of a list for push/pop/move operations.
type Side int

const (
	Left Side = iota
	Right
)

// LPush implements LPUSH/RPUSH, creating the list if absent. Returns the
// new length.
func (e *Engine) LPush(key string, side Side, vals ...[]byte) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindList)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		v = newListValue()
		e.keys[key] = v
	}

	for _, val := range vals {
		b := append([]byte(nil), val...)
		if side == Left {
			v.list.PushFront(b)
		} else {
			v.list.PushBack(b)
		}
	}

	e.touchLocked(key)

	return v.list.Len(), nil
}

// LPushX is LPUSHX/RPUSHX: push only if key already exists as a list.
func (e *Engine) LPushX(key string, side Side, vals ...[]byte) (int, *Error) {
	e.mu.Lock()

	v, exists, wrongType := e.lookupKind(key, KindList)

	e.mu.Unlock()

	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	_ = v

	return e.LPush(key, side, vals...)
}

// LPop implements LPOP/RPOP with an optional count (spec.md §11 supplement).
// hasCount distinguishes "LPOP key" (returns at most one element, or nil if
// absent) from "LPOP key 0" (returns an empty, non-nil list).
func (e *Engine) LPop(key string, side Side, count int, hasCount bool) ([][]byte, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindList)
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

	out := make([][]byte, 0, n)

	for i := 0; i < n && v.list.Len() > 0; i++ {
		var elem *list.Element
		if side == Left {
			elem = v.list.Front()
		} else {
			elem = v.list.Back()
		}

		out = append(out, elem.Value.([]byte))
		v.list.Remove(elem)
	}

	if v.list.Len() == 0 {
		delete(e.keys, key)
	}

	e.touchLocked(key)

	return out, nil
}

// LLen implements LLEN.
func (e *Engine) LLen(key string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindList)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	return v.list.Len(), nil
}

// LRange implements LRANGE with Redis's negative-index clamping.
func (e *Engine) LRange(key string, start, end int) ([][]byte, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindList)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	lo, hi, ok := clampRange(start, end, v.list.Len())
	if !ok {
		return [][]byte{}, nil
	}

	out := make([][]byte, 0, hi-lo+1)
	i := 0

	for elem := v.list.Front(); elem != nil; elem = elem.Next() {
		if i >= lo && i <= hi {
			out = append(out, elem.Value.([]byte))
		}

		i++
	}

	return out, nil
}

// LIndex implements LINDEX.
func (e *Engine) LIndex(key string, idx int) ([]byte, bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindList)
	if wrongType != nil {
		return nil, false, wrongType
	}

	if !exists {
		return nil, false, nil
	}

	n := v.list.Len()
	if idx < 0 {
		idx += n
	}

	if idx < 0 || idx >= n {
		return nil, false, nil
	}

	elem := nthElement(v.list, idx)

	return elem.Value.([]byte), true, nil
}

// LSet implements LSET.
func (e *Engine) LSet(key string, idx int, val []byte) *Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindList)
	if wrongType != nil {
		return wrongType
	}

	if !exists {
		return newErr("ERR", "ERR no such key")
	}

	n := v.list.Len()
	if idx < 0 {
		idx += n
	}

	if idx < 0 || idx >= n {
		return newErr("ERR", "ERR index out of range")
	}

	elem := nthElement(v.list, idx)
	elem.Value = append([]byte(nil), val...)
	e.touchLocked(key)

	return nil
}

// LTrim implements LTRIM, deleting the key entirely if the result is empty.
func (e *Engine) LTrim(key string, start, end int) *Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindList)
	if wrongType != nil {
		return wrongType
	}

	if !exists {
		return nil
	}

	lo, hi, ok := clampRange(start, end, v.list.Len())

	i := 0
	next := list.New()

	if ok {
		for elem := v.list.Front(); elem != nil; elem = elem.Next() {
			if i >= lo && i <= hi {
				next.PushBack(elem.Value)
			}

			i++
		}
	}

	v.list = next

	if v.list.Len() == 0 {
		delete(e.keys, key)
	}

	e.touchLocked(key)

	return nil
}

// LRem implements LREM: count>0 removes from head, count<0 from tail,
// count==0 removes all occurrences. Returns the number removed.
func (e *Engine) LRem(key string, count int, val []byte) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindList)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	removed := 0
	limit := count

	if limit < 0 {
		limit = -limit
	}

	removeOne := func(elem *list.Element) *list.Element {
		next := elem.Next()

		if bytesEqual(elem.Value.([]byte), val) && (count == 0 || removed < limit) {
			prev := elem.Prev()
			v.list.Remove(elem)
			removed++

			if prev != nil {
				return prev.Next()
			}

			return v.list.Front()
		}

		return next
	}

	if count >= 0 {
		for elem := v.list.Front(); elem != nil; {
			if count != 0 && removed >= limit {
				break
			}

			elem = removeOne(elem)
		}
	} else {
		for elem := v.list.Back(); elem != nil; {
			if removed >= limit {
				break
			}

			prev := elem.Prev()

			if bytesEqual(elem.Value.([]byte), val) {
				v.list.Remove(elem)
				removed++
			}

			elem = prev
		}
	}

	if removed == 0 {
		return 0, nil
	}

	if v.list.Len() == 0 {
		delete(e.keys, key)
	}

	e.touchLocked(key)

	return removed, nil
}

// LPos implements LPOS: the index of the first (or RANK-th / COUNT many)
// occurrence of val.
func (e *Engine) LPos(key string, val []byte, rank, count int, hasCount bool, maxLen int) ([]int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindList)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	if rank == 0 {
		return nil, newErr("ERR", "ERR RANK can't be zero")
	}

	var indices []int

	skip := rank
	if skip < 0 {
		skip = -skip
	}

	skip--

	scan := func(elem *list.Element, idx int, step func(*list.Element) *list.Element, nextIdx func(int) int) {
		scanned := 0

		for elem != nil {
			if maxLen > 0 && scanned >= maxLen {
				return
			}

			scanned++

			if bytesEqual(elem.Value.([]byte), val) {
				if skip > 0 {
					skip--
				} else {
					indices = append(indices, idx)

					if !hasCount && len(indices) == 1 {
						return
					}

					if hasCount && count > 0 && len(indices) >= count {
						return
					}
				}
			}

			elem = step(elem)
			idx = nextIdx(idx)
		}
	}

	if rank > 0 {
		scan(v.list.Front(), 0, func(el *list.Element) *list.Element { return el.Next() }, func(i int) int { return i + 1 })
	} else {
		scan(v.list.Back(), v.list.Len()-1, func(el *list.Element) *list.Element { return el.Prev() }, func(i int) int { return i - 1 })
	}

	return indices, nil
}

// InsertWhere selects LINSERT's BEFORE/AFTER anchor.
type InsertWhere int

const (
	Before InsertWhere = iota
	After
)

// LInsert implements LINSERT. Returns the new length, 0 if pivot not found,
// -1 if key absent.
func (e *Engine) LInsert(key string, where InsertWhere, pivot, val []byte) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindList)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return -1, nil
	}

	for elem := v.list.Front(); elem != nil; elem = elem.Next() {
		if bytesEqual(elem.Value.([]byte), pivot) {
			b := append([]byte(nil), val...)

			if where == Before {
				v.list.InsertBefore(b, elem)
			} else {
				v.list.InsertAfter(b, elem)
			}

			e.touchLocked(key)

			return v.list.Len(), nil
		}
	}

	return 0, nil
}

// MoveResult is the element RPOPLPUSH/LMOVE moved.
type MoveResult struct {
	Val   []byte
	Moved bool
}

// LMove implements LMOVE/RPOPLPUSH.
func (e *Engine) LMove(src, dst string, fromSide, toSide Side) (MoveResult, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sv, exists, wrongType := e.lookupKind(src, KindList)
	if wrongType != nil {
		return MoveResult{}, wrongType
	}

	if !exists || sv.list.Len() == 0 {
		return MoveResult{}, nil
	}

	dv, dExists, dWrongType := e.lookupKind(dst, KindList)
	if dWrongType != nil {
		return MoveResult{}, dWrongType
	}

	if !dExists {
		dv = newListValue()
		e.keys[dst] = dv
	}

	var elem *list.Element
	if fromSide == Left {
		elem = sv.list.Front()
	} else {
		elem = sv.list.Back()
	}

	val := elem.Value.([]byte)
	sv.list.Remove(elem)

	if toSide == Left {
		dv.list.PushFront(val)
	} else {
		dv.list.PushBack(val)
	}

	if sv.list.Len() == 0 {
		delete(e.keys, src)
	}

	e.touchLocked(src)
	e.touchLocked(dst)

	return MoveResult{Val: val, Moved: true}, nil
}

func nthElement(l *list.List, idx int) *list.Element {
	elem := l.Front()
	for i := 0; i < idx; i++ {
		elem = elem.Next()
	}

	return elem
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
