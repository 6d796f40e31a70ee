package engine

import (
	"math"
	"sort"
)

// ZMember pairs a member with its score, the unit stored in the
// score-ordered index.
type ZMember struct {
	Member string
	Score  float64
}

func less(a, b ZMember) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}

	return a.Member < b.Member
}

// zsetValue keeps the two indices invariant 3.2 (spec.md §8) requires:
// member→score for O(1) lookup, and a score-ordered slice for O(log n)
// rank/range queries kept consistent by always mutating both together.
type zsetValue struct {
	byMember map[string]float64
	ordered  []ZMember
}

func newZSet() *zsetValue {
	return &zsetValue{byMember: map[string]float64{}}
}

func (z *zsetValue) len() int {
	return len(z.byMember)
}

func (z *zsetValue) score(member string) (float64, bool) {
	s, ok := z.byMember[member]

	return s, ok
}

func (z *zsetValue) indexOf(m ZMember) int {
	return sort.Search(len(z.ordered), func(i int) bool {
		return !less(z.ordered[i], m)
	})
}

// upsert sets member's score, returning whether the member is new.
func (z *zsetValue) upsert(member string, score float64) bool {
	oldScore, existed := z.byMember[member]

	if existed {
		if oldScore == score {
			return false
		}

		oldIdx := z.indexOf(ZMember{member, oldScore})
		z.ordered = append(z.ordered[:oldIdx], z.ordered[oldIdx+1:]...)
	}

	z.byMember[member] = score

	newMember := ZMember{member, score}
	idx := z.indexOf(newMember)
	z.ordered = append(z.ordered, ZMember{})
	copy(z.ordered[idx+1:], z.ordered[idx:])
	z.ordered[idx] = newMember

	return !existed
}

func (z *zsetValue) remove(member string) bool {
	score, ok := z.byMember[member]
	if !ok {
		return false
	}

	idx := z.indexOf(ZMember{member, score})
	z.ordered = append(z.ordered[:idx], z.ordered[idx+1:]...)
	delete(z.byMember, member)

	return true
}

// rank returns member's 0-based ascending rank.
func (z *zsetValue) rank(member string) (int, bool) {
	score, ok := z.byMember[member]
	if !ok {
		return 0, false
	}

	return z.indexOf(ZMember{member, score}), true
}

// ZAddOpts carries ZADD's conditional/reporting modifiers (spec.md §11).
type ZAddOpts struct {
	NX, XX, GT, LT, CH, INCR bool
}

type ZAddResult struct {
	Added     int
	Changed   int
	IncrScore float64
	IncrOK    bool // false when INCR's condition (NX/XX/GT/LT) blocked the update
}

// ZAdd implements ZADD.
func (e *Engine) ZAdd(key string, opts ZAddOpts, members []ZMember) (ZAddResult, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if opts.NX && (opts.GT || opts.LT) {
		return ZAddResult{}, errSyntax()
	}

	if opts.INCR && len(members) != 1 {
		return ZAddResult{}, newErr("ERR", "ERR INCR option supports a single increment-element pair")
	}

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return ZAddResult{}, wrongType
	}

	if !exists {
		v = newZSetValue()
		e.keys[key] = v
	}

	var res ZAddResult

	for _, m := range members {
		oldScore, had := v.zset.score(m.Member)

		newScore := m.Score
		if opts.INCR {
			newScore = oldScore + m.Score
		}

		if math.IsNaN(newScore) {
			return ZAddResult{}, errNaNScore()
		}

		if had {
			if opts.NX {
				if opts.INCR {
					return ZAddResult{}, nil
				}

				continue
			}

			if opts.GT && newScore <= oldScore {
				continue
			}

			if opts.LT && newScore >= oldScore {
				continue
			}
		} else if opts.XX {
			if opts.INCR {
				return ZAddResult{}, nil
			}

			continue
		}

		isNew := v.zset.upsert(m.Member, newScore)

		if isNew {
			res.Added++
		} else if newScore != oldScore {
			res.Changed++
		}

		if opts.INCR {
			res.IncrScore = newScore
			res.IncrOK = true
		}
	}

	if v.zset.len() == 0 {
		delete(e.keys, key)
	}

	e.touchLocked(key)

	return res, nil
}

// ZRem implements ZREM.
func (e *Engine) ZRem(key string, members ...string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	removed := 0

	for _, m := range members {
		if v.zset.remove(m) {
			removed++
		}
	}

	if removed == 0 {
		return 0, nil
	}

	if v.zset.len() == 0 {
		delete(e.keys, key)
	}

	e.touchLocked(key)

	return removed, nil
}

func (e *Engine) ZScore(key, member string) (float64, bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return 0, false, wrongType
	}

	if !exists {
		return 0, false, nil
	}

	s, ok := v.zset.score(member)

	return s, ok, nil
}

// ZMScore implements ZMSCORE: ok[i] false means member i is absent.
func (e *Engine) ZMScore(key string, members ...string) ([]float64, []bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return nil, nil, wrongType
	}

	scores := make([]float64, len(members))
	ok := make([]bool, len(members))

	if !exists {
		return scores, ok, nil
	}

	for i, m := range members {
		scores[i], ok[i] = v.zset.score(m)
	}

	return scores, ok, nil
}

// ZIncrBy implements ZINCRBY.
func (e *Engine) ZIncrBy(key string, delta float64, member string) (float64, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		v = newZSetValue()
		e.keys[key] = v
	}

	old, _ := v.zset.score(member)
	next := old + delta

	if math.IsNaN(next) {
		return 0, errNaNScore()
	}

	v.zset.upsert(member, next)
	e.touchLocked(key)

	return next, nil
}

func (e *Engine) ZCard(key string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	return v.zset.len(), nil
}

// ZRank implements ZRANK/ZREVRANK (rev ranks from the highest score),
// also returning the score for WITHSCORE (spec.md §11).
func (e *Engine) ZRank(key, member string, rev bool) (int, float64, bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return 0, 0, false, wrongType
	}

	if !exists {
		return 0, 0, false, nil
	}

	rank, ok := v.zset.rank(member)
	if !ok {
		return 0, 0, false, nil
	}

	if rev {
		rank = v.zset.len() - 1 - rank
	}

	score, _ := v.zset.score(member)

	return rank, score, true, nil
}

// ZCount implements ZCOUNT over an inclusive-by-default [min, max] score
// range; minExcl/maxExcl apply the "(" exclusive-bound syntax.
func (e *Engine) ZCount(key string, min, max float64, minExcl, maxExcl bool) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	count := 0

	for _, m := range v.zset.ordered {
		if scoreInRange(m.Score, min, max, minExcl, maxExcl) {
			count++
		}
	}

	return count, nil
}

func scoreInRange(score, min, max float64, minExcl, maxExcl bool) bool {
	if minExcl {
		if score <= min {
			return false
		}
	} else if score < min {
		return false
	}

	if maxExcl {
		if score >= max {
			return false
		}
	} else if score > max {
		return false
	}

	return true
}

// ZRange implements the index-addressed form of ZRANGE/ZREVRANGE.
func (e *Engine) ZRange(key string, start, end int, rev bool) ([]ZMember, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	ordered := v.zset.ordered

	lo, hi, ok := clampRange(start, end, len(ordered))
	if !ok {
		return []ZMember{}, nil
	}

	out := make([]ZMember, hi-lo+1)

	if rev {
		n := len(ordered)
		for i := lo; i <= hi; i++ {
			out[i-lo] = ordered[n-1-i]
		}
	} else {
		copy(out, ordered[lo:hi+1])
	}

	return out, nil
}

// ZRangeByScore implements ZRANGEBYSCORE/ZREVRANGEBYSCORE with an optional
// LIMIT offset/count.
func (e *Engine) ZRangeByScore(
	key string, min, max float64, minExcl, maxExcl, rev bool, offset, count int, hasLimit bool,
) ([]ZMember, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	var matches []ZMember

	for _, m := range v.zset.ordered {
		if scoreInRange(m.Score, min, max, minExcl, maxExcl) {
			matches = append(matches, m)
		}
	}

	if rev {
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
	}

	return applyLimit(matches, offset, count, hasLimit), nil
}

func applyLimit(matches []ZMember, offset, count int, hasLimit bool) []ZMember {
	if !hasLimit {
		return matches
	}

	if offset < 0 || offset >= len(matches) {
		return []ZMember{}
	}

	end := len(matches)
	if count >= 0 && offset+count < end {
		end = offset + count
	}

	return matches[offset:end]
}

// ZPop implements ZPOPMIN/ZPOPMAX (max selects the high-score end),
// removing up to count members from that end.
func (e *Engine) ZPop(key string, count int, max bool) ([]ZMember, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	out := make([]ZMember, 0, count)

	for i := 0; i < count && v.zset.len() > 0; i++ {
		var m ZMember

		if max {
			m = v.zset.ordered[len(v.zset.ordered)-1]
		} else {
			m = v.zset.ordered[0]
		}

		v.zset.remove(m.Member)
		out = append(out, m)
	}

	if v.zset.len() == 0 {
		delete(e.keys, key)
	}

	e.touchLocked(key)

	return out, nil
}

// ZRandMember implements ZRANDMEMBER, mirroring SRANDMEMBER's count rules.
func (e *Engine) ZRandMember(key string, count int, hasCount bool) ([]ZMember, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	members := append([]ZMember(nil), v.zset.ordered...)

	if !hasCount {
		if len(members) == 0 {
			return nil, nil
		}

		return []ZMember{members[e.rng.Intn(len(members))]}, nil
	}

	if count >= 0 {
		if count > len(members) {
			count = len(members)
		}

		e.rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })

		return members[:count], nil
	}

	n := -count
	out := make([]ZMember, n)

	for i := range out {
		out[i] = members[e.rng.Intn(len(members))]
	}

	return out, nil
}

// LexBound is a parsed ZRANGEBYLEX endpoint: "-"/"+" sentinels or a literal
// with inclusive/exclusive "[" / "(" framing.
type LexBound struct {
	value     string
	inclusive bool
	isMin     bool
	infinite  int // -1 = "-", +1 = "+", 0 = finite
}

func ParseLexBound(s string, isMin bool) (LexBound, *Error) {
	switch s {
	case "-":
		return LexBound{isMin: isMin, infinite: -1}, nil
	case "+":
		return LexBound{isMin: isMin, infinite: 1}, nil
	}

	if s == "" {
		return LexBound{}, newErr("ERR", "ERR min or max not valid string range item")
	}

	switch s[0] {
	case '[':
		return LexBound{value: s[1:], inclusive: true, isMin: isMin}, nil
	case '(':
		return LexBound{value: s[1:], inclusive: false, isMin: isMin}, nil
	default:
		return LexBound{}, newErr("ERR", "ERR min or max not valid string range item")
	}
}

func (b LexBound) satisfiesLower(member string) bool {
	if b.infinite == -1 {
		return true
	}

	if b.infinite == 1 {
		return false
	}

	if b.inclusive {
		return member >= b.value
	}

	return member > b.value
}

func (b LexBound) satisfiesUpper(member string) bool {
	if b.infinite == 1 {
		return true
	}

	if b.infinite == -1 {
		return false
	}

	if b.inclusive {
		return member <= b.value
	}

	return member < b.value
}

// ZRangeByLex implements ZRANGEBYLEX/ZREVRANGEBYLEX. Only meaningful when
// every member shares one score (spec.md §11 note), which this does not
// enforce — it simply orders by member within the existing (score,member)
// index.
func (e *Engine) ZRangeByLex(key string, min, max LexBound, rev bool, offset, count int, hasLimit bool) ([]ZMember, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	var matches []ZMember

	for _, m := range v.zset.ordered {
		if min.satisfiesLower(m.Member) && max.satisfiesUpper(m.Member) {
			matches = append(matches, m)
		}
	}

	if rev {
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
	}

	return applyLimit(matches, offset, count, hasLimit), nil
}

func (e *Engine) ZLexCount(key string, min, max LexBound) (int, *Error) {
	matches, err := e.ZRangeByLex(key, min, max, false, 0, 0, false)

	return len(matches), err
}

// ZRemRangeByScore/ByRank/ByLex implement the ZREMRANGEBY* family.
func (e *Engine) ZRemRangeByScore(key string, min, max float64, minExcl, maxExcl bool) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	return e.zsetRemoveWhere(key, v, func(m ZMember) bool {
		return scoreInRange(m.Score, min, max, minExcl, maxExcl)
	}), nil
}

func (e *Engine) ZRemRangeByRank(key string, start, end int) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	lo, hi, ok := clampRange(start, end, v.zset.len())
	if !ok {
		return 0, nil
	}

	idx := -1

	return e.zsetRemoveWhere(key, v, func(ZMember) bool {
		idx++

		return idx >= lo && idx <= hi
	}), nil
}

func (e *Engine) ZRemRangeByLex(key string, min, max LexBound) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindZSet)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	return e.zsetRemoveWhere(key, v, func(m ZMember) bool {
		return min.satisfiesLower(m.Member) && max.satisfiesUpper(m.Member)
	}), nil
}

// zsetRemoveWhere removes every member pred matches. Caller holds mu.
func (e *Engine) zsetRemoveWhere(key string, v *value, pred func(ZMember) bool) int {
	toRemove := make([]string, 0)

	for _, m := range v.zset.ordered {
		if pred(m) {
			toRemove = append(toRemove, m.Member)
		}
	}

	for _, m := range toRemove {
		v.zset.remove(m)
	}

	if v.zset.len() == 0 {
		delete(e.keys, key)
	}

	e.touchLocked(key)

	return len(toRemove)
}

// ZAggregate selects how ZUNIONSTORE/ZINTERSTORE combine duplicate scores.
type ZAggregate int

const (
	AggSum ZAggregate = iota
	AggMin
	AggMax
)

// ZStoreOpts carries ZUNIONSTORE/ZINTERSTORE's WEIGHTS/AGGREGATE modifiers.
type ZStoreOpts struct {
	Weights   []float64 // len 0 means all weights are 1
	Aggregate ZAggregate
}

func (o ZStoreOpts) weight(i int) float64 {
	if i < len(o.Weights) {
		return o.Weights[i]
	}

	return 1
}

func (o ZStoreOpts) combine(acc float64, had bool, score float64) float64 {
	if !had {
		return score
	}

	switch o.Aggregate {
	case AggMin:
		if score < acc {
			return score
		}

		return acc
	case AggMax:
		if score > acc {
			return score
		}

		return acc
	default:
		return acc + score
	}
}

// zsetSourceScores reads one source key of ZUNIONSTORE/ZINTERSTORE/ZDIFF as
// a member→score map; a plain set counts each member with score 1 (these
// commands accept both kinds). Caller holds mu.
func (e *Engine) zsetSourceScores(key string) (map[string]float64, bool, *Error) {
	v, ok := e.lookup(key)
	if !ok {
		return nil, false, nil
	}

	switch v.kind {
	case KindZSet:
		return v.zset.byMember, true, nil
	case KindSet:
		out := make(map[string]float64, len(v.set))
		for m := range v.set {
			out[m] = 1
		}

		return out, true, nil
	default:
		return nil, true, errWrongType()
	}
}

func (e *Engine) zsetCombineStore(dest string, keys []string, opts ZStoreOpts, union bool) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sources := make([]map[string]float64, len(keys))

	for i, k := range keys {
		scores, _, err := e.zsetSourceScores(k)
		if err != nil {
			return 0, err
		}

		sources[i] = scores
	}

	result := map[string]float64{}

	if union {
		for i, src := range sources {
			for m, s := range src {
				had := false
				var acc float64

				if existing, ok := result[m]; ok {
					acc, had = existing, true
				}

				result[m] = opts.combine(acc, had, s*opts.weight(i))
			}
		}
	} else {
		if len(sources) > 0 {
			for m, s := range sources[0] {
				result[m] = s * opts.weight(0)
			}
		}

		for i := 1; i < len(sources); i++ {
			next := map[string]float64{}

			for m, acc := range result {
				if s, ok := sources[i][m]; ok {
					next[m] = opts.combine(acc, true, s*opts.weight(i))
				}
			}

			result = next
		}
	}

	if len(result) == 0 {
		delete(e.keys, dest)
		e.touchLocked(dest)

		return 0, nil
	}

	zv := newZSetValue()
	for m, s := range result {
		zv.zset.upsert(m, s)
	}

	e.keys[dest] = zv
	e.touchLocked(dest)

	return zv.zset.len(), nil
}

func (e *Engine) ZUnionStore(dest string, keys []string, opts ZStoreOpts) (int, *Error) {
	return e.zsetCombineStore(dest, keys, opts, true)
}

func (e *Engine) ZInterStore(dest string, keys []string, opts ZStoreOpts) (int, *Error) {
	return e.zsetCombineStore(dest, keys, opts, false)
}

// ZDiff implements ZDIFF: members of keys[0] absent from every other key.
func (e *Engine) ZDiff(keys []string) ([]ZMember, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(keys) == 0 {
		return nil, nil
	}

	first, _, err := e.zsetSourceScores(keys[0])
	if err != nil {
		return nil, err
	}

	out := make([]ZMember, 0, len(first))

	for m, s := range first {
		excluded := false

		for _, k := range keys[1:] {
			other, _, oerr := e.zsetSourceScores(k)
			if oerr != nil {
				return nil, oerr
			}

			if _, ok := other[m]; ok {
				excluded = true

				break
			}
		}

		if !excluded {
			out = append(out, ZMember{Member: m, Score: s})
		}
	}

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })

	return out, nil
}

// ZDiffStore implements ZDIFFSTORE.
func (e *Engine) ZDiffStore(dest string, keys []string) (int, *Error) {
	members, err := e.ZDiff(keys)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(members) == 0 {
		delete(e.keys, dest)
		e.touchLocked(dest)

		return 0, nil
	}

	zv := newZSetValue()
	for _, m := range members {
		zv.zset.upsert(m.Member, m.Score)
	}

	e.keys[dest] = zv
	e.touchLocked(dest)

	return zv.zset.len(), nil
}
