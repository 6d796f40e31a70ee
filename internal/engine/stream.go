package engine

import (
	"sort"
	"time"
)

// StreamEntry is immutable once appended (spec.md §3).
type StreamEntry struct {
	ID     StreamID
	Fields [][2]string
}

// pelEntry is one Pending Entries List row: an entry delivered to a
// consumer but not yet acknowledged.
type pelEntry struct {
	id            StreamID
	consumer      string
	deliveryTime  int64
	deliveryCount int64
}

type streamConsumer struct {
	name     string
	seenTime int64
}

// streamGroup is a named cursor over the stream (spec.md §3's "Consumer
// group" entity): a last-delivered offset, a consumers table, and a PEL.
type streamGroup struct {
	name          string
	lastDelivered StreamID
	consumers     map[string]*streamConsumer
	pel           map[StreamID]*pelEntry
}

func newStreamGroup(name string, lastDelivered StreamID) *streamGroup {
	return &streamGroup{
		name:          name,
		lastDelivered: lastDelivered,
		consumers:     map[string]*streamConsumer{},
		pel:           map[StreamID]*pelEntry{},
	}
}

func (g *streamGroup) consumer(name string) *streamConsumer {
	c, ok := g.consumers[name]
	if !ok {
		c = &streamConsumer{name: name, seenTime: time.Now().UnixMilli()}
		g.consumers[name] = c
	}

	c.seenTime = time.Now().UnixMilli()

	return c
}

// streamValue is the append-only entry log plus the groups table (spec.md
// §3's Stream entity).
type streamValue struct {
	entries      []StreamEntry
	lastID       StreamID
	maxDeletedID StreamID
	groups       map[string]*streamGroup
}

func newStream() *streamValue {
	return &streamValue{groups: map[string]*streamGroup{}}
}

// nextAutoID implements invariant 3 from spec.md §3: ms = max(now, last.ms),
// seq = last.seq+1 when ms==last.ms, else 0.
func (s *streamValue) nextAutoID(nowMs int64) StreamID {
	ms := uint64(nowMs)
	if ms < s.lastID.Ms {
		ms = s.lastID.Ms
	}

	if ms == s.lastID.Ms {
		return StreamID{Ms: ms, Seq: s.lastID.Seq + 1}
	}

	return StreamID{Ms: ms, Seq: 0}
}

func (s *streamValue) append(id StreamID, fields [][2]string) {
	s.entries = append(s.entries, StreamEntry{ID: id, Fields: fields})
	s.lastID = id
}

// indexAfter returns the index of the first entry with ID > after, or
// len(entries) if none.
func (s *streamValue) indexAfter(after StreamID) int {
	lo, hi := 0, len(s.entries)

	for lo < hi {
		mid := (lo + hi) / 2
		if s.entries[mid].ID.less(after) || s.entries[mid].ID.equal(after) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}

// indexAtOrAfter returns the index of the first entry with ID >= from.
func (s *streamValue) indexAtOrAfter(from StreamID) int {
	lo, hi := 0, len(s.entries)

	for lo < hi {
		mid := (lo + hi) / 2
		if s.entries[mid].ID.less(from) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}

func (s *streamValue) trimToMaxLen(maxLen int) int {
	if len(s.entries) <= maxLen {
		return 0
	}

	removed := len(s.entries) - maxLen
	if s.maxDeletedID.less(s.entries[removed-1].ID) {
		s.maxDeletedID = s.entries[removed-1].ID
	}

	s.entries = s.entries[removed:]

	return removed
}

func (s *streamValue) trimToMinID(minID StreamID) int {
	idx := s.indexAtOrAfter(minID)
	if idx == 0 {
		return 0
	}

	if s.maxDeletedID.less(s.entries[idx-1].ID) {
		s.maxDeletedID = s.entries[idx-1].ID
	}

	s.entries = s.entries[idx:]

	return idx
}

func (s *streamValue) deleteID(id StreamID) bool {
	for i, e := range s.entries {
		if e.ID.equal(id) {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)

			if s.maxDeletedID.less(id) {
				s.maxDeletedID = id
			}

			return true
		}
	}

	return false
}

func (s *streamValue) entryAt(id StreamID) (StreamEntry, bool) {
	idx := s.indexAtOrAfter(id)
	if idx < len(s.entries) && s.entries[idx].ID.equal(id) {
		return s.entries[idx], true
	}

	return StreamEntry{}, false
}

// XAdd implements XADD. id=="*" triggers auto-ID assignment; an explicit
// id must be strictly greater than the current last ID (spec.md §4.7).
func (e *Engine) XAdd(key, id string, fields [][2]string, maxLen int, hasMaxLen bool, minID *StreamID) (StreamID, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return StreamID{}, wrongType
	}

	if !exists {
		v = newStreamValue()
		e.keys[key] = v
	}

	var newID StreamID

	if id == "*" {
		newID = v.stream.nextAutoID(nowMs())
	} else {
		parsed, err := ParseStreamID(id)
		if err != nil {
			return StreamID{}, newErr("ERR", err.Error())
		}

		if !v.stream.lastID.less(parsed) {
			return StreamID{}, newErr("ERR", "ERR The ID specified in XADD is equal or smaller than the target stream top item")
		}

		newID = parsed
	}

	v.stream.append(newID, fields)

	if hasMaxLen {
		v.stream.trimToMaxLen(maxLen)
	}

	if minID != nil {
		v.stream.trimToMinID(*minID)
	}

	e.touchLocked(key)

	return newID, nil
}

func (e *Engine) XLen(key string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	return len(v.stream.entries), nil
}

// XRange implements XRANGE/XREVRANGE, optionally capped by count (0 = no
// cap).
func (e *Engine) XRange(key string, start, end StreamID, rev bool, count int) ([]StreamEntry, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, nil
	}

	lo := v.stream.indexAtOrAfter(start)
	hi := v.stream.indexAfter(end)

	if lo >= hi {
		return []StreamEntry{}, nil
	}

	matches := append([]StreamEntry(nil), v.stream.entries[lo:hi]...)

	if rev {
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
	}

	if count > 0 && len(matches) > count {
		matches = matches[:count]
	}

	return matches, nil
}

// XDel implements XDEL, marking the deleted IDs in maxDeletedID bookkeeping.
func (e *Engine) XDel(key string, ids []StreamID) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	removed := 0

	for _, id := range ids {
		if v.stream.deleteID(id) {
			removed++
		}
	}

	if removed == 0 {
		return 0, nil
	}

	e.touchLocked(key)

	return removed, nil
}

// XTrim implements XTRIM (MAXLEN or MINID form).
func (e *Engine) XTrim(key string, maxLen int, hasMaxLen bool, minID StreamID, hasMinID bool) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return 0, wrongType
	}

	if !exists {
		return 0, nil
	}

	var removed int

	if hasMaxLen {
		removed = v.stream.trimToMaxLen(maxLen)
	} else if hasMinID {
		removed = v.stream.trimToMinID(minID)
	}

	e.touchLocked(key)

	return removed, nil
}

// XSetID implements XSETID, forcing the stream's last-ID cursor (and,
// implicitly, future auto-IDs).
func (e *Engine) XSetID(key string, id StreamID) *Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return wrongType
	}

	if !exists {
		v = newStreamValue()
		e.keys[key] = v
	}

	v.stream.lastID = id
	e.touchLocked(key)

	return nil
}

// XGroupCreate implements XGROUP CREATE. mkstream creates the stream if
// absent instead of erroring.
func (e *Engine) XGroupCreate(key, group, start string, mkstream bool) *Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return wrongType
	}

	if !exists {
		if !mkstream {
			return newErr("ERR", "ERR The XGROUP subcommand requires the key to exist. Note that for CREATE you may want to use the MKSTREAM option to create an empty stream automatically.")
		}

		v = newStreamValue()
		e.keys[key] = v
	}

	if _, ok := v.stream.groups[group]; ok {
		return newErr("BUSYGROUP", "BUSYGROUP Consumer Group name already exists")
	}

	var last StreamID

	switch start {
	case "$":
		last = v.stream.lastID
	case "0":
		last = streamIDMin
	default:
		parsed, err := ParseStreamID(start)
		if err != nil {
			return newErr("ERR", err.Error())
		}

		last = parsed
	}

	v.stream.groups[group] = newStreamGroup(group, last)

	return nil
}

func (e *Engine) XGroupDestroy(key, group string) (bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return false, wrongType
	}

	if !exists {
		return false, nil
	}

	if _, ok := v.stream.groups[group]; !ok {
		return false, nil
	}

	delete(v.stream.groups, group)

	return true, nil
}

func (e *Engine) XGroupSetID(key, group, start string) *Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return wrongType
	}

	if !exists {
		return newErr("ERR", "ERR no such key")
	}

	g, ok := v.stream.groups[group]
	if !ok {
		return newErr("NOGROUP", "NOGROUP No such consumer group")
	}

	switch start {
	case "$":
		g.lastDelivered = v.stream.lastID
	case "0":
		g.lastDelivered = streamIDMin
	default:
		parsed, err := ParseStreamID(start)
		if err != nil {
			return newErr("ERR", err.Error())
		}

		g.lastDelivered = parsed
	}

	return nil
}

// XGroupCreateConsumer / XGroupDelConsumer implement the matching XGROUP
// subcommands.
func (e *Engine) XGroupCreateConsumer(key, group, consumer string) (bool, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.group(key, group)
	if err != nil {
		return false, err
	}

	_, existed := g.consumers[consumer]
	g.consumer(consumer)

	return !existed, nil
}

func (e *Engine) XGroupDelConsumer(key, group, consumer string) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.group(key, group)
	if err != nil {
		return 0, err
	}

	pending := 0

	for id, p := range g.pel {
		if p.consumer == consumer {
			pending++
			delete(g.pel, id)
		}
	}

	delete(g.consumers, consumer)

	return pending, nil
}

// group fetches a stream's consumer group, raising NOGROUP/no-such-key as
// XREADGROUP etc. require. Caller holds mu.
func (e *Engine) group(key, group string) (*streamGroup, *Error) {
	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, newErr("NOGROUP", "NOGROUP No such key '"+key+"' or consumer group '"+group+"' in XREADGROUP with GROUP option")
	}

	g, ok := v.stream.groups[group]
	if !ok {
		return nil, newErr("NOGROUP", "NOGROUP No such key '"+key+"' or consumer group '"+group+"' in XREADGROUP with GROUP option")
	}

	return g, nil
}

// XRead implements XREAD across one or more streams: for each key, every
// entry with ID strictly greater than afterIDs[i]. Blocking (BLOCK) always
// degrades to an immediate, possibly-empty read (spec.md §5's "pseudo
// blocking" rule).
func (e *Engine) XRead(keys []string, afterIDs []StreamID, count int) (map[string][]StreamEntry, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := map[string][]StreamEntry{}

	for i, key := range keys {
		v, exists, wrongType := e.lookupKind(key, KindStream)
		if wrongType != nil {
			return nil, wrongType
		}

		if !exists {
			continue
		}

		idx := v.stream.indexAfter(afterIDs[i])
		entries := v.stream.entries[idx:]

		if count > 0 && len(entries) > count {
			entries = entries[:count]
		}

		if len(entries) > 0 {
			out[key] = append([]StreamEntry(nil), entries...)
		}
	}

	return out, nil
}

// XReadGroup implements XREADGROUP. id=">" reads undelivered entries and
// records them in the PEL; any other ID replays that consumer's own PEL
// from that point (the "history" form).
func (e *Engine) XReadGroup(group, consumer string, keys []string, ids []string, count int) (map[string][]StreamEntry, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := map[string][]StreamEntry{}

	for i, key := range keys {
		g, err := e.group(key, group)
		if err != nil {
			return nil, err
		}

		v, _ := e.lookup(key)
		g.consumer(consumer)

		var entries []StreamEntry

		if ids[i] == ">" {
			idx := v.stream.indexAfter(g.lastDelivered)
			pending := v.stream.entries[idx:]

			if count > 0 && len(pending) > count {
				pending = pending[:count]
			}

			for _, e2 := range pending {
				g.pel[e2.ID] = &pelEntry{id: e2.ID, consumer: consumer, deliveryTime: nowMs(), deliveryCount: 1}
				g.lastDelivered = e2.ID
			}

			entries = pending
		} else {
			from, perr := ParseStreamID(ids[i])
			if perr != nil {
				return nil, newErr("ERR", perr.Error())
			}

			for id, p := range g.pel {
				if p.consumer == consumer && !id.less(from) {
					if entry, ok := v.stream.entryAt(id); ok {
						entries = append(entries, entry)
					}
				}
			}

			sort.Slice(entries, func(a, b int) bool { return entries[a].ID.less(entries[b].ID) })
		}

		if len(entries) > 0 {
			out[key] = append([]StreamEntry(nil), entries...)
		}
	}

	return out, nil
}

// XAck implements XACK.
func (e *Engine) XAck(key, group string, ids []StreamID) (int, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.group(key, group)
	if err != nil {
		return 0, err
	}

	acked := 0

	for _, id := range ids {
		if _, ok := g.pel[id]; ok {
			delete(g.pel, id)
			acked++
		}
	}

	return acked, nil
}

// XClaim implements XCLAIM: reassigns the listed pending IDs to consumer
// if their idle time is at least minIdleMs.
func (e *Engine) XClaim(key, group, consumer string, ids []StreamID, minIdleMs int64) ([]StreamEntry, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.group(key, group)
	if err != nil {
		return nil, err
	}

	v, _ := e.lookup(key)

	var claimed []StreamEntry

	now := nowMs()

	for _, id := range ids {
		p, ok := g.pel[id]
		if !ok {
			continue
		}

		if now-p.deliveryTime < minIdleMs {
			continue
		}

		entry, exists := v.stream.entryAt(id)
		if !exists {
			delete(g.pel, id)

			continue
		}

		p.consumer = consumer
		p.deliveryTime = now
		p.deliveryCount++
		g.consumer(consumer)

		claimed = append(claimed, entry)
	}

	return claimed, nil
}

// XAutoClaim implements XAUTOCLAIM: like XCLAIM but scans the PEL starting
// at a cursor ID instead of an explicit ID list, returning the next
// cursor to resume from (streamIDMin once exhausted).
func (e *Engine) XAutoClaim(key, group, consumer string, start StreamID, minIdleMs int64, count int) ([]StreamEntry, []StreamID, StreamID, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.group(key, group)
	if err != nil {
		return nil, nil, StreamID{}, err
	}

	v, _ := e.lookup(key)

	var pelIDs []StreamID
	for id := range g.pel {
		if !id.less(start) {
			pelIDs = append(pelIDs, id)
		}
	}

	sort.Slice(pelIDs, func(i, j int) bool { return pelIDs[i].less(pelIDs[j]) })

	var claimed []StreamEntry

	var deletedIDs []StreamID

	now := nowMs()
	next := streamIDMin

	for i, id := range pelIDs {
		if len(claimed) >= count {
			next = pelIDs[i]

			break
		}

		p := g.pel[id]
		if now-p.deliveryTime < minIdleMs {
			continue
		}

		entry, exists := v.stream.entryAt(id)
		if !exists {
			delete(g.pel, id)
			deletedIDs = append(deletedIDs, id)

			continue
		}

		p.consumer = consumer
		p.deliveryTime = now
		p.deliveryCount++
		g.consumer(consumer)

		claimed = append(claimed, entry)
	}

	return claimed, deletedIDs, next, nil
}

// PendingSummary is XPENDING's summary form: count, min/max ID, and a
// per-consumer tally.
type PendingSummary struct {
	Count      int
	MinID      StreamID
	MaxID      StreamID
	PerConsumer map[string]int
}

// XPendingSummary implements bare "XPENDING key group".
func (e *Engine) XPendingSummary(key, group string) (PendingSummary, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.group(key, group)
	if err != nil {
		return PendingSummary{}, err
	}

	summary := PendingSummary{PerConsumer: map[string]int{}}

	first := true

	for id, p := range g.pel {
		summary.Count++
		summary.PerConsumer[p.consumer]++

		if first || id.less(summary.MinID) {
			summary.MinID = id
		}

		if first || summary.MaxID.less(id) {
			summary.MaxID = id
		}

		first = false
	}

	return summary, nil
}

// PendingDetail is one row of XPENDING's extended form.
type PendingDetail struct {
	ID            StreamID
	Consumer      string
	IdleMs        int64
	DeliveryCount int64
}

// XPendingDetail implements "XPENDING key group start end count [consumer]".
func (e *Engine) XPendingDetail(key, group string, start, end StreamID, count int, consumer string, hasConsumer bool) ([]PendingDetail, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.group(key, group)
	if err != nil {
		return nil, err
	}

	var out []PendingDetail

	now := nowMs()

	for id, p := range g.pel {
		if id.less(start) || end.less(id) {
			continue
		}

		if hasConsumer && p.consumer != consumer {
			continue
		}

		out = append(out, PendingDetail{ID: id, Consumer: p.consumer, IdleMs: now - p.deliveryTime, DeliveryCount: p.deliveryCount})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID.less(out[j].ID) })

	if count > 0 && len(out) > count {
		out = out[:count]
	}

	return out, nil
}

// StreamInfo is XINFO STREAM's payload.
type StreamInfo struct {
	Length       int
	LastID       StreamID
	MaxDeletedID StreamID
	FirstEntry   *StreamEntry
	LastEntry    *StreamEntry
}

func (e *Engine) XInfoStream(key string) (StreamInfo, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return StreamInfo{}, wrongType
	}

	if !exists {
		return StreamInfo{}, newErr("ERR", "ERR no such key")
	}

	info := StreamInfo{Length: len(v.stream.entries), LastID: v.stream.lastID, MaxDeletedID: v.stream.maxDeletedID}

	if len(v.stream.entries) > 0 {
		first := v.stream.entries[0]
		last := v.stream.entries[len(v.stream.entries)-1]
		info.FirstEntry = &first
		info.LastEntry = &last
	}

	return info, nil
}

// GroupInfo is one row of XINFO GROUPS.
type GroupInfo struct {
	Name          string
	Consumers     int
	Pending       int
	LastDelivered StreamID
}

func (e *Engine) XInfoGroups(key string) ([]GroupInfo, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists, wrongType := e.lookupKind(key, KindStream)
	if wrongType != nil {
		return nil, wrongType
	}

	if !exists {
		return nil, newErr("ERR", "ERR no such key")
	}

	out := make([]GroupInfo, 0, len(v.stream.groups))

	for _, g := range v.stream.groups {
		out = append(out, GroupInfo{Name: g.name, Consumers: len(g.consumers), Pending: len(g.pel), LastDelivered: g.lastDelivered})
	}

	return out, nil
}

// ConsumerInfo is one row of XINFO CONSUMERS.
type ConsumerInfo struct {
	Name    string
	Pending int
	IdleMs  int64
}

func (e *Engine) XInfoConsumers(key, group string) ([]ConsumerInfo, *Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.group(key, group)
	if err != nil {
		return nil, err
	}

	now := nowMs()
	pendingByConsumer := map[string]int{}

	for _, p := range g.pel {
		pendingByConsumer[p.consumer]++
	}

	out := make([]ConsumerInfo, 0, len(g.consumers))

	for _, c := range g.consumers {
		out = append(out, ConsumerInfo{Name: c.name, Pending: pendingByConsumer[c.name], IdleMs: now - c.seenTime})
	}

	return out, nil
}
