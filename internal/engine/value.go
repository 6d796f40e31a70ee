package engine

import "container/list"

// Kind tags the value container's active variant. spec.md §3: "a tagged
// variant: String(bytes), List(deque<bytes>), Set(set<bytes>),
// Hash(ordered-mapping<bytes,bytes>), SortedSet(zset), Stream(stream)".
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindList
	KindSet
	KindHash
	KindZSet
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindZSet:
		return "zset"
	case KindStream:
		return "stream"
	default:
		return "none"
	}
}

// value is the keyspace's value container: one live variant plus an
// optional absolute expiry. Only one of the typed fields is non-nil/valid
// at a time, selected by kind.
type value struct {
	kind Kind

	str    []byte
	list   *list.List // elements are []byte
	set    map[string]struct{}
	hash   *hashValue
	zset   *zsetValue
	stream *streamValue

	expireAt int64 // unix milliseconds; 0 means no expiry
}

func newStringValue(b []byte) *value {
	return &value{kind: KindString, str: b}
}

func newListValue() *value {
	return &value{kind: KindList, list: list.New()}
}

func newSetValue() *value {
	return &value{kind: KindSet, set: map[string]struct{}{}}
}

func newHashValue() *value {
	return &value{kind: KindHash, hash: newHash()}
}

func newZSetValue() *value {
	return &value{kind: KindZSet, zset: newZSet()}
}

func newStreamValue() *value {
	return &value{kind: KindStream, stream: newStream()}
}

func cloneList(l *list.List) *list.List {
	cp := list.New()

	for e := l.Front(); e != nil; e = e.Next() {
		b := e.Value.([]byte)
		cp.PushBack(append([]byte(nil), b...))
	}

	return cp
}
