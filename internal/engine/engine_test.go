package engine_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mertssmnoglu/redisfx/internal/engine"
)

func TestStrings_SetGetAppend(t *testing.T) {
	t.Parallel()

	e := engine.New()

	res, errv := e.Set("foo", []byte("bar"), engine.SetOpts{})
	require.Nil(t, errv)
	assert.True(t, res.Applied)

	got, ok, errv := e.Get("foo")
	require.Nil(t, errv)
	require.True(t, ok)
	assert.Equal(t, "bar", string(got))

	n, errv := e.Append("foo", []byte("baz"))
	require.Nil(t, errv)
	assert.Equal(t, 6, n)

	got, _, _ = e.Get("foo")
	assert.Equal(t, "barbaz", string(got))
}

func TestStrings_SetNXXX(t *testing.T) {
	t.Parallel()

	e := engine.New()

	res, errv := e.Set("k", []byte("v1"), engine.SetOpts{Flag: engine.SetXX})
	require.Nil(t, errv)
	assert.False(t, res.Applied)

	res, errv = e.Set("k", []byte("v1"), engine.SetOpts{Flag: engine.SetNX})
	require.Nil(t, errv)
	assert.True(t, res.Applied)

	res, errv = e.Set("k", []byte("v2"), engine.SetOpts{Flag: engine.SetNX})
	require.Nil(t, errv)
	assert.False(t, res.Applied)

	got, _, _ := e.Get("k")
	assert.Equal(t, "v1", string(got))
}

func TestStrings_IncrOverflow(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.Set("n", []byte("9223372036854775807"), engine.SetOpts{})
	require.Nil(t, errv)

	_, errv = e.IncrBy("n", 1)
	require.NotNil(t, errv)
	assert.Equal(t, "ERR", errv.Code)

	got, _, _ := e.Get("n")
	assert.Equal(t, "9223372036854775807", string(got))
}

func TestStrings_WrongType(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.LPush("l", engine.Left, []byte("a"))
	require.Nil(t, errv)

	_, _, errv = e.Get("l")
	require.NotNil(t, errv)
	assert.Equal(t, "WRONGTYPE", errv.Code)
}

func TestList_PushRange(t *testing.T) {
	t.Parallel()

	e := engine.New()

	n, errv := e.LPush("mylist", engine.Left, []byte("c"), []byte("b"), []byte("a"))
	require.Nil(t, errv)
	assert.Equal(t, 3, n)

	vals, errv := e.LRange("mylist", 0, -1)
	require.Nil(t, errv)
	require.Len(t, vals, 3)
	assert.Equal(t, []string{"a", "b", "c"}, toStrings(vals))
}

func TestList_PopEmptiesKey(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.LPush("l", engine.Left, []byte("only"))
	require.Nil(t, errv)

	vals, errv := e.LPop("l", engine.Left, 1, true)
	require.Nil(t, errv)
	assert.Equal(t, []string{"only"}, toStrings(vals))

	assert.Equal(t, engine.KindNone, e.Type("l"))
}

func TestList_PopZeroCountReturnsEmptyNotNil(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.LPush("l", engine.Left, []byte("a"))
	require.Nil(t, errv)

	vals, errv := e.LPop("l", engine.Left, 0, true)
	require.Nil(t, errv)
	assert.NotNil(t, vals)
	assert.Len(t, vals, 0)
}

func TestSet_AlgebraicOps(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.SAdd("s1", "a", "b")
	require.Nil(t, errv)
	_, errv = e.SAdd("s2", "b", "c")
	require.Nil(t, errv)

	members, errv := e.SCombine(engine.SetOpInter, "s1", "s2")
	require.Nil(t, errv)
	assert.Equal(t, []string{"b"}, members)
}

func TestSet_SMoveAtomicity(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.SAdd("src", "x")
	require.Nil(t, errv)

	moved, errv := e.SMove("src", "dst", "x")
	require.Nil(t, errv)
	assert.True(t, moved)
	assert.Equal(t, engine.KindNone, e.Type("src"))

	isMember, errv := e.SIsMember("dst", "x")
	require.Nil(t, errv)
	assert.True(t, isMember)
}

func TestHash_SetGetDel(t *testing.T) {
	t.Parallel()

	e := engine.New()
	n, errv := e.HSet("h", map[string][]byte{"f": []byte("v")})
	require.Nil(t, errv)
	assert.Equal(t, 1, n)

	got, ok, errv := e.HGet("h", "f")
	require.Nil(t, errv)
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	removed, errv := e.HDel("h", "f")
	require.Nil(t, errv)
	assert.Equal(t, 1, removed)

	exists, errv := e.HExists("h", "f")
	require.Nil(t, errv)
	assert.False(t, exists)

	assert.Equal(t, engine.KindNone, e.Type("h"))
}

func TestZSet_AddXXThenScore(t *testing.T) {
	t.Parallel()

	e := engine.New()
	res, errv := e.ZAdd("z", engine.ZAddOpts{}, []engine.ZMember{{Member: "m", Score: 1}})
	require.Nil(t, errv)
	assert.Equal(t, 1, res.Added)

	_, errv = e.ZAdd("z", engine.ZAddOpts{XX: true}, []engine.ZMember{{Member: "m", Score: 2}})
	require.Nil(t, errv)

	score, ok, errv := e.ZScore("z", "m")
	require.Nil(t, errv)
	require.True(t, ok)
	assert.InDelta(t, 2.0, score, 0)
}

func TestZSet_RankOrder(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.ZAdd("z", engine.ZAddOpts{}, []engine.ZMember{
		{Member: "one", Score: 1},
		{Member: "two", Score: 2},
		{Member: "three", Score: 3},
	})
	require.Nil(t, errv)

	members, errv := e.ZRangeByScore("z", 1, math.Inf(1), true, false, false, 0, -1, false)
	require.Nil(t, errv)
	require.Len(t, members, 2)
	assert.Equal(t, "two", members[0].Member)
	assert.Equal(t, "three", members[1].Member)
}

func TestZSet_RejectsNaNScore(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.ZAdd("z", engine.ZAddOpts{}, []engine.ZMember{{Member: "m", Score: math.NaN()}})
	require.NotNil(t, errv)
	assert.Equal(t, "ERR", errv.Code)

	_, ok, errv := e.ZScore("z", "m")
	require.Nil(t, errv)
	assert.False(t, ok)
}

func TestZSet_IncrByRejectsNaNResult(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.ZAdd("z", engine.ZAddOpts{}, []engine.ZMember{{Member: "m", Score: math.Inf(1)}})
	require.Nil(t, errv)

	_, errv = e.ZIncrBy("z", math.Inf(-1), "m")
	require.NotNil(t, errv)
	assert.Equal(t, "ERR", errv.Code)

	score, _, errv := e.ZScore("z", "m")
	require.Nil(t, errv)
	assert.True(t, math.IsInf(score, 1))
}

func TestStrings_IncrByFloatRejectsInfiniteResult(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.Set("f", []byte("1"), engine.SetOpts{})
	require.Nil(t, errv)

	_, errv = e.IncrByFloat("f", math.Inf(1))
	require.NotNil(t, errv)
	assert.Equal(t, "ERR", errv.Code)

	got, _, _ := e.Get("f")
	assert.Equal(t, "1", string(got))
}

func TestHash_HDelNoOpDoesNotDirtyWatchers(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.HSet("h", map[string][]byte{"f": []byte("v")})
	require.Nil(t, errv)

	tx := engine.NewTxState()
	e.Watch(tx, "h")

	n, errv := e.HDel("h", "absent")
	require.Nil(t, errv)
	assert.Equal(t, 0, n)
	assert.False(t, tx.Dirty())

	n, errv = e.HDel("h", "f")
	require.Nil(t, errv)
	assert.Equal(t, 1, n)
	assert.True(t, tx.Dirty())
}

func TestExpiry_LazyReap(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.Set("k", []byte("v"), engine.SetOpts{})
	require.Nil(t, errv)

	ok, err := e.PExpireAt("k", 1, engine.ExpireAlways) // 1ms epoch, long past
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, errv := e.Get("k")
	require.Nil(t, errv)
	assert.False(t, found)

	assert.Equal(t, engine.KindNone, e.Type("k"))
}

func TestExpiry_PersistAndTTL(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.Set("k", []byte("v"), engine.SetOpts{})
	require.Nil(t, errv)

	assert.Equal(t, int64(-1), e.TTL("k"))

	_, err := e.PExpireAt("k", time.Now().Add(100*time.Second).UnixMilli(), engine.ExpireAlways)
	require.NoError(t, err)
	assert.Greater(t, e.TTL("k"), int64(0))

	persisted, err := e.Persist("k")
	require.NoError(t, err)
	assert.True(t, persisted)
	assert.Equal(t, int64(-1), e.TTL("k"))
}

func TestTransaction_WatchDirtyOnMutation(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.Set("k", []byte("v"), engine.SetOpts{})
	require.Nil(t, errv)

	tx := engine.NewTxState()
	e.Watch(tx, "k")
	assert.False(t, tx.Dirty())

	_, errv = e.Set("k", []byte("other"), engine.SetOpts{})
	require.Nil(t, errv)

	assert.True(t, tx.Dirty())
}

func TestTransaction_UnwatchClearsDirty(t *testing.T) {
	t.Parallel()

	e := engine.New()
	tx := engine.NewTxState()
	e.Watch(tx, "k")

	_, errv := e.Set("k", []byte("v"), engine.SetOpts{})
	require.Nil(t, errv)
	require.True(t, tx.Dirty())

	e.Unwatch(tx)
	assert.False(t, tx.Dirty())
}

func TestPubSub_PublishDeliversToSubscriber(t *testing.T) {
	t.Parallel()

	e := engine.New()
	delivered := 0
	sub := engine.NewSubscriber(func(_ string, _ []byte) { delivered++ })
	e.Subscribe(sub, "chan")

	count := e.Publish("chan", []byte("hello"))
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, delivered)

	e.Unsubscribe(sub, "chan")
	count = e.Publish("chan", []byte("again"))
	assert.Equal(t, 0, count)
}

func TestDump_RestoreRoundTrip(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.Set("k", []byte("hello"), engine.SetOpts{})
	require.Nil(t, errv)

	payload, ok := e.Dump("k")
	require.True(t, ok)

	e.Del("k2")
	restoreErr := e.Restore("k2", payload, 0, false)
	require.Nil(t, restoreErr)

	got, found, errv := e.Get("k2")
	require.Nil(t, errv)
	require.True(t, found)
	assert.Equal(t, "hello", string(got))
}

func TestDump_RestoreBadChecksum(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.Set("k", []byte("hello"), engine.SetOpts{})
	require.Nil(t, errv)

	payload, ok := e.Dump("k")
	require.True(t, ok)

	corrupted := append([]byte(nil), payload...)
	corrupted[len(corrupted)-1] ^= 0xFF

	restoreErr := e.Restore("k3", corrupted, 0, false)
	require.NotNil(t, restoreErr)
	assert.Equal(t, "ERR", restoreErr.Code)
}

func TestDump_RestoreBusyKeyWithoutReplace(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.Set("k", []byte("hello"), engine.SetOpts{})
	require.Nil(t, errv)

	payload, ok := e.Dump("k")
	require.True(t, ok)

	_, errv = e.Set("k2", []byte("exists"), engine.SetOpts{})
	require.Nil(t, errv)

	restoreErr := e.Restore("k2", payload, 0, false)
	require.NotNil(t, restoreErr)
	assert.Equal(t, "BUSYKEY", restoreErr.Code)
}

func toStrings(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}

	return out
}
