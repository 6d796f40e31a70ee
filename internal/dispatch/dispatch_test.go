package dispatch_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mertssmnoglu/redisfx/internal/clientreg"
	"github.com/mertssmnoglu/redisfx/internal/dispatch"
	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

// newTestDispatcher wires a fresh engine and client registry exactly as
// internal/server does per connection, but without a socket.
func newTestDispatcher() (*dispatch.Dispatcher, *dispatch.Session) {
	d := dispatch.New(engine.New(), clientreg.New())
	sess := dispatch.NewSession(nil, func(string, []byte) {})

	return d, sess
}

// run encodes argv as a RESP array of bulk strings, dispatches it, and
// returns the raw reply bytes — the same round trip a real connection's
// read/handle/write loop performs.
func run(t *testing.T, d *dispatch.Dispatcher, sess *dispatch.Session, argv ...string) string {
	t.Helper()

	var req bytes.Buffer

	reqWriter := resp.NewWriter(&req)
	require.NoError(t, reqWriter.WriteArrayHeader(len(argv)))

	for _, a := range argv {
		require.NoError(t, reqWriter.WriteBulkStringFrom(a))
	}

	require.NoError(t, reqWriter.Flush())

	v, err := resp.NewReader(&req).ReadValue()
	require.NoError(t, err)

	var reply bytes.Buffer

	replyWriter := resp.NewWriter(&reply)
	require.NoError(t, d.Handle(sess, v, replyWriter))
	require.NoError(t, replyWriter.Flush())

	return reply.String()
}

// TestScenarios_Wire walks spec.md §8's literal end-to-end scenarios,
// checking the exact wire bytes each command produces.
func TestScenarios_Wire(t *testing.T) {
	t.Parallel()

	d, sess := newTestDispatcher()

	assert.Equal(t, "+OK\r\n", run(t, d, sess, "SET", "foo", "bar"))
	assert.Equal(t, "$3\r\nbar\r\n", run(t, d, sess, "GET", "foo"))
	assert.Equal(t, ":3\r\n", run(t, d, sess, "STRLEN", "foo"))

	assert.Equal(t, ":3\r\n", run(t, d, sess, "LPUSH", "mylist", "c", "b", "a"))
	assert.Equal(t, "*3\r\n$1\r\na\r\n$1\r\nb\r\n$1\r\nc\r\n", run(t, d, sess, "LRANGE", "mylist", "0", "-1"))

	assert.Equal(t, ":3\r\n", run(t, d, sess, "ZADD", "z", "1", "one", "2", "two", "3", "three"))
	assert.Equal(t, "*2\r\n$3\r\ntwo\r\n$5\r\nthree\r\n", run(t, d, sess, "ZRANGEBYSCORE", "z", "(1", "+inf"))

	assert.Equal(t, ":2\r\n", run(t, d, sess, "SADD", "s1", "a", "b"))
	assert.Equal(t, ":2\r\n", run(t, d, sess, "SADD", "s2", "b", "c"))
	assert.Equal(t, "*1\r\n$1\r\nb\r\n", run(t, d, sess, "SINTER", "s1", "s2"))

	assert.Equal(t, "$3\r\n1-1\r\n", run(t, d, sess, "XADD", "strm", "1-1", "f", "v"))
	assert.Equal(t, "+OK\r\n", run(t, d, sess, "XGROUP", "CREATE", "strm", "g", "0"))
	readReply := run(t, d, sess, "XREADGROUP", "GROUP", "g", "c", "STREAMS", "strm", ">")
	assert.Contains(t, readReply, "1-1")
	assert.Contains(t, readReply, "$1\r\nf\r\n$1\r\nv\r\n")
	assert.Equal(t, ":1\r\n", run(t, d, sess, "XACK", "strm", "g", "1-1"))
}

// TestWatchExec_AbortsOnConcurrentWrite exercises spec.md §8 scenario 5:
// a write to a watched key from another connection dirties the
// transaction and EXEC returns a nil array.
func TestWatchExec_AbortsOnConcurrentWrite(t *testing.T) {
	t.Parallel()

	d, sessA := newTestDispatcher()
	sessB := dispatch.NewSession(nil, func(string, []byte) {})

	assert.Equal(t, "+OK\r\n", run(t, d, sessA, "SET", "k", "v"))
	assert.Equal(t, "+OK\r\n", run(t, d, sessA, "WATCH", "k"))
	assert.Equal(t, "+OK\r\n", run(t, d, sessA, "MULTI"))
	assert.Equal(t, "+QUEUED\r\n", run(t, d, sessA, "SET", "k", "queued"))

	assert.Equal(t, "+OK\r\n", run(t, d, sessB, "SET", "k", "other"))

	assert.Equal(t, "*-1\r\n", run(t, d, sessA, "EXEC"))

	got, _, errv := d.Engine.Get("k")
	require.Nil(t, errv)
	assert.Equal(t, "other", string(got))
}

// TestMulti_QueuesAndReplaysInOrder checks that EXEC replays the queue
// in arrival order and returns one reply element per queued command,
// including an error element that does not abort the batch.
func TestMulti_QueuesAndReplaysInOrder(t *testing.T) {
	t.Parallel()

	d, sess := newTestDispatcher()

	run(t, d, sess, "LPUSH", "a", "x")

	assert.Equal(t, "+OK\r\n", run(t, d, sess, "MULTI"))
	assert.Equal(t, "+QUEUED\r\n", run(t, d, sess, "SET", "b", "1"))
	assert.Equal(t, "+QUEUED\r\n", run(t, d, sess, "GET", "a"))
	assert.Equal(t, "+QUEUED\r\n", run(t, d, sess, "INCR", "b"))

	reply := run(t, d, sess, "EXEC")
	assert.True(t, bytes.HasPrefix([]byte(reply), []byte("*3\r\n")))
	assert.Contains(t, reply, "+OK\r\n")
	assert.Contains(t, reply, "-WRONGTYPE")
	assert.Contains(t, reply, ":2\r\n")
}

func TestPubSub_DeliversThenStops(t *testing.T) {
	t.Parallel()

	e := engine.New()
	d := dispatch.New(e, clientreg.New())

	var delivered [][]byte
	sub := dispatch.NewSession(nil, func(_ string, payload []byte) {
		delivered = append(delivered, payload)
	})

	subAck := run(t, d, sub, "SUBSCRIBE", "news")
	assert.Contains(t, subAck, "subscribe")

	pub := dispatch.NewSession(nil, func(string, []byte) {})
	assert.Equal(t, ":1\r\n", run(t, d, pub, "PUBLISH", "news", "hello"))
	require.Len(t, delivered, 1)
	assert.Contains(t, string(delivered[0]), "hello")

	run(t, d, sub, "UNSUBSCRIBE", "news")
	assert.Equal(t, ":0\r\n", run(t, d, pub, "PUBLISH", "news", "again"))
	assert.Len(t, delivered, 1)
}

func TestBZPopMin_ImmediateProbe(t *testing.T) {
	t.Parallel()

	d, sess := newTestDispatcher()

	assert.Equal(t, "*-1\r\n", run(t, d, sess, "BZPOPMIN", "zk", "0"))

	run(t, d, sess, "ZADD", "zk", "1", "a", "2", "b")
	reply := run(t, d, sess, "BZPOPMIN", "zk", "0")
	assert.Equal(t, "*3\r\n$2\r\nzk\r\n$1\r\na\r\n$1\r\n1\r\n", reply)
}

func TestZAdd_RejectsNaNScore(t *testing.T) {
	t.Parallel()

	d, sess := newTestDispatcher()

	reply := run(t, d, sess, "ZADD", "z", "nan", "m")
	assert.Equal(t, "-ERR value is not a valid float\r\n", reply)

	reply = run(t, d, sess, "ZADD", "z", "+inf", "m")
	assert.Equal(t, ":1\r\n", reply)

	reply = run(t, d, sess, "ZINCRBY", "z", "-inf", "m")
	assert.Equal(t, "-ERR resulting score is not a number (NaN)\r\n", reply)
}

func TestZScore_EmitsLiteralInf(t *testing.T) {
	t.Parallel()

	d, sess := newTestDispatcher()

	run(t, d, sess, "ZADD", "z", "+inf", "m", "-inf", "n")
	assert.Equal(t, "$3\r\ninf\r\n", run(t, d, sess, "ZSCORE", "z", "m"))
	assert.Equal(t, "$4\r\n-inf\r\n", run(t, d, sess, "ZSCORE", "z", "n"))
}

func TestEval_RejectsWithNoScript(t *testing.T) {
	t.Parallel()

	d, sess := newTestDispatcher()

	reply := run(t, d, sess, "EVAL", "return 1", "0")
	assert.True(t, bytes.HasPrefix([]byte(reply), []byte("-NOSCRIPT")))
}
