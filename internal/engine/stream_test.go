package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mertssmnoglu/redisfx/internal/engine"
)

func TestStream_XAddAutoIDMonotone(t *testing.T) {
	t.Parallel()

	e := engine.New()

	id1, errv := e.XAdd("s", "*", [][2]string{{"f", "v1"}}, 0, false, nil)
	require.Nil(t, errv)

	id2, errv := e.XAdd("s", "*", [][2]string{{"f", "v2"}}, 0, false, nil)
	require.Nil(t, errv)

	assert.True(t, id2.Ms > id1.Ms || (id2.Ms == id1.Ms && id2.Seq > id1.Seq))

	n, errv := e.XLen("s")
	require.Nil(t, errv)
	assert.Equal(t, 2, n)
}

func TestStream_XAddExplicitIDMustIncrease(t *testing.T) {
	t.Parallel()

	e := engine.New()

	_, errv := e.XAdd("s", "5-1", nil, 0, false, nil)
	require.Nil(t, errv)

	_, errv = e.XAdd("s", "5-1", nil, 0, false, nil)
	require.NotNil(t, errv)
	assert.Equal(t, "ERR", errv.Code)

	_, errv = e.XAdd("s", "4-9", nil, 0, false, nil)
	require.NotNil(t, errv)
}

func TestStream_ConsumerGroupDeliversAndAcks(t *testing.T) {
	t.Parallel()

	e := engine.New()

	id, errv := e.XAdd("s", "1-1", [][2]string{{"f", "v"}}, 0, false, nil)
	require.Nil(t, errv)

	groupErr := e.XGroupCreate("s", "g", "0", false)
	require.Nil(t, groupErr)

	result, errv := e.XReadGroup("g", "c", []string{"s"}, []string{">"}, 0)
	require.Nil(t, errv)

	entries, ok := result["s"]
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)

	acked, errv := e.XAck("s", "g", []engine.StreamID{id})
	require.Nil(t, errv)
	assert.Equal(t, 1, acked)

	summary, errv := e.XPendingSummary("s", "g")
	require.Nil(t, errv)
	assert.Equal(t, 0, summary.Count)
}

func TestStream_XGroupCreateBusyGroup(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.XAdd("s", "1-1", nil, 0, false, nil)
	require.Nil(t, errv)

	require.Nil(t, e.XGroupCreate("s", "g", "0", false))

	err := e.XGroupCreate("s", "g", "0", false)
	require.NotNil(t, err)
	assert.Equal(t, "BUSYGROUP", err.Code)
}

func TestStream_XReadGroupNoGroup(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.XAdd("s", "1-1", nil, 0, false, nil)
	require.Nil(t, errv)

	_, err := e.XReadGroup("missing", "c", []string{"s"}, []string{">"}, 0)
	require.NotNil(t, err)
	assert.Equal(t, "NOGROUP", err.Code)
}

func TestStream_WrongTypeOnNonStreamKey(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, errv := e.LPush("s", engine.Left, []byte("x"))
	require.Nil(t, errv)

	_, errv = e.XAdd("s", "*", nil, 0, false, nil)
	require.NotNil(t, errv)
	assert.Equal(t, "WRONGTYPE", errv.Code)
}
