package resp_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mertssmnoglu/redisfx/internal/resp"
)

func TestReader_ReadValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		wire string
		want resp.Value
	}{
		{
			name: "simple string",
			wire: "+OK\r\n",
			want: resp.Value{Type: resp.TypeSimpleString, Str: "OK"},
		},
		{
			name: "error",
			wire: "-ERR bad\r\n",
			want: resp.Value{Type: resp.TypeError, Str: "ERR bad"},
		},
		{
			name: "integer",
			wire: ":1000\r\n",
			want: resp.Value{Type: resp.TypeInteger, Int: 1000},
		},
		{
			name: "bulk string",
			wire: "$5\r\nhello\r\n",
			want: resp.Value{Type: resp.TypeBulkString, Bulk: []byte("hello")},
		},
		{
			name: "empty bulk string",
			wire: "$0\r\n\r\n",
			want: resp.Value{Type: resp.TypeBulkString, Bulk: []byte{}},
		},
		{
			name: "null bulk string",
			wire: "$-1\r\n",
			want: resp.Value{Type: resp.TypeBulkString, Null: true},
		},
		{
			name: "null array",
			wire: "*-1\r\n",
			want: resp.Value{Type: resp.TypeArray, Null: true},
		},
		{
			name: "empty array",
			wire: "*0\r\n",
			want: resp.Value{Type: resp.TypeArray, Array: []resp.Value{}},
		},
		{
			name: "array of bulk strings",
			wire: "*2\r\n$3\r\nSET\r\n$1\r\nx\r\n",
			want: resp.Value{Type: resp.TypeArray, Array: []resp.Value{
				{Type: resp.TypeBulkString, Bulk: []byte("SET")},
				{Type: resp.TypeBulkString, Bulk: []byte("x")},
			}},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rd := resp.NewReader(bytes.NewBufferString(tt.wire))

			got, err := rd.ReadValue()
			require.NoError(t, err)
			assert.Equal(t, tt.want.Type, got.Type)
			assert.Equal(t, tt.want.Null, got.Null)
			assert.Equal(t, tt.want.Str, got.Str)
			assert.Equal(t, tt.want.Int, got.Int)
			assert.Equal(t, tt.want.Bulk, got.Bulk)
			assert.Equal(t, len(tt.want.Array), len(got.Array))
		})
	}
}

func TestReader_InlineCommand(t *testing.T) {
	t.Parallel()

	rd := resp.NewReader(bytes.NewBufferString("PING\r\n"))

	got, err := rd.ReadValue()
	require.NoError(t, err)
	require.Equal(t, resp.TypeArray, got.Type)
	require.Len(t, got.Array, 1)
	assert.Equal(t, []byte("PING"), got.Array[0].Bulk)
}

func TestWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w := resp.NewWriter(&buf)
	require.NoError(t, w.WriteSimpleString("OK"))
	require.NoError(t, w.WriteBulkString([]byte("hello")))
	require.NoError(t, w.WriteBulkString(nil))
	require.NoError(t, w.WriteInteger(42))
	require.NoError(t, w.WriteArrayHeader(0))
	require.NoError(t, w.Flush())

	assert.Equal(t, "+OK\r\n$5\r\nhello\r\n$-1\r\n:42\r\n*0\r\n", buf.String())
}

func TestWriter_Error(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	w := resp.NewWriter(&buf)
	require.NoError(t, w.WriteError("WRONGTYPE Operation against a key holding the wrong kind of value"))
	require.NoError(t, w.Flush())

	assert.Equal(t, "-WRONGTYPE Operation against a key holding the wrong kind of value\r\n", buf.String())
}
