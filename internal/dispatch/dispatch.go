// Package dispatch translates decoded RESP requests into calls against
// internal/engine, and engine results back into RESP replies. It owns the
// per-connection MULTI/EXEC queue and arity checking; internal/server owns
// the socket and feeds it request frames.
package dispatch

import (
	"strings"

	"github.com/mertssmnoglu/redisfx/internal/clientreg"
	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

// Session is one connection's dispatch-visible state. internal/server
// constructs one per accepted connection and passes it into every Handle
// call.
type Session struct {
	Tx      *engine.TxState
	InMulti bool
	Dirty   bool // set once any command inside MULTI fails arity/syntax checks
	Queue   [][][]byte

	Sub *engine.Subscriber

	Client *clientreg.Client

	// Closed is flipped by the QUIT handler; internal/server checks it
	// after each Handle call to decide whether to close the connection.
	Closed bool
}

func NewSession(client *clientreg.Client, deliver func(channel string, payload []byte)) *Session {
	return &Session{
		Tx:  engine.NewTxState(),
		Sub: engine.NewSubscriber(deliver),
	}
}

// handler is one command's implementation. args excludes the command
// name itself.
type handler struct {
	fn      func(d *Dispatcher, sess *Session, args [][]byte, out *resp.Writer) error
	minArgs int
	maxArgs int // -1 means unbounded
}

// Dispatcher holds the shared engine and client registry every
// connection's Session is dispatched against.
type Dispatcher struct {
	Engine    *engine.Engine
	Clients   *clientreg.Registry
	table     map[string]handler
	queueable map[string]bool
}

func New(e *engine.Engine, clients *clientreg.Registry) *Dispatcher {
	d := &Dispatcher{Engine: e, Clients: clients}
	d.buildTable()

	return d
}

// noQueue names the commands that run immediately even inside MULTI,
// per spec.md §4.9.
var noQueue = map[string]bool{
	"MULTI":   true,
	"EXEC":    true,
	"DISCARD": true,
	"WATCH":   true,
	"UNWATCH": true,
}

// Handle decodes one command frame and writes its reply. v must be the
// TypeArray frame representing the full client request.
func (d *Dispatcher) Handle(sess *Session, v resp.Value, out *resp.Writer) error {
	args, err := toByteArgs(v)
	if err != nil || len(args) == 0 {
		return out.WriteError("ERR Protocol error: expected array of bulk strings")
	}

	name := strings.ToUpper(string(args[0]))
	rest := args[1:]

	h, ok := d.table[name]
	if !ok {
		return out.WriteError("ERR unknown command '" + string(args[0]) + "'")
	}

	if sess.InMulti && !noQueue[name] {
		if !checkArity(h, rest) {
			sess.Dirty = true

			return out.WriteError("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
		}

		sess.Queue = append(sess.Queue, args)

		return out.WriteSimpleString("QUEUED")
	}

	return d.execute(sess, name, h, rest, out)
}

// execute runs a resolved handler immediately, bypassing the MULTI queue
// gate — used both by Handle's non-queued path and by EXEC replaying a
// queued batch.
func (d *Dispatcher) execute(sess *Session, name string, h handler, rest [][]byte, out *resp.Writer) error {
	if !checkArity(h, rest) {
		return out.WriteError("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
	}

	if sess.Client != nil {
		sess.Client.Touch(name)
	}

	return h.fn(d, sess, rest, out)
}

// executeQueued looks up and runs one command recorded in sess.Queue,
// for EXEC.
func (d *Dispatcher) executeQueued(sess *Session, args [][]byte, out *resp.Writer) error {
	name := strings.ToUpper(string(args[0]))

	h, ok := d.table[name]
	if !ok {
		return out.WriteError("ERR unknown command '" + string(args[0]) + "'")
	}

	return d.execute(sess, name, h, args[1:], out)
}

func checkArity(h handler, args [][]byte) bool {
	if len(args) < h.minArgs {
		return false
	}

	if h.maxArgs >= 0 && len(args) > h.maxArgs {
		return false
	}

	return true
}

func toByteArgs(v resp.Value) ([][]byte, error) {
	if v.Type != resp.TypeArray || v.Null {
		return nil, resp.ErrProtocol
	}

	out := make([][]byte, len(v.Array))

	for i, item := range v.Array {
		if item.Type != resp.TypeBulkString {
			return nil, resp.ErrProtocol
		}

		out[i] = item.Bulk
	}

	return out, nil
}
