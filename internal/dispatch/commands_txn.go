package dispatch

import (
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

// cmdMulti starts queueing. Nested MULTI is a client-level error
// (spec.md §4.9) enforced here since the engine has no notion of MULTI.
func cmdMulti(_ *Dispatcher, sess *Session, _ [][]byte, out *resp.Writer) error {
	if sess.InMulti {
		return out.WriteError("ERR MULTI calls can not be nested")
	}

	sess.InMulti = true
	sess.Dirty = false
	sess.Queue = nil

	return out.WriteSimpleString("OK")
}

// cmdDiscard clears the queue and watch set without executing anything.
func cmdDiscard(d *Dispatcher, sess *Session, _ [][]byte, out *resp.Writer) error {
	if !sess.InMulti {
		return out.WriteError("ERR DISCARD without MULTI")
	}

	sess.InMulti = false
	sess.Dirty = false
	sess.Queue = nil
	d.Engine.Unwatch(sess.Tx)

	return out.WriteSimpleString("OK")
}

// cmdWatch may only run outside an active transaction (spec.md §4.9
// invariant 5).
func cmdWatch(d *Dispatcher, sess *Session, args [][]byte, out *resp.Writer) error {
	if sess.InMulti {
		return out.WriteError("ERR WATCH inside MULTI is not allowed")
	}

	for _, a := range args {
		d.Engine.Watch(sess.Tx, string(a))
	}

	return out.WriteSimpleString("OK")
}

func cmdUnwatch(d *Dispatcher, sess *Session, _ [][]byte, out *resp.Writer) error {
	d.Engine.Unwatch(sess.Tx)

	return out.WriteSimpleString("OK")
}

// cmdExec drains the queue if no watched key was touched since WATCH,
// else aborts with a nil array (spec.md §4.9, testable property 5). A
// queued command that failed its arity check up front aborts the whole
// batch with EXECABORT instead, mirroring real Redis.
func cmdExec(d *Dispatcher, sess *Session, _ [][]byte, out *resp.Writer) error {
	if !sess.InMulti {
		return out.WriteError("ERR EXEC without MULTI")
	}

	queue := sess.Queue
	queueDirty := sess.Dirty
	watchDirty := sess.Tx.Dirty()

	sess.InMulti = false
	sess.Dirty = false
	sess.Queue = nil
	d.Engine.Unwatch(sess.Tx)

	if queueDirty {
		return out.WriteError("EXECABORT Transaction discarded because of previous errors.")
	}

	if watchDirty {
		return out.WriteNullArray()
	}

	if err := out.WriteArrayHeader(len(queue)); err != nil {
		return err
	}

	for _, args := range queue {
		if err := d.executeQueued(sess, args, out); err != nil {
			return err
		}
	}

	return nil
}
