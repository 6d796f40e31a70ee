package dispatch

import (
	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

func cmdPush(side engine.Side, x bool) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		vals := args[1:]

		var (
			n   int
			err *engine.Error
		)

		if x {
			n, err = d.Engine.LPushX(string(args[0]), side, vals...)
		} else {
			n, err = d.Engine.LPush(string(args[0]), side, vals...)
		}

		if err != nil {
			return writeEngineErr(out, err)
		}

		return out.WriteInteger(int64(n))
	}
}

func cmdPop(side engine.Side) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		hasCount := len(args) > 1
		count := 1

		if hasCount {
			n, ok := parseInt(args[1])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			count = n
		}

		vals, err := d.Engine.LPop(string(args[0]), side, count, hasCount)
		if err != nil {
			return writeEngineErr(out, err)
		}

		if vals == nil {
			if hasCount {
				return out.WriteNullArray()
			}

			return out.WriteBulkString(nil)
		}

		if !hasCount {
			if len(vals) == 0 {
				return out.WriteBulkString(nil)
			}

			return out.WriteBulkString(vals[0])
		}

		return writeBulkArray(out, vals)
	}
}

func cmdLLen(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	n, err := d.Engine.LLen(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdLRange(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	start, ok1 := parseInt(args[1])
	end, ok2 := parseInt(args[2])

	if !ok1 || !ok2 {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	vals, err := d.Engine.LRange(string(args[0]), start, end)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeBulkArray(out, vals)
}

func cmdLIndex(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	idx, ok := parseInt(args[1])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	v, found, err := d.Engine.LIndex(string(args[0]), idx)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !found {
		return out.WriteBulkString(nil)
	}

	return out.WriteBulkString(v)
}

func cmdLSet(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	idx, ok := parseInt(args[1])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	if err := d.Engine.LSet(string(args[0]), idx, args[2]); err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteSimpleString("OK")
}

func cmdLTrim(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	start, ok1 := parseInt(args[1])
	end, ok2 := parseInt(args[2])

	if !ok1 || !ok2 {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	if err := d.Engine.LTrim(string(args[0]), start, end); err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteSimpleString("OK")
}

func cmdLRem(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	count, ok := parseInt(args[1])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	n, err := d.Engine.LRem(string(args[0]), count, args[2])
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdLPos(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	rank := 1
	count := 0
	hasCount := false
	maxLen := 0

	for i := 2; i < len(args); i++ {
		switch upper(args[i]) {
		case "RANK":
			i++

			n, ok := parseInt(args[i])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			rank = n
		case "COUNT":
			i++

			n, ok := parseInt(args[i])
			if !ok || n < 0 {
				return out.WriteError("ERR COUNT can't be negative")
			}

			count = n
			hasCount = true
		case "MAXLEN":
			i++

			n, ok := parseInt(args[i])
			if !ok || n < 0 {
				return out.WriteError("ERR MAXLEN can't be negative")
			}

			maxLen = n
		default:
			return out.WriteError("ERR syntax error")
		}
	}

	indices, err := d.Engine.LPos(string(args[0]), args[1], rank, count, hasCount, maxLen)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !hasCount {
		if len(indices) == 0 {
			return out.WriteBulkString(nil)
		}

		return out.WriteInteger(int64(indices[0]))
	}

	if err := out.WriteArrayHeader(len(indices)); err != nil {
		return err
	}

	for _, idx := range indices {
		if err := out.WriteInteger(int64(idx)); err != nil {
			return err
		}
	}

	return nil
}

func cmdLInsert(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	var where engine.InsertWhere

	switch upper(args[1]) {
	case "BEFORE":
		where = engine.Before
	case "AFTER":
		where = engine.After
	default:
		return out.WriteError("ERR syntax error")
	}

	n, err := d.Engine.LInsert(string(args[0]), where, args[2], args[3])
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdLMove(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	from, ok1 := parseSide(args[2])
	to, ok2 := parseSide(args[3])

	if !ok1 || !ok2 {
		return out.WriteError("ERR syntax error")
	}

	res, err := d.Engine.LMove(string(args[0]), string(args[1]), from, to)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !res.Moved {
		return out.WriteBulkString(nil)
	}

	return out.WriteBulkString(res.Val)
}

func cmdRPopLPush(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	res, err := d.Engine.LMove(string(args[0]), string(args[1]), engine.Right, engine.Left)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !res.Moved {
		return out.WriteBulkString(nil)
	}

	return out.WriteBulkString(res.Val)
}

func parseSide(b []byte) (engine.Side, bool) {
	switch upper(b) {
	case "LEFT":
		return engine.Left, true
	case "RIGHT":
		return engine.Right, true
	default:
		return 0, false
	}
}
