package dispatch

import (
	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

func cmdSet(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	key, val := string(args[0]), args[1]

	opts := engine.SetOpts{}

	for i := 2; i < len(args); i++ {
		switch upper(args[i]) {
		case "NX":
			opts.Flag = engine.SetNX
		case "XX":
			opts.Flag = engine.SetXX
		case "KEEPTTL":
			opts.KeepTTL = true
		case "GET":
			opts.GetOld = true
		case "EX":
			i++

			secs, ok := parseInt64(args[i])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			opts.ExpireAtMs = engineNowPlus(secs * 1000)
		case "PX":
			i++

			ms, ok := parseInt64(args[i])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			opts.ExpireAtMs = engineNowPlus(ms)
		case "EXAT":
			i++

			secs, ok := parseInt64(args[i])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			opts.ExpireAtMs = secs * 1000
		case "PXAT":
			i++

			ms, ok := parseInt64(args[i])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			opts.ExpireAtMs = ms
		default:
			return out.WriteError("ERR syntax error")
		}
	}

	res, err := d.Engine.Set(key, val, opts)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if opts.GetOld {
		if !res.HadOld {
			return out.WriteBulkString(nil)
		}

		return out.WriteBulkString(res.OldVal)
	}

	if !res.Applied {
		return out.WriteBulkString(nil)
	}

	return out.WriteSimpleString("OK")
}

func cmdGet(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	v, ok, err := d.Engine.Get(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !ok {
		return out.WriteBulkString(nil)
	}

	return out.WriteBulkString(v)
}

func cmdGetSet(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	v, ok, err := d.Engine.GetSet(string(args[0]), args[1])
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !ok {
		return out.WriteBulkString(nil)
	}

	return out.WriteBulkString(v)
}

func cmdGetDel(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	v, ok, err := d.Engine.GetDel(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !ok {
		return out.WriteBulkString(nil)
	}

	return out.WriteBulkString(v)
}

func cmdSetNX(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	return writeBool(out, d.Engine.SetNX(string(args[0]), args[1]))
}

func cmdMSet(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	if len(args)%2 != 0 {
		return out.WriteError("ERR wrong number of arguments for 'mset' command")
	}

	pairs := map[string][]byte{}
	for i := 0; i < len(args); i += 2 {
		pairs[string(args[i])] = args[i+1]
	}

	d.Engine.MSet(pairs)

	return out.WriteSimpleString("OK")
}

func cmdMSetNX(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	if len(args)%2 != 0 {
		return out.WriteError("ERR wrong number of arguments for 'msetnx' command")
	}

	pairs := map[string][]byte{}
	for i := 0; i < len(args); i += 2 {
		pairs[string(args[i])] = args[i+1]
	}

	return writeBool(out, d.Engine.MSetNX(pairs))
}

func cmdMGet(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	keys := make([]string, len(args))
	for i, a := range args {
		keys[i] = string(a)
	}

	return writeBulkArray(out, d.Engine.MGet(keys...))
}

func cmdAppend(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	n, err := d.Engine.Append(string(args[0]), args[1])
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdStrLen(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	n, err := d.Engine.StrLen(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdGetRange(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	start, ok1 := parseInt(args[1])
	end, ok2 := parseInt(args[2])

	if !ok1 || !ok2 {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	v, err := d.Engine.GetRange(string(args[0]), start, end)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if v == nil {
		v = []byte{}
	}

	return out.WriteBulkString(v)
}

func cmdSetRange(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	offset, ok := parseInt(args[1])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	n, err := d.Engine.SetRange(string(args[0]), offset, args[2])
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdIncrBy(delta int64) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		amount := delta

		if len(args) > 1 {
			n, ok := parseInt64(args[1])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			amount = n * delta
		}

		n, err := d.Engine.IncrBy(string(args[0]), amount)
		if err != nil {
			return writeEngineErr(out, err)
		}

		return out.WriteInteger(n)
	}
}

func cmdIncrByFloat(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	delta, ok := parseFloat(args[1])
	if !ok {
		return out.WriteError("ERR value is not a valid float")
	}

	n, err := d.Engine.IncrByFloat(string(args[0]), delta)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteBulkStringFrom(formatFloat(n))
}

func cmdSetBit(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	offset, ok := parseInt64(args[1])
	if !ok {
		return out.WriteError("ERR bit offset is not an integer or out of range")
	}

	bit, ok := parseInt(args[2])
	if !ok || (bit != 0 && bit != 1) {
		return out.WriteError("ERR bit is not an integer or out of range")
	}

	old, err := d.Engine.SetBit(string(args[0]), offset, byte(bit))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(old))
}

func cmdGetBit(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	offset, ok := parseInt64(args[1])
	if !ok {
		return out.WriteError("ERR bit offset is not an integer or out of range")
	}

	bit, err := d.Engine.GetBit(string(args[0]), offset)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(bit))
}

func cmdBitCount(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	start, end := 0, -1
	byUnit := false

	if len(args) >= 3 {
		s, ok1 := parseInt(args[1])
		e, ok2 := parseInt(args[2])

		if !ok1 || !ok2 {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		start, end = s, e

		if len(args) >= 4 {
			switch upper(args[3]) {
			case "BIT":
				byUnit = true
			case "BYTE":
				byUnit = false
			default:
				return out.WriteError("ERR syntax error")
			}
		}
	}

	n, err := d.Engine.BitCount(string(args[0]), start, end, byUnit)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdBitOp(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	var op engine.BitOpKind

	switch upper(args[0]) {
	case "AND":
		op = engine.BitOpAnd
	case "OR":
		op = engine.BitOpOr
	case "XOR":
		op = engine.BitOpXor
	case "NOT":
		op = engine.BitOpNot
	default:
		return out.WriteError("ERR syntax error")
	}

	srcs := make([]string, len(args)-2)
	for i, a := range args[2:] {
		srcs[i] = string(a)
	}

	n, err := d.Engine.BitOp(op, string(args[1]), srcs...)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdBitPos(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	bit, ok := parseInt(args[1])
	if !ok || (bit != 0 && bit != 1) {
		return out.WriteError("ERR The bit argument must be 1 or 0.")
	}

	start, end, hasEnd := 0, -1, false

	if len(args) >= 3 {
		s, ok := parseInt(args[2])
		if !ok {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		start = s
	}

	if len(args) >= 4 {
		e, ok := parseInt(args[3])
		if !ok {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		end = e
		hasEnd = true
	}

	n, err := d.Engine.BitPos(string(args[0]), byte(bit), start, end, hasEnd)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}
