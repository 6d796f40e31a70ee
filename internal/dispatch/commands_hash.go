package dispatch

import (
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

func cmdHSet(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	if len(args[1:])%2 != 0 {
		return out.WriteError("ERR wrong number of arguments for 'hset' command")
	}

	pairs := map[string][]byte{}
	for i := 1; i < len(args); i += 2 {
		pairs[string(args[i])] = args[i+1]
	}

	n, err := d.Engine.HSet(string(args[0]), pairs)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdHSetNX(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	ok, err := d.Engine.HSetNX(string(args[0]), string(args[1]), args[2])
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeBool(out, ok)
}

func cmdHGet(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	v, ok, err := d.Engine.HGet(string(args[0]), string(args[1]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !ok {
		return out.WriteBulkString(nil)
	}

	return out.WriteBulkString(v)
}

func cmdHMGet(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	fields := make([]string, len(args)-1)
	for i, a := range args[1:] {
		fields[i] = string(a)
	}

	vals, err := d.Engine.HMGet(string(args[0]), fields...)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeBulkArray(out, vals)
}

func cmdHGetAll(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	fields, vals, err := d.Engine.HGetAll(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	if err := out.WriteArrayHeader(len(fields) * 2); err != nil {
		return err
	}

	for i, f := range fields {
		if err := out.WriteBulkStringFrom(f); err != nil {
			return err
		}

		if err := out.WriteBulkString(vals[i]); err != nil {
			return err
		}
	}

	return nil
}

func cmdHKeys(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	fields, err := d.Engine.HKeys(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeStringArray(out, fields)
}

func cmdHVals(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	vals, err := d.Engine.HVals(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeBulkArray(out, vals)
}

func cmdHLen(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	n, err := d.Engine.HLen(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdHExists(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	ok, err := d.Engine.HExists(string(args[0]), string(args[1]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeBool(out, ok)
}

func cmdHDel(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	fields := make([]string, len(args)-1)
	for i, a := range args[1:] {
		fields[i] = string(a)
	}

	n, err := d.Engine.HDel(string(args[0]), fields...)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdHIncrBy(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	delta, ok := parseInt64(args[2])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	n, err := d.Engine.HIncrBy(string(args[0]), string(args[1]), delta)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(n)
}

func cmdHIncrByFloat(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	delta, ok := parseFloat(args[2])
	if !ok {
		return out.WriteError("ERR value is not a valid float")
	}

	n, err := d.Engine.HIncrByFloat(string(args[0]), string(args[1]), delta)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteBulkStringFrom(formatFloat(n))
}

func cmdHRandField(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	hasCount := len(args) > 1
	count := 1
	withValues := false

	if hasCount {
		n, ok := parseInt(args[1])
		if !ok {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		count = n

		if len(args) > 2 && upper(args[2]) == "WITHVALUES" {
			withValues = true
		}
	}

	fields, vals, err := d.Engine.HRandField(string(args[0]), count, hasCount)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !hasCount {
		if len(fields) == 0 {
			return out.WriteBulkString(nil)
		}

		return out.WriteBulkStringFrom(fields[0])
	}

	n := len(fields)
	if withValues {
		n *= 2
	}

	if err := out.WriteArrayHeader(n); err != nil {
		return err
	}

	for i, f := range fields {
		if err := out.WriteBulkStringFrom(f); err != nil {
			return err
		}

		if withValues {
			if err := out.WriteBulkString(vals[i]); err != nil {
				return err
			}
		}
	}

	return nil
}
