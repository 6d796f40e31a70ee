package dispatch

import (
	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

func cmdSAdd(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	members := make([]string, len(args)-1)
	for i, a := range args[1:] {
		members[i] = string(a)
	}

	n, err := d.Engine.SAdd(string(args[0]), members...)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdSRem(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	members := make([]string, len(args)-1)
	for i, a := range args[1:] {
		members[i] = string(a)
	}

	n, err := d.Engine.SRem(string(args[0]), members...)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdSMembers(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	members, err := d.Engine.SMembers(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeStringArray(out, members)
}

func cmdSCard(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	n, err := d.Engine.SCard(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdSIsMember(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	ok, err := d.Engine.SIsMember(string(args[0]), string(args[1]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeBool(out, ok)
}

func cmdSMIsMember(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	members := make([]string, len(args)-1)
	for i, a := range args[1:] {
		members[i] = string(a)
	}

	res, err := d.Engine.SMIsMember(string(args[0]), members...)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if err := out.WriteArrayHeader(len(res)); err != nil {
		return err
	}

	for _, ok := range res {
		if err := writeBool(out, ok); err != nil {
			return err
		}
	}

	return nil
}

func cmdSCombine(op engine.SetOpKind) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		keys := make([]string, len(args))
		for i, a := range args {
			keys[i] = string(a)
		}

		members, err := d.Engine.SCombine(op, keys...)
		if err != nil {
			return writeEngineErr(out, err)
		}

		return writeStringArray(out, members)
	}
}

func cmdSCombineStore(op engine.SetOpKind) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		keys := make([]string, len(args)-1)
		for i, a := range args[1:] {
			keys[i] = string(a)
		}

		n, err := d.Engine.SCombineStore(op, string(args[0]), keys...)
		if err != nil {
			return writeEngineErr(out, err)
		}

		return out.WriteInteger(int64(n))
	}
}

func cmdSInterCard(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	numKeys, ok := parseInt(args[0])
	if !ok || numKeys <= 0 || numKeys+1 > len(args) {
		return out.WriteError("ERR numkeys should be greater than 0")
	}

	keys := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = string(args[1+i])
	}

	limit := 0
	rest := args[1+numKeys:]

	for i := 0; i < len(rest); i++ {
		if upper(rest[i]) == "LIMIT" && i+1 < len(rest) {
			i++

			n, ok := parseInt(rest[i])
			if !ok || n < 0 {
				return out.WriteError("ERR LIMIT can't be negative")
			}

			limit = n
		}
	}

	n, err := d.Engine.SInterCard(limit, keys...)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdSMove(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	ok, err := d.Engine.SMove(string(args[0]), string(args[1]), string(args[2]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeBool(out, ok)
}

func cmdSPop(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	hasCount := len(args) > 1
	count := 1

	if hasCount {
		n, ok := parseInt(args[1])
		if !ok {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		count = n
	}

	members, err := d.Engine.SPop(string(args[0]), count, hasCount)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !hasCount {
		if len(members) == 0 {
			return out.WriteBulkString(nil)
		}

		return out.WriteBulkStringFrom(members[0])
	}

	return writeStringArray(out, members)
}

func cmdSRandMember(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	hasCount := len(args) > 1
	count := 1

	if hasCount {
		n, ok := parseInt(args[1])
		if !ok {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		count = n
	}

	members, err := d.Engine.SRandMember(string(args[0]), count, hasCount)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !hasCount {
		if len(members) == 0 {
			return out.WriteBulkString(nil)
		}

		return out.WriteBulkStringFrom(members[0])
	}

	return writeStringArray(out, members)
}
