package dispatch

import (
	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

func cmdPing(_ *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	if len(args) == 0 {
		return out.WriteSimpleString("PONG")
	}

	return out.WriteBulkString(args[0])
}

func cmdEcho(_ *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	return out.WriteBulkString(args[0])
}

func cmdSelect(_ *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	n, ok := parseInt(args[0])
	if !ok || n != 0 {
		return out.WriteError("ERR DB index is out of range")
	}

	return out.WriteSimpleString("OK")
}

// cmdSwapDB is a no-op: this engine has exactly one logical database.
func cmdSwapDB(_ *Dispatcher, _ *Session, _ [][]byte, out *resp.Writer) error {
	return out.WriteSimpleString("OK")
}

func cmdHello(_ *Dispatcher, _ *Session, _ [][]byte, out *resp.Writer) error {
	fields := []struct {
		key string
		val string
	}{
		{"server", "redisfx"},
		{"version", "1.0.0"},
		{"proto", "2"},
		{"mode", "standalone"},
		{"role", "master"},
	}

	if err := out.WriteArrayHeader(len(fields) * 2); err != nil {
		return err
	}

	for _, f := range fields {
		if err := out.WriteBulkStringFrom(f.key); err != nil {
			return err
		}

		if err := out.WriteBulkStringFrom(f.val); err != nil {
			return err
		}
	}

	return nil
}

func cmdReset(d *Dispatcher, sess *Session, _ [][]byte, out *resp.Writer) error {
	d.Engine.Unwatch(sess.Tx)
	d.Engine.UnsubscribeAll(sess.Sub)
	sess.InMulti = false
	sess.Dirty = false
	sess.Queue = nil

	return out.WriteSimpleString("RESET")
}

func cmdQuit(d *Dispatcher, sess *Session, _ [][]byte, out *resp.Writer) error {
	d.Engine.Unwatch(sess.Tx)
	d.Engine.UnsubscribeAll(sess.Sub)
	sess.Closed = true

	return out.WriteSimpleString("OK")
}

func cmdClient(d *Dispatcher, sess *Session, args [][]byte, out *resp.Writer) error {
	switch upper(args[0]) {
	case "GETNAME":
		if sess.Client == nil {
			return out.WriteBulkString([]byte{})
		}

		return out.WriteBulkStringFrom(sess.Client.GetName())

	case "SETNAME":
		if len(args) < 2 {
			return out.WriteError("ERR wrong number of arguments for 'client|setname' command")
		}

		if sess.Client != nil {
			sess.Client.SetName(string(args[1]))
		}

		return out.WriteSimpleString("OK")

	case "ID":
		if sess.Client == nil {
			return out.WriteInteger(0)
		}

		return out.WriteInteger(sess.Client.ID)

	case "LIST":
		var lines []byte

		for i, c := range d.Clients.List() {
			if i > 0 {
				lines = append(lines, '\n')
			}

			lines = append(lines, []byte(c.Info())...)
		}

		return out.WriteBulkString(lines)

	case "INFO":
		if sess.Client == nil {
			return out.WriteBulkString([]byte{})
		}

		return out.WriteBulkStringFrom(sess.Client.Info())

	default:
		return out.WriteSimpleString("OK")
	}
}

func cmdWait(_ *Dispatcher, _ *Session, _ [][]byte, out *resp.Writer) error {
	// No replicas exist in this single-process engine, so WAIT is
	// satisfied trivially (spec.md §11's WAIT stub).
	return out.WriteInteger(0)
}

func cmdEval(_ *Dispatcher, _ *Session, _ [][]byte, out *resp.Writer) error {
	// Scripting is a documented non-goal (spec.md §1); accepted for
	// protocol compatibility and rejected with the reserved NOSCRIPT code.
	return out.WriteError("NOSCRIPT scripting is not supported by this server")
}

func cmdDBSize(d *Dispatcher, _ *Session, _ [][]byte, out *resp.Writer) error {
	return out.WriteInteger(int64(d.Engine.DBSize()))
}

func cmdFlushAll(d *Dispatcher, _ *Session, _ [][]byte, out *resp.Writer) error {
	d.Engine.FlushAll()

	return out.WriteSimpleString("OK")
}

func cmdFlushDB(d *Dispatcher, _ *Session, _ [][]byte, out *resp.Writer) error {
	d.Engine.FlushDB()

	return out.WriteSimpleString("OK")
}

func cmdType(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	return out.WriteSimpleString(d.Engine.Type(string(args[0])).String())
}

func cmdExists(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	keys := make([]string, len(args))
	for i, a := range args {
		keys[i] = string(a)
	}

	return out.WriteInteger(int64(d.Engine.Exists(keys...)))
}

func cmdDel(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	keys := make([]string, len(args))
	for i, a := range args {
		keys[i] = string(a)
	}

	return out.WriteInteger(int64(d.Engine.Del(keys...)))
}

func cmdRename(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	if err := d.Engine.Rename(string(args[0]), string(args[1])); err != nil {
		return out.WriteError("ERR no such key")
	}

	return out.WriteSimpleString("OK")
}

func cmdRenameNX(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	ok, err := d.Engine.RenameNX(string(args[0]), string(args[1]))
	if err != nil {
		return out.WriteError("ERR no such key")
	}

	return writeBool(out, ok)
}

func cmdCopy(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	replace := false

	for i := 2; i < len(args); i++ {
		if upper(args[i]) == "REPLACE" {
			replace = true
		}
	}

	ok, err := d.Engine.Copy(string(args[0]), string(args[1]), replace)
	if err != nil {
		return writeBool(out, false)
	}

	return writeBool(out, ok)
}

func cmdMove(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	n, ok := parseInt(args[1])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	return writeBool(out, d.Engine.Move(string(args[0]), n))
}

func cmdKeys(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	return writeStringArray(out, d.Engine.Keys(string(args[0])))
}

func cmdRandomKey(d *Dispatcher, _ *Session, _ [][]byte, out *resp.Writer) error {
	k := d.Engine.RandomKey()
	if k == "" {
		return out.WriteBulkString(nil)
	}

	return out.WriteBulkStringFrom(k)
}

func cmdObject(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	switch upper(args[0]) {
	case "ENCODING":
		enc, ok := d.Engine.ObjectEncoding(string(args[1]))
		if !ok {
			return out.WriteBulkString(nil)
		}

		return out.WriteBulkStringFrom(enc)

	case "FREQ", "IDLETIME":
		n, ok := d.Engine.ObjectFreqIdleTime(string(args[1]))
		if !ok {
			return out.WriteError("ERR no such key")
		}

		return out.WriteInteger(n)

	default:
		return out.WriteError("ERR Unknown subcommand or wrong number of arguments for OBJECT")
	}
}

func cmdExpire(flag engine.ExpireFlag) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		secs, ok := parseInt64(args[1])
		if !ok {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		f := parseExpireFlagArg(args, flag)

		ok, err := d.Engine.PExpireAt(string(args[0]), engineNowPlus(secs*1000), f)
		if err != nil {
			return out.WriteInteger(0)
		}

		return writeBool(out, ok)
	}
}

func cmdPExpire(flag engine.ExpireFlag) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		ms, ok := parseInt64(args[1])
		if !ok {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		f := parseExpireFlagArg(args, flag)

		ok, err := d.Engine.PExpireAt(string(args[0]), engineNowPlus(ms), f)
		if err != nil {
			return out.WriteInteger(0)
		}

		return writeBool(out, ok)
	}
}

func cmdExpireAt(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	secs, ok := parseInt64(args[1])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	f := parseExpireFlagArg(args, engine.ExpireAlways)

	ok, err := d.Engine.PExpireAt(string(args[0]), secs*1000, f)
	if err != nil {
		return out.WriteInteger(0)
	}

	return writeBool(out, ok)
}

func cmdPExpireAt(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	ms, ok := parseInt64(args[1])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	f := parseExpireFlagArg(args, engine.ExpireAlways)

	ok, err := d.Engine.PExpireAt(string(args[0]), ms, f)
	if err != nil {
		return out.WriteInteger(0)
	}

	return writeBool(out, ok)
}

func parseExpireFlagArg(args [][]byte, fallback engine.ExpireFlag) engine.ExpireFlag {
	if len(args) < 3 {
		return fallback
	}

	switch upper(args[2]) {
	case "NX":
		return engine.ExpireNX
	case "XX":
		return engine.ExpireXX
	case "GT":
		return engine.ExpireGT
	case "LT":
		return engine.ExpireLT
	default:
		return fallback
	}
}

func cmdPersist(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	ok, _ := d.Engine.Persist(string(args[0]))

	return writeBool(out, ok)
}

func cmdTTL(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	return out.WriteInteger(d.Engine.TTL(string(args[0])))
}

func cmdPTTL(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	return out.WriteInteger(d.Engine.PTTL(string(args[0])))
}

func cmdExpireTime(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	return out.WriteInteger(d.Engine.ExpireTime(string(args[0])))
}

func cmdPExpireTime(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	return out.WriteInteger(d.Engine.PExpireTime(string(args[0])))
}

func cmdDump(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	b, ok := d.Engine.Dump(string(args[0]))
	if !ok {
		return out.WriteBulkString(nil)
	}

	return out.WriteBulkString(b)
}

func cmdRestore(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	ttl, ok := parseInt64(args[1])
	if !ok {
		return out.WriteError("ERR Invalid TTL value, must be >= 0")
	}

	replace := false

	for i := 3; i < len(args); i++ {
		if upper(args[i]) == "REPLACE" {
			replace = true
		}
	}

	if err := d.Engine.Restore(string(args[0]), args[2], ttl, replace); err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteSimpleString("OK")
}
