package dispatch

import (
	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

func cmdXAdd(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	i := 1
	noMkStream := false

	if i < len(args) && upper(args[i]) == "NOMKSTREAM" {
		noMkStream = true
		i++
	}

	hasMaxLen := false
	hasMinID := false
	maxLen := 0
	minIDStr := ""

	if i < len(args) {
		switch upper(args[i]) {
		case "MAXLEN":
			hasMaxLen = true
			i++
		case "MINID":
			hasMinID = true
			i++
		}
	}

	if hasMaxLen || hasMinID {
		if i < len(args) && (upper(args[i]) == "~" || upper(args[i]) == "=") {
			i++
		}

		if i >= len(args) {
			return out.WriteError("ERR syntax error")
		}

		if hasMaxLen {
			n, ok := parseInt(args[i])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			maxLen = n
		} else {
			minIDStr = string(args[i])
		}

		i++

		if i+1 < len(args) && upper(args[i]) == "LIMIT" {
			i += 2
		}
	}

	if i >= len(args) {
		return out.WriteError("ERR wrong number of arguments for 'xadd' command")
	}

	id := string(args[i])
	i++

	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return out.WriteError("ERR wrong number of arguments for 'xadd' command")
	}

	fields := make([][2]string, 0, len(rest)/2)
	for j := 0; j < len(rest); j += 2 {
		fields = append(fields, [2]string{string(rest[j]), string(rest[j+1])})
	}

	if noMkStream && d.Engine.Type(string(args[0])) == engine.KindNone {
		return out.WriteBulkString(nil)
	}

	newID, err := d.addStream(string(args[0]), id, fields, maxLen, hasMaxLen, minIDStr, hasMinID)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteBulkStringFrom(newID)
}

// addStream bridges the MINID-as-string XADD syntax to engine.XAdd's typed
// *streamID parameter.
func (d *Dispatcher) addStream(key, id string, fields [][2]string, maxLen int, hasMaxLen bool, minIDStr string, hasMinID bool) (string, *engine.Error) {
	if !hasMinID {
		streamID, err := d.Engine.XAdd(key, id, fields, maxLen, hasMaxLen, nil)
		if err != nil {
			return "", err
		}

		return streamID.String(), nil
	}

	minID, perr := engine.ParseRangeID(minIDStr, true)
	if perr != nil {
		return "", &engine.Error{Code: "ERR", Message: perr.Error()}
	}

	newID, err := d.Engine.XAdd(key, id, fields, maxLen, hasMaxLen, &minID)
	if err != nil {
		return "", err
	}

	return newID.String(), nil
}

func cmdXLen(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	n, err := d.Engine.XLen(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func writeStreamEntries(out *resp.Writer, entries []streamEntryView) error {
	if err := out.WriteArrayHeader(len(entries)); err != nil {
		return err
	}

	for _, e := range entries {
		if err := out.WriteArrayHeader(2); err != nil {
			return err
		}

		if err := out.WriteBulkStringFrom(e.ID); err != nil {
			return err
		}

		if err := out.WriteArrayHeader(len(e.Fields) * 2); err != nil {
			return err
		}

		for _, kv := range e.Fields {
			if err := out.WriteBulkStringFrom(kv[0]); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom(kv[1]); err != nil {
				return err
			}
		}
	}

	return nil
}

// streamEntryView is dispatch's copy-out shape for one stream entry, used to
// avoid naming the engine package's unexported streamEntry/streamID types.
type streamEntryView struct {
	ID     string
	Fields [][2]string
}

func viewEntries(entries []engine.StreamEntry) []streamEntryView {
	out := make([]streamEntryView, len(entries))
	for i, e := range entries {
		out[i] = streamEntryView{ID: e.ID.String(), Fields: e.Fields}
	}

	return out
}

func cmdXRange(rev bool) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		startArg, endArg := args[1], args[2]
		if rev {
			startArg, endArg = args[2], args[1]
		}

		start, err1 := engine.ParseRangeID(string(startArg), true)
		if err1 != nil {
			return out.WriteError("ERR Invalid stream ID specified as stream command argument")
		}

		end, err2 := engine.ParseRangeID(string(endArg), false)
		if err2 != nil {
			return out.WriteError("ERR Invalid stream ID specified as stream command argument")
		}

		count := 0

		if len(args) > 3 && upper(args[3]) == "COUNT" && len(args) > 4 {
			n, ok := parseInt(args[4])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			count = n
		}

		entries, err := d.Engine.XRange(string(args[0]), start, end, rev, count)
		if err != nil {
			return writeEngineErr(out, err)
		}

		return writeStreamEntries(out, viewEntries(entries))
	}
}

func cmdXDel(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	raw := make([]string, len(args)-1)
	for i, a := range args[1:] {
		raw[i] = string(a)
	}

	ids, perr := engine.ParseStreamIDs(raw)
	if perr != nil {
		return writeEngineErr(out, perr)
	}

	n, err := d.Engine.XDel(string(args[0]), ids)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdXTrim(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	i := 1

	hasMaxLen := false

	switch upper(args[i]) {
	case "MAXLEN":
		hasMaxLen = true
	case "MINID":
	default:
		return out.WriteError("ERR syntax error")
	}

	i++

	if i < len(args) && (upper(args[i]) == "~" || upper(args[i]) == "=") {
		i++
	}

	if i >= len(args) {
		return out.WriteError("ERR syntax error")
	}

	maxLen := 0

	var minID string

	if hasMaxLen {
		n, ok := parseInt(args[i])
		if !ok {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		maxLen = n
	} else {
		minID = string(args[i])
	}

	var (
		n   int
		err *engine.Error
	)

	if hasMaxLen {
		n, err = d.Engine.XTrim(string(args[0]), maxLen, true, engine.StreamID{}, false)
	} else {
		id, perr := engine.ParseRangeID(minID, true)
		if perr != nil {
			return writeEngineErr(out, &engine.Error{Code: "ERR", Message: perr.Error()})
		}

		n, err = d.Engine.XTrim(string(args[0]), 0, false, id, true)
	}

	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdXSetID(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	id, perr := engine.ParseStreamID(string(args[1]))
	if perr != nil {
		return out.WriteError("ERR Invalid stream ID specified as stream command argument")
	}

	if err := d.Engine.XSetID(string(args[0]), id); err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteSimpleString("OK")
}

func cmdXGroup(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	switch upper(args[0]) {
	case "CREATE":
		mkstream := false

		for i := 4; i < len(args); i++ {
			if upper(args[i]) == "MKSTREAM" {
				mkstream = true
			}
		}

		if err := d.Engine.XGroupCreate(string(args[1]), string(args[2]), string(args[3]), mkstream); err != nil {
			return writeEngineErr(out, err)
		}

		return out.WriteSimpleString("OK")

	case "DESTROY":
		ok, err := d.Engine.XGroupDestroy(string(args[1]), string(args[2]))
		if err != nil {
			return writeEngineErr(out, err)
		}

		return writeBool(out, ok)

	case "SETID":
		if err := d.Engine.XGroupSetID(string(args[1]), string(args[2]), string(args[3])); err != nil {
			return writeEngineErr(out, err)
		}

		return out.WriteSimpleString("OK")

	case "CREATECONSUMER":
		ok, err := d.Engine.XGroupCreateConsumer(string(args[1]), string(args[2]), string(args[3]))
		if err != nil {
			return writeEngineErr(out, err)
		}

		return writeBool(out, ok)

	case "DELCONSUMER":
		n, err := d.Engine.XGroupDelConsumer(string(args[1]), string(args[2]), string(args[3]))
		if err != nil {
			return writeEngineErr(out, err)
		}

		return out.WriteInteger(int64(n))

	default:
		return out.WriteError("ERR Unknown XGROUP subcommand")
	}
}

func cmdXRead(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	i := 0
	count := 0

	for i < len(args) {
		switch upper(args[i]) {
		case "COUNT":
			i++

			n, ok := parseInt(args[i])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			count = n
			i++
		case "BLOCK":
			i += 2
		case "STREAMS":
			i++

			goto streams
		default:
			return out.WriteError("ERR syntax error")
		}
	}

streams:
	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return out.WriteError("ERR Unbalanced XREAD list of streams: for each stream key an ID or '$' must be specified.")
	}

	n := len(rest) / 2
	keys := make([]string, n)
	rawIDs := make([]string, n)

	for j := 0; j < n; j++ {
		keys[j] = string(rest[j])
		rawIDs[j] = string(rest[n+j])
	}

	ids := make([]engine.StreamID, n)

	for j, r := range rawIDs {
		if r == "$" {
			// "$" means "only new entries from now on"; this engine never
			// blocks, so it is equivalent to "the current last ID".
			ln, err := d.Engine.XLen(keys[j])
			if err != nil {
				return writeEngineErr(out, err)
			}

			if ln > 0 {
				info, ierr := d.Engine.XInfoStream(keys[j])
				if ierr != nil {
					return writeEngineErr(out, ierr)
				}

				ids[j] = info.LastID
			}
		} else {
			id, perr := engine.ParseStreamID(r)
			if perr != nil {
				return out.WriteError("ERR Invalid stream ID specified as stream command argument")
			}

			ids[j] = id
		}
	}

	result, err := d.Engine.XRead(keys, ids, count)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if len(result) == 0 {
		return out.WriteNullArray()
	}

	if err := out.WriteArrayHeader(len(result)); err != nil {
		return err
	}

	for _, key := range keys {
		entries, ok := result[key]
		if !ok {
			continue
		}

		delete(result, key)

		if err := out.WriteArrayHeader(2); err != nil {
			return err
		}

		if err := out.WriteBulkStringFrom(key); err != nil {
			return err
		}

		if err := writeStreamEntries(out, viewEntries(entries)); err != nil {
			return err
		}
	}

	return nil
}

func cmdXReadGroup(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	if upper(args[0]) != "GROUP" {
		return out.WriteError("ERR syntax error")
	}

	group, consumer := string(args[1]), string(args[2])
	i := 3
	count := 0

	for i < len(args) {
		switch upper(args[i]) {
		case "COUNT":
			i++

			n, ok := parseInt(args[i])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			count = n
			i++
		case "BLOCK":
			i += 2
		case "NOACK":
			i++
		case "STREAMS":
			i++

			goto streams
		default:
			return out.WriteError("ERR syntax error")
		}
	}

streams:
	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return out.WriteError("ERR Unbalanced XREADGROUP list of streams: for each stream key an ID or '>' must be specified.")
	}

	n := len(rest) / 2
	keys := make([]string, n)
	ids := make([]string, n)

	for j := 0; j < n; j++ {
		keys[j] = string(rest[j])
		ids[j] = string(rest[n+j])
	}

	result, err := d.Engine.XReadGroup(group, consumer, keys, ids, count)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if len(result) == 0 {
		return out.WriteNullArray()
	}

	if err := out.WriteArrayHeader(len(result)); err != nil {
		return err
	}

	for _, key := range keys {
		entries, ok := result[key]
		if !ok {
			continue
		}

		delete(result, key)

		if err := out.WriteArrayHeader(2); err != nil {
			return err
		}

		if err := out.WriteBulkStringFrom(key); err != nil {
			return err
		}

		if err := writeStreamEntries(out, viewEntries(entries)); err != nil {
			return err
		}
	}

	return nil
}

func cmdXAck(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	raw := make([]string, len(args)-2)
	for i, a := range args[2:] {
		raw[i] = string(a)
	}

	ids, perr := engine.ParseStreamIDs(raw)
	if perr != nil {
		return writeEngineErr(out, perr)
	}

	n, err := d.Engine.XAck(string(args[0]), string(args[1]), ids)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdXClaim(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	minIdle, ok := parseInt64(args[3])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	var raw []string

	for i := 4; i < len(args); i++ {
		if _, ok := parseInt64(args[i]); !ok {
			break
		}

		raw = append(raw, string(args[i]))
	}

	ids, perr := engine.ParseStreamIDs(raw)
	if perr != nil {
		return writeEngineErr(out, perr)
	}

	entries, err := d.Engine.XClaim(string(args[0]), string(args[1]), string(args[2]), ids, minIdle)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeStreamEntries(out, viewEntries(entries))
}

func cmdXAutoClaim(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	minIdle, ok := parseInt64(args[3])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	start, perr := engine.ParseRangeID(string(args[4]), true)
	if perr != nil {
		return out.WriteError("ERR Invalid stream ID specified as stream command argument")
	}

	count := 100

	for i := 5; i < len(args); i++ {
		if upper(args[i]) == "COUNT" && i+1 < len(args) {
			n, ok := parseInt(args[i+1])
			if ok {
				count = n
			}
		}
	}

	claimed, deleted, next, err := d.Engine.XAutoClaim(string(args[0]), string(args[1]), string(args[2]), start, minIdle, count)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if err := out.WriteArrayHeader(3); err != nil {
		return err
	}

	if err := out.WriteBulkStringFrom(next.String()); err != nil {
		return err
	}

	if err := writeStreamEntries(out, viewEntries(claimed)); err != nil {
		return err
	}

	if err := out.WriteArrayHeader(len(deleted)); err != nil {
		return err
	}

	for _, id := range deleted {
		if err := out.WriteBulkStringFrom(id.String()); err != nil {
			return err
		}
	}

	return nil
}

func cmdXPending(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	if len(args) == 2 {
		summary, err := d.Engine.XPendingSummary(string(args[0]), string(args[1]))
		if err != nil {
			return writeEngineErr(out, err)
		}

		if err := out.WriteArrayHeader(4); err != nil {
			return err
		}

		if err := out.WriteInteger(int64(summary.Count)); err != nil {
			return err
		}

		if summary.Count == 0 {
			if err := out.WriteBulkString(nil); err != nil {
				return err
			}

			if err := out.WriteBulkString(nil); err != nil {
				return err
			}

			return out.WriteNullArray()
		}

		if err := out.WriteBulkStringFrom(summary.MinID.String()); err != nil {
			return err
		}

		if err := out.WriteBulkStringFrom(summary.MaxID.String()); err != nil {
			return err
		}

		if err := out.WriteArrayHeader(len(summary.PerConsumer)); err != nil {
			return err
		}

		for name, n := range summary.PerConsumer {
			if err := out.WriteArrayHeader(2); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom(name); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom(formatFloat(float64(n))); err != nil {
				return err
			}
		}

		return nil
	}

	start, err1 := engine.ParseRangeID(string(args[2]), true)
	if err1 != nil {
		return out.WriteError("ERR Invalid stream ID specified as stream command argument")
	}

	end, err2 := engine.ParseRangeID(string(args[3]), false)
	if err2 != nil {
		return out.WriteError("ERR Invalid stream ID specified as stream command argument")
	}

	count, ok := parseInt(args[4])
	if !ok {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	consumer := ""
	hasConsumer := len(args) > 5

	if hasConsumer {
		consumer = string(args[5])
	}

	details, err := d.Engine.XPendingDetail(string(args[0]), string(args[1]), start, end, count, consumer, hasConsumer)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if err := out.WriteArrayHeader(len(details)); err != nil {
		return err
	}

	for _, p := range details {
		if err := out.WriteArrayHeader(4); err != nil {
			return err
		}

		if err := out.WriteBulkStringFrom(p.ID.String()); err != nil {
			return err
		}

		if err := out.WriteBulkStringFrom(p.Consumer); err != nil {
			return err
		}

		if err := out.WriteInteger(p.IdleMs); err != nil {
			return err
		}

		if err := out.WriteInteger(p.DeliveryCount); err != nil {
			return err
		}
	}

	return nil
}

func cmdXInfo(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	switch upper(args[0]) {
	case "STREAM":
		info, err := d.Engine.XInfoStream(string(args[1]))
		if err != nil {
			return writeEngineErr(out, err)
		}

		fields := []struct {
			key string
			val string
		}{
			{"length", formatFloat(float64(info.Length))},
			{"last-generated-id", info.LastID.String()},
			{"max-deleted-entry-id", info.MaxDeletedID.String()},
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

	case "GROUPS":
		groups, err := d.Engine.XInfoGroups(string(args[1]))
		if err != nil {
			return writeEngineErr(out, err)
		}

		if err := out.WriteArrayHeader(len(groups)); err != nil {
			return err
		}

		for _, g := range groups {
			if err := out.WriteArrayHeader(8); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom("name"); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom(g.Name); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom("consumers"); err != nil {
				return err
			}

			if err := out.WriteInteger(int64(g.Consumers)); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom("pending"); err != nil {
				return err
			}

			if err := out.WriteInteger(int64(g.Pending)); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom("last-delivered-id"); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom(g.LastDelivered.String()); err != nil {
				return err
			}
		}

		return nil

	case "CONSUMERS":
		consumers, err := d.Engine.XInfoConsumers(string(args[1]), string(args[2]))
		if err != nil {
			return writeEngineErr(out, err)
		}

		if err := out.WriteArrayHeader(len(consumers)); err != nil {
			return err
		}

		for _, c := range consumers {
			if err := out.WriteArrayHeader(6); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom("name"); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom(c.Name); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom("pending"); err != nil {
				return err
			}

			if err := out.WriteInteger(int64(c.Pending)); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom("idle"); err != nil {
				return err
			}

			if err := out.WriteInteger(c.IdleMs); err != nil {
				return err
			}
		}

		return nil

	default:
		return out.WriteError("ERR Unknown XINFO subcommand")
	}
}
