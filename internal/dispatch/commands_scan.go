package dispatch

import (
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

// scanOpts parses the common MATCH/COUNT (and for SCAN only, TYPE) option
// tail shared by SCAN/HSCAN/SSCAN/ZSCAN (spec.md §4.11).
type scanOpts struct {
	match   string
	count   int
	typ     string
	errText string
}

func parseScanOpts(args [][]byte, allowType bool) scanOpts {
	opts := scanOpts{count: 10, match: "", typ: "", errText: ""}

	for i := 0; i < len(args); i++ {
		switch upper(args[i]) {
		case "MATCH":
			if i+1 >= len(args) {
				return scanOpts{errText: "ERR syntax error"}
			}

			i++
			opts.match = string(args[i])

		case "COUNT":
			if i+1 >= len(args) {
				return scanOpts{errText: "ERR syntax error"}
			}

			i++

			n, ok := parseInt(args[i])
			if !ok || n <= 0 {
				return scanOpts{errText: "ERR value is not an integer or out of range"}
			}

			opts.count = n

		case "TYPE":
			if !allowType || i+1 >= len(args) {
				return scanOpts{errText: "ERR syntax error"}
			}

			i++
			opts.typ = string(args[i])

		default:
			return scanOpts{errText: "ERR syntax error"}
		}
	}

	return opts
}

func writeScanResult(out *resp.Writer, cursor uint64, keys []string) error {
	if err := out.WriteArrayHeader(2); err != nil {
		return err
	}

	if err := out.WriteBulkStringFrom(formatCursor(cursor)); err != nil {
		return err
	}

	return writeStringArray(out, keys)
}

func formatCursor(c uint64) string {
	return parseInt64ToString(int64(c))
}

func cmdScan(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	cursor, ok := parseUint64(args[0])
	if !ok {
		return out.WriteError("ERR invalid cursor")
	}

	opts := parseScanOpts(args[1:], true)
	if opts.errText != "" {
		return out.WriteError(opts.errText)
	}

	res := d.Engine.Scan(cursor, opts.match, opts.count, opts.typ)

	return writeScanResult(out, res.Cursor, res.Keys)
}

func cmdHScan(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	cursor, ok := parseUint64(args[1])
	if !ok {
		return out.WriteError("ERR invalid cursor")
	}

	opts := parseScanOpts(args[2:], false)
	if opts.errText != "" {
		return out.WriteError(opts.errText)
	}

	res, err := d.Engine.HScan(string(args[0]), cursor, opts.match, opts.count)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeScanResult(out, res.Cursor, res.Keys)
}

func cmdSScan(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	cursor, ok := parseUint64(args[1])
	if !ok {
		return out.WriteError("ERR invalid cursor")
	}

	opts := parseScanOpts(args[2:], false)
	if opts.errText != "" {
		return out.WriteError(opts.errText)
	}

	res, err := d.Engine.SScan(string(args[0]), cursor, opts.match, opts.count)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeScanResult(out, res.Cursor, res.Keys)
}

func cmdZScan(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	cursor, ok := parseUint64(args[1])
	if !ok {
		return out.WriteError("ERR invalid cursor")
	}

	opts := parseScanOpts(args[2:], false)
	if opts.errText != "" {
		return out.WriteError(opts.errText)
	}

	res, err := d.Engine.ZScan(string(args[0]), cursor, opts.match, opts.count)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeScanResult(out, res.Cursor, res.Keys)
}
