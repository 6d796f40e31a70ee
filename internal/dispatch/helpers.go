package dispatch

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

// engineNowPlus converts a relative millisecond delta (as EXPIRE/PEXPIRE
// take) into the absolute millisecond timestamp the engine's expiry API
// wants.
func engineNowPlus(deltaMs int64) int64 {
	return time.Now().UnixMilli() + deltaMs
}

func writeEngineErr(out *resp.Writer, err *engine.Error) error {
	return out.WriteError(err.Message)
}

func writeBulkArray(out *resp.Writer, items [][]byte) error {
	if err := out.WriteArrayHeader(len(items)); err != nil {
		return err
	}

	for _, it := range items {
		if err := out.WriteBulkString(it); err != nil {
			return err
		}
	}

	return nil
}

func writeStringArray(out *resp.Writer, items []string) error {
	if err := out.WriteArrayHeader(len(items)); err != nil {
		return err
	}

	for _, it := range items {
		if err := out.WriteBulkStringFrom(it); err != nil {
			return err
		}
	}

	return nil
}

func writeBool(out *resp.Writer, b bool) error {
	if b {
		return out.WriteInteger(1)
	}

	return out.WriteInteger(0)
}

func parseInt(b []byte) (int, bool) {
	n, err := strconv.Atoi(string(b))

	return n, err == nil
}

func parseInt64(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)

	return n, err == nil
}

func parseUint64(b []byte) (uint64, bool) {
	n, err := strconv.ParseUint(string(b), 10, 64)

	return n, err == nil
}

func parseInt64ToString(n int64) string {
	return strconv.FormatInt(n, 10)
}

// parseFloat rejects NaN alongside a plain parse failure: ParseFloat
// itself happily accepts "nan" (spec.md §4.6's "NaN-rejection").
func parseFloat(b []byte) (float64, bool) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}

	return f, true
}

// formatFloat renders +inf/-inf literally (spec.md §6) instead of
// FormatFloat's "+Inf"/"-Inf".
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}

	if math.IsInf(f, -1) {
		return "-inf"
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

func upper(b []byte) string {
	return strings.ToUpper(string(b))
}

// writeSubAck renders one SUBSCRIBE/UNSUBSCRIBE/PSUBSCRIBE/PUNSUBSCRIBE
// reply frame: `["kind", channel, total_channel_count]`, with channel as
// a nil bulk string when there was nothing to unsubscribe from.
func writeSubAck(out *resp.Writer, kind string, channel string, hasChannel bool, count int) error {
	if err := out.WriteArrayHeader(3); err != nil {
		return err
	}

	if err := out.WriteBulkStringFrom(kind); err != nil {
		return err
	}

	if !hasChannel {
		if err := out.WriteBulkString(nil); err != nil {
			return err
		}
	} else if err := out.WriteBulkStringFrom(channel); err != nil {
		return err
	}

	return out.WriteInteger(int64(count))
}

func writeZMembers(out *resp.Writer, members []engine.ZMember, withScores bool) error {
	n := len(members)
	if withScores {
		n *= 2
	}

	if err := out.WriteArrayHeader(n); err != nil {
		return err
	}

	for _, m := range members {
		if err := out.WriteBulkStringFrom(m.Member); err != nil {
			return err
		}

		if withScores {
			if err := out.WriteBulkStringFrom(formatFloat(m.Score)); err != nil {
				return err
			}
		}
	}

	return nil
}
