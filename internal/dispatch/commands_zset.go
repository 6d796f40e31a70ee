package dispatch

import (
	"math"
	"strconv"

	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

func cmdZAdd(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	opts := engine.ZAddOpts{}
	i := 1

loop:
	for ; i < len(args); i++ {
		switch upper(args[i]) {
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		case "GT":
			opts.GT = true
		case "LT":
			opts.LT = true
		case "CH":
			opts.CH = true
		case "INCR":
			opts.INCR = true
		default:
			break loop
		}
	}

	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return out.WriteError("ERR syntax error")
	}

	members := make([]engine.ZMember, 0, len(rest)/2)

	for j := 0; j < len(rest); j += 2 {
		score, ok := parseFloat(rest[j])
		if !ok {
			return out.WriteError("ERR value is not a valid float")
		}

		members = append(members, engine.ZMember{Member: string(rest[j+1]), Score: score})
	}

	res, err := d.Engine.ZAdd(string(args[0]), opts, members)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if opts.INCR {
		if !res.IncrOK {
			return out.WriteBulkString(nil)
		}

		return out.WriteBulkStringFrom(formatFloat(res.IncrScore))
	}

	if opts.CH {
		return out.WriteInteger(int64(res.Added + res.Changed))
	}

	return out.WriteInteger(int64(res.Added))
}

func cmdZRem(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	members := make([]string, len(args)-1)
	for i, a := range args[1:] {
		members[i] = string(a)
	}

	n, err := d.Engine.ZRem(string(args[0]), members...)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdZScore(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	score, ok, err := d.Engine.ZScore(string(args[0]), string(args[1]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !ok {
		return out.WriteBulkString(nil)
	}

	return out.WriteBulkStringFrom(formatFloat(score))
}

func cmdZMScore(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	members := make([]string, len(args)-1)
	for i, a := range args[1:] {
		members[i] = string(a)
	}

	scores, found, err := d.Engine.ZMScore(string(args[0]), members...)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if err := out.WriteArrayHeader(len(scores)); err != nil {
		return err
	}

	for i, s := range scores {
		if !found[i] {
			if err := out.WriteBulkString(nil); err != nil {
				return err
			}

			continue
		}

		if err := out.WriteBulkStringFrom(formatFloat(s)); err != nil {
			return err
		}
	}

	return nil
}

func cmdZIncrBy(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	delta, ok := parseFloat(args[1])
	if !ok {
		return out.WriteError("ERR value is not a valid float")
	}

	n, err := d.Engine.ZIncrBy(string(args[0]), delta, string(args[2]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteBulkStringFrom(formatFloat(n))
}

func cmdZCard(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	n, err := d.Engine.ZCard(string(args[0]))
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdZRank(rev bool) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		withScore := len(args) > 2 && upper(args[2]) == "WITHSCORE"

		rank, score, ok, err := d.Engine.ZRank(string(args[0]), string(args[1]), rev)
		if err != nil {
			return writeEngineErr(out, err)
		}

		if !ok {
			if withScore {
				return out.WriteNullArray()
			}

			return out.WriteBulkString(nil)
		}

		if !withScore {
			return out.WriteInteger(int64(rank))
		}

		if err := out.WriteArrayHeader(2); err != nil {
			return err
		}

		if err := out.WriteInteger(int64(rank)); err != nil {
			return err
		}

		return out.WriteBulkStringFrom(formatFloat(score))
	}
}

func parseScoreBound(b []byte) (val float64, excl bool, ok bool) {
	s := string(b)
	if len(s) > 0 && s[0] == '(' {
		excl = true
		s = s[1:]
	}

	switch s {
	case "-inf":
		return math.Inf(-1), excl, true
	case "+inf", "inf":
		return math.Inf(1), excl, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, excl, false
	}

	return f, excl, true
}

func cmdZCount(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	min, minExcl, ok1 := parseScoreBound(args[1])
	max, maxExcl, ok2 := parseScoreBound(args[2])

	if !ok1 || !ok2 {
		return out.WriteError("ERR min or max is not a float")
	}

	n, err := d.Engine.ZCount(string(args[0]), min, max, minExcl, maxExcl)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdZRange(rev bool) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		start, ok1 := parseInt(args[1])
		end, ok2 := parseInt(args[2])

		if !ok1 || !ok2 {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		withScores := false

		for i := 3; i < len(args); i++ {
			if upper(args[i]) == "WITHSCORES" {
				withScores = true
			}
		}

		members, err := d.Engine.ZRange(string(args[0]), start, end, rev)
		if err != nil {
			return writeEngineErr(out, err)
		}

		return writeZMembers(out, members, withScores)
	}
}

func cmdZRangeByScore(rev bool) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		minArg, maxArg := args[1], args[2]
		if rev {
			minArg, maxArg = args[2], args[1]
		}

		min, minExcl, ok1 := parseScoreBound(minArg)
		max, maxExcl, ok2 := parseScoreBound(maxArg)

		if !ok1 || !ok2 {
			return out.WriteError("ERR min or max is not a float")
		}

		withScores := false
		offset, count := 0, 0
		hasLimit := false

		for i := 3; i < len(args); i++ {
			switch upper(args[i]) {
			case "WITHSCORES":
				withScores = true
			case "LIMIT":
				if i+2 >= len(args) {
					return out.WriteError("ERR syntax error")
				}

				o, ok1 := parseInt(args[i+1])
				c, ok2 := parseInt(args[i+2])

				if !ok1 || !ok2 {
					return out.WriteError("ERR value is not an integer or out of range")
				}

				offset, count = o, c
				hasLimit = true
				i += 2
			}
		}

		members, err := d.Engine.ZRangeByScore(string(args[0]), min, max, minExcl, maxExcl, rev, offset, count, hasLimit)
		if err != nil {
			return writeEngineErr(out, err)
		}

		return writeZMembers(out, members, withScores)
	}
}

func cmdZPop(max bool) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		count := 1

		if len(args) > 1 {
			n, ok := parseInt(args[1])
			if !ok {
				return out.WriteError("ERR value is not an integer or out of range")
			}

			count = n
		}

		members, err := d.Engine.ZPop(string(args[0]), count, max)
		if err != nil {
			return writeEngineErr(out, err)
		}

		return writeZMembers(out, members, true)
	}
}

// cmdBZPop implements BZPOPMIN/BZPOPMAX. True blocking semantics are a
// documented non-goal (spec §5): this probes each key once, in order,
// and returns immediately with either the popped [key, member, score]
// or a nil array, never waiting on the trailing timeout argument.
func cmdBZPop(max bool) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		keys := args[:len(args)-1]

		for _, k := range keys {
			members, err := d.Engine.ZPop(string(k), 1, max)
			if err != nil {
				return writeEngineErr(out, err)
			}

			if len(members) == 0 {
				continue
			}

			if err := out.WriteArrayHeader(3); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom(string(k)); err != nil {
				return err
			}

			if err := out.WriteBulkStringFrom(members[0].Member); err != nil {
				return err
			}

			return out.WriteBulkStringFrom(formatFloat(members[0].Score))
		}

		return out.WriteNullArray()
	}
}

func cmdZRandMember(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	hasCount := len(args) > 1
	count := 1
	withScores := false

	if hasCount {
		n, ok := parseInt(args[1])
		if !ok {
			return out.WriteError("ERR value is not an integer or out of range")
		}

		count = n

		if len(args) > 2 && upper(args[2]) == "WITHSCORES" {
			withScores = true
		}
	}

	members, err := d.Engine.ZRandMember(string(args[0]), count, hasCount)
	if err != nil {
		return writeEngineErr(out, err)
	}

	if !hasCount {
		if len(members) == 0 {
			return out.WriteBulkString(nil)
		}

		return out.WriteBulkStringFrom(members[0].Member)
	}

	return writeZMembers(out, members, withScores)
}

func cmdZRangeByLex(rev bool) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		minArg, maxArg := args[1], args[2]
		if rev {
			minArg, maxArg = args[2], args[1]
		}

		min, err1 := engine.ParseLexBound(string(minArg), true)
		if err1 != nil {
			return writeEngineErr(out, err1)
		}

		max, err2 := engine.ParseLexBound(string(maxArg), false)
		if err2 != nil {
			return writeEngineErr(out, err2)
		}

		offset, count := 0, 0
		hasLimit := false

		for i := 3; i < len(args); i++ {
			if upper(args[i]) == "LIMIT" && i+2 < len(args) {
				o, ok1 := parseInt(args[i+1])
				c, ok2 := parseInt(args[i+2])

				if !ok1 || !ok2 {
					return out.WriteError("ERR value is not an integer or out of range")
				}

				offset, count = o, c
				hasLimit = true
				i += 2
			}
		}

		members, err := d.Engine.ZRangeByLex(string(args[0]), min, max, rev, offset, count, hasLimit)
		if err != nil {
			return writeEngineErr(out, err)
		}

		return writeZMembers(out, members, false)
	}
}

func cmdZLexCount(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	min, err1 := engine.ParseLexBound(string(args[1]), true)
	if err1 != nil {
		return writeEngineErr(out, err1)
	}

	max, err2 := engine.ParseLexBound(string(args[2]), false)
	if err2 != nil {
		return writeEngineErr(out, err2)
	}

	n, err := d.Engine.ZLexCount(string(args[0]), min, max)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdZRemRangeByScore(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	min, minExcl, ok1 := parseScoreBound(args[1])
	max, maxExcl, ok2 := parseScoreBound(args[2])

	if !ok1 || !ok2 {
		return out.WriteError("ERR min or max is not a float")
	}

	n, err := d.Engine.ZRemRangeByScore(string(args[0]), min, max, minExcl, maxExcl)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdZRemRangeByRank(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	start, ok1 := parseInt(args[1])
	end, ok2 := parseInt(args[2])

	if !ok1 || !ok2 {
		return out.WriteError("ERR value is not an integer or out of range")
	}

	n, err := d.Engine.ZRemRangeByRank(string(args[0]), start, end)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdZRemRangeByLex(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	min, err1 := engine.ParseLexBound(string(args[1]), true)
	if err1 != nil {
		return writeEngineErr(out, err1)
	}

	max, err2 := engine.ParseLexBound(string(args[2]), false)
	if err2 != nil {
		return writeEngineErr(out, err2)
	}

	n, err := d.Engine.ZRemRangeByLex(string(args[0]), min, max)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}

func cmdZUnionStore(union bool) func(*Dispatcher, *Session, [][]byte, *resp.Writer) error {
	return func(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
		numKeys, ok := parseInt(args[1])
		if !ok || numKeys <= 0 || 2+numKeys > len(args) {
			return out.WriteError("ERR at least 1 input key is needed")
		}

		keys := make([]string, numKeys)
		for i := 0; i < numKeys; i++ {
			keys[i] = string(args[2+i])
		}

		opts := engine.ZStoreOpts{}
		rest := args[2+numKeys:]

		for i := 0; i < len(rest); i++ {
			switch upper(rest[i]) {
			case "WEIGHTS":
				weights := make([]float64, numKeys)

				for j := 0; j < numKeys; j++ {
					i++

					f, ok := parseFloat(rest[i])
					if !ok {
						return out.WriteError("ERR weight value is not a float")
					}

					weights[j] = f
				}

				opts.Weights = weights
			case "AGGREGATE":
				i++

				switch upper(rest[i]) {
				case "SUM":
					opts.Aggregate = engine.AggSum
				case "MIN":
					opts.Aggregate = engine.AggMin
				case "MAX":
					opts.Aggregate = engine.AggMax
				default:
					return out.WriteError("ERR syntax error")
				}
			}
		}

		var (
			n   int
			err *engine.Error
		)

		if union {
			n, err = d.Engine.ZUnionStore(string(args[0]), keys, opts)
		} else {
			n, err = d.Engine.ZInterStore(string(args[0]), keys, opts)
		}

		if err != nil {
			return writeEngineErr(out, err)
		}

		return out.WriteInteger(int64(n))
	}
}

func cmdZDiff(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	numKeys, ok := parseInt(args[0])
	if !ok || numKeys <= 0 || 1+numKeys > len(args) {
		return out.WriteError("ERR at least 1 input key is needed")
	}

	keys := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = string(args[1+i])
	}

	withScores := len(args) > 1+numKeys && upper(args[1+numKeys]) == "WITHSCORES"

	members, err := d.Engine.ZDiff(keys)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return writeZMembers(out, members, withScores)
}

func cmdZDiffStore(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	numKeys, ok := parseInt(args[1])
	if !ok || numKeys <= 0 || 2+numKeys > len(args) {
		return out.WriteError("ERR at least 1 input key is needed")
	}

	keys := make([]string, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = string(args[2+i])
	}

	n, err := d.Engine.ZDiffStore(string(args[0]), keys)
	if err != nil {
		return writeEngineErr(out, err)
	}

	return out.WriteInteger(int64(n))
}
