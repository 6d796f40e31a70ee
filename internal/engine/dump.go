package engine

import (
	"encoding/binary"
	"hash/crc64"
	"math"
)

// dumpVersion is the footer version tag DUMP/RESTORE exchange, mirroring
// the RDB version field real Redis embeds in its DUMP payloads (spec.md
// §11's DUMP supplement). DESIGN.md records why this is a from-scratch
// format rather than wire-compatible with Redis's actual RDB encoding: no
// example in the corpus implements RDB, and spec.md never requires
// cross-process portability, only that DUMP/RESTORE round-trip within
// this engine.
const dumpVersion uint16 = 11

var crc64Table = crc64.MakeTable(crc64.ISO)

func putString(buf []byte, s []byte) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, s...)

	return buf
}

func readString(buf []byte) (s []byte, rest []byte, ok bool) {
	if len(buf) < 4 {
		return nil, nil, false
	}

	n := binary.LittleEndian.Uint32(buf[:4])
	buf = buf[4:]

	if uint32(len(buf)) < n {
		return nil, nil, false
	}

	return buf[:n], buf[n:], true
}

func putUint64(buf []byte, n uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)

	return append(buf, b[:]...)
}

func readUint64(buf []byte) (uint64, []byte, bool) {
	if len(buf) < 8 {
		return 0, nil, false
	}

	return binary.LittleEndian.Uint64(buf[:8]), buf[8:], true
}

func putFloat64Bits(buf []byte, f float64) []byte {
	return putUint64(buf, math.Float64bits(f))
}

// Dump implements DUMP: serializes key's value into an opaque, versioned,
// checksummed byte string. Returns ok=false if key is absent.
func (e *Engine) Dump(key string) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.lookup(key)
	if !ok {
		return nil, false
	}

	body := []byte{byte(v.kind)}

	switch v.kind {
	case KindString:
		body = putString(body, v.str)
	case KindList:
		body = putUint64(body, uint64(v.list.Len()))
		for el := v.list.Front(); el != nil; el = el.Next() {
			body = putString(body, el.Value.([]byte))
		}
	case KindSet:
		body = putUint64(body, uint64(len(v.set)))
		for m := range v.set {
			body = putString(body, []byte(m))
		}
	case KindHash:
		body = putUint64(body, uint64(len(v.hash.order)))
		for _, f := range v.hash.order {
			body = putString(body, []byte(f))
			body = putString(body, v.hash.fields[f])
		}
	case KindZSet:
		body = putUint64(body, uint64(len(v.zset.ordered)))
		for _, m := range v.zset.ordered {
			body = putString(body, []byte(m.Member))
			body = putFloat64Bits(body, m.Score)
		}
	case KindStream:
		body = putUint64(body, uint64(len(v.stream.entries)))
		for _, ent := range v.stream.entries {
			body = putUint64(body, ent.ID.Ms)
			body = putUint64(body, ent.ID.Seq)
			body = putUint64(body, uint64(len(ent.Fields)))

			for _, fv := range ent.Fields {
				body = putString(body, []byte(fv[0]))
				body = putString(body, []byte(fv[1]))
			}
		}
	}

	var footer [10]byte
	binary.LittleEndian.PutUint16(footer[:2], dumpVersion)

	withVersion := append(body, footer[:2]...)
	sum := crc64.Checksum(withVersion, crc64Table)
	binary.LittleEndian.PutUint64(footer[2:], sum)

	return append(withVersion, footer[2:]...), true
}

// Restore implements RESTORE: validates the footer, decodes the body, and
// installs it at key (overwriting only if replace is set).
func (e *Engine) Restore(key string, payload []byte, ttlMs int64, replace bool) *Error {
	if len(payload) < 10 {
		return newErr("ERR", "ERR Bad data format")
	}

	body := payload[:len(payload)-10]
	versionAndSum := payload[len(payload)-10:]

	version := binary.LittleEndian.Uint16(versionAndSum[:2])
	if version > dumpVersion {
		return newErr("ERR", "ERR DUMP payload version or checksum are wrong")
	}

	wantSum := binary.LittleEndian.Uint64(versionAndSum[2:])
	gotSum := crc64.Checksum(payload[:len(payload)-8], crc64Table)

	if gotSum != wantSum {
		return newErr("ERR", "ERR DUMP payload version or checksum are wrong")
	}

	val, derr := decodeDumpBody(body)
	if derr != nil {
		return derr
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.lookup(key); exists && !replace {
		return newErr("BUSYKEY", "BUSYKEY Target key name already exists.")
	}

	if ttlMs > 0 {
		val.expireAt = nowMs() + ttlMs
	}

	e.keys[key] = val
	e.touchLocked(key)

	return nil
}

func decodeDumpBody(body []byte) (*value, *Error) {
	if len(body) < 1 {
		return nil, newErr("ERR", "ERR Bad data format")
	}

	kind := Kind(body[0])
	body = body[1:]

	fail := func() (*value, *Error) { return nil, newErr("ERR", "ERR Bad data format") }

	switch kind {
	case KindString:
		s, _, ok := readString(body)
		if !ok {
			return fail()
		}

		return newStringValue(append([]byte(nil), s...)), nil

	case KindList:
		n, rest, ok := readUint64(body)
		if !ok {
			return fail()
		}

		v := newListValue()

		for i := uint64(0); i < n; i++ {
			var s []byte

			s, rest, ok = readString(rest)
			if !ok {
				return fail()
			}

			v.list.PushBack(append([]byte(nil), s...))
		}

		return v, nil

	case KindSet:
		n, rest, ok := readUint64(body)
		if !ok {
			return fail()
		}

		v := newSetValue()

		for i := uint64(0); i < n; i++ {
			var s []byte

			s, rest, ok = readString(rest)
			if !ok {
				return fail()
			}

			v.set[string(s)] = struct{}{}
		}

		return v, nil

	case KindHash:
		n, rest, ok := readUint64(body)
		if !ok {
			return fail()
		}

		v := newHashValue()

		for i := uint64(0); i < n; i++ {
			var f, val []byte

			f, rest, ok = readString(rest)
			if !ok {
				return fail()
			}

			val, rest, ok = readString(rest)
			if !ok {
				return fail()
			}

			v.hash.set(string(f), append([]byte(nil), val...))
		}

		return v, nil

	case KindZSet:
		n, rest, ok := readUint64(body)
		if !ok {
			return fail()
		}

		v := newZSetValue()

		for i := uint64(0); i < n; i++ {
			var m []byte

			m, rest, ok = readString(rest)
			if !ok {
				return fail()
			}

			var bits uint64

			bits, rest, ok = readUint64(rest)
			if !ok {
				return fail()
			}

			v.zset.upsert(string(m), math.Float64frombits(bits))
		}

		return v, nil

	case KindStream:
		n, rest, ok := readUint64(body)
		if !ok {
			return fail()
		}

		v := newStreamValue()

		for i := uint64(0); i < n; i++ {
			var ms, seq, fieldCount uint64

			ms, rest, ok = readUint64(rest)
			if !ok {
				return fail()
			}

			seq, rest, ok = readUint64(rest)
			if !ok {
				return fail()
			}

			fieldCount, rest, ok = readUint64(rest)
			if !ok {
				return fail()
			}

			fields := make([][2]string, 0, fieldCount)

			for f := uint64(0); f < fieldCount; f++ {
				var fk, fv []byte

				fk, rest, ok = readString(rest)
				if !ok {
					return fail()
				}

				fv, rest, ok = readString(rest)
				if !ok {
					return fail()
				}

				fields = append(fields, [2]string{string(fk), string(fv)})
			}

			id := StreamID{Ms: ms, Seq: seq}
			v.stream.append(id, fields)
		}

		return v, nil

	default:
		return fail()
	}
}
