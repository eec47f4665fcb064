package value

import (
	"bytes"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Equal compares variant and contents. Floats use ==, so NaN never equals
// itself. Mapping pair order is ignored.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt64:
		return a.i == b.i
	case KindFloat32, KindFloat64:
		return a.f == b.f
	case KindText:
		return a.s == b.s
	case KindBytes:
		return bytes.Equal(a.raw, b.raw)
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return pairsEqual(a.pairs, b.pairs, Equal)
	}
	return false
}

// ApproxEqual is Equal with float variants compared within tol, relative
// to the larger magnitude when that exceeds 1.
func ApproxEqual(a, b Value, tol float64) bool {
	if a.kind != b.kind {
		return false
	}
	cmp := func(x, y Value) bool { return ApproxEqual(x, y, tol) }
	switch a.kind {
	case KindFloat32, KindFloat64:
		return floatClose(a.f, b.f, tol)
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !cmp(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return pairsEqual(a.pairs, b.pairs, cmp)
	default:
		return Equal(a, b)
	}
}

func floatClose(x, y, tol float64) bool {
	if x == y {
		return true
	}
	diff := math.Abs(x - y)
	scale := math.Max(1, math.Max(math.Abs(x), math.Abs(y)))
	return diff <= tol*scale
}

func pairsEqual(a, b []Pair, eq func(Value, Value) bool) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, pa := range a {
		found := false
		for j, pb := range b {
			if used[j] || !Equal(pa.Key, pb.Key) {
				continue
			}
			if !eq(pa.Value, pb.Value) {
				return false
			}
			used[j] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}

// Identity renders v so that two values share an identity exactly when
// Equal holds, except that NaNs of one kind share one identity. Decoders
// use it to detect repeated mapping keys.
func Identity(v Value) string {
	var b strings.Builder
	writeIdentity(&b, v)
	return b.String()
}

func writeIdentity(b *strings.Builder, v Value) {
	b.WriteByte(byte('0' + v.kind))
	switch v.kind {
	case KindBool:
		b.WriteString(strconv.FormatBool(v.b))
	case KindInt64:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat32, KindFloat64:
		f := v.f
		if f == 0 {
			f = 0
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case KindText:
		writeBlock(b, v.s)
	case KindBytes:
		writeBlock(b, string(v.raw))
	case KindSequence:
		b.WriteString(strconv.Itoa(len(v.seq)))
		for _, item := range v.seq {
			writeBlock(b, Identity(item))
		}
	case KindMapping:
		entries := make([]string, len(v.pairs))
		for i, p := range v.pairs {
			var e strings.Builder
			writeBlock(&e, Identity(p.Key))
			writeBlock(&e, Identity(p.Value))
			entries[i] = e.String()
		}
		sort.Strings(entries)
		b.WriteString(strconv.Itoa(len(entries)))
		for _, e := range entries {
			b.WriteString(e)
		}
	}
}

// writeBlock length-prefixes s so nested identities cannot run together.
func writeBlock(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
