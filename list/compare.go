package list

import (
	"cmp"
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"time"
)

// Value classes in ascending order. Anything unsupported, including nil,
// sorts first.
const (
	rankOther = iota
	rankNumber
	rankString
	rankTime
	rankBool
)

type numKind int

const (
	numInt numKind = iota
	numUint
	numFloat
)

type number struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func (n number) float() float64 {
	switch n.kind {
	case numInt:
		return float64(n.i)
	case numUint:
		return float64(n.u)
	}
	return n.f
}

type sortKey struct {
	rank int
	num  number
	str  string
	t    time.Time
	b    bool
}

func keyOf(v any) sortKey {
	switch x := v.(type) {
	case nil:
		return sortKey{}
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return sortKey{rank: rankNumber, num: number{kind: numInt, i: i}}
		}
		if f, err := x.Float64(); err == nil {
			return sortKey{rank: rankNumber, num: number{kind: numFloat, f: f}}
		}
		return sortKey{}
	case time.Time:
		return sortKey{rank: rankTime, t: x}
	case *time.Time:
		if x == nil {
			return sortKey{}
		}
		return sortKey{rank: rankTime, t: *x}
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return sortKey{}
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sortKey{rank: rankNumber, num: number{kind: numInt, i: rv.Int()}}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return sortKey{rank: rankNumber, num: number{kind: numUint, u: rv.Uint()}}
	case reflect.Float32, reflect.Float64:
		return sortKey{rank: rankNumber, num: number{kind: numFloat, f: rv.Float()}}
	case reflect.String:
		return sortKey{rank: rankString, str: rv.String()}
	case reflect.Bool:
		return sortKey{rank: rankBool, b: rv.Bool()}
	case reflect.Struct:
		if t, ok := rv.Interface().(time.Time); ok {
			return sortKey{rank: rankTime, t: t}
		}
	}
	return sortKey{}
}

// Compare orders two column values. It is a total order:
//
//	nil and unsupported values < numbers < strings < time.Time < bool
//
// Numbers of any Go integer or float kind, and json.Number, compare by
// value; NaN sorts below every other number. Strings compare byte-wise, so
// the order is case-sensitive. Values of the same unsupported class are equal.
func Compare(a, b any) int {
	ka, kb := keyOf(a), keyOf(b)
	if c := cmp.Compare(ka.rank, kb.rank); c != 0 {
		return c
	}
	switch ka.rank {
	case rankNumber:
		return compareNumbers(ka.num, kb.num)
	case rankString:
		return strings.Compare(ka.str, kb.str)
	case rankTime:
		return ka.t.Compare(kb.t)
	case rankBool:
		switch {
		case ka.b == kb.b:
			return 0
		case !ka.b:
			return -1
		}
		return 1
	}
	return 0
}

func compareNumbers(a, b number) int {
	switch {
	case a.kind == numInt && b.kind == numInt:
		return cmp.Compare(a.i, b.i)
	case a.kind == numUint && b.kind == numUint:
		return cmp.Compare(a.u, b.u)
	case a.kind == numInt && b.kind == numUint:
		if a.i < 0 {
			return -1
		}
		return cmp.Compare(uint64(a.i), b.u)
	case a.kind == numUint && b.kind == numInt:
		if b.i < 0 {
			return 1
		}
		return cmp.Compare(a.u, uint64(b.i))
	}
	fa, fb := a.float(), b.float()
	switch na, nb := math.IsNaN(fa), math.IsNaN(fb); {
	case na && nb:
		return 0
	case na:
		return -1
	case nb:
		return 1
	}
	return cmp.Compare(fa, fb)
}
