// Package llsd implements the Linden Lab Structured Data value model and
// its binary, XML, and autodetecting codecs.
package llsd

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/opensim-go/viewercircuit/pkg/types"
)

// Kind identifies which alternative of the Value sum type is held.
type Kind int

const (
	KindUndef Kind = iota
	KindBoolean
	KindInteger
	KindReal
	KindUUID
	KindString
	KindDate
	KindURI
	KindBinary
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindUndef:
		return "undef"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindUUID:
		return "uuid"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindURI:
		return "uri"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the LLSD sum type: a scalar, an ordered Array, or a Map with
// unique string keys. Construct one with the New* functions below; read it
// back with the To* coercion methods or the Kind-specific accessors.
type Value struct {
	kind Kind

	boolVal   bool
	intVal    int32
	realVal   float64
	uuidVal   types.UUID
	stringVal string
	dateVal   time.Time
	binVal    []byte

	arrVal []Value
	mapVal map[string]Value
}

// Undef returns the LLSD undefined value.
func Undef() Value { return Value{kind: KindUndef} }

// NewBoolean constructs a Boolean scalar.
func NewBoolean(b bool) Value { return Value{kind: KindBoolean, boolVal: b} }

// NewInteger constructs an Integer (i32) scalar.
func NewInteger(i int32) Value { return Value{kind: KindInteger, intVal: i} }

// NewReal constructs a Real (f64) scalar.
func NewReal(r float64) Value { return Value{kind: KindReal, realVal: r} }

// NewUUID constructs a Uuid scalar.
func NewUUID(u types.UUID) Value { return Value{kind: KindUUID, uuidVal: u} }

// NewString constructs a String scalar.
func NewString(s string) Value { return Value{kind: KindString, stringVal: s} }

// NewDate constructs a Date scalar (a UTC instant).
func NewDate(t time.Time) Value { return Value{kind: KindDate, dateVal: t.UTC()} }

// NewURI constructs a Uri scalar.
func NewURI(s string) Value { return Value{kind: KindURI, stringVal: s} }

// NewBinary constructs a Binary scalar.
func NewBinary(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBinary, binVal: cp}
}

// NewArray constructs an ordered Array of values.
func NewArray(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, arrVal: cp}
}

// NewMap constructs a Map from string keys to values. Keys must be unique;
// the provided map already enforces that.
func NewMap(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, mapVal: cp}
}

// Kind reports which alternative this Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsScalar reports whether v is a scalar (not Array or Map).
func (v Value) IsScalar() bool {
	return v.kind != KindArray && v.kind != KindMap
}

// Array returns the underlying slice and true if v is an Array.
func (v Value) Array() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arrVal, true
}

// Map returns the underlying map and true if v is a Map.
func (v Value) Map() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.mapVal, true
}

// sortedMapKeys returns a Map's keys in sorted order, for deterministic
// serialization. LLSD maps are unordered by spec; sorting only affects the
// wire bytes we choose to write, never round-trip equality.
func sortedMapKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep, order-sensitive-for-arrays (order-insensitive for
// maps) equality between two Values. NaN reals compare equal to NaN here,
// matching IEEE round-trip testing expectations for this protocol.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndef:
		return true
	case KindBoolean:
		return a.boolVal == b.boolVal
	case KindInteger:
		return a.intVal == b.intVal
	case KindReal:
		if math.IsNaN(a.realVal) && math.IsNaN(b.realVal) {
			return true
		}
		return a.realVal == b.realVal
	case KindUUID:
		return a.uuidVal == b.uuidVal
	case KindString, KindURI:
		return a.stringVal == b.stringVal
	case KindDate:
		return a.dateVal.Equal(b.dateVal)
	case KindBinary:
		if len(a.binVal) != len(b.binVal) {
			return false
		}
		for i := range a.binVal {
			if a.binVal[i] != b.binVal[i] {
				return false
			}
		}
		return true
	case KindArray:
		if len(a.arrVal) != len(b.arrVal) {
			return false
		}
		for i := range a.arrVal {
			if !Equal(a.arrVal[i], b.arrVal[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.mapVal) != len(b.mapVal) {
			return false
		}
		for k, av := range a.mapVal {
			bv, ok := b.mapVal[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ---- Coercions ----
//
// Every coercion is a total function: it either succeeds (ok=true) or
// returns the zero value with ok=false ("missing"). Rules follow §3 of the
// specification: bool<->int = {0,1}; real->int rounds; string->scalar
// parses (missing on failure); binary->int/real/uuid reads the first
// 4/8/16 bytes big-endian; date->bool is always missing.

// ToBoolean coerces v to a Boolean.
func (v Value) ToBoolean() (bool, bool) {
	switch v.kind {
	case KindBoolean:
		return v.boolVal, true
	case KindInteger:
		return v.intVal != 0, true
	case KindReal:
		return v.realVal != 0, true
	case KindString:
		switch strings.ToLower(v.stringVal) {
		case "true", "1":
			return true, true
		case "false", "0", "":
			return false, true
		default:
			return false, false
		}
	case KindUndef:
		return false, true
	default:
		return false, false
	}
}

// ToInteger coerces v to an Integer (i32).
func (v Value) ToInteger() (int32, bool) {
	switch v.kind {
	case KindInteger:
		return v.intVal, true
	case KindBoolean:
		if v.boolVal {
			return 1, true
		}
		return 0, true
	case KindReal:
		return int32(math.Round(v.realVal)), true
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.stringVal), 10, 32)
		if err != nil {
			return 0, false
		}
		return int32(i), true
	case KindBinary:
		if len(v.binVal) < 4 {
			return 0, false
		}
		return int32(binary.BigEndian.Uint32(v.binVal[:4])), true
	case KindUndef:
		return 0, true
	default:
		return 0, false
	}
}

// ToReal coerces v to a Real (f64).
func (v Value) ToReal() (float64, bool) {
	switch v.kind {
	case KindReal:
		return v.realVal, true
	case KindInteger:
		return float64(v.intVal), true
	case KindBoolean:
		if v.boolVal {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.stringVal), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case KindBinary:
		if len(v.binVal) < 8 {
			return 0, false
		}
		bits := binary.BigEndian.Uint64(v.binVal[:8])
		return math.Float64frombits(bits), true
	case KindUndef:
		return 0, true
	default:
		return 0, false
	}
}

// ToUUID coerces v to a Uuid.
func (v Value) ToUUID() (types.UUID, bool) {
	switch v.kind {
	case KindUUID:
		return v.uuidVal, true
	case KindString:
		u, err := types.ParseUUID(v.stringVal)
		if err != nil {
			return types.Nil, false
		}
		return u, true
	case KindBinary:
		if len(v.binVal) < 16 {
			return types.Nil, false
		}
		u, err := types.UUIDFromBytes(v.binVal[:16])
		if err != nil {
			return types.Nil, false
		}
		return u, true
	case KindUndef:
		return types.Nil, true
	default:
		return types.Nil, false
	}
}

// ToString coerces v to a String via its natural textual representation.
func (v Value) ToString() (string, bool) {
	switch v.kind {
	case KindString, KindURI:
		return v.stringVal, true
	case KindBoolean:
		return strconv.FormatBool(v.boolVal), true
	case KindInteger:
		return strconv.FormatInt(int64(v.intVal), 10), true
	case KindReal:
		return strconv.FormatFloat(v.realVal, 'g', -1, 64), true
	case KindUUID:
		return v.uuidVal.String(), true
	case KindDate:
		return v.dateVal.Format(time.RFC3339), true
	case KindBinary:
		return string(v.binVal), true
	case KindUndef:
		return "", true
	default:
		return "", false
	}
}

// ToDate coerces v to a Date.
func (v Value) ToDate() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.dateVal, true
	case KindString:
		t, err := time.Parse(time.RFC3339, v.stringVal)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	case KindUndef:
		return time.Time{}, true
	default:
		return time.Time{}, false
	}
}

// ToURI coerces v to a Uri.
func (v Value) ToURI() (string, bool) {
	switch v.kind {
	case KindURI, KindString:
		return v.stringVal, true
	case KindUndef:
		return "", true
	default:
		return "", false
	}
}

// ToBinary coerces v to Binary.
func (v Value) ToBinary() ([]byte, bool) {
	switch v.kind {
	case KindBinary:
		return v.binVal, true
	case KindString:
		return []byte(v.stringVal), true
	case KindUUID:
		b, _ := v.uuidVal.MarshalBinary()
		return b, true
	case KindUndef:
		return nil, true
	default:
		return nil, false
	}
}

func (v Value) String() string {
	s, _ := v.ToString()
	return fmt.Sprintf("%s(%s)", v.kind, s)
}
