package llsd

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/opensim-go/viewercircuit/pkg/bitio"
	"github.com/opensim-go/viewercircuit/pkg/types"
)

// Binary type tags, §4.B.
const (
	tagUndef   = '!'
	tagFalse   = '0'
	tagTrue    = '1'
	tagInteger = 'i'
	tagReal    = 'r'
	tagUUID    = 'u'
	tagBinary  = 'b'
	tagString  = 's'
	tagKey     = 'k'
	tagURI     = 'l'
	tagDate    = 'd'
	tagArray   = '['
	tagArrayEnd = ']'
	tagMap     = '{'
	tagMapEnd  = '}'
)

// ReadBinary decodes a single LLSD value from its binary representation.
// It does not expect (and does not skip) the "<? LLSD/BINARY ?>\n" header;
// callers that need autodetection should use Sniff first.
func ReadBinary(buf []byte) (Value, error) {
	r := bitio.NewByteReader(buf)
	v, err := readBinaryValue(r)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

func readBinaryValue(r *bitio.ByteReader) (Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Value{}, fmt.Errorf("llsd: read type tag: %w", err)
	}

	switch tag {
	case tagUndef:
		return Undef(), nil
	case tagFalse:
		return NewBoolean(false), nil
	case tagTrue:
		return NewBoolean(true), nil
	case tagInteger:
		i, err := r.ReadI32(binary.BigEndian)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: read integer: %w", err)
		}
		return NewInteger(i), nil
	case tagReal:
		f, err := r.ReadF64(binary.BigEndian)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: read real: %w", err)
		}
		return NewReal(f), nil
	case tagUUID:
		b, err := r.ReadBytes(16)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: read uuid: %w", err)
		}
		u, err := types.UUIDFromBytes(b)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: parse uuid: %w", err)
		}
		return NewUUID(u), nil
	case tagBinary:
		b, err := readLenPrefixed(r)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: read binary: %w", err)
		}
		return NewBinary(b), nil
	case tagString, tagKey:
		b, err := readLenPrefixed(r)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: read string: %w", err)
		}
		return NewString(string(b)), nil
	case tagURI:
		b, err := readLenPrefixed(r)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: read uri: %w", err)
		}
		return NewURI(string(b)), nil
	case tagDate:
		// Date endianness asymmetry is deliberate: Real uses big-endian,
		// Date uses little-endian. Preserved verbatim per §9.
		secs, err := r.ReadF64(binary.LittleEndian)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: read date: %w", err)
		}
		return NewDate(secondsToTime(secs)), nil
	case tagArray:
		count, err := r.ReadU32(binary.BigEndian)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: read array count: %w", err)
		}
		items := make([]Value, 0, count)
		for i := uint32(0); i < count; i++ {
			item, err := readBinaryValue(r)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		if _, err := r.ReadByte(); err != nil {
			return Value{}, fmt.Errorf("llsd: read array terminator: %w", err)
		}
		return NewArray(items), nil
	case tagMap:
		count, err := r.ReadU32(binary.BigEndian)
		if err != nil {
			return Value{}, fmt.Errorf("llsd: read map count: %w", err)
		}
		m := make(map[string]Value, count)
		for i := uint32(0); i < count; i++ {
			keyVal, err := readBinaryValue(r)
			if err != nil {
				return Value{}, err
			}
			key, ok := keyVal.ToString()
			if !ok || keyVal.Kind() != KindString {
				return Value{}, fmt.Errorf("llsd: map key is not a string")
			}
			val, err := readBinaryValue(r)
			if err != nil {
				return Value{}, err
			}
			m[key] = val
		}
		if _, err := r.ReadByte(); err != nil {
			return Value{}, fmt.Errorf("llsd: read map terminator: %w", err)
		}
		return NewMap(m), nil
	default:
		return Value{}, fmt.Errorf("llsd: unknown binary type tag %q", tag)
	}
}

func readLenPrefixed(r *bitio.ByteReader) ([]byte, error) {
	n, err := r.ReadU32(binary.BigEndian)
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

func secondsToTime(secs float64) time.Time {
	whole := int64(secs)
	frac := secs - float64(whole)
	return time.Unix(whole, int64(frac*1e9)).UTC()
}

func timeToSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// WriteBinary encodes v in the binary representation described in §4.B.
func WriteBinary(v Value) []byte {
	w := bitio.NewByteWriter(64)
	writeBinaryValue(w, v, false)
	return w.Bytes()
}

func writeBinaryValue(w *bitio.ByteWriter, v Value, isKey bool) {
	switch v.kind {
	case KindUndef:
		w.WriteByte(tagUndef)
	case KindBoolean:
		if v.boolVal {
			w.WriteByte(tagTrue)
		} else {
			w.WriteByte(tagFalse)
		}
	case KindInteger:
		w.WriteByte(tagInteger)
		w.WriteI32(binary.BigEndian, v.intVal)
	case KindReal:
		w.WriteByte(tagReal)
		w.WriteF64(binary.BigEndian, v.realVal)
	case KindUUID:
		w.WriteByte(tagUUID)
		b, _ := v.uuidVal.MarshalBinary()
		w.WriteBytes(b)
	case KindBinary:
		w.WriteByte(tagBinary)
		w.WriteU32(binary.BigEndian, uint32(len(v.binVal)))
		w.WriteBytes(v.binVal)
	case KindString:
		if isKey {
			w.WriteByte(tagKey)
		} else {
			w.WriteByte(tagString)
		}
		w.WriteU32(binary.BigEndian, uint32(len(v.stringVal)))
		w.WriteBytes([]byte(v.stringVal))
	case KindURI:
		w.WriteByte(tagURI)
		w.WriteU32(binary.BigEndian, uint32(len(v.stringVal)))
		w.WriteBytes([]byte(v.stringVal))
	case KindDate:
		w.WriteByte(tagDate)
		w.WriteF64(binary.LittleEndian, timeToSeconds(v.dateVal))
	case KindArray:
		w.WriteByte(tagArray)
		w.WriteU32(binary.BigEndian, uint32(len(v.arrVal)))
		for _, item := range v.arrVal {
			writeBinaryValue(w, item, false)
		}
		w.WriteByte(tagArrayEnd)
	case KindMap:
		w.WriteByte(tagMap)
		w.WriteU32(binary.BigEndian, uint32(len(v.mapVal)))
		for _, key := range sortedMapKeys(v.mapVal) {
			writeBinaryValue(w, NewString(key), true)
			writeBinaryValue(w, v.mapVal[key], false)
		}
		w.WriteByte(tagMapEnd)
	default:
		panic(fmt.Sprintf("llsd: write: unhandled kind %v", v.kind))
	}
}
