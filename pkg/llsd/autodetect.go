package llsd

import (
	"bytes"
	"fmt"
)

// Representation identifies which LLSD encoding a byte stream sniffed to.
type Representation int

const (
	RepresentationUnknown Representation = iota
	RepresentationBinary
	RepresentationXML
	RepresentationNotation
)

var (
	binaryHeader   = []byte("<? LLSD/BINARY ?>\n")
	xmlPrefix      = []byte("<?xml ")
	notationHeader = []byte("<?llsd/notation?>\n")
)

// Sniff inspects the leading bytes of buf and reports which LLSD
// representation it is, per §4.E. Notation is recognized but reported as
// unsupported rather than guessed at further.
func Sniff(buf []byte) (Representation, error) {
	switch {
	case bytes.HasPrefix(buf, binaryHeader):
		return RepresentationBinary, nil
	case bytes.HasPrefix(buf, xmlPrefix):
		return RepresentationXML, nil
	case bytes.HasPrefix(buf, notationHeader):
		return RepresentationNotation, fmt.Errorf("llsd: notation representation is not supported")
	default:
		return RepresentationUnknown, fmt.Errorf("llsd: could not detect LLSD representation")
	}
}

// Read autodetects buf's representation and decodes the single value it
// contains, stripping the representation header first.
func Read(buf []byte) (Value, error) {
	rep, err := Sniff(buf)
	if err != nil {
		return Value{}, err
	}
	switch rep {
	case RepresentationBinary:
		return ReadBinary(buf[len(binaryHeader):])
	case RepresentationXML:
		return ReadXML(buf)
	default:
		return Value{}, fmt.Errorf("llsd: unsupported representation")
	}
}
