// Package packet implements the wire-exact datagram codec: header flags,
// zero-coding compression, and appended-ack trailers, grounded on the
// teacher's `DataPacket.Encode`/`DecodeDataPacket` framing in
// `source/protocol/raknet.go` and on `original_source/src/packet.rs`'s
// `PacketReader` zero-coding decorator.
package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/opensim-go/viewercircuit/pkg/bitio"
	"github.com/opensim-go/viewercircuit/pkg/messages"
	"github.com/opensim-go/viewercircuit/pkg/types"
)

// Flags are the eight header bits a Packet carries. Values match the
// deployed protocol's bit assignments so a capture taken off the wire can
// be read back without a private translation table.
type Flags byte

const (
	FlagZeroCoded    Flags = 0x80
	FlagReliable     Flags = 0x40
	FlagResent       Flags = 0x20
	FlagAppendedAcks Flags = 0x10
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Packet is a single decoded (or about-to-be-encoded) datagram, carrying
// exactly one message plus any piggybacked acks.
type Packet struct {
	Flags          Flags
	SequenceNumber types.SequenceNumber
	ExtraHeader    []byte
	Message        messages.MessageInstance
	AppendedAcks   []types.SequenceNumber
}

// seqOrder is the byte order for SequenceNumber fields in the frame
// header and the appended-ack trailer, per §4.G.
var seqOrder = binary.BigEndian

// ErrTruncatedZeroRun is returned when a zero-coded body ends in the
// middle of a 0x00-count pair.
var ErrTruncatedZeroRun = fmt.Errorf("packet: zero-coded body ends mid run")

// UnknownMessageNumberError is returned when a decoded message number has
// no matching registration in the Registry passed to Decode.
type UnknownMessageNumberError struct {
	Code messages.Code
}

func (e *UnknownMessageNumberError) Error() string {
	return fmt.Sprintf("packet: unknown message number %+v", e.Code)
}

// Encode writes p to its wire representation. The extra-header field is
// always written empty, per §9's design note: the core never sets it.
//
// Zero-coding toggles on only after the message number has been written,
// per §4.G — the number itself is never zero-coded, since a low/fixed
// frequency number (e.g. UseCircuitCode's `FF FF 00 01`) routinely
// contains a raw 0x00 that is not part of a zero run.
func Encode(p *Packet) []byte {
	w := bitio.NewByteWriter(64)
	w.WriteByte(byte(p.Flags))
	w.WriteU32(seqOrder, uint32(p.SequenceNumber))
	w.WriteByte(byte(len(p.ExtraHeader)))
	w.WriteBytes(p.ExtraHeader)

	messages.WriteCode(w, p.Message.Code())

	fields := bitio.NewByteWriter(64)
	p.Message.WriteBody(fields)
	fieldBytes := fields.Bytes()
	if p.Flags.Has(FlagZeroCoded) {
		fieldBytes = zeroEncode(fieldBytes)
	}
	w.WriteBytes(fieldBytes)

	if p.Flags.Has(FlagAppendedAcks) {
		if len(p.AppendedAcks) == 0 || len(p.AppendedAcks) > 255 {
			panic("packet: APPENDED_ACKS set with 0 or more than 255 acks")
		}
		for _, seq := range p.AppendedAcks {
			w.WriteU32(seqOrder, uint32(seq))
		}
		w.WriteByte(byte(len(p.AppendedAcks)))
	}
	return w.Bytes()
}

// Decode parses a single datagram, resolving its message against reg.
//
// Zero-coding, when set, covers only the fields that follow the message
// number — the extra-header length byte and the message number itself
// are always read raw, and zero-coding is toggled on only afterward, per
// §4.G (mirroring `original_source/src/packet.rs`'s
// `read_message_number()` followed by `reader.zerocoding_enabled = true`).
// The appended-ack trailer is never zero-coded either. When
// APPENDED_ACKS is set, the trailing ack count is the last byte of the
// raw datagram, read without going through the byte reader at all, since
// it sits after a region the reader has no a priori length for.
func Decode(buf []byte, reg *messages.Registry) (*Packet, error) {
	r := bitio.NewByteReader(buf)

	flagsByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("packet: read flags: %w", err)
	}
	flags := Flags(flagsByte)

	seqRaw, err := r.ReadU32(seqOrder)
	if err != nil {
		return nil, fmt.Errorf("packet: read sequence number: %w", err)
	}
	seq := types.SequenceNumber(seqRaw)

	extraLen, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("packet: read extra-header length: %w", err)
	}
	extraHeader, err := r.ReadBytes(int(extraLen))
	if err != nil {
		return nil, fmt.Errorf("packet: read extra-header: %w", err)
	}

	bodyEnd := len(buf)
	ackCount := 0
	if flags.Has(FlagAppendedAcks) {
		if len(buf) < 1 {
			return nil, fmt.Errorf("packet: APPENDED_ACKS set but datagram is empty")
		}
		ackCount = int(buf[len(buf)-1])
		bodyEnd = len(buf) - 1 - ackCount*4
		if bodyEnd < r.Offset() {
			return nil, fmt.Errorf("packet: appended-ack trailer longer than datagram")
		}
	}

	code, err := messages.ReadCode(r)
	if err != nil {
		return nil, fmt.Errorf("packet: read message number: %w", err)
	}
	msg, ok := reg.New(code)
	if !ok {
		return nil, &UnknownMessageNumberError{Code: code}
	}

	fieldsRaw := buf[r.Offset():bodyEnd]
	if flags.Has(FlagZeroCoded) {
		fieldsRaw, err = zeroDecode(fieldsRaw)
		if err != nil {
			return nil, fmt.Errorf("packet: zero-decode body: %w", err)
		}
	}

	fieldsReader := bitio.NewByteReader(fieldsRaw)
	if err := msg.ReadBody(fieldsReader); err != nil {
		return nil, fmt.Errorf("packet: read message body: %w", err)
	}

	var appendedAcks []types.SequenceNumber
	if flags.Has(FlagAppendedAcks) {
		acksReader := bitio.NewByteReader(buf[bodyEnd : len(buf)-1])
		appendedAcks = make([]types.SequenceNumber, 0, ackCount)
		for i := 0; i < ackCount; i++ {
			v, err := acksReader.ReadU32(seqOrder)
			if err != nil {
				return nil, fmt.Errorf("packet: read appended ack %d: %w", i, err)
			}
			appendedAcks = append(appendedAcks, types.SequenceNumber(v))
		}
	}

	return &Packet{
		Flags:          flags,
		SequenceNumber: seq,
		ExtraHeader:    extraHeader,
		Message:        msg,
		AppendedAcks:   appendedAcks,
	}, nil
}
