package packet

import (
	"bytes"
	"testing"

	"github.com/opensim-go/viewercircuit/pkg/messages"
	"github.com/opensim-go/viewercircuit/pkg/types"
)

func TestEncodeDecodeRoundTripPlain(t *testing.T) {
	reg := messages.NewCoreRegistry()
	p := &Packet{
		Flags:          FlagReliable,
		SequenceNumber: types.SequenceNumber(42),
		Message:        &messages.StartPingCheck{PingID: 3, OldestUnacked: 7},
	}
	buf := Encode(p)
	got, err := Decode(buf, reg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Flags != p.Flags || got.SequenceNumber != p.SequenceNumber {
		t.Fatalf("header mismatch: got %+v", got)
	}
	ping, ok := got.Message.(*messages.StartPingCheck)
	if !ok {
		t.Fatalf("wrong message type %T", got.Message)
	}
	if *ping != *p.Message.(*messages.StartPingCheck) {
		t.Fatalf("body mismatch: got %+v", ping)
	}
}

func TestEncodeDecodeRoundTripZeroCoded(t *testing.T) {
	reg := messages.NewCoreRegistry()
	// A LayerData body with a long run of zero bytes is the case
	// zero-coding exists to shrink.
	p := &Packet{
		Flags:          FlagReliable | FlagZeroCoded,
		SequenceNumber: types.SequenceNumber(1),
		Message:        &messages.LayerData{Type: 1, Data: make([]byte, 300)},
	}
	buf := Encode(p)
	got, err := Decode(buf, reg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ld, ok := got.Message.(*messages.LayerData)
	if !ok {
		t.Fatalf("wrong message type %T", got.Message)
	}
	want := p.Message.(*messages.LayerData)
	if ld.Type != want.Type || !bytes.Equal(ld.Data, want.Data) {
		t.Fatalf("body mismatch after zero-coded round trip")
	}
}

// TestEncodeDecodeZeroCodedLowFrequencyMessageNumber guards against
// zero-coding reaching into the message number: UseCircuitCode's code is
// low-frequency (wire bytes FF FF 00 01), which contains a 0x00 that
// must never be treated as the start of a zero run.
func TestEncodeDecodeZeroCodedLowFrequencyMessageNumber(t *testing.T) {
	reg := messages.NewCoreRegistry()
	want := &messages.UseCircuitCode{
		CircuitCode: 12345,
		SessionID:   types.UUID{1, 2, 3},
		AgentID:     types.UUID{4, 5, 6},
	}
	p := &Packet{
		Flags:          FlagReliable | FlagZeroCoded,
		SequenceNumber: types.SequenceNumber(1),
		Message:        want,
	}
	buf := Encode(p)
	got, err := Decode(buf, reg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	uc, ok := got.Message.(*messages.UseCircuitCode)
	if !ok {
		t.Fatalf("wrong message type %T", got.Message)
	}
	if *uc != *want {
		t.Fatalf("body mismatch: got %+v, want %+v", uc, want)
	}
}

func TestEncodeDecodeRoundTripAppendedAcks(t *testing.T) {
	reg := messages.NewCoreRegistry()
	p := &Packet{
		Flags:          FlagReliable | FlagAppendedAcks,
		SequenceNumber: types.SequenceNumber(9),
		Message:        &messages.CompletePingCheck{PingID: 9},
		AppendedAcks:   []types.SequenceNumber{1, 2, 3},
	}
	buf := Encode(p)
	got, err := Decode(buf, reg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.AppendedAcks) != 3 {
		t.Fatalf("got %d appended acks, want 3", len(got.AppendedAcks))
	}
	for i, want := range p.AppendedAcks {
		if got.AppendedAcks[i] != want {
			t.Fatalf("appended ack %d: got %d, want %d", i, got.AppendedAcks[i], want)
		}
	}
}

func TestDecodeUnknownMessageNumber(t *testing.T) {
	reg := messages.NewRegistry() // empty
	p := &Packet{
		Flags:          0,
		SequenceNumber: types.SequenceNumber(1),
		Message:        &messages.StartPingCheck{PingID: 1, OldestUnacked: 0},
	}
	buf := Encode(p)
	_, err := Decode(buf, reg)
	if err == nil {
		t.Fatalf("expected an UnknownMessageNumberError")
	}
	var unknown *UnknownMessageNumberError
	if !errorsAs(err, &unknown) {
		t.Fatalf("got error %v, want *UnknownMessageNumberError", err)
	}
}

func TestZeroCodeRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{1, 2, 3},
		{0, 0, 0, 0, 0},
		bytes.Repeat([]byte{0}, 600),
		{1, 0, 0, 2, 0, 0, 0, 3},
	}
	for _, c := range cases {
		encoded := zeroEncode(c)
		decoded, err := zeroDecode(encoded)
		if err != nil {
			t.Fatalf("zeroDecode(zeroEncode(%v)): %v", c, err)
		}
		if !bytes.Equal(decoded, c) {
			t.Fatalf("round trip mismatch: got %v, want %v", decoded, c)
		}
	}
}

func TestZeroDecodeTruncatedRun(t *testing.T) {
	if _, err := zeroDecode([]byte{1, 2, 0x00}); err != ErrTruncatedZeroRun {
		t.Fatalf("got %v, want ErrTruncatedZeroRun", err)
	}
}

// errorsAs avoids importing errors just for this one assertion pattern
// in a way that keeps the test file's focus on framing, not imports.
func errorsAs(err error, target **UnknownMessageNumberError) bool {
	if e, ok := err.(*UnknownMessageNumberError); ok {
		*target = e
		return true
	}
	return false
}
