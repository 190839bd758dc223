// Package logging abstracts packet-level logging behind a small
// interface with one method per direction (LogSend, LogRecv). It provides
// a no-op implementation and a logrus-backed one that logs a structured
// summary of each packet (sequence number, flags, byte count); neither
// writes the raw datagrams to disk.
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/opensim-go/viewercircuit/pkg/packet"
)

// Logger observes packets as they cross the wire. Implementations must
// not block the sender or reader loop for long — logging is a
// side-channel, never a gate on delivery.
type Logger interface {
	// LogSend is called just before a packet is written to the socket.
	// raw is the encoded datagram.
	LogSend(raw []byte, p *packet.Packet)
	// LogRecv is called after a datagram has been decoded (or failed to
	// decode — err is non-nil and p is nil in that case). raw is the
	// datagram as received.
	LogRecv(raw []byte, p *packet.Packet, err error)
}

// NoopLogger discards every event. It is the default for production use,
// where per-packet logging would be a measurable cost on a busy circuit.
type NoopLogger struct{}

func (NoopLogger) LogSend([]byte, *packet.Packet)        {}
func (NoopLogger) LogRecv([]byte, *packet.Packet, error) {}

// LogrusLogger logs a structured summary of each packet at debug level,
// useful when diagnosing retransmit storms or zero-coding bugs.
type LogrusLogger struct {
	Entry *logrus.Entry
}

// NewLogrusLogger wraps a logrus.Logger (or a sub-entry with fields
// already attached, e.g. a circuit's remote address) for packet logging.
func NewLogrusLogger(entry *logrus.Entry) *LogrusLogger {
	return &LogrusLogger{Entry: entry}
}

func (l *LogrusLogger) LogSend(raw []byte, p *packet.Packet) {
	l.Entry.WithFields(logrus.Fields{
		"direction": "send",
		"seq":       p.SequenceNumber,
		"flags":     p.Flags,
		"bytes":     len(raw),
	}).Debug("packet")
}

func (l *LogrusLogger) LogRecv(raw []byte, p *packet.Packet, err error) {
	fields := logrus.Fields{
		"direction": "recv",
		"bytes":     len(raw),
	}
	if err != nil {
		l.Entry.WithFields(fields).WithError(err).Warn("packet decode failed")
		return
	}
	fields["seq"] = p.SequenceNumber
	fields["flags"] = p.Flags
	l.Entry.WithFields(fields).Debug("packet")
}
