package protocol

import (
	"fmt"
	"sync/atomic"
)

// Wire-format constants for the 17-byte packet header.
const (
	// HeaderSize is the fixed header length. Payload bytes follow at
	// offset 17 and may be absent entirely.
	HeaderSize = 17

	// ProtocolVersion is the only version observed on the wire.
	ProtocolVersion = 0x00
)

// Command identifiers carried in header byte 16.
const (
	CmdAck        = 128 // command acknowledged
	CmdNack       = 129 // command rejected
	CmdHVACSet    = 97  // set mode / set full state (endpoint 1)
	CmdHVACLegacy = 98  // legacy temperature/fan-level/swing-toggle commands
	CmdJoin       = 161 // join family: enumerate, subscribe
	CmdCustom     = 162 // custom family: battery/signal status, temp offset
	CmdPoll       = 228 // broadcast poll, devices answer with status pushes
	CmdStatusPush = 253 // unsolicited status push
)

// Endpoints address logical sub-units of a device.
const (
	EndpointDefault = 0
	EndpointHVAC    = 1
)

// ErrMalformedPacket is returned when a datagram is too short to contain a
// complete header.
var ErrMalformedPacket = fmt.Errorf("malformed packet: shorter than %d-byte header", HeaderSize)

// Header is the decoded 17-byte packet header.
//
// Layout (verified against live captures):
//
//	[0]     version          Always 0x00
//	[1:7]   source MAC       Zero-filled on outbound packets
//	[7:13]  destination MAC  Device address or FF:FF:FF:FF:FF:FF
//	[13]    sequence         Per-client counter, wraps 255 -> 0
//	[14]    source endpoint
//	[15]    destination endpoint
//	[16]    command id
type Header struct {
	Version     byte
	Source      MAC
	Destination MAC
	Sequence    byte
	SrcEndpoint byte
	DstEndpoint byte
	CommandID   byte
}

// String returns a debug representation of the header.
func (h *Header) String() string {
	return fmt.Sprintf("Header{src=%s, dst=%s, seq=%d, ep=%d->%d, cmd=%s}",
		h.Source, h.Destination, h.Sequence, h.SrcEndpoint, h.DstEndpoint,
		CommandName(h.CommandID))
}

// HeaderCodec builds outbound headers. It owns the packet sequence counter,
// which advances exactly once per header built and wraps modulo 256. A codec
// is safe for concurrent use; construct one per client instance.
type HeaderCodec struct {
	seq atomic.Uint32
}

// NewHeaderCodec returns a codec with the sequence counter at zero.
func NewHeaderCodec() *HeaderCodec {
	return &HeaderCodec{}
}

// EncodeHeader lays out a 17-byte header addressed to dst. The source MAC is
// zero-filled: this client never presents a hardware address of its own.
func (c *HeaderCodec) EncodeHeader(dst MAC, commandID, srcEndpoint, dstEndpoint byte) []byte {
	seq := byte(c.seq.Add(1) - 1)

	header := make([]byte, HeaderSize)
	header[0] = ProtocolVersion
	// header[1:7] stays zero: source MAC
	copy(header[7:13], dst[:])
	header[13] = seq
	header[14] = srcEndpoint
	header[15] = dstEndpoint
	header[16] = commandID
	return header
}

// DecodeHeader parses the fixed header from a raw datagram. The remainder of
// the datagram past byte 17 is the command payload and is returned untouched.
func DecodeHeader(data []byte) (*Header, []byte, error) {
	if len(data) < HeaderSize {
		return nil, nil, ErrMalformedPacket
	}

	h := &Header{
		Version:     data[0],
		Sequence:    data[13],
		SrcEndpoint: data[14],
		DstEndpoint: data[15],
		CommandID:   data[16],
	}
	copy(h.Source[:], data[1:7])
	copy(h.Destination[:], data[7:13])

	return h, data[HeaderSize:], nil
}

// CommandName returns a human-readable name for a command id.
func CommandName(cmd byte) string {
	switch cmd {
	case CmdAck:
		return "Ack"
	case CmdNack:
		return "Nack"
	case CmdHVACSet:
		return "HVACSet"
	case CmdHVACLegacy:
		return "HVACLegacy"
	case CmdJoin:
		return "Join"
	case CmdCustom:
		return "Custom"
	case CmdPoll:
		return "Poll"
	case CmdStatusPush:
		return "StatusPush"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", cmd)
	}
}
