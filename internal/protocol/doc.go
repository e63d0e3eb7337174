// Package protocol implements the HPA4911 binary UDP protocol.
//
// HPA4911 IR bridges control HVAC units and are driven over broadcast UDP on
// a fixed port pair: the client binds local port 20911 and sends commands to
// port 20910, broadcast or unicast. Devices answer asynchronously to the
// fixed client port, so many devices share one socket and one broadcast
// domain.
//
// # Packet format
//
// Every packet starts with a fixed 17-byte header:
//
//	[0]     version        Always 0x00
//	[1:7]   source MAC     Zero-filled; the client has no hardware address
//	[7:13]  dest MAC       Device address or FF:FF:FF:FF:FF:FF (broadcast)
//	[13]    sequence       Per-client counter, wraps 255 -> 0
//	[14]    src endpoint
//	[15]    dst endpoint   Endpoint 1 is the HVAC control unit
//	[16]    command id
//
// The command payload follows at byte 17 and may be empty.
//
// # Command families
//
//   - 97  set HVAC mode / full state (mode, fan, flags, setpoint)
//   - 98  legacy commands (target temperature, fan level, swing toggles)
//   - 161 join: enumerate-all (sub 4), subscribe (sub 12); reply sub 2
//   - 162 custom: battery/signal request (sub 92), temperature offset (sub 101)
//   - 228 poll: broadcast request for an unsolicited status push
//   - 253 status push
//   - 128/129 ack/nack (uncorrelated, logged only)
//
// # Usage
//
// Outbound packets are built through a HeaderCodec, which owns the sequence
// counter:
//
//	codec := protocol.NewHeaderCodec()
//	pkt := codec.BuildSetFull(mac, protocol.ModeCool, protocol.FanAuto, 0, 23.5)
//	conn.WriteTo(pkt, peer)
//
// Inbound datagrams are split with DecodePacket and classified with
// DecodeMessage:
//
//	pkt, err := protocol.DecodePacket(data)
//	if err != nil {
//		return err // shorter than the 17-byte header
//	}
//	switch msg := pkt.DecodeMessage().(type) {
//	case *protocol.HVACStatus:
//		// ...
//	case *protocol.Unknown:
//		// partial, legacy or undocumented frame; not an error
//	}
//
// # Thread safety
//
// Decoding is stateless. A HeaderCodec is safe for concurrent use; its
// sequence counter advances atomically, exactly once per header built.
package protocol
