package protocol

import (
	"encoding/binary"
	"math"
)

// Command builder library for the HPA4911 protocol. Each builder produces a
// complete packet (header + payload) ready to hand to the transport. Sending
// is fire-and-forget: the protocol has no reliable acknowledgment, so builders
// never wait for anything.

// Join subcommands (command 161).
const (
	JoinEnumerateAll = 4  // broadcast: ask every device to identify itself
	JoinSubscribe    = 12 // device-specific: open a ~2 minute push subscription
)

// Custom subcommands (command 162).
const (
	CustomStatusRequest = 92  // request battery/signal telemetry
	CustomTempOffset    = 101 // set room temperature offset
)

// HVAC operating modes.
const (
	ModeOff  = 0
	ModeCool = 1
	ModeHeat = 2
	ModeDry  = 3
	ModeFan  = 4
	ModeAuto = 254
)

// Fan speeds.
const (
	FanLow    = 1
	FanMedium = 2
	FanHigh   = 3
	FanAuto   = 254
)

// Bits of the HVAC flags byte. Other bits are device-specific (turbo among
// them) and not independently controllable.
const (
	FlagSwingHorizontal = 16
	FlagSwingVertical   = 32

	// FlagsSwingOffMagic (0xE7 = 255-8-16) is the only known-working encoding
	// that clears horizontal swing without activating turbo. The flags byte is
	// not a clean bitmask; keep this as an opaque constant until the protocol
	// is better documented.
	FlagsSwingOffMagic = 231
)

// Legacy command 98 opcodes, carried over from the vendor app.
const (
	legacySwingVerticalToggle   = 97
	legacySwingHorizontalToggle = 81
)

// BuildJoin constructs a join command (161) with a 1-byte subcommand payload.
// Use JoinEnumerateAll with the broadcast address to enumerate devices, or
// JoinSubscribe with a device address to open its push subscription.
func (c *HeaderCodec) BuildJoin(dst MAC, subcommand byte) []byte {
	header := c.EncodeHeader(dst, CmdJoin, EndpointDefault, EndpointDefault)
	return append(header, subcommand)
}

// BuildPoll constructs a broadcast poll (228) asking devices to push their
// current state on the given endpoint. EndpointHVAC requests HVAC status.
func (c *HeaderCodec) BuildPoll(endpoint byte) []byte {
	return c.EncodeHeader(Broadcast, CmdPoll, EndpointDefault, endpoint)
}

// BuildStatusRequest constructs a custom command (162, subcommand 92) asking
// a specific device for battery and signal telemetry.
func (c *HeaderCodec) BuildStatusRequest(dst MAC) []byte {
	header := c.EncodeHeader(dst, CmdCustom, EndpointDefault, EndpointDefault)
	return append(header, CustomStatusRequest)
}

// BuildSetMode constructs a 1-byte mode change (command 97, endpoint 1).
func (c *HeaderCodec) BuildSetMode(dst MAC, mode byte) []byte {
	header := c.EncodeHeader(dst, CmdHVACSet, EndpointDefault, EndpointHVAC)
	return append(header, mode)
}

// BuildSetFull constructs the full HVAC state command (97, endpoint 1).
//
// Payload layout:
//
//	[0]     mode
//	[1]     fan mode
//	[2]     flags (see FlagSwing* and FlagsSwingOffMagic)
//	[3:5]   desired temperature, signed little-endian, degrees C x100
func (c *HeaderCodec) BuildSetFull(dst MAC, mode, fanMode, flags byte, temperature float64) []byte {
	header := c.EncodeHeader(dst, CmdHVACSet, EndpointDefault, EndpointHVAC)

	payload := make([]byte, 5)
	payload[0] = mode
	payload[1] = fanMode
	payload[2] = flags
	raw := int16(math.Round(temperature * 100))
	binary.LittleEndian.PutUint16(payload[3:5], uint16(raw))

	return append(header, payload...)
}

// BuildTemperatureOffset constructs a custom command (162, subcommand 101)
// adjusting the device's measured room temperature by a signed offset.
func (c *HeaderCodec) BuildTemperatureOffset(dst MAC, offset int16) []byte {
	header := c.EncodeHeader(dst, CmdCustom, EndpointDefault, EndpointDefault)

	payload := make([]byte, 3)
	payload[0] = CustomTempOffset
	binary.LittleEndian.PutUint16(payload[1:3], uint16(offset))

	return append(header, payload...)
}

// BuildSetTargetTemperature constructs a legacy temperature change
// (command 98, endpoint 1): whole degrees, fan speed untouched.
func (c *HeaderCodec) BuildSetTargetTemperature(dst MAC, temperature byte) []byte {
	header := c.EncodeHeader(dst, CmdHVACLegacy, EndpointDefault, EndpointHVAC)
	return append(header, temperature, 0)
}

// BuildSetFanLevel constructs a legacy fan level change (command 98,
// endpoint 1). Level 0 is auto, 1-5 are fixed speeds. The vendor app always
// pairs the level with a 25 degree setpoint.
func (c *HeaderCodec) BuildSetFanLevel(dst MAC, level byte) []byte {
	header := c.EncodeHeader(dst, CmdHVACLegacy, EndpointDefault, EndpointHVAC)
	return append(header, 25, level)
}

// BuildToggleVerticalSwing constructs a legacy vertical swing toggle.
func (c *HeaderCodec) BuildToggleVerticalSwing(dst MAC) []byte {
	header := c.EncodeHeader(dst, CmdHVACLegacy, EndpointDefault, EndpointHVAC)
	return append(header, legacySwingVerticalToggle)
}

// BuildToggleHorizontalSwing constructs a legacy horizontal swing toggle.
func (c *HeaderCodec) BuildToggleHorizontalSwing(dst MAC) []byte {
	header := c.EncodeHeader(dst, CmdHVACLegacy, EndpointDefault, EndpointHVAC)
	return append(header, legacySwingHorizontalToggle)
}

// SwingFlags composes a flags byte from the two controllable swing bits.
func SwingFlags(horizontal, vertical bool) byte {
	var flags byte
	if horizontal {
		flags |= FlagSwingHorizontal
	}
	if vertical {
		flags |= FlagSwingVertical
	}
	return flags
}

// ModeName returns a human-readable name for an HVAC mode.
func ModeName(mode byte) string {
	switch mode {
	case ModeOff:
		return "off"
	case ModeCool:
		return "cool"
	case ModeHeat:
		return "heat"
	case ModeDry:
		return "dry"
	case ModeFan:
		return "fan"
	case ModeAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseMode is the inverse of ModeName.
func ParseMode(name string) (byte, bool) {
	switch name {
	case "off":
		return ModeOff, true
	case "cool":
		return ModeCool, true
	case "heat":
		return ModeHeat, true
	case "dry":
		return ModeDry, true
	case "fan":
		return ModeFan, true
	case "auto":
		return ModeAuto, true
	default:
		return 0, false
	}
}

// FanModeName returns a human-readable name for a fan speed.
func FanModeName(fan byte) string {
	switch fan {
	case FanLow:
		return "low"
	case FanMedium:
		return "medium"
	case FanHigh:
		return "high"
	case FanAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseFanMode is the inverse of FanModeName.
func ParseFanMode(name string) (byte, bool) {
	switch name {
	case "low":
		return FanLow, true
	case "medium":
		return FanMedium, true
	case "high":
		return FanHigh, true
	case "auto":
		return FanAuto, true
	default:
		return 0, false
	}
}
