package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Status push subtype carried in payload[0] of command 253.
const statusTypeHVAC = 6

// Join response subtype carried in payload[0] of command 161.
const joinEnumerateResponse = 2

// Packet is a decoded datagram: fixed header plus raw payload.
type Packet struct {
	Header  *Header
	Payload []byte
}

// DecodePacket splits a raw datagram into header and payload. The only decode
// failure is a datagram too short for the header; everything past that is
// handled leniently by DecodeMessage.
func DecodePacket(data []byte) (*Packet, error) {
	header, payload, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	return &Packet{Header: header, Payload: payload}, nil
}

// Message is a decoded response payload.
type Message interface {
	CommandID() byte
	String() string
}

// HVACStatus is the unit state pushed by a device (command 253, subtype 6).
type HVACStatus struct {
	Mode    byte
	FanMode byte
	Flags   byte

	// Temperatures in degrees Celsius, decoded from signed LE16 x100.
	MeasuredTemp float64
	DesiredTemp  float64

	// Timer countdowns in minutes.
	TimerOn  uint16
	TimerOff uint16
}

func (s *HVACStatus) CommandID() byte { return CmdStatusPush }

func (s *HVACStatus) String() string {
	return fmt.Sprintf("HVACStatus{mode=%s, fan=%s, flags=0x%02x, measured=%.1f, desired=%.1f, timers=%d/%d}",
		ModeName(s.Mode), FanModeName(s.FanMode), s.Flags,
		s.MeasuredTemp, s.DesiredTemp, s.TimerOn, s.TimerOff)
}

// SwingHorizontal reports whether the horizontal swing bit is set.
func (s *HVACStatus) SwingHorizontal() bool { return s.Flags&FlagSwingHorizontal != 0 }

// SwingVertical reports whether the vertical swing bit is set.
func (s *HVACStatus) SwingVertical() bool { return s.Flags&FlagSwingVertical != 0 }

// DeviceStatus carries non-HVAC telemetry. Different responses populate
// different subsets, so every field is optional: the battery response (162/92)
// fills RSSI, Battery and IRAddress; the enumerate response (161/2) fills
// Firmware and FirmwareInfo.
type DeviceStatus struct {
	RSSI         *int
	Battery      *int
	IRAddress    string
	Firmware     string
	FirmwareInfo string

	commandID byte
}

func (s *DeviceStatus) CommandID() byte { return s.commandID }

func (s *DeviceStatus) String() string {
	var parts []string
	if s.RSSI != nil {
		parts = append(parts, fmt.Sprintf("rssi=%d", *s.RSSI))
	}
	if s.Battery != nil {
		parts = append(parts, fmt.Sprintf("battery=%d", *s.Battery))
	}
	if s.IRAddress != "" {
		parts = append(parts, "ir="+s.IRAddress)
	}
	if s.Firmware != "" {
		parts = append(parts, "firmware="+s.Firmware)
	}
	return "DeviceStatus{" + strings.Join(parts, ", ") + "}"
}

// Ack is a positive command acknowledgment (command 128). Acks are not
// correlated with the command that triggered them; they are logged only.
type Ack struct{}

func (*Ack) CommandID() byte { return CmdAck }
func (*Ack) String() string  { return "Ack" }

// Nack is a command rejection (command 129).
type Nack struct{}

func (*Nack) CommandID() byte { return CmdNack }
func (*Nack) String() string  { return "Nack" }

// Unknown is the fallback classification: an unrecognized command id, or a
// known command with an unexpected or truncated payload. Devices ship partial
// and legacy frames, so this is not an error. The raw payload is retained for
// diagnostics.
type Unknown struct {
	Command byte
	Payload []byte
}

func (u *Unknown) CommandID() byte { return u.Command }

func (u *Unknown) String() string {
	return fmt.Sprintf("Unknown{cmd=%s, len=%d}", CommandName(u.Command), len(u.Payload))
}

// DecodeMessage classifies the payload by the header's command id. Payloads
// shorter than their branch minimum fall through to Unknown rather than
// failing.
func (p *Packet) DecodeMessage() Message {
	payload := p.Payload

	switch p.Header.CommandID {
	case CmdStatusPush:
		if len(payload) >= 12 && payload[0] == statusTypeHVAC {
			return parseHVACStatus(payload)
		}
	case CmdCustom:
		if len(payload) >= 13 && payload[0] == CustomStatusRequest {
			return parseBatteryStatus(payload)
		}
	case CmdJoin:
		if len(payload) >= 2 && payload[0] == joinEnumerateResponse {
			if msg := parseEnumerateResponse(payload); msg != nil {
				return msg
			}
		}
	case CmdAck:
		return &Ack{}
	case CmdNack:
		return &Nack{}
	}

	return &Unknown{Command: p.Header.CommandID, Payload: payload}
}

// parseHVACStatus decodes a status push (253, subtype 6).
//
//	[0]     6 (HVAC status subtype)
//	[1]     mode
//	[2]     fan mode
//	[3]     flags
//	[4:6]   measured temperature, signed LE16 x100
//	[6:8]   desired temperature, signed LE16 x100
//	[8:10]  timer-on minutes, unsigned LE16
//	[10:12] timer-off minutes, unsigned LE16
func parseHVACStatus(payload []byte) *HVACStatus {
	return &HVACStatus{
		Mode:         payload[1],
		FanMode:      payload[2],
		Flags:        payload[3],
		MeasuredTemp: float64(int16(binary.LittleEndian.Uint16(payload[4:6]))) / 100,
		DesiredTemp:  float64(int16(binary.LittleEndian.Uint16(payload[6:8]))) / 100,
		TimerOn:      binary.LittleEndian.Uint16(payload[8:10]),
		TimerOff:     binary.LittleEndian.Uint16(payload[10:12]),
	}
}

// parseBatteryStatus decodes a custom status response (162, subtype 92).
//
//	[0]     92
//	[1]     RSSI
//	[2:4]   battery level, unsigned LE16
//	[6:13]  IR module address
func parseBatteryStatus(payload []byte) *DeviceStatus {
	rssi := int(payload[1])
	battery := int(binary.LittleEndian.Uint16(payload[2:4]))

	return &DeviceStatus{
		RSSI:      &rssi,
		Battery:   &battery,
		IRAddress: formatMAC(payload[6:13]),
		commandID: CmdCustom,
	}
}

// parseEnumerateResponse decodes a join enumerate reply (161, subtype 2). The
// body is an ASCII CSV "model,firmware,ble_model,ble_firmware"; the firmware
// version is the second field. Returns nil when the body has no CSV shape.
func parseEnumerateResponse(payload []byte) *DeviceStatus {
	info := strings.TrimRight(string(payload[1:]), "\x00")
	if !strings.Contains(info, ",") {
		return nil
	}

	fields := strings.Split(info, ",")
	var firmware string
	if len(fields) > 1 {
		firmware = fields[1]
	}

	return &DeviceStatus{
		Firmware:     firmware,
		FirmwareInfo: info,
		commandID:    CmdJoin,
	}
}
