package protocol

import (
	"testing"
)

// buildPacket assembles a raw inbound datagram as a device would send it:
// the device's own MAC in the source field, our zero address as destination.
func buildPacket(src MAC, commandID byte, payload []byte) []byte {
	data := make([]byte, HeaderSize, HeaderSize+len(payload))
	data[0] = ProtocolVersion
	copy(data[1:7], src[:])
	data[16] = commandID
	return append(data, payload...)
}

func TestDecodeMessageHVACStatus(t *testing.T) {
	// mode=cool, fan=medium, flags=0, measured 23.50, desired 24.00, no timers
	payload := []byte{
		6,
		ModeCool, FanMedium, 0,
		0x2E, 0x09, // 2350
		0x60, 0x09, // 2400
		0x00, 0x00,
		0x00, 0x00,
	}
	pkt, err := DecodePacket(buildPacket(testDevice, CmdStatusPush, payload))
	if err != nil {
		t.Fatalf("DecodePacket() error = %v", err)
	}

	status, ok := pkt.DecodeMessage().(*HVACStatus)
	if !ok {
		t.Fatalf("DecodeMessage() = %T, want *HVACStatus", pkt.DecodeMessage())
	}
	if status.Mode != ModeCool {
		t.Errorf("mode = %d, want %d", status.Mode, ModeCool)
	}
	if status.FanMode != FanMedium {
		t.Errorf("fan mode = %d, want %d", status.FanMode, FanMedium)
	}
	if status.MeasuredTemp != 23.5 {
		t.Errorf("measured temp = %v, want 23.5", status.MeasuredTemp)
	}
	if status.DesiredTemp != 24.0 {
		t.Errorf("desired temp = %v, want 24.0", status.DesiredTemp)
	}
	if status.TimerOn != 0 || status.TimerOff != 0 {
		t.Errorf("timers = %d/%d, want 0/0", status.TimerOn, status.TimerOff)
	}
}

func TestDecodeMessageNegativeTemperature(t *testing.T) {
	payload := []byte{
		6,
		ModeHeat, FanAuto, 0,
		0x6A, 0xFF, // -150 -> -1.5
		0xD0, 0x07, // 2000 -> 20.0
		0x1E, 0x00, // timer on 30 min
		0x00, 0x00,
	}
	pkt, _ := DecodePacket(buildPacket(testDevice, CmdStatusPush, payload))

	status, ok := pkt.DecodeMessage().(*HVACStatus)
	if !ok {
		t.Fatal("expected *HVACStatus")
	}
	if status.MeasuredTemp != -1.5 {
		t.Errorf("measured temp = %v, want -1.5", status.MeasuredTemp)
	}
	if status.TimerOn != 30 {
		t.Errorf("timer on = %d, want 30", status.TimerOn)
	}
}

func TestDecodeMessageSwingFlags(t *testing.T) {
	payload := []byte{6, ModeCool, FanLow, FlagSwingHorizontal | FlagSwingVertical,
		0, 0, 0, 0, 0, 0, 0, 0}
	pkt, _ := DecodePacket(buildPacket(testDevice, CmdStatusPush, payload))

	status := pkt.DecodeMessage().(*HVACStatus)
	if !status.SwingHorizontal() || !status.SwingVertical() {
		t.Errorf("swing = %v/%v, want true/true", status.SwingHorizontal(), status.SwingVertical())
	}
}

func TestDecodeMessageBatteryStatus(t *testing.T) {
	payload := []byte{
		CustomStatusRequest,
		42,         // rssi
		0x64, 0x00, // battery 100
		0x00, 0x00,
		0xA4, 0xC1, 0x38, 0xAA, 0xBB, 0xCC, 0xDD, // IR module address
	}
	pkt, _ := DecodePacket(buildPacket(testDevice, CmdCustom, payload))

	status, ok := pkt.DecodeMessage().(*DeviceStatus)
	if !ok {
		t.Fatalf("DecodeMessage() = %T, want *DeviceStatus", pkt.DecodeMessage())
	}
	if status.RSSI == nil || *status.RSSI != 42 {
		t.Errorf("rssi = %v, want 42", status.RSSI)
	}
	if status.Battery == nil || *status.Battery != 100 {
		t.Errorf("battery = %v, want 100", status.Battery)
	}
	if status.IRAddress != "A4:C1:38:AA:BB:CC:DD" {
		t.Errorf("ir address = %q, want %q", status.IRAddress, "A4:C1:38:AA:BB:CC:DD")
	}
	if status.Firmware != "" {
		t.Errorf("firmware = %q, want empty", status.Firmware)
	}
}

func TestDecodeMessageEnumerateResponse(t *testing.T) {
	payload := append([]byte{joinEnumerateResponse},
		[]byte("HPA-4911,1.0.0.17,HPA-4911-BLE,1.0.0.4")...)
	pkt, _ := DecodePacket(buildPacket(testDevice, CmdJoin, payload))

	status, ok := pkt.DecodeMessage().(*DeviceStatus)
	if !ok {
		t.Fatalf("DecodeMessage() = %T, want *DeviceStatus", pkt.DecodeMessage())
	}
	if status.Firmware != "1.0.0.17" {
		t.Errorf("firmware = %q, want %q", status.Firmware, "1.0.0.17")
	}
	if status.FirmwareInfo != "HPA-4911,1.0.0.17,HPA-4911-BLE,1.0.0.4" {
		t.Errorf("firmware info = %q", status.FirmwareInfo)
	}
	if status.RSSI != nil || status.Battery != nil {
		t.Error("battery fields should be unset on enumerate responses")
	}
}

func TestDecodeMessageEnumerateResponseTrailingNulls(t *testing.T) {
	payload := append([]byte{joinEnumerateResponse},
		[]byte("HPA-4911,2.1.0.3,HPA-4911-BLE,1.0.0.4\x00\x00\x00")...)
	pkt, _ := DecodePacket(buildPacket(testDevice, CmdJoin, payload))

	status, ok := pkt.DecodeMessage().(*DeviceStatus)
	if !ok {
		t.Fatal("expected *DeviceStatus")
	}
	if status.Firmware != "2.1.0.3" {
		t.Errorf("firmware = %q, want %q", status.Firmware, "2.1.0.3")
	}
}

func TestDecodeMessageAckNack(t *testing.T) {
	pkt, _ := DecodePacket(buildPacket(testDevice, CmdAck, nil))
	if _, ok := pkt.DecodeMessage().(*Ack); !ok {
		t.Errorf("command 128 decoded as %T, want *Ack", pkt.DecodeMessage())
	}

	pkt, _ = DecodePacket(buildPacket(testDevice, CmdNack, nil))
	if _, ok := pkt.DecodeMessage().(*Nack); !ok {
		t.Errorf("command 129 decoded as %T, want *Nack", pkt.DecodeMessage())
	}
}

func TestDecodeMessageUnknown(t *testing.T) {
	tests := []struct {
		name      string
		commandID byte
		payload   []byte
	}{
		{"unrecognized command", 245, []byte("diagnostic text")},
		{"status push with wrong subtype", CmdStatusPush, []byte{9, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		{"truncated status push", CmdStatusPush, []byte{6, 1, 2}},
		{"truncated battery response", CmdCustom, []byte{CustomStatusRequest, 42}},
		{"enumerate response without csv", CmdJoin, []byte{joinEnumerateResponse, 'x'}},
		{"empty payload", CmdStatusPush, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := DecodePacket(buildPacket(testDevice, tt.commandID, tt.payload))
			if err != nil {
				t.Fatalf("DecodePacket() error = %v", err)
			}

			unknown, ok := pkt.DecodeMessage().(*Unknown)
			if !ok {
				t.Fatalf("DecodeMessage() = %T, want *Unknown", pkt.DecodeMessage())
			}
			if unknown.Command != tt.commandID {
				t.Errorf("command = %d, want %d", unknown.Command, tt.commandID)
			}
			if len(unknown.Payload) != len(tt.payload) {
				t.Errorf("payload length = %d, want %d", len(unknown.Payload), len(tt.payload))
			}
		})
	}
}

func TestDecodePacketMalformed(t *testing.T) {
	if _, err := DecodePacket(make([]byte, 10)); err == nil {
		t.Error("DecodePacket() on short datagram: expected error")
	}
}

func TestDecodePacketSourceAddress(t *testing.T) {
	src := MAC{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01}
	pkt, err := DecodePacket(buildPacket(src, CmdStatusPush, nil))
	if err != nil {
		t.Fatalf("DecodePacket() error = %v", err)
	}
	if pkt.Header.Source != src {
		t.Errorf("source = %s, want %s", pkt.Header.Source, src)
	}
}
