package protocol

import (
	"fmt"
	"strings"
)

// MAC is a 6-byte device hardware address. The HPA4911 protocol addresses
// devices by MAC rather than by IP, since responses may arrive from a
// different IP than the one a command was sent to.
type MAC [6]byte

// Broadcast is the all-devices destination address.
var Broadcast = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ParseMAC parses a colon- or dash-separated hex hardware address
// (e.g. "A4:C1:38:01:02:03").
func ParseMAC(s string) (MAC, error) {
	var mac MAC
	s = strings.ReplaceAll(s, "-", ":")
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return mac, fmt.Errorf("invalid MAC address %q: expected 6 octets, got %d", s, len(parts))
	}
	for i, p := range parts {
		var b byte
		if _, err := fmt.Sscanf(p, "%02x", &b); err != nil || len(p) != 2 {
			return mac, fmt.Errorf("invalid MAC address %q: bad octet %q", s, p)
		}
		mac[i] = b
	}
	return mac, nil
}

// String formats the address as uppercase colon-separated hex.
func (m MAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsBroadcast reports whether the address is the broadcast address.
func (m MAC) IsBroadcast() bool {
	return m == Broadcast
}

// formatMAC renders a raw byte slice as colon-separated hex. Used for fields
// like the IR module address that are MAC-shaped but not device identifiers.
func formatMAC(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, ":")
}
