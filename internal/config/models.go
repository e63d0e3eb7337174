package config

import (
	"fmt"
	"time"

	"github.com/arpena/hpa4911/internal/protocol"
)

// Registry is the user configuration file: the set of known HPA4911 devices
// plus application preferences. The core client stores nothing; this file is
// how the CLI remembers which devices to register on startup.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // keyed by device MAC
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is user-defined metadata for a single HPA4911 bridge, keyed by its
// MAC address in the Registry.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // user-friendly name
	LastIP   string    `yaml:"last_ip,omitempty"`   // last known IP address
	LastSeen time.Time `yaml:"last_seen,omitempty"` // last time a status arrived
}

// Preferences are application-wide settings.
type Preferences struct {
	// RefreshSeconds overrides the subscription refresh period. Zero means
	// the protocol default (120 s).
	RefreshSeconds int `yaml:"refresh_seconds,omitempty"`
}

// NewRegistry creates a Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Devices:     make(map[string]*Device),
		Preferences: &Preferences{},
	}
}

// GetDevice retrieves device metadata by MAC string.
// Returns nil if the device is not in the registry.
func (r *Registry) GetDevice(mac string) *Device {
	return r.Devices[mac]
}

// AddDevice validates and stores a device entry, replacing any existing one.
func (r *Registry) AddDevice(mac, nickname, ip string) error {
	parsed, err := protocol.ParseMAC(mac)
	if err != nil {
		return err
	}
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	r.Devices[parsed.String()] = &Device{Nickname: nickname, LastIP: ip}
	return nil
}

// RemoveDevice deletes a device entry. Returns an error when the entry does
// not exist, so "remove" typos surface instead of silently succeeding.
func (r *Registry) RemoveDevice(mac string) error {
	parsed, err := protocol.ParseMAC(mac)
	if err != nil {
		return err
	}
	key := parsed.String()
	if _, ok := r.Devices[key]; !ok {
		return fmt.Errorf("device %s not in registry", key)
	}
	delete(r.Devices, key)
	return nil
}

// TouchDevice updates the last seen timestamp and address for a device.
func (r *Registry) TouchDevice(mac, ip string) {
	if d, ok := r.Devices[mac]; ok {
		d.LastSeen = time.Now()
		if ip != "" {
			d.LastIP = ip
		}
	}
}
