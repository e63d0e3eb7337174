package client

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arpena/hpa4911/internal/logging"
	"github.com/arpena/hpa4911/internal/protocol"
)

// AvailabilityWindow is how long a device stays "available" after its last
// status. Devices push on change and on every subscribe/poll cycle, so after
// two missed cycles the device is considered gone.
const AvailabilityWindow = 300 * time.Second

// StatusCallback receives HVAC status pushes, keyed by device MAC.
type StatusCallback func(mac protocol.MAC, status *protocol.HVACStatus)

// DeviceStatusCallback receives battery/firmware telemetry, keyed by device MAC.
type DeviceStatusCallback func(mac protocol.MAC, status *protocol.DeviceStatus)

// Snapshot is a caller-visible copy of a device's last known state. Telemetry
// is mutated only by the router on the receive path; callers always read a
// snapshot.
type Snapshot struct {
	MAC        protocol.MAC
	IP         string
	HVAC       *protocol.HVACStatus
	DeviceInfo *protocol.DeviceStatus
	LastUpdate time.Time
	Available  bool
}

// device is router-owned state. Created on registration, updated on every
// received status, removed on unregistration.
type device struct {
	mac        protocol.MAC
	ip         string
	hvac       *protocol.HVACStatus
	info       *protocol.DeviceStatus
	lastUpdate time.Time
	seen       bool
}

// router maintains the MAC<->IP mapping and dispatches decoded statuses to
// the subscriber registered for each device. All mutation happens under one
// mutex; every mutation is a single map or field update.
type router struct {
	mu       sync.Mutex
	devices  map[protocol.MAC]*device
	ipToMAC  map[string]protocol.MAC
	statusCB StatusCallback
	deviceCB DeviceStatusCallback

	// now is swapped in tests to pin the availability clock.
	now func() time.Time
}

func newRouter() *router {
	return &router{
		devices: make(map[protocol.MAC]*device),
		ipToMAC: make(map[string]protocol.MAC),
		now:     time.Now,
	}
}

func (r *router) register(mac protocol.MAC, ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.devices[mac]; ok && existing.ip != "" {
		delete(r.ipToMAC, existing.ip)
	}
	r.devices[mac] = &device{mac: mac, ip: ip}
	if ip != "" {
		r.ipToMAC[ip] = mac
	}
}

func (r *router) unregister(mac protocol.MAC) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.devices[mac]; ok {
		if d.ip != "" {
			delete(r.ipToMAC, d.ip)
		}
		delete(r.devices, mac)
	}
}

func (r *router) setStatusCallback(cb StatusCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusCB = cb
}

func (r *router) setDeviceStatusCallback(cb DeviceStatusCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deviceCB = cb
}

func (r *router) lookupIP(mac protocol.MAC) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[mac]
	if !ok {
		return "", false
	}
	return d.ip, true
}

// macs returns the registered device identifiers, for the refresh cycle.
func (r *router) macs() []protocol.MAC {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]protocol.MAC, 0, len(r.devices))
	for mac := range r.devices {
		out = append(out, mac)
	}
	return out
}

// dispatchHVAC attributes a status push to the device registered at srcIP and
// invokes its subscriber. Statuses from unregistered addresses are dropped
// and logged: misattributing HVAC state to the wrong physical unit is worse
// than a missed update, so there is no broadcast fallback.
func (r *router) dispatchHVAC(srcIP string, status *protocol.HVACStatus) {
	r.mu.Lock()
	mac, ok := r.ipToMAC[srcIP]
	if !ok {
		r.mu.Unlock()
		logging.Warn("status from unknown source dropped",
			zap.String("ip", srcIP),
			zap.String("status", status.String()),
		)
		return
	}

	d := r.devices[mac]
	d.hvac = status
	d.lastUpdate = r.now()
	d.seen = true
	cb := r.statusCB
	r.mu.Unlock()

	logging.Debug("HVAC status", zap.String("mac", mac.String()), zap.String("status", status.String()))
	if cb != nil {
		cb(mac, status)
	}
}

// dispatchDevice is the telemetry counterpart of dispatchHVAC. Fields of the
// incoming status are merged into the stored record, since battery and
// firmware responses populate disjoint subsets.
func (r *router) dispatchDevice(srcIP string, status *protocol.DeviceStatus) {
	r.mu.Lock()
	mac, ok := r.ipToMAC[srcIP]
	if !ok {
		r.mu.Unlock()
		logging.Warn("telemetry from unknown source dropped",
			zap.String("ip", srcIP),
			zap.String("status", status.String()),
		)
		return
	}

	d := r.devices[mac]
	d.info = mergeDeviceStatus(d.info, status)
	d.lastUpdate = r.now()
	d.seen = true
	cb := r.deviceCB
	r.mu.Unlock()

	logging.Debug("device telemetry", zap.String("mac", mac.String()), zap.String("status", status.String()))
	if cb != nil {
		cb(mac, status)
	}
}

func mergeDeviceStatus(old, update *protocol.DeviceStatus) *protocol.DeviceStatus {
	if old == nil {
		merged := *update
		return &merged
	}
	merged := *old
	if update.RSSI != nil {
		merged.RSSI = update.RSSI
	}
	if update.Battery != nil {
		merged.Battery = update.Battery
	}
	if update.IRAddress != "" {
		merged.IRAddress = update.IRAddress
	}
	if update.Firmware != "" {
		merged.Firmware = update.Firmware
	}
	if update.FirmwareInfo != "" {
		merged.FirmwareInfo = update.FirmwareInfo
	}
	return &merged
}

func (r *router) snapshot(mac protocol.MAC) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[mac]
	if !ok {
		return Snapshot{}, false
	}
	return r.snapshotLocked(d), true
}

func (r *router) snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Snapshot, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, r.snapshotLocked(d))
	}
	return out
}

// snapshotLocked derives availability rather than storing it: a device is
// available iff it has ever reported and did so within the window.
func (r *router) snapshotLocked(d *device) Snapshot {
	return Snapshot{
		MAC:        d.mac,
		IP:         d.ip,
		HVAC:       d.hvac,
		DeviceInfo: d.info,
		LastUpdate: d.lastUpdate,
		Available:  d.seen && r.now().Sub(d.lastUpdate) < AvailabilityWindow,
	}
}
