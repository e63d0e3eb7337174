package client

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/arpena/hpa4911/internal/logging"
	"github.com/arpena/hpa4911/internal/protocol"
)

// Default port pair and broadcast target. Devices unicast and broadcast their
// responses to the fixed client port, so binding it is a correctness
// requirement, not a preference.
const (
	DefaultListenPort = 20911
	DefaultPeerPort   = 20910
	DefaultBroadcast  = "255.255.255.255"

	// DefaultRefreshInterval keeps device-side push subscriptions alive;
	// they lapse after roughly two minutes.
	DefaultRefreshInterval = 120 * time.Second
)

// Config carries the network parameters of a Client. The zero value is
// filled with the protocol defaults; tests override the ports to run on
// loopback.
type Config struct {
	ListenPort      int
	PeerPort        int
	Broadcast       string
	RefreshInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.ListenPort == 0 {
		c.ListenPort = DefaultListenPort
	}
	if c.PeerPort == 0 {
		c.PeerPort = DefaultPeerPort
	}
	if c.Broadcast == "" {
		c.Broadcast = DefaultBroadcast
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
}

// Client owns the single shared UDP socket and everything behind it: the
// header codec with its sequence counter, the device routing table, and the
// subscription refresh loop. Construct one per application and pass it by
// reference; there is no ambient global instance.
type Client struct {
	cfg    Config
	codec  *protocol.HeaderCodec
	conn   net.PacketConn
	router *router

	cancel    context.CancelFunc
	recvDone  chan struct{}
	schedDone chan struct{}
}

// New binds the shared broadcast-capable UDP socket and returns a client
// ready to Start. A bind failure is fatal: without the fixed local port the
// client cannot receive device responses at all.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = setBroadcast(fd)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", cfg.ListenPort))
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP port %d: %w", cfg.ListenPort, err)
	}

	logging.Info("UDP client bound", zap.Int("port", cfg.ListenPort))
	return newWithConn(cfg, conn), nil
}

// newWithConn wires a client onto an existing socket. Tests use it to run on
// loopback connections.
func newWithConn(cfg Config, conn net.PacketConn) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:       cfg,
		codec:     protocol.NewHeaderCodec(),
		conn:      conn,
		router:    newRouter(),
		recvDone:  make(chan struct{}),
		schedDone: make(chan struct{}),
	}
}

// Start launches the receive loop and the subscription refresh loop. It
// returns immediately; decoded statuses flow to the registered callbacks.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.receiveLoop()
	go c.refreshLoop(ctx)
}

// Close shuts the client down deterministically: the refresh loop is
// cancelled and awaited before the socket is closed, so nothing sends on a
// closed transport; then the receive loop is unblocked by the close and
// awaited as well.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
		<-c.schedDone
	}
	err := c.conn.Close()
	if c.cancel != nil {
		<-c.recvDone
	}
	return err
}

// RegisterDevice adds a device to the routing table. ip may be empty, in
// which case commands for this device go out as broadcast until an address
// is configured. If the client is running, the device immediately gets the
// full subscribe burst rather than waiting for the next refresh cycle.
func (c *Client) RegisterDevice(mac protocol.MAC, ip string) {
	c.router.register(mac, ip)
	logging.Debug("device registered", zap.String("mac", mac.String()), zap.String("ip", ip))
	if c.cancel != nil {
		c.refreshDevice(mac)
	}
}

// UnregisterDevice removes a device and its address mapping. Late responses
// from the device are dropped by the unknown-source policy.
func (c *Client) UnregisterDevice(mac protocol.MAC) {
	c.router.unregister(mac)
	logging.Debug("device unregistered", zap.String("mac", mac.String()))
}

// SetStatusCallback registers the receiver for HVAC status pushes, keyed by
// device MAC.
func (c *Client) SetStatusCallback(cb StatusCallback) {
	c.router.setStatusCallback(cb)
}

// SetDeviceStatusCallback registers the receiver for battery/firmware
// telemetry, keyed by device MAC.
func (c *Client) SetDeviceStatusCallback(cb DeviceStatusCallback) {
	c.router.setDeviceStatusCallback(cb)
}

// Device returns a snapshot of a registered device's last known state.
func (c *Client) Device(mac protocol.MAC) (Snapshot, bool) {
	return c.router.snapshot(mac)
}

// Devices returns snapshots of every registered device.
func (c *Client) Devices() []Snapshot {
	return c.router.snapshots()
}

// Subscribe opens (or renews) a device's push subscription and asks for an
// immediate status snapshot: join(subscribe) to the device, then a broadcast
// poll of the HVAC endpoint.
func (c *Client) Subscribe(mac protocol.MAC) {
	c.send(c.codec.BuildJoin(mac, protocol.JoinSubscribe), c.addrFor(mac))
	c.send(c.codec.BuildPoll(protocol.EndpointHVAC), c.addrFor(mac))
}

// RequestDeviceInfo broadcasts a join enumerate so devices report model and
// firmware, followed by a poll.
func (c *Client) RequestDeviceInfo(mac protocol.MAC) {
	c.send(c.codec.BuildJoin(protocol.Broadcast, protocol.JoinEnumerateAll), c.addrFor(mac))
	c.send(c.codec.BuildPoll(protocol.EndpointHVAC), c.addrFor(mac))
}

// RequestBatteryStatus asks a device for battery and signal telemetry,
// followed by a poll.
func (c *Client) RequestBatteryStatus(mac protocol.MAC) {
	c.send(c.codec.BuildStatusRequest(mac), c.addrFor(mac))
	c.send(c.codec.BuildPoll(protocol.EndpointHVAC), c.addrFor(mac))
}

// SetMode changes the HVAC operating mode.
func (c *Client) SetMode(mac protocol.MAC, mode byte) {
	c.send(c.codec.BuildSetMode(mac, mode), c.addrFor(mac))
}

// SetFull sets mode, fan, flags and setpoint in one command, the way the
// vendor app does.
func (c *Client) SetFull(mac protocol.MAC, mode, fanMode, flags byte, temperature float64) {
	c.send(c.codec.BuildSetFull(mac, mode, fanMode, flags, temperature), c.addrFor(mac))
}

// SetSwingOff clears horizontal swing without activating turbo, using the
// only flags encoding known to work (protocol.FlagsSwingOffMagic).
func (c *Client) SetSwingOff(mac protocol.MAC, mode, fanMode byte, temperature float64) {
	c.SetFull(mac, mode, fanMode, protocol.FlagsSwingOffMagic, temperature)
}

// SetTemperatureOffset adjusts the device's room temperature calibration.
func (c *Client) SetTemperatureOffset(mac protocol.MAC, offset int16) {
	c.send(c.codec.BuildTemperatureOffset(mac, offset), c.addrFor(mac))
}

// SetTargetTemperature issues the legacy whole-degree setpoint command.
func (c *Client) SetTargetTemperature(mac protocol.MAC, temperature byte) {
	c.send(c.codec.BuildSetTargetTemperature(mac, temperature), c.addrFor(mac))
}

// SetFanLevel issues the legacy fan level command (0 auto, 1-5 fixed).
func (c *Client) SetFanLevel(mac protocol.MAC, level byte) {
	c.send(c.codec.BuildSetFanLevel(mac, level), c.addrFor(mac))
}

// ToggleVerticalSwing issues the legacy vertical swing toggle.
func (c *Client) ToggleVerticalSwing(mac protocol.MAC) {
	c.send(c.codec.BuildToggleVerticalSwing(mac), c.addrFor(mac))
}

// ToggleHorizontalSwing issues the legacy horizontal swing toggle.
func (c *Client) ToggleHorizontalSwing(mac protocol.MAC) {
	c.send(c.codec.BuildToggleHorizontalSwing(mac), c.addrFor(mac))
}

// Poll broadcasts a bare status poll of the HVAC endpoint.
func (c *Client) Poll() {
	c.send(c.codec.BuildPoll(protocol.EndpointHVAC), c.broadcastAddr())
}

// addrFor resolves a device's most recently observed address, falling back
// to broadcast when none is known.
func (c *Client) addrFor(mac protocol.MAC) *net.UDPAddr {
	if ip, ok := c.router.lookupIP(mac); ok && ip != "" {
		if parsed := net.ParseIP(ip); parsed != nil {
			return &net.UDPAddr{IP: parsed, Port: c.cfg.PeerPort}
		}
	}
	return c.broadcastAddr()
}

func (c *Client) broadcastAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(c.cfg.Broadcast), Port: c.cfg.PeerPort}
}

// send is fire-and-forget. UDP gives no delivery guarantee to begin with, so
// transient failures are logged and absorbed; the periodic refresh cycle is
// the retry mechanism.
func (c *Client) send(pkt []byte, addr *net.UDPAddr) {
	if _, err := c.conn.WriteTo(pkt, addr); err != nil {
		logging.Warn("send failed",
			zap.String("addr", addr.String()),
			zap.String("cmd", protocol.CommandName(pkt[16])),
			zap.Error(err),
		)
		return
	}
	logging.Debug("sent",
		zap.String("addr", addr.String()),
		zap.String("cmd", protocol.CommandName(pkt[16])),
		zap.Int("len", len(pkt)),
	)
}

// receiveLoop is the only suspending path: it blocks on the shared socket
// and feeds every datagram through decode, classify and route. No single
// packet may kill the loop.
func (c *Client) receiveLoop() {
	defer close(c.recvDone)

	buf := make([]byte, 2048)
	for {
		n, addr, err := c.conn.ReadFrom(buf)
		if err != nil {
			// Closed socket means shutdown; anything else on UDP is
			// not worth more than a log line.
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			logging.Debug("receive loop exiting", zap.Error(err))
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		c.handleDatagram(data, addr)
	}
}

// Diagnostics command ids seen from devices: undocumented frames carrying
// ASCII debug text. Dumped at debug level, never routed.
func isDiagnosticsCommand(cmd byte) bool {
	return cmd == 245 || cmd == 242 || cmd == 251
}

func (c *Client) handleDatagram(data []byte, addr net.Addr) {
	srcIP := remoteIP(addr)

	pkt, err := protocol.DecodePacket(data)
	if err != nil {
		logging.Debug("malformed packet dropped",
			zap.String("from", srcIP),
			zap.Int("len", len(data)),
		)
		return
	}

	switch msg := pkt.DecodeMessage().(type) {
	case *protocol.HVACStatus:
		c.router.dispatchHVAC(srcIP, msg)
	case *protocol.DeviceStatus:
		c.router.dispatchDevice(srcIP, msg)
	case *protocol.Ack:
		logging.Debug("ack", zap.String("from", srcIP), zap.Uint8("seq", pkt.Header.Sequence))
	case *protocol.Nack:
		logging.Debug("nack", zap.String("from", srcIP), zap.Uint8("seq", pkt.Header.Sequence))
	case *protocol.Unknown:
		if isDiagnosticsCommand(msg.Command) {
			logging.LogRawBytes(fmt.Sprintf("diagnostics frame %s from %s",
				protocol.CommandName(msg.Command), srcIP), msg.Payload)
		} else {
			logging.Debug("unrecognized packet",
				zap.String("from", srcIP),
				zap.String("cmd", protocol.CommandName(msg.Command)),
				zap.Int("payload_len", len(msg.Payload)),
			)
		}
	}
}

func remoteIP(addr net.Addr) string {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return udp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
