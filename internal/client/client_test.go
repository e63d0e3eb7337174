package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/arpena/hpa4911/internal/protocol"
)

// testHarness wires a client and a fake device onto loopback sockets. The
// fake device plays the peer side of the port pair: it collects everything
// the client sends and can inject response datagrams.
type testHarness struct {
	client *Client
	device net.PacketConn
	sent   chan []byte
}

func newTestHarness(t *testing.T, cfg Config) *testHarness {
	t.Helper()

	device, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("device socket: %v", err)
	}
	t.Cleanup(func() { device.Close() })

	clientConn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("client socket: %v", err)
	}

	cfg.ListenPort = clientConn.LocalAddr().(*net.UDPAddr).Port
	cfg.PeerPort = device.LocalAddr().(*net.UDPAddr).Port
	cfg.Broadcast = "127.0.0.1"

	h := &testHarness{
		client: newWithConn(cfg, clientConn),
		device: device,
		sent:   make(chan []byte, 64),
	}

	go func() {
		buf := make([]byte, 2048)
		for {
			n, _, err := device.ReadFrom(buf)
			if err != nil {
				return
			}
			pkt := make([]byte, n)
			copy(pkt, buf[:n])
			h.sent <- pkt
		}
	}()

	return h
}

// respond injects a datagram as if the device at 127.0.0.1 sent it.
func (h *testHarness) respond(t *testing.T, data []byte) {
	t.Helper()
	addr := h.client.conn.LocalAddr().(*net.UDPAddr)
	if _, err := h.device.WriteTo(data, addr); err != nil {
		t.Fatalf("device send: %v", err)
	}
}

// collectCommands drains packets sent by the client until the deadline,
// returning their command ids.
func (h *testHarness) collectCommands(d time.Duration) []byte {
	var cmds []byte
	deadline := time.After(d)
	for {
		select {
		case pkt := <-h.sent:
			if len(pkt) >= protocol.HeaderSize {
				cmds = append(cmds, pkt[16])
			}
		case <-deadline:
			return cmds
		}
	}
}

func statusPushFrom(mac protocol.MAC) []byte {
	data := make([]byte, protocol.HeaderSize)
	copy(data[1:7], mac[:])
	data[16] = protocol.CmdStatusPush
	return append(data, []byte{6, protocol.ModeCool, protocol.FanMedium, 0,
		0x2E, 0x09, 0x60, 0x09, 0, 0, 0, 0}...)
}

func TestSubscribeBurstOnStart(t *testing.T) {
	h := newTestHarness(t, Config{RefreshInterval: time.Hour})
	h.client.RegisterDevice(macA, "127.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.client.Start(ctx)
	defer h.client.Close()

	cmds := h.collectCommands(300 * time.Millisecond)

	counts := map[byte]int{}
	for _, c := range cmds {
		counts[c]++
	}
	// Subscribe, battery request and device info each pair with a poll.
	if counts[protocol.CmdJoin] < 2 {
		t.Errorf("join packets = %d, want >= 2 (subscribe + enumerate)", counts[protocol.CmdJoin])
	}
	if counts[protocol.CmdCustom] < 1 {
		t.Errorf("custom packets = %d, want >= 1 (battery request)", counts[protocol.CmdCustom])
	}
	if counts[protocol.CmdPoll] < 3 {
		t.Errorf("poll packets = %d, want >= 3", counts[protocol.CmdPoll])
	}
}

func TestRefreshCycleRepeats(t *testing.T) {
	h := newTestHarness(t, Config{RefreshInterval: 50 * time.Millisecond})
	h.client.RegisterDevice(macA, "127.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.client.Start(ctx)
	defer h.client.Close()

	cmds := h.collectCommands(300 * time.Millisecond)

	joins := 0
	for _, c := range cmds {
		if c == protocol.CmdJoin {
			joins++
		}
	}
	// Immediate burst plus several periodic ones.
	if joins < 4 {
		t.Errorf("join packets over several cycles = %d, want >= 4", joins)
	}
}

func TestStatusRoutedToCallback(t *testing.T) {
	h := newTestHarness(t, Config{RefreshInterval: time.Hour})
	h.client.RegisterDevice(macA, "127.0.0.1")

	got := make(chan protocol.MAC, 1)
	h.client.SetStatusCallback(func(mac protocol.MAC, status *protocol.HVACStatus) {
		if status.MeasuredTemp == 23.5 && status.DesiredTemp == 24.0 {
			got <- mac
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.client.Start(ctx)
	defer h.client.Close()

	h.respond(t, statusPushFrom(macA))

	select {
	case mac := <-got:
		if mac != macA {
			t.Errorf("callback mac = %s, want %s", mac, macA)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("status never reached the callback")
	}
}

func TestMalformedAndUnknownPacketsDoNotKillReceiveLoop(t *testing.T) {
	h := newTestHarness(t, Config{RefreshInterval: time.Hour})
	h.client.RegisterDevice(macA, "127.0.0.1")

	got := make(chan protocol.MAC, 1)
	h.client.SetStatusCallback(func(mac protocol.MAC, _ *protocol.HVACStatus) { got <- mac })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.client.Start(ctx)
	defer h.client.Close()

	h.respond(t, []byte{0x01, 0x02})      // shorter than a header
	h.respond(t, make([]byte, 17))        // unknown command, empty payload
	h.respond(t, statusPushFrom(macA))    // still routed afterwards

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("receive loop stopped handling packets after bad datagrams")
	}
}

func TestCloseAwaitsLoops(t *testing.T) {
	h := newTestHarness(t, Config{RefreshInterval: 20 * time.Millisecond})
	h.client.RegisterDevice(macA, "127.0.0.1")

	h.client.Start(context.Background())

	done := make(chan struct{})
	go func() {
		h.client.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return; a loop is stuck")
	}

	select {
	case <-h.client.schedDone:
	default:
		t.Error("refresh loop still running after Close")
	}
	select {
	case <-h.client.recvDone:
	default:
		t.Error("receive loop still running after Close")
	}
}

func TestCommandsFallBackToBroadcastWithoutAddress(t *testing.T) {
	h := newTestHarness(t, Config{RefreshInterval: time.Hour})
	h.client.RegisterDevice(macA, "") // no known address

	h.client.SetMode(macA, protocol.ModeHeat)

	select {
	case pkt := <-h.sent:
		if pkt[16] != protocol.CmdHVACSet {
			t.Errorf("command id = %d, want %d", pkt[16], protocol.CmdHVACSet)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast fallback packet never arrived")
	}
}
