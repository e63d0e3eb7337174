package client

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arpena/hpa4911/internal/logging"
	"github.com/arpena/hpa4911/internal/protocol"
)

// refreshLoop re-issues the subscribe burst for every registered device on a
// fixed period. Device-side push subscriptions lapse after about two minutes,
// so this loop is what keeps unsolicited status pushes flowing. The first
// cycle runs immediately.
//
// Every send inside a cycle is fire-and-forget and absorbs its own failures,
// so one device's bad address never stalls the others or kills the loop.
// Cancellation is observed at the ticker wait.
func (c *Client) refreshLoop(ctx context.Context) {
	defer close(c.schedDone)

	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()

	c.refreshAll()
	for {
		select {
		case <-ctx.Done():
			logging.Debug("subscription refresh loop cancelled")
			return
		case <-ticker.C:
			c.refreshAll()
		}
	}
}

func (c *Client) refreshAll() {
	macs := c.router.macs()
	logging.Debug("refreshing subscriptions", zap.Int("devices", len(macs)))
	for _, mac := range macs {
		c.refreshDevice(mac)
	}
}

// refreshDevice issues the full per-device burst: renew the push
// subscription, request an immediate status, then battery telemetry and
// firmware info.
func (c *Client) refreshDevice(mac protocol.MAC) {
	c.Subscribe(mac)
	c.RequestBatteryStatus(mac)
	c.RequestDeviceInfo(mac)
}
