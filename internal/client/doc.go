// Package client implements the HPA4911 network client: one shared
// broadcast-capable UDP socket, a concurrency-safe device routing table, and
// the background loop that keeps device push subscriptions alive.
//
// Responses on broadcast UDP are asynchronous, unordered and connectionless;
// many devices share one broadcast domain and one local socket. The client
// attributes each decoded status to a logical device by its source IP and
// hands it to the callback registered for that device's MAC. Statuses from
// addresses nobody registered are dropped and logged, never guessed at.
//
// Typical use:
//
//	c, err := client.New(client.Config{})
//	if err != nil {
//		return err // port 20911 could not be bound; nothing will work
//	}
//	defer c.Close()
//
//	c.SetStatusCallback(func(mac protocol.MAC, s *protocol.HVACStatus) { ... })
//	c.RegisterDevice(mac, "192.168.1.40")
//	c.Start(ctx)
//
// Commands are addressed by device MAC and sent fire-and-forget: UDP has no
// delivery guarantee, so nothing waits for acknowledgment and transient send
// failures are only logged. The 120-second refresh cycle doubles as the retry
// mechanism. Availability is derived from the last update timestamp rather
// than tracked as a flag.
package client
