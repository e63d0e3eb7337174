// Package monitor renders a live terminal view of every registered HPA4911
// device: availability, HVAC state, battery and firmware, updated as status
// pushes arrive on the shared UDP socket.
//
// The monitor is a bubbletea program layered on top of client.Client. It
// installs its own status callbacks and re-reads device snapshots on every
// update, so it never touches client internals.
package monitor
