//go:build windows

package client

import "syscall"

// setBroadcast enables SO_BROADCAST on the socket.
func setBroadcast(fd uintptr) error {
	return syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
}
