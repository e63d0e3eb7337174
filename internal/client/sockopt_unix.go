//go:build !windows

package client

import "syscall"

// setBroadcast enables SO_BROADCAST on the socket. Without it, sends to
// 255.255.255.255 fail with EACCES on most platforms.
func setBroadcast(fd uintptr) error {
	return syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
}
