//go:build linux

package intercept

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Connect is the intercepting replacement for connect(2). addr is the raw
// sockaddr supplied by the caller.
//
// Redirected attempts are forwarded with a complete sockaddr_in for the
// redirect target, ignoring the caller's address length. Everything else is
// forwarded with fd and addr exactly as received. The genuine result is
// returned unchanged.
func (s *Shim) Connect(fd int, addr []byte) error {
	genuine, err := s.resolver.Resolve()
	if err != nil {
		return fmt.Errorf("intercept: resolve connect: %w", err)
	}

	if _, verdict := s.Divert(ParseSockaddr(addr)); verdict == Redirect {
		return genuine(fd, MarshalSockaddrInet4(RedirectTarget()))
	}
	return genuine(fd, addr)
}

// SyscallConnect calls connect(2) directly. It is the genuine implementation
// for processes whose connections are made from Go.
func SyscallConnect(fd int, addr []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_CONNECT, uintptr(fd), uintptr(unsafe.Pointer(unsafe.SliceData(addr))), uintptr(len(addr)))
	if errno != 0 {
		return errno
	}
	return nil
}

// SyscallResolver returns a Resolver whose genuine implementation is
// SyscallConnect.
func SyscallResolver() *Resolver {
	return NewResolver(func() (ConnectFunc, error) {
		return SyscallConnect, nil
	})
}
