//go:build linux

package intercept

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// ParseSockaddr decodes a raw sockaddr as passed to connect(2). AF_INET and
// AF_INET6 are recognized; any other family, or a buffer too short for the
// family it claims, yields nil.
func ParseSockaddr(b []byte) unix.Sockaddr {
	if len(b) < 2 {
		return nil
	}

	// Layouts follow struct sockaddr_in and struct sockaddr_in6: the family
	// is host order, the port is network order.
	switch binary.NativeEndian.Uint16(b[0:2]) {
	case unix.AF_INET:
		if len(b) < unix.SizeofSockaddrInet4 {
			return nil
		}
		sa := &unix.SockaddrInet4{Port: int(binary.BigEndian.Uint16(b[2:4]))}
		copy(sa.Addr[:], b[4:8])
		return sa
	case unix.AF_INET6:
		if len(b) < unix.SizeofSockaddrInet6 {
			return nil
		}
		sa := &unix.SockaddrInet6{
			Port:   int(binary.BigEndian.Uint16(b[2:4])),
			ZoneId: binary.NativeEndian.Uint32(b[24:28]),
		}
		copy(sa.Addr[:], b[8:24])
		return sa
	default:
		return nil
	}
}

// MarshalSockaddrInet4 encodes sa as a complete struct sockaddr_in, with the
// port in network byte order and the padding zeroed.
func MarshalSockaddrInet4(sa *unix.SockaddrInet4) []byte {
	b := make([]byte, unix.SizeofSockaddrInet4)
	binary.NativeEndian.PutUint16(b[0:2], unix.AF_INET)
	binary.BigEndian.PutUint16(b[2:4], uint16(sa.Port))
	copy(b[4:8], sa.Addr[:])
	return b
}

// MarshalSockaddrInet6 encodes sa as a complete struct sockaddr_in6.
func MarshalSockaddrInet6(sa *unix.SockaddrInet6) []byte {
	b := make([]byte, unix.SizeofSockaddrInet6)
	binary.NativeEndian.PutUint16(b[0:2], unix.AF_INET6)
	binary.BigEndian.PutUint16(b[2:4], uint16(sa.Port))
	copy(b[8:24], sa.Addr[:])
	binary.NativeEndian.PutUint32(b[24:28], sa.ZoneId)
	return b
}
