//go:build cgo && linux

// Command libconnshim builds a shared library that replaces connect(2) in any
// process it is preloaded into:
//
//	go build -buildmode=c-shared -o libconnshim.so ./cmd/libconnshim
//	LD_PRELOAD=$PWD/libconnshim.so curl https://160.79.104.10/
//
// Connections to a blocklisted IPv4 address go to 127.0.0.1:443 instead;
// everything else reaches the next connect in the symbol search order.
package main

/*
#cgo LDFLAGS: -ldl
#include "shim.h"
*/
import "C"

import (
	"errors"
	"syscall"
	"unsafe"

	log "github.com/sirupsen/logrus"

	"github.com/die-net/connshim/internal/intercept"
)

func main() {}

var shim = intercept.New(intercept.Config{Blocklist: intercept.Default()}, intercept.NewResolver(lookupNext))

// lookupNext finds the connect that this library shadows.
func lookupNext() (intercept.ConnectFunc, error) {
	next := C.shim_next_connect()
	if next == nil {
		return nil, intercept.ErrNoGenuineConnect
	}

	return func(fd int, addr []byte) error {
		r, err := C.shim_call_connect(next, C.int(fd), unsafe.Pointer(unsafe.SliceData(addr)), C.socklen_t(len(addr)))
		if r != 0 {
			if err == nil {
				err = syscall.EIO
			}
			return err
		}
		return nil
	}, nil
}

//export connect
func connect(fd C.int, addr C.c_sockaddr_ptr_t, addrlen C.socklen_t) C.int {
	raw := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(addrlen))

	err := shim.Connect(int(fd), raw)
	if err == nil {
		return 0
	}
	if errors.Is(err, intercept.ErrNoGenuineConnect) {
		log.WithError(err).Fatal("libconnshim: cannot forward connect")
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) {
		errno = syscall.EIO
	}
	C.shim_set_errno(C.int(errno))
	return -1
}
