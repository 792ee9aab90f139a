package intercept

import (
	"errors"
	"sync"
)

// ConnectFunc establishes a connection on socket fd to the raw sockaddr in
// addr; len(addr) is the address length. It returns nil on success or the
// error reported by the underlying implementation, typically a unix.Errno.
type ConnectFunc func(fd int, addr []byte) error

// ErrNoGenuineConnect is returned when the genuine connect implementation
// cannot be located. Nothing can connect without it, so callers should treat
// it as fatal.
var ErrNoGenuineConnect = errors.New("genuine connect implementation not found")

// Resolver looks up the genuine ConnectFunc on first use and caches the
// outcome, success or failure, for the life of the process.
type Resolver struct {
	resolve func() (ConnectFunc, error)
}

// NewResolver returns a Resolver that calls lookup at most once, no matter
// how many goroutines call Resolve concurrently.
func NewResolver(lookup func() (ConnectFunc, error)) *Resolver {
	return &Resolver{
		resolve: sync.OnceValues(func() (ConnectFunc, error) {
			fn, err := lookup()
			if err != nil {
				return nil, err
			}
			if fn == nil {
				return nil, ErrNoGenuineConnect
			}
			return fn, nil
		}),
	}
}

// Resolve returns the cached genuine ConnectFunc, performing the lookup if
// this is the first call.
func (r *Resolver) Resolve() (ConnectFunc, error) {
	return r.resolve()
}
