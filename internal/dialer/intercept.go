package dialer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/die-net/connshim/internal/intercept"
)

// InterceptDialer applies an intercept.Shim to TCP dials before handing them
// to the next Dialer. Redirected destinations are dialed at
// intercept.RedirectAddress over tcp4; all others are dialed as requested.
type InterceptDialer struct {
	shim *intercept.Shim
	next Dialer

	// Resolver looks up hostnames so that each resolved address can be
	// classified. Defaults to net.DefaultResolver.
	Resolver *net.Resolver
}

// NewInterceptDialer wraps next with shim.
func NewInterceptDialer(shim *intercept.Shim, next Dialer) *InterceptDialer {
	return &InterceptDialer{shim: shim, next: next}
}

// DialContext dials address, diverting it if its IPv4 address is blocklisted.
//
// Hostnames are resolved first and every address is classified on its own;
// addresses are tried in order and the first successful connection wins.
// Non-TCP networks go straight to the next Dialer.
func (d *InterceptDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	switch network {
	case "tcp", "tcp4", "tcp6":
	default:
		return d.next.DialContext(ctx, network, address)
	}

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("intercept dial %s %s: %w", network, address, err)
	}
	port, err := d.resolver().LookupPort(ctx, network, portStr)
	if err != nil {
		return nil, fmt.Errorf("intercept dial %s %s: %w", network, address, err)
	}

	if ip, err := netip.ParseAddr(host); err == nil {
		return d.dialAddr(ctx, network, address, netip.AddrPortFrom(ip, uint16(port)))
	}

	ips, err := d.resolver().LookupNetIP(ctx, ipNetwork(network), host)
	if err != nil {
		return nil, fmt.Errorf("intercept dial %s %s: %w", network, address, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("intercept dial %s %s: no addresses", network, address)
	}

	var errs []error
	for _, ip := range ips {
		ap := netip.AddrPortFrom(ip.Unmap(), uint16(port))
		c, err := d.dialAddr(ctx, network, ap.String(), ap)
		if err == nil {
			return c, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

// dialAddr dials a single resolved destination. address is what is handed to
// the next Dialer when the destination passes.
func (d *InterceptDialer) dialAddr(ctx context.Context, network, address string, ap netip.AddrPort) (net.Conn, error) {
	if _, verdict := d.shim.Divert(sockaddr(ap)); verdict == intercept.Redirect {
		network, address = "tcp4", intercept.RedirectAddress
	}

	c, err := d.next.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("intercept: %w", err)
	}
	return c, nil
}

func (d *InterceptDialer) resolver() *net.Resolver {
	if d.Resolver != nil {
		return d.Resolver
	}
	return net.DefaultResolver
}

func sockaddr(ap netip.AddrPort) unix.Sockaddr {
	ip := ap.Addr()
	if ip.Is4() {
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: ip.As4()}
	}
	return &unix.SockaddrInet6{Port: int(ap.Port()), Addr: ip.As16()}
}

func ipNetwork(network string) string {
	switch network {
	case "tcp4":
		return "ip4"
	case "tcp6":
		return "ip6"
	default:
		return "ip"
	}
}
