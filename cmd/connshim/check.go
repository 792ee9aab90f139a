package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/die-net/connshim/internal/intercept"
)

// check prints the verdict for each address. Addresses may be bare IPs or
// ip:port; a hostname always passes since only IP literals are matched.
func check(w io.Writer, list intercept.Blocklist, addrs []string) error {
	for _, addr := range addrs {
		sa, err := parseCheckAddr(addr)
		if err != nil {
			return fmt.Errorf("check %q: %w", addr, err)
		}

		verdict, _ := intercept.Classify(list, sa)
		if verdict == intercept.Redirect {
			fmt.Fprintf(w, "%s\t%s -> %s\n", addr, verdict, intercept.RedirectAddress)
		} else {
			fmt.Fprintf(w, "%s\t%s\n", addr, verdict)
		}
	}
	return nil
}

// parseCheckAddr returns the sockaddr a connect to addr would use, or nil for
// a hostname.
func parseCheckAddr(addr string) (unix.Sockaddr, error) {
	host, port := strings.TrimSpace(addr), ""
	if host == "" {
		return nil, errors.New("empty address")
	}

	if ap, err := netip.ParseAddrPort(host); err == nil {
		return sockaddr(ap.Addr(), ap.Port()), nil
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return sockaddr(ip, 0), nil
	}

	if h, p, err := net.SplitHostPort(host); err == nil {
		host, port = h, p
	}
	if port != "" {
		if _, err := net.LookupPort("tcp", port); err != nil {
			return nil, err
		}
	}
	if host == "" || strings.ContainsAny(host, " /[]") {
		return nil, errors.New("not an IP address or hostname")
	}
	return nil, nil
}

func sockaddr(ip netip.Addr, port uint16) unix.Sockaddr {
	if ip.Is4() {
		return &unix.SockaddrInet4{Port: int(port), Addr: ip.As4()}
	}
	return &unix.SockaddrInet6{Port: int(port), Addr: ip.As16()}
}
