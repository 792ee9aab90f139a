package intercept

import (
	"net/netip"

	"golang.org/x/sys/unix"
)

// Verdict is the outcome of classifying a connection attempt.
type Verdict int

const (
	// Pass forwards the attempt unchanged.
	Pass Verdict = iota
	// Redirect substitutes the redirect target for the destination.
	Redirect
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Classify decides whether sa is redirected. Only IPv4 destinations are
// eligible; everything else, including a nil sa, passes. The second return
// value is the dotted-decimal rendering of an IPv4 destination and is empty
// for other families.
func Classify(list Blocklist, sa unix.Sockaddr) (Verdict, string) {
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok || sa4 == nil {
		return Pass, ""
	}

	ip := netip.AddrFrom4(sa4.Addr).String()
	if list.Contains(ip) {
		return Redirect, ip
	}
	return Pass, ip
}
