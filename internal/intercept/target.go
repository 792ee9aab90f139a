package intercept

import (
	"net"
	"net/netip"
	"strconv"

	"golang.org/x/sys/unix"
)

// RedirectPort is the port every redirected attempt is sent to.
const RedirectPort = 443

// RedirectIP is the address every redirected attempt is sent to.
var RedirectIP = netip.AddrFrom4([4]byte{127, 0, 0, 1})

// RedirectAddress is RedirectIP:RedirectPort in host:port form.
var RedirectAddress = net.JoinHostPort(RedirectIP.String(), strconv.Itoa(RedirectPort))

// RedirectTarget returns a new sockaddr for the local proxy endpoint. Nothing
// from the original destination carries over.
func RedirectTarget() *unix.SockaddrInet4 {
	return &unix.SockaddrInet4{Port: RedirectPort, Addr: RedirectIP.As4()}
}
