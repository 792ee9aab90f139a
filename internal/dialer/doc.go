// Package dialer provides the outbound dialers used by connshim.
//
// Dialers implement a small interface (DialContext). The direct and SOCKS5
// dialers establish connections; InterceptDialer wraps either of them and
// applies the intercept block list to every TCP destination before handing
// the (possibly redirected) address on.
package dialer
