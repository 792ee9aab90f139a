package intercept

import "strings"

// builtinBlocklist holds the destinations redirected by default.
var builtinBlocklist = Blocklist{
	"160.79.104.10",  // api.anthropic.com
	"20.197.80.108",  // code-tunnel
	"3.22.121.133",   // opencode
	"64.239.123.193", // opencode
	"34.36.57.103",   // GCP frontend
	"140.82.113.22",  // github.com
}

// extraBlocklist is a comma-separated list of additional IPv4 addresses,
// set at link time with:
//
//	-ldflags "-X github.com/die-net/connshim/internal/intercept.extraBlocklist=192.0.2.1,192.0.2.2"
var extraBlocklist string

// Blocklist is an ordered list of IPv4 addresses in dotted-decimal form.
// Only membership matters; order and duplicates have no effect on results.
type Blocklist []string

// Default returns the compiled-in Blocklist plus any entries linked in
// through extraBlocklist. Each call returns a fresh slice.
func Default() Blocklist {
	list := make(Blocklist, 0, len(builtinBlocklist))
	list = append(list, builtinBlocklist...)
	for _, ip := range strings.Split(extraBlocklist, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			list = append(list, ip)
		}
	}
	return list
}

// Contains reports whether ip exactly matches an entry. Matching is plain
// string equality; callers must pass the canonical dotted-decimal form.
func (b Blocklist) Contains(ip string) bool {
	for _, entry := range b {
		if entry == ip {
			return true
		}
	}
	return false
}
