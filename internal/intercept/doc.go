// Package intercept decides, for each outbound connection attempt, whether it
// goes where the caller asked or is diverted to the local proxy endpoint at
// 127.0.0.1:443.
//
// The decision is made on the literal IPv4 destination only: the address is
// rendered in dotted-decimal form and compared against a Blocklist fixed at
// build time. Ports are not consulted, and every other address family passes
// through untouched.
//
// Connection establishment itself is abstracted as a ConnectFunc. Shim wraps
// the genuine ConnectFunc, obtained lazily and exactly once through a
// Resolver, and forwards either the caller's address or the redirect target.
// Whatever the genuine call returns is handed back unchanged.
//
// The raw sockaddr codec and Shim.Connect are Linux-only, since they depend on
// the kernel's sockaddr layout.
package intercept
