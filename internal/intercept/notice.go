package intercept

import (
	"fmt"
	"io"
)

// WriteNotice writes the redirect line for ip to w in a single write. The
// format is scraped by external tooling and must not change; the port is
// always printed as 443, whatever the caller originally asked for.
func WriteNotice(w io.Writer, ip string) error {
	_, err := fmt.Fprintf(w, "[INTERCEPT] Redirecting %s:443 -> localhost:443\n", ip)
	return err
}
