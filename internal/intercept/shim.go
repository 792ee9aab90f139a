package intercept

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Config configures a Shim.
type Config struct {
	// Blocklist is the set of redirected IPv4 destinations. An empty list
	// passes everything; use Default for the compiled-in set.
	Blocklist Blocklist

	// Notice receives one line per redirect. Defaults to os.Stderr.
	Notice io.Writer

	// Logger receives debug-level decision logs. Defaults to the logrus
	// standard logger.
	Logger *log.Logger
}

// Shim is the intercepting connect implementation. It is safe for concurrent
// use; its only mutable state is the Resolver's one-time lookup.
type Shim struct {
	list     Blocklist
	notice   io.Writer
	logger   *log.Logger
	resolver *Resolver
}

// New returns a Shim that forwards to the ConnectFunc produced by r.
func New(cfg Config, r *Resolver) *Shim {
	s := &Shim{
		list:     cfg.Blocklist,
		notice:   cfg.Notice,
		logger:   cfg.Logger,
		resolver: r,
	}
	if s.notice == nil {
		s.notice = os.Stderr
	}
	if s.logger == nil {
		s.logger = log.StandardLogger()
	}
	return s
}

// Blocklist returns the list the Shim matches against.
func (s *Shim) Blocklist() Blocklist {
	return s.list
}

// Divert classifies sa and returns the destination the connection should
// actually use. On Redirect it writes the notice line and returns a fresh
// RedirectTarget; on Pass it returns sa itself.
func (s *Shim) Divert(sa unix.Sockaddr) (unix.Sockaddr, Verdict) {
	verdict, ip := Classify(s.list, sa)
	debug := s.logger.IsLevelEnabled(log.DebugLevel)
	if verdict != Redirect {
		if debug && ip != "" {
			s.logger.WithField("dst", ip).Debug("intercept: pass")
		}
		return sa, Pass
	}

	if err := WriteNotice(s.notice, ip); err != nil && debug {
		s.logger.WithError(err).Debug("intercept: write notice")
	}
	if debug {
		s.logger.WithFields(log.Fields{"dst": ip, "to": RedirectAddress}).Debug("intercept: redirect")
	}
	return RedirectTarget(), Redirect
}
