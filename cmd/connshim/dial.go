package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/die-net/connshim/internal/dialer"
)

// dial connects to address through d and relays stdin and stdout over the
// connection until the remote side closes or ctx is canceled.
func dial(ctx context.Context, d dialer.Dialer, address string) error {
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"addr": address, "remote": conn.RemoteAddr().String()}).Info("connected")

	return relay(ctx, conn, os.Stdin, os.Stdout)
}

// relay copies in to conn and conn to out. It returns once conn has nothing
// more to read; in is not waited on, since a blocked read of stdin cannot be
// interrupted.
func relay(ctx context.Context, conn net.Conn, in io.Reader, out io.Writer) error {
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	go func() {
		if _, err := io.Copy(conn, in); err != nil {
			log.WithError(err).Debug("relay: write")
		}
		if cw, ok := conn.(interface{ CloseWrite() error }); ok {
			_ = cw.CloseWrite()
		}
	}()

	if _, err := io.Copy(out, conn); err != nil && ctx.Err() == nil {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}
