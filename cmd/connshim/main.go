// Command connshim inspects and exercises the connect interception rules
// compiled into libconnshim.
//
//	connshim list
//	connshim check 160.79.104.10 93.184.216.34:443
//	connshim [--upstream socks5://127.0.0.1:1080] dial 34.36.57.103:443
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/die-net/connshim/internal/dialer"
	"github.com/die-net/connshim/internal/intercept"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		upstream = pflag.String("upstream", defaultUpstream(), "Dialer used by 'dial' for the final connection: direct:// | socks5://[user:pass@]host:port")

		dialTimeout        = pflag.Duration("dial-timeout", 10*time.Second, "Timeout for outbound DNS lookup and TCP connect")
		negotiationTimeout = pflag.Duration("negotiation-timeout", 10*time.Second, "Timeout for SOCKS5 negotiation")
		tcpKeepAlive       = pflag.String("tcp-keepalive", "45:45:3", "TCP keepalive: on|off|keepidle:keepintvl:keepcnt")
		logLevel           = pflag.String("log-level", "info", "Log level: error|warning|info|debug")
	)

	pflag.Usage = usage
	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	log.SetLevel(level)

	ka, err := parseTCPKeepAlive(*tcpKeepAlive)
	if err != nil {
		return fmt.Errorf("invalid --tcp-keepalive: %w", err)
	}

	args := pflag.Args()
	if len(args) == 0 {
		usage()
		return errors.New("missing command")
	}

	list := intercept.Default()

	switch cmd, args := args[0], args[1:]; cmd {
	case "list":
		for _, ip := range list {
			fmt.Println(ip)
		}
		return nil
	case "check":
		if len(args) == 0 {
			return errors.New("check: no addresses given")
		}
		return check(os.Stdout, list, args)
	case "dial":
		if len(args) != 1 {
			return errors.New("dial: expected exactly one host:port")
		}

		cfg := dialer.Config{
			DialTimeout:        *dialTimeout,
			NegotiationTimeout: *negotiationTimeout,
			KeepAlive:          ka,
		}
		up, err := dialer.New(cfg, *upstream)
		if err != nil {
			return fmt.Errorf("invalid --upstream: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shim := intercept.New(intercept.Config{Blocklist: list}, nil)
		return dial(ctx, dialer.NewInterceptDialer(shim, up), args[0])
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] list | check ADDR... | dial HOST:PORT\n\nFlags:\n", os.Args[0])
	pflag.PrintDefaults()
}

func parseTCPKeepAlive(s string) (net.KeepAliveConfig, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return net.KeepAliveConfig{}, errors.New("empty")
	case "on":
		return net.KeepAliveConfig{Enable: true}, nil
	case "off":
		return net.KeepAliveConfig{Enable: false}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return net.KeepAliveConfig{}, errors.New("expected on|off|keepidle:keepintvl:keepcnt")
	}
	keepIdle, err := parsePositiveInt(parts[0])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepidle: %w", err)
	}
	keepIntvl, err := parsePositiveInt(parts[1])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepintvl: %w", err)
	}
	keepCnt, err := parsePositiveInt(parts[2])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepcnt: %w", err)
	}

	return net.KeepAliveConfig{
		Enable:   true,
		Idle:     time.Duration(keepIdle) * time.Second,
		Interval: time.Duration(keepIntvl) * time.Second,
		Count:    keepCnt,
	}, nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be > 0")
	}
	return n, nil
}

func defaultUpstream() string {
	if p := os.Getenv("ALL_PROXY"); p != "" {
		return p
	}

	if p := os.Getenv("all_proxy"); p != "" {
		return p
	}

	return "direct://"
}
