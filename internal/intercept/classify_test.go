package intercept

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/sys/unix"
)

var ignoreRaw = cmpopts.IgnoreUnexported(unix.SockaddrInet4{}, unix.SockaddrInet6{})

func TestClassify(t *testing.T) {
	t.Parallel()

	list := Default()

	tests := []struct {
		name   string
		list   Blocklist
		sa     unix.Sockaddr
		want   Verdict
		wantIP string
	}{
		{
			name:   "listed ipv4",
			list:   list,
			sa:     &unix.SockaddrInet4{Port: 443, Addr: [4]byte{160, 79, 104, 10}},
			want:   Redirect,
			wantIP: "160.79.104.10",
		},
		{
			name:   "listed ipv4 other port",
			list:   list,
			sa:     &unix.SockaddrInet4{Port: 8443, Addr: [4]byte{160, 79, 104, 10}},
			want:   Redirect,
			wantIP: "160.79.104.10",
		},
		{
			name:   "listed ipv4 port zero",
			list:   list,
			sa:     &unix.SockaddrInet4{Addr: [4]byte{140, 82, 113, 22}},
			want:   Redirect,
			wantIP: "140.82.113.22",
		},
		{
			name:   "unlisted ipv4",
			list:   list,
			sa:     &unix.SockaddrInet4{Port: 443, Addr: [4]byte{93, 184, 216, 34}},
			want:   Pass,
			wantIP: "93.184.216.34",
		},
		{
			name:   "loopback",
			list:   list,
			sa:     &unix.SockaddrInet4{Port: 443, Addr: [4]byte{127, 0, 0, 1}},
			want:   Pass,
			wantIP: "127.0.0.1",
		},
		{
			name: "ipv4-mapped ipv6 of listed address",
			list: list,
			sa: &unix.SockaddrInet6{Port: 443, Addr: [16]byte{
				10: 0xff, 11: 0xff, 12: 160, 13: 79, 14: 104, 15: 10,
			}},
			want: Pass,
		},
		{
			name: "unix socket",
			list: list,
			sa:   &unix.SockaddrUnix{Name: "/run/160.79.104.10.sock"},
			want: Pass,
		},
		{
			name: "nil address",
			list: list,
			sa:   nil,
			want: Pass,
		},
		{
			name: "typed nil ipv4",
			list: list,
			sa:   (*unix.SockaddrInet4)(nil),
			want: Pass,
		},
		{
			name:   "empty list",
			list:   Blocklist{},
			sa:     &unix.SockaddrInet4{Port: 443, Addr: [4]byte{160, 79, 104, 10}},
			want:   Pass,
			wantIP: "160.79.104.10",
		},
		{
			name:   "duplicate entries",
			list:   Blocklist{"34.36.57.103", "34.36.57.103"},
			sa:     &unix.SockaddrInet4{Port: 51000, Addr: [4]byte{34, 36, 57, 103}},
			want:   Redirect,
			wantIP: "34.36.57.103",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ip := Classify(tt.list, tt.sa)
			if got != tt.want {
				t.Fatalf("verdict=%v want %v", got, tt.want)
			}
			if ip != tt.wantIP {
				t.Fatalf("ip=%q want %q", ip, tt.wantIP)
			}
		})
	}
}

func TestVerdictString(t *testing.T) {
	t.Parallel()

	for v, want := range map[Verdict]string{Pass: "pass", Redirect: "redirect", Verdict(7): "unknown"} {
		if got := v.String(); got != want {
			t.Errorf("Verdict(%d).String()=%q want %q", int(v), got, want)
		}
	}
}

func TestRedirectTarget(t *testing.T) {
	t.Parallel()

	want := &unix.SockaddrInet4{Port: 443, Addr: [4]byte{127, 0, 0, 1}}
	if diff := cmp.Diff(want, RedirectTarget(), ignoreRaw); diff != "" {
		t.Fatalf("RedirectTarget() mismatch (-want +got):\n%s", diff)
	}
	if RedirectTarget() == RedirectTarget() {
		t.Fatal("RedirectTarget() must return a fresh value")
	}
	if RedirectAddress != "127.0.0.1:443" {
		t.Fatalf("RedirectAddress=%q", RedirectAddress)
	}
}

func TestDivert(t *testing.T) {
	t.Parallel()

	var notice bytes.Buffer
	s := New(Config{Blocklist: Default(), Notice: &notice}, nil)

	orig := &unix.SockaddrInet4{Port: 51000, Addr: [4]byte{34, 36, 57, 103}}
	got, verdict := s.Divert(orig)
	if verdict != Redirect {
		t.Fatalf("verdict=%v want redirect", verdict)
	}
	if diff := cmp.Diff(RedirectTarget(), got, ignoreRaw); diff != "" {
		t.Fatalf("diverted address mismatch (-want +got):\n%s", diff)
	}
	if orig.Port != 51000 || orig.Addr != [4]byte{34, 36, 57, 103} {
		t.Fatalf("Divert modified the caller's address: %+v", orig)
	}
	if want := "[INTERCEPT] Redirecting 34.36.57.103:443 -> localhost:443\n"; notice.String() != want {
		t.Fatalf("notice=%q want %q", notice.String(), want)
	}

	notice.Reset()
	pass := &unix.SockaddrInet4{Port: 443, Addr: [4]byte{93, 184, 216, 34}}
	got, verdict = s.Divert(pass)
	if verdict != Pass {
		t.Fatalf("verdict=%v want pass", verdict)
	}
	if got != unix.Sockaddr(pass) {
		t.Fatal("Divert must return the original address on pass")
	}
	if notice.Len() != 0 {
		t.Fatalf("unexpected notice on pass: %q", notice.String())
	}
}

func TestWriteNotice(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	if err := WriteNotice(&b, "160.79.104.10"); err != nil {
		t.Fatal(err)
	}
	if want := "[INTERCEPT] Redirecting 160.79.104.10:443 -> localhost:443\n"; b.String() != want {
		t.Fatalf("got %q want %q", b.String(), want)
	}
}

func TestDivertDebugLog(t *testing.T) {
	t.Parallel()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	s := New(Config{Blocklist: Default(), Notice: io.Discard, Logger: logger}, nil)

	s.Divert(&unix.SockaddrInet4{Port: 443, Addr: [4]byte{160, 79, 104, 10}})
	s.Divert(&unix.SockaddrInet4{Port: 443, Addr: [4]byte{93, 184, 216, 34}})
	s.Divert(&unix.SockaddrUnix{Name: "/tmp/sock"})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries want 2", len(entries))
	}
	if entries[0].Message != "intercept: redirect" || entries[0].Data["dst"] != "160.79.104.10" {
		t.Fatalf("unexpected redirect entry: %s %v", entries[0].Message, entries[0].Data)
	}
	if entries[1].Message != "intercept: pass" || entries[1].Data["dst"] != "93.184.216.34" {
		t.Fatalf("unexpected pass entry: %s %v", entries[1].Message, entries[1].Data)
	}

	logger.SetLevel(log.InfoLevel)
	hook.Reset()
	s.Divert(&unix.SockaddrInet4{Port: 443, Addr: [4]byte{160, 79, 104, 10}})
	if len(hook.AllEntries()) != 0 {
		t.Fatal("debug entries logged at info level")
	}
}
