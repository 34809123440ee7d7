package adapter

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"switchscan/internal/logger"
)

func TestCommandProber_Args(t *testing.T) {
	p := NewCommandProber(logger.NewTestLogger(), "", "", 1500*time.Millisecond, 4)

	want := []string{"-v2c", "-c", "public", "-t", "1.5", "-r", "1", "-Oqv", "10.0.0.1", "SNMPv2-MIB::sysDescr.0"}
	if got := p.args("10.0.0.1"); !slices.Equal(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}
	if p.command != DefaultSNMPCommand {
		t.Errorf("expected default command, got %s", p.command)
	}
}

func TestCommandProber_Identify(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		want    string
		present bool
	}{
		{
			name:    "quoted value",
			out:     "\"MikroTik RouterOS CRS326-24G-2S+\"\n",
			want:    "MikroTik RouterOS CRS326-24G-2S+",
			present: true,
		},
		{
			name:    "multi-line value keeps first line",
			out:     "Cisco IOS Software, C3750E Software\nCopyright (c) 1986-2013\n",
			want:    "Cisco IOS Software, C3750E Software",
			present: true,
		},
		{
			name: "no such object",
			out:  "No Such Object available on this agent at this OID\n",
		},
		{
			name: "timeout",
			out:  "Timeout: No Response from 10.0.0.1.\n",
			err:  errors.New("exit status 1"),
		},
		{
			name: "empty output",
			out:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			p := NewCommandProber(logger.NewTestLogger(), "snmpget", "public", time.Second, 1)
			p.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
				calls++
				if name != "snmpget" {
					t.Errorf("unexpected command %s", name)
				}
				return []byte(tt.out), tt.err
			}

			identity := p.Identify(context.Background(), "10.0.0.1")
			if identity.Present() != tt.present {
				t.Fatalf("expected present=%v, got %v", tt.present, identity.Present())
			}
			if identity.Value() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, identity.Value())
			}
			if calls != 1 {
				t.Errorf("expected exactly one invocation, got %d", calls)
			}
		})
	}
}

func TestCommandProber_MissingBinary(t *testing.T) {
	p := NewCommandProber(logger.NewTestLogger(), "/nonexistent/snmpget", "public", time.Second, 0)

	if identity := p.Identify(context.Background(), "127.0.0.1"); identity.Present() {
		t.Error("expected absent identity when binary is missing")
	}
}

func TestCommandProber_Interface(t *testing.T) {
	var _ IdentityProber = (*CommandProber)(nil)
	var _ IdentityProber = (*SNMPProber)(nil)
}
