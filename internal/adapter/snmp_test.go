package adapter

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"

	"switchscan/internal/domain"
	"switchscan/internal/logger"
)

// startAgent runs a minimal v2c agent on loopback that answers every GET
// with the given variable. It returns the agent port.
func startAgent(t *testing.T, reply gosnmp.SnmpPDU) uint16 {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	decoder := &gosnmp.GoSNMP{Version: gosnmp.Version2c}

	go func() {
		buf := make([]byte, 4096)
		for {
			n, addr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}

			req, err := decoder.SnmpDecodePacket(buf[:n])
			if err != nil {
				continue
			}

			resp := &gosnmp.SnmpPacket{
				Version:   gosnmp.Version2c,
				Community: req.Community,
				PDUType:   gosnmp.GetResponse,
				RequestID: req.RequestID,
				Variables: []gosnmp.SnmpPDU{reply},
			}

			out, err := resp.MarshalMsg()
			if err != nil {
				continue
			}
			_, _ = conn.WriteTo(out, addr)
		}
	}()

	return uint16(conn.LocalAddr().(*net.UDPAddr).Port)
}

func TestSNMPProber_Identify(t *testing.T) {
	port := startAgent(t, gosnmp.SnmpPDU{
		Name:  OIDSysDescr,
		Type:  gosnmp.OctetString,
		Value: []byte("Cisco IOS Software, C2960 Software\nTechnical Support: http://www.cisco.com"),
	})

	p := NewSNMPProber(logger.NewTestLogger(), WithSNMPPort(port), WithSNMPTimeout(time.Second), WithSNMPRetries(0))

	identity := p.Identify(context.Background(), "127.0.0.1")
	if !identity.Present() {
		t.Fatal("expected identity to be present")
	}
	if identity.Value() != "Cisco IOS Software, C2960 Software" {
		t.Errorf("expected first line of sysDescr, got %q", identity.Value())
	}
}

func TestSNMPProber_NoSuchObject(t *testing.T) {
	port := startAgent(t, gosnmp.SnmpPDU{Name: OIDSysDescr, Type: gosnmp.NoSuchObject})

	p := NewSNMPProber(logger.NewTestLogger(), WithSNMPPort(port), WithSNMPTimeout(time.Second), WithSNMPRetries(0))

	if identity := p.Identify(context.Background(), "127.0.0.1"); identity.Present() {
		t.Errorf("expected absent identity, got %q", identity.Value())
	}
}

func TestSNMPProber_Timeout(t *testing.T) {
	// a socket that never answers
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	defer conn.Close()

	port := uint16(conn.LocalAddr().(*net.UDPAddr).Port)
	p := NewSNMPProber(logger.NewTestLogger(), WithSNMPPort(port), WithSNMPTimeout(200*time.Millisecond), WithSNMPRetries(0))

	start := time.Now()
	identity := p.Identify(context.Background(), "127.0.0.1")
	if identity.Present() {
		t.Error("expected absent identity on timeout")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout not honoured, took %v", elapsed)
	}
}

func TestSNMPProber_Options(t *testing.T) {
	p := NewSNMPProber(logger.NewTestLogger(), WithSNMPRetries(5), WithCommunity(""))
	if p.retries != 1 {
		t.Errorf("expected retries clamped to 1, got %d", p.retries)
	}
	if p.community != DefaultCommunity {
		t.Errorf("expected default community, got %q", p.community)
	}

	p = NewSNMPProber(logger.NewTestLogger(), WithSNMPRetries(-3), WithCommunity("private"))
	if p.retries != 0 {
		t.Errorf("expected retries clamped to 0, got %d", p.retries)
	}
	if p.community != "private" {
		t.Errorf("expected community private, got %q", p.community)
	}
}

func TestIdentityFromPacket(t *testing.T) {
	tests := []struct {
		name    string
		pkt     *gosnmp.SnmpPacket
		want    string
		present bool
	}{
		{
			name: "nil packet",
			pkt:  nil,
		},
		{
			name: "no variables",
			pkt:  &gosnmp.SnmpPacket{},
		},
		{
			name: "error status",
			pkt: &gosnmp.SnmpPacket{
				Error:     gosnmp.GenErr,
				Variables: []gosnmp.SnmpPDU{{Name: OIDSysDescr, Type: gosnmp.OctetString, Value: []byte("x")}},
			},
		},
		{
			name: "no such instance",
			pkt:  &gosnmp.SnmpPacket{Variables: []gosnmp.SnmpPDU{{Name: OIDSysDescr, Type: gosnmp.NoSuchInstance}}},
		},
		{
			name: "blank description",
			pkt:  &gosnmp.SnmpPacket{Variables: []gosnmp.SnmpPDU{{Name: OIDSysDescr, Type: gosnmp.OctetString, Value: []byte("  \n")}}},
		},
		{
			name:    "multi-line description",
			pkt:     &gosnmp.SnmpPacket{Variables: []gosnmp.SnmpPDU{{Name: OIDSysDescr, Type: gosnmp.OctetString, Value: []byte("HPE OfficeConnect 1920S\r\nRev 1")}}},
			want:    "HPE OfficeConnect 1920S",
			present: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := identityFromPacket(tt.pkt)
			if identity.Present() != tt.present {
				t.Fatalf("expected present=%v, got %v (err %v)", tt.present, identity.Present(), err)
			}
			if tt.present && identity.Value() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, identity.Value())
			}
			if !tt.present && err == nil {
				t.Error("expected an error for absent identity")
			}
			if !tt.present && identity != domain.NoIdentity {
				t.Error("expected NoIdentity")
			}
		})
	}
}
