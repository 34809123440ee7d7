package adapter

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"

	"switchscan/internal/logger"
)

const defaultSSHTimeout = 3 * time.Second

// errHostKeyCaptured aborts the handshake once the server key is known
var errHostKeyCaptured = errors.New("host key captured")

// SSHKeyProber records a device's SSH host key fingerprint. It completes
// the key exchange only; no authentication is attempted.
type SSHKeyProber struct {
	port    int
	timeout time.Duration
	logger  logger.Logger
}

// NewSSHKeyProber creates a prober for port 22 with the given timeout
func NewSSHKeyProber(log logger.Logger, timeout time.Duration) *SSHKeyProber {
	if timeout <= 0 {
		timeout = defaultSSHTimeout
	}
	return &SSHKeyProber{
		port:    22,
		timeout: timeout,
		logger:  log.WithComponent("ssh"),
	}
}

// HostKey returns "<key type> <SHA256 fingerprint>" for ip
func (s *SSHKeyProber) HostKey(ctx context.Context, ip string) (string, bool) {
	addr := net.JoinHostPort(ip, strconv.Itoa(s.port))

	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		s.logger.Debug().Str("ip", ip).Err(err).Msg("SSH dial failed")
		return "", false
	}
	defer conn.Close()

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	var captured ssh.PublicKey
	config := &ssh.ClientConfig{
		User: "switchscan",
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			captured = key
			return errHostKeyCaptured
		},
		Timeout: s.timeout,
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err == nil {
		// not expected, the callback always aborts
		ssh.NewClient(sshConn, chans, reqs).Close()
	}

	if captured == nil {
		s.logger.Debug().Str("ip", ip).Err(err).Msg("SSH handshake failed before host key")
		return "", false
	}

	return captured.Type() + " " + ssh.FingerprintSHA256(captured), true
}
