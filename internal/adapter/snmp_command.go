package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"switchscan/internal/domain"
	"switchscan/internal/logger"
)

// DefaultSNMPCommand is the net-snmp client used by CommandProber
const DefaultSNMPCommand = "snmpget"

// commandRunner executes name with args and returns stdout
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// CommandProber reads sysDescr by running the net-snmp snmpget binary
type CommandProber struct {
	command   string
	community string
	timeout   time.Duration
	retries   int
	logger    logger.Logger
	run       commandRunner
}

// NewCommandProber creates a prober that shells out to command (snmpget when empty)
func NewCommandProber(log logger.Logger, command, community string, timeout time.Duration, retries int) *CommandProber {
	if command == "" {
		command = DefaultSNMPCommand
	}
	if community == "" {
		community = DefaultCommunity
	}
	if timeout <= 0 {
		timeout = defaultSNMPTimeout
	}

	return &CommandProber{
		command:   command,
		community: community,
		timeout:   timeout,
		retries:   min(max(retries, 0), 1),
		logger:    log.WithComponent("snmpget"),
		run:       runCommand,
	}
}

// Identify runs snmpget once for ip
func (c *CommandProber) Identify(ctx context.Context, ip string) domain.SNMPIdentity {
	// snmpget waits timeout*(retries+1); give it a second of slack
	budget := c.timeout*time.Duration(c.retries+1) + time.Second
	cctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	out, err := c.run(cctx, c.command, c.args(ip)...)
	if err != nil {
		kind := "transport"
		switch {
		case ctx.Err() != nil:
			kind = "cancelled"
		case errors.Is(cctx.Err(), context.DeadlineExceeded), bytes.Contains(bytes.ToLower(out), []byte("timeout")):
			kind = timeoutKind
		}
		c.logger.Debug().Str("ip", ip).Str("kind", kind).Err(err).Msg("snmpget failed")
		return domain.NoIdentity
	}

	identity, err := parseSNMPGetOutput(string(out))
	if err != nil {
		c.logger.Debug().Str("ip", ip).Str("kind", "snmp-error").Err(err).Msg("snmpget returned no value")
		return domain.NoIdentity
	}

	return identity
}

func (c *CommandProber) args(ip string) []string {
	return []string{
		"-v2c",
		"-c", c.community,
		"-t", strconv.FormatFloat(c.timeout.Seconds(), 'f', -1, 64),
		"-r", strconv.Itoa(c.retries),
		"-Oqv",
		ip,
		"SNMPv2-MIB::sysDescr.0",
	}
}

// parseSNMPGetOutput interprets -Oqv output: the bare value, possibly quoted
func parseSNMPGetOutput(out string) (domain.SNMPIdentity, error) {
	line := domain.FirstLine(out)
	if line == "" {
		return domain.NoIdentity, errNoVariables
	}

	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "no such") || strings.HasPrefix(lower, "timeout") ||
		strings.Contains(lower, "error in packet") || strings.HasPrefix(lower, "no more variables") {
		return domain.NoIdentity, fmt.Errorf("%w: %s", errNoSuchValue, line)
	}

	identity := domain.NewSNMPIdentity(strings.Trim(line, `"`))
	if !identity.Present() {
		return domain.NoIdentity, errNoSuchValue
	}

	return identity, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return stdout.Bytes(), err
		}
		return append(stdout.Bytes(), stderr.Bytes()...), fmt.Errorf("%w: %s", err, msg)
	}

	return stdout.Bytes(), nil
}
