// Package ssh implements the session transport over an interactive SSH
// shell. It drives the switch CLI the way a human would: write a line, read
// until the prompt comes back.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/channel-guard/channelguard/pkg/session"
	"github.com/channel-guard/channelguard/pkg/util"
)

var (
	// Switch CLI prompts: "sw1>", "sw1#", "sw1(config-if)#".
	promptPattern   = regexp.MustCompile(`(?m)^[\w.()/-]+[>#]\s*$`)
	passwordPattern = regexp.MustCompile(`(?i)password:\s*$`)
)

// Transport opens interactive SSH shells to switches.
type Transport struct{}

// New creates the SSH transport.
func New() *Transport {
	return &Transport{}
}

// Open dials the switch, starts a shell, disables output paging, and
// optionally enters privileged mode. Authentication and dial-timeout
// failures map to the typed session errors.
func (t *Transport) Open(ctx context.Context, p session.Params) (session.Conn, error) {
	addr := net.JoinHostPort(p.Host, "22")
	config := &ssh.ClientConfig{
		User: p.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(p.Password),
			ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = p.Password
				}
				return answers, nil
			}),
		},
		// Plant-floor switches rarely have managed host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         p.ConnectTimeout,
	}

	dialer := net.Dialer{Timeout: p.ConnectTimeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, openError(p.Host, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		netConn.Close()
		return nil, openError(p.Host, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("opening shell session on %s: %w", p.Host, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 115200,
		ssh.TTY_OP_OSPEED: 115200,
	}
	if err := sess.RequestPty("vt100", 80, 512, modes); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("requesting pty on %s: %w", p.Host, err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("attaching stdin on %s: %w", p.Host, err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("attaching stdout on %s: %w", p.Host, err)
	}

	if err := sess.Shell(); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("starting shell on %s: %w", p.Host, err)
	}

	c := &conn{
		host:        p.Host,
		deviceType:  p.DeviceType,
		client:      client,
		sess:        sess,
		stdin:       stdin,
		readTimeout: p.ReadTimeout,
		out:         make(chan []byte, 16),
	}
	go c.pump(stdout)

	if err := c.login(p.EnablePassword); err != nil {
		c.Close()
		return nil, err
	}

	util.WithSwitch(p.Host).Debugf("Shell ready (profile %s)", p.DeviceType)
	return c, nil
}

// openError classifies dial and handshake failures.
func openError(host string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &util.ConnectTimeoutError{Host: host, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &util.ConnectTimeoutError{Host: host, Err: err}
	}
	if strings.Contains(err.Error(), "unable to authenticate") {
		return &util.AuthError{Host: host, Err: err}
	}
	return fmt.Errorf("SSH dial %s: %w", host, err)
}

// conn is one interactive shell channel.
type conn struct {
	host        string
	deviceType  string
	client      *ssh.Client
	sess        *ssh.Session
	stdin       io.WriteCloser
	readTimeout time.Duration
	out         chan []byte
}

// pump moves shell output into the channel until the stream ends.
func (c *conn) pump(stdout io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.out <- chunk
		}
		if err != nil {
			close(c.out)
			return
		}
	}
}

// login waits for the initial prompt, enters enable mode when a secret is
// supplied, and disables paging so command output arrives in one read.
func (c *conn) login(enablePassword string) error {
	if _, err := c.readUntil(promptPattern); err != nil {
		return fmt.Errorf("waiting for initial prompt on %s: %w", c.host, err)
	}

	if enablePassword != "" {
		if err := c.writeLine("enable"); err != nil {
			return err
		}
		out, err := c.readUntilEither(passwordPattern, promptPattern)
		if err != nil {
			return fmt.Errorf("entering enable mode on %s: %w", c.host, err)
		}
		if passwordPattern.MatchString(out) {
			if err := c.writeLine(enablePassword); err != nil {
				return err
			}
			if _, err := c.readUntil(promptPattern); err != nil {
				return fmt.Errorf("enable password rejected on %s: %w", c.host, err)
			}
		}
	}

	_, err := c.run("terminal length 0")
	return err
}

func (c *conn) writeLine(line string) error {
	if _, err := io.WriteString(c.stdin, line+"\n"); err != nil {
		return fmt.Errorf("writing to shell: %w", err)
	}
	return nil
}

func (c *conn) readUntil(pattern *regexp.Regexp) (string, error) {
	return c.readUntilEither(pattern, pattern)
}

// readUntilEither collects output until either pattern matches or the read
// timeout elapses. Whatever was collected is returned with the error.
func (c *conn) readUntilEither(a, b *regexp.Regexp) (string, error) {
	timeout := c.readTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var sb strings.Builder
	for {
		select {
		case chunk, ok := <-c.out:
			if !ok {
				return sb.String(), fmt.Errorf("channel closed by %s", c.host)
			}
			sb.Write(chunk)
			if a.MatchString(sb.String()) || b.MatchString(sb.String()) {
				return sb.String(), nil
			}
		case <-timer.C:
			return sb.String(), fmt.Errorf("read timed out after %s waiting for prompt", timeout)
		}
	}
}

// run sends one line and returns its output with the echo and the trailing
// prompt stripped.
func (c *conn) run(command string) (string, error) {
	if err := c.writeLine(command); err != nil {
		return "", err
	}
	raw, err := c.readUntil(promptPattern)
	if err != nil {
		return raw, err
	}
	return cleanOutput(command, raw), nil
}

// cleanOutput drops the echoed command line and the prompt line.
func cleanOutput(command, raw string) string {
	lines := strings.Split(raw, "\n")
	var kept []string
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r ")
		if i == 0 && strings.TrimSpace(trimmed) == strings.TrimSpace(command) {
			continue
		}
		if i == len(lines)-1 && promptPattern.MatchString(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

// IsAlive sends an SSH keepalive request. Any failure means not alive.
func (c *conn) IsAlive() bool {
	if c.client == nil {
		return false
	}
	_, _, err := c.client.SendRequest("keepalive@openssh.com", true, nil)
	return err == nil
}

// Send runs a single show/exec command.
func (c *conn) Send(command string) (string, error) {
	out, err := c.run(command)
	if err != nil {
		return out, &util.CommandError{Command: command, Output: out, Err: err}
	}
	return out, nil
}

// SendConfigSet wraps the ordered command list in configure terminal / end
// and pushes it as one sequence. On a mid-sequence failure the output
// collected so far rides along in the error.
func (c *conn) SendConfigSet(commands []string) (string, error) {
	var sb strings.Builder

	out, err := c.run("configure terminal")
	if err != nil {
		return out, &util.CommandError{Command: "configure terminal", Output: out, Err: err}
	}
	sb.WriteString(out)

	for _, cmd := range commands {
		out, err := c.run(strings.TrimSpace(cmd))
		sb.WriteString(out)
		if err != nil {
			return sb.String(), &util.CommandError{Command: cmd, Output: sb.String(), Err: err}
		}
	}

	out, err = c.run("end")
	sb.WriteString(out)
	if err != nil {
		return sb.String(), &util.CommandError{Command: "end", Output: sb.String(), Err: err}
	}
	return sb.String(), nil
}

// SaveConfig writes the running configuration to NVRAM.
func (c *conn) SaveConfig() (string, error) {
	out, err := c.run("write memory")
	if err != nil {
		return out, &util.CommandError{Command: "write memory", Output: out, Err: err}
	}
	return out, nil
}

// Close tears down the shell and the underlying client. Best-effort.
func (c *conn) Close() error {
	if c.sess != nil {
		c.sess.Close()
		c.sess = nil
	}
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}
