// Package session owns the single live administrative channel to a managed
// switch. The Controller is a small state machine over Disconnected and
// Connected: it opens the channel, probes the device to classify its command
// dialect, reconnects with the corrected transport profile when the first
// guess was wrong, and serializes every subsequent command against the
// channel while detecting connection loss.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/channel-guard/channelguard/pkg/platform"
	"github.com/channel-guard/channelguard/pkg/topology"
	"github.com/channel-guard/channelguard/pkg/util"
)

// DialectHint tells Connect which transport profile to open with.
type DialectHint string

const (
	// HintAuto opens with the Classic profile, probes, and reconnects with
	// the NextGen profile if the probe disagrees.
	HintAuto DialectHint = "auto"
	// HintClassic forces the Classic profile without probing for dialect.
	HintClassic DialectHint = "classic"
	// HintNextGen forces the NextGen profile without probing for dialect.
	HintNextGen DialectHint = "xe"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultReadTimeout    = 30 * time.Second
)

// Options are the caller-supplied connection parameters.
type Options struct {
	Host           string
	Username       string
	Password       string
	EnablePassword string
	Dialect        DialectHint

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// Status is a point-in-time snapshot of the session. Liveness is probed on
// demand when the snapshot is taken, never cached.
type Status struct {
	Connected   bool                 `json:"connected"`
	Host        string               `json:"host,omitempty"`
	Username    string               `json:"username,omitempty"`
	ConnectedAt string               `json:"connected_at,omitempty"`
	Hostname    string               `json:"hostname,omitempty"`
	Uptime      string               `json:"uptime,omitempty"`
	Platform    *platform.Descriptor `json:"platform,omitempty"`
}

// Controller manages at most one administrative channel at a time. All
// operations are mutually exclusive under a single lock, so a
// connect-in-progress can never race a concurrent execute or disconnect.
type Controller struct {
	transport Transport

	mu          sync.Mutex
	conn        Conn
	host        string
	username    string
	connectedAt time.Time
	hostname    string
	uptime      string
	platform    platform.Descriptor
}

// NewController creates a controller over the given transport.
func NewController(transport Transport) *Controller {
	return &Controller{transport: transport}
}

// Connect opens the administrative channel. Any existing session is torn
// down first. With HintAuto the channel is opened using the Classic profile
// (login-compatible with both dialects), probed with "show version", and
// reopened with the NextGen profile if the probe classifies the device as
// NextGen; the descriptor always reflects the final channel. A failed
// attempt leaves the controller Disconnected with no partial state.
func (c *Controller) Connect(ctx context.Context, opts Options) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	hint := opts.Dialect
	if hint == "" {
		hint = HintAuto
	}

	dialect := topology.DialectClassic
	if hint == HintNextGen {
		dialect = topology.DialectNextGen
	}

	conn, err := c.open(ctx, opts, dialect)
	if err != nil {
		return Status{Connected: false}, err
	}

	probe, err := conn.Send("show version")
	if err != nil {
		conn.Close()
		return Status{Connected: false}, c.typed(opts.Host, "show version", "", err)
	}
	desc := platform.Detect(probe)

	if hint == HintAuto && desc.Dialect == topology.DialectNextGen && dialect == topology.DialectClassic {
		// Guessed wrong: reopen with the NextGen profile and re-probe so
		// the descriptor reflects the final channel.
		util.WithSwitch(opts.Host).Info("IOS XE detected, reconnecting with XE profile")
		conn.Close()

		dialect = topology.DialectNextGen
		conn, err = c.open(ctx, opts, dialect)
		if err != nil {
			return Status{Connected: false}, err
		}
		probe, err = conn.Send("show version")
		if err != nil {
			conn.Close()
			return Status{Connected: false}, c.typed(opts.Host, "show version", "", err)
		}
		desc = platform.Detect(probe)
	}

	if hint != HintAuto {
		// Explicit hint wins: the session speaks the hinted dialect even if
		// the banner suggests otherwise.
		desc.Dialect = dialect
		desc.DeviceType = platform.DeviceType(dialect)
	}

	// Informational captures. Failures here are tolerated: empty values are
	// acceptable, not a connection failure.
	hostname, uptime := "", ""
	if out, err := conn.Send("show run | include hostname"); err == nil {
		hostname = util.FirstLine(out)
	}
	if out, err := conn.Send("show version | include uptime"); err == nil {
		uptime = util.FirstLine(out)
	}

	c.conn = conn
	c.host = opts.Host
	c.username = opts.Username
	c.connectedAt = time.Now().UTC()
	c.hostname = hostname
	c.uptime = uptime
	c.platform = desc

	util.WithSwitch(c.host).Infof("Connected (%s, IOS %s)", desc.Label, desc.IOSVersion)

	return c.statusLocked(), nil
}

func (c *Controller) open(ctx context.Context, opts Options, dialect topology.Dialect) (Conn, error) {
	conn, err := c.transport.Open(ctx, Params{
		Host:           opts.Host,
		Username:       opts.Username,
		Password:       opts.Password,
		EnablePassword: opts.EnablePassword,
		DeviceType:     platform.DeviceType(dialect),
		ConnectTimeout: opts.ConnectTimeout,
		ReadTimeout:    opts.ReadTimeout,
	})
	if err != nil {
		if errors.Is(err, util.ErrAuthFailed) || errors.Is(err, util.ErrConnectTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("connecting to %s: %w", opts.Host, err)
	}
	return conn, nil
}

// Disconnect closes any live channel and clears all session state. Transport
// errors during close are ignored; the controller ends up Disconnected
// regardless.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	if c.conn != nil {
		c.conn.Close()
		util.WithSwitch(c.host).Info("Disconnected")
	}
	c.clearLocked()
}

func (c *Controller) clearLocked() {
	c.conn = nil
	c.host = ""
	c.username = ""
	c.connectedAt = time.Time{}
	c.hostname = ""
	c.uptime = ""
	c.platform = platform.Descriptor{}
}

// IsAlive probes the channel. Transport errors during the probe mean
// "not alive", never an error.
func (c *Controller) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.conn.IsAlive()
}

// Connected reports whether a session slot is occupied, without probing.
func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Status returns the current session snapshot. A session whose liveness
// probe fails is reported as disconnected and its state is cleared.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return Status{Connected: false}
	}
	if !c.conn.IsAlive() {
		c.conn.Close()
		c.clearLocked()
		return Status{Connected: false}
	}
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	desc := c.platform
	return Status{
		Connected:   true,
		Host:        c.host,
		Username:    c.username,
		ConnectedAt: c.connectedAt.Format(time.RFC3339),
		Hostname:    c.hostname,
		Uptime:      c.uptime,
		Platform:    &desc,
	}
}

// Platform returns the descriptor captured by the last successful connect.
// The zero descriptor is returned while disconnected.
func (c *Controller) Platform() platform.Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.platform
}

// Execute sends an ordered configuration command list over the channel.
// The send is a single ordered push; device-side rejection can leave the
// configuration partially applied, and the partial output is surfaced in
// the returned CommandError rather than rolled back here.
func (c *Controller) Execute(ctx context.Context, commands []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureAliveLocked(); err != nil {
		return "", err
	}
	out, err := c.conn.SendConfigSet(commands)
	if err != nil {
		return out, c.typed(c.host, "configuration set", out, err)
	}
	return out, nil
}

// Run sends a single show/exec command and returns its output.
func (c *Controller) Run(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureAliveLocked(); err != nil {
		return "", err
	}
	out, err := c.conn.Send(command)
	if err != nil {
		return out, c.typed(c.host, command, out, err)
	}
	return out, nil
}

// SaveConfig persists the running configuration to startup storage.
func (c *Controller) SaveConfig(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureAliveLocked(); err != nil {
		return "", err
	}
	out, err := c.conn.SaveConfig()
	if err != nil {
		return out, c.typed(c.host, "save config", out, err)
	}
	return out, nil
}

// ensureAliveLocked verifies the precondition for channel operations.
// A missing session is ErrNotConnected; a dead one clears all state and
// returns ConnectionLostError so callers can tell the two apart.
func (c *Controller) ensureAliveLocked() error {
	if c.conn == nil {
		return util.ErrNotConnected
	}
	if !c.conn.IsAlive() {
		host := c.host
		c.conn.Close()
		c.clearLocked()
		util.WithSwitch(host).Warn("Connection lost")
		return &util.ConnectionLostError{Host: host}
	}
	return nil
}

// typed maps a transport-level error into the session error taxonomy.
// Errors that already carry a type pass through unchanged; anything else
// becomes a CommandError with whatever output was captured.
func (c *Controller) typed(host, command, output string, err error) error {
	switch {
	case errors.Is(err, util.ErrAuthFailed),
		errors.Is(err, util.ErrConnectTimeout),
		errors.Is(err, util.ErrConnectionLost),
		errors.Is(err, util.ErrCommandFailed):
		return err
	default:
		return &util.CommandError{Command: command, Output: output, Err: err}
	}
}
