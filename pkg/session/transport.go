package session

import (
	"context"
	"time"
)

// Params carries everything a transport needs to open an administrative
// channel to a switch.
type Params struct {
	Host           string
	Username       string
	Password       string
	EnablePassword string

	// DeviceType selects the transport's CLI-parsing profile
	// ("cisco_ios" or "cisco_xe").
	DeviceType string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// Conn is a live administrative channel. Implementations serialize nothing;
// the Controller owns all locking.
type Conn interface {
	// IsAlive probes channel liveness. It never returns an error: any
	// probe failure means "not alive".
	IsAlive() bool

	// Send runs a single show/exec command and returns its output.
	Send(command string) (string, error)

	// SendConfigSet enters configuration mode, runs the ordered command
	// list, and exits. Partial output is returned alongside the error on
	// device-side rejection.
	SendConfigSet(commands []string) (string, error)

	// SaveConfig persists the running configuration to startup storage.
	SaveConfig() (string, error)

	// Close tears the channel down. Best-effort; callers ignore the error.
	Close() error
}

// Transport opens administrative channels. The production implementation
// lives in pkg/session/ssh; tests substitute scripted fakes.
type Transport interface {
	Open(ctx context.Context, p Params) (Conn, error)
}
