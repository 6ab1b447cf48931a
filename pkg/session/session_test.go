package session

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/channel-guard/channelguard/pkg/topology"
	"github.com/channel-guard/channelguard/pkg/util"
)

const classicBanner = "Cisco IOS Software, C2960 Software, Version 15.0(2)SE11\nModel number: WS-C2960-24TT-L"
const xeBanner = "Cisco IOS XE Software, Version 16.12.04\ncisco C9300-48P processor"

// fakeConn is a scripted administrative channel.
type fakeConn struct {
	alive   bool
	banner  string
	sendErr map[string]error

	sends      []string
	configSets [][]string
	closed     bool

	configOut string
	configErr error
	saveOut   string
	saveErr   error
}

func newFakeConn(banner string) *fakeConn {
	return &fakeConn{alive: true, banner: banner}
}

func (f *fakeConn) IsAlive() bool { return f.alive }

func (f *fakeConn) Send(cmd string) (string, error) {
	f.sends = append(f.sends, cmd)
	if err := f.sendErr[cmd]; err != nil {
		return "", err
	}
	switch cmd {
	case "show version":
		return f.banner, nil
	case "show run | include hostname":
		return "hostname sw-floor2\n", nil
	case "show version | include uptime":
		return "sw-floor2 uptime is 2 weeks, 3 days\n", nil
	}
	return "", nil
}

func (f *fakeConn) SendConfigSet(cmds []string) (string, error) {
	f.configSets = append(f.configSets, cmds)
	return f.configOut, f.configErr
}

func (f *fakeConn) SaveConfig() (string, error) { return f.saveOut, f.saveErr }

func (f *fakeConn) Close() error {
	f.closed = true
	f.alive = false
	return nil
}

// fakeTransport hands out scripted connections in order and records the
// params of every open.
type fakeTransport struct {
	conns   []*fakeConn
	openErr []error
	opens   []Params
}

func (f *fakeTransport) Open(_ context.Context, p Params) (Conn, error) {
	f.opens = append(f.opens, p)
	i := len(f.opens) - 1
	if i < len(f.openErr) && f.openErr[i] != nil {
		return nil, f.openErr[i]
	}
	if i < len(f.conns) {
		return f.conns[i], nil
	}
	return f.conns[len(f.conns)-1], nil
}

func opts() Options {
	return Options{Host: "10.1.1.10", Username: "admin", Password: "secret"}
}

func TestConnectClassicAutoDetect(t *testing.T) {
	conn := newFakeConn(classicBanner)
	tr := &fakeTransport{conns: []*fakeConn{conn}}
	c := NewController(tr)

	st, err := c.Connect(context.Background(), opts())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if len(tr.opens) != 1 {
		t.Fatalf("opens = %d, want 1 (classic device needs no reconnect)", len(tr.opens))
	}
	if tr.opens[0].DeviceType != "cisco_ios" {
		t.Errorf("first open profile = %q, want cisco_ios", tr.opens[0].DeviceType)
	}
	if !st.Connected || st.Host != "10.1.1.10" || st.Username != "admin" {
		t.Errorf("status = %+v", st)
	}
	if st.Platform == nil || st.Platform.Dialect != topology.DialectClassic {
		t.Errorf("platform = %+v, want classic", st.Platform)
	}
	if st.Hostname != "hostname sw-floor2" {
		t.Errorf("hostname = %q", st.Hostname)
	}
}

func TestConnectAutoDetectReconnectsForXE(t *testing.T) {
	first := newFakeConn(xeBanner)
	second := newFakeConn(xeBanner)
	tr := &fakeTransport{conns: []*fakeConn{first, second}}
	c := NewController(tr)

	st, err := c.Connect(context.Background(), opts())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if len(tr.opens) != 2 {
		t.Fatalf("opens = %d, want 2 (classic guess, then XE reconnect)", len(tr.opens))
	}
	if tr.opens[0].DeviceType != "cisco_ios" || tr.opens[1].DeviceType != "cisco_xe" {
		t.Errorf("open profiles = %q, %q; want cisco_ios then cisco_xe",
			tr.opens[0].DeviceType, tr.opens[1].DeviceType)
	}
	if !first.closed {
		t.Error("first channel must be closed before reconnecting")
	}
	if st.Platform.Dialect != topology.DialectNextGen {
		t.Errorf("platform dialect = %v, want NextGen after reconnect", st.Platform.Dialect)
	}
	if st.Platform.DeviceType != "cisco_xe" {
		t.Errorf("platform device type = %q, want cisco_xe", st.Platform.DeviceType)
	}
}

func TestConnectExplicitHintOpensOnce(t *testing.T) {
	conn := newFakeConn(xeBanner)
	tr := &fakeTransport{conns: []*fakeConn{conn}}
	c := NewController(tr)

	o := opts()
	o.Dialect = HintNextGen
	st, err := c.Connect(context.Background(), o)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if len(tr.opens) != 1 || tr.opens[0].DeviceType != "cisco_xe" {
		t.Errorf("opens = %+v, want one cisco_xe open", tr.opens)
	}
	if st.Platform.Dialect != topology.DialectNextGen {
		t.Errorf("dialect = %v", st.Platform.Dialect)
	}
}

func TestConnectAuthFailureLeavesNoState(t *testing.T) {
	tr := &fakeTransport{openErr: []error{&util.AuthError{Host: "10.1.1.10"}}}
	c := NewController(tr)

	_, err := c.Connect(context.Background(), opts())
	if !errors.Is(err, util.ErrAuthFailed) {
		t.Fatalf("Connect() error = %v, want auth failure", err)
	}
	st := c.Status()
	if st.Connected || st.Host != "" || st.Platform != nil {
		t.Errorf("partial state leaked into status: %+v", st)
	}
}

func TestConnectProbeFailureTearsDown(t *testing.T) {
	conn := newFakeConn(classicBanner)
	conn.sendErr = map[string]error{"show version": errors.New("channel read failed")}
	tr := &fakeTransport{conns: []*fakeConn{conn}}
	c := NewController(tr)

	if _, err := c.Connect(context.Background(), opts()); err == nil {
		t.Fatal("Connect() should fail when the probe fails")
	}
	if !conn.closed {
		t.Error("channel must be closed after a failed probe")
	}
	if c.Status().Connected {
		t.Error("controller must remain Disconnected")
	}
}

func TestConnectInfoCaptureFailuresTolerated(t *testing.T) {
	conn := newFakeConn(classicBanner)
	conn.sendErr = map[string]error{
		"show run | include hostname":   errors.New("timeout"),
		"show version | include uptime": errors.New("timeout"),
	}
	tr := &fakeTransport{conns: []*fakeConn{conn}}
	c := NewController(tr)

	st, err := c.Connect(context.Background(), opts())
	if err != nil {
		t.Fatalf("Connect() error = %v, informational failures must be tolerated", err)
	}
	if st.Hostname != "" || st.Uptime != "" {
		t.Errorf("hostname/uptime = %q/%q, want empty", st.Hostname, st.Uptime)
	}
}

func TestConnectTearsDownExistingSession(t *testing.T) {
	first := newFakeConn(classicBanner)
	second := newFakeConn(classicBanner)
	tr := &fakeTransport{conns: []*fakeConn{first, second}}
	c := NewController(tr)

	if _, err := c.Connect(context.Background(), opts()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Connect(context.Background(), opts()); err != nil {
		t.Fatal(err)
	}
	if !first.closed {
		t.Error("existing session must be torn down before a new connect")
	}
}

func TestExecuteNeverConnected(t *testing.T) {
	c := NewController(&fakeTransport{})
	_, err := c.Execute(context.Background(), []string{"ip dhcp snooping"})
	if !errors.Is(err, util.ErrNotConnected) {
		t.Errorf("Execute() error = %v, want ErrNotConnected", err)
	}
}

func TestExecuteConnectionLostClearsState(t *testing.T) {
	conn := newFakeConn(classicBanner)
	tr := &fakeTransport{conns: []*fakeConn{conn}}
	c := NewController(tr)
	if _, err := c.Connect(context.Background(), opts()); err != nil {
		t.Fatal(err)
	}

	conn.alive = false
	_, err := c.Execute(context.Background(), []string{"ip dhcp snooping"})
	if !errors.Is(err, util.ErrConnectionLost) {
		t.Fatalf("Execute() error = %v, want connection lost", err)
	}
	if errors.Is(err, util.ErrNotConnected) {
		t.Error("connection lost must be distinct from never connected")
	}

	st := c.Status()
	if st.Connected || st.Host != "" {
		t.Errorf("state not cleared after detected loss: %+v", st)
	}
}

func TestExecuteSendsOrderedList(t *testing.T) {
	conn := newFakeConn(classicBanner)
	conn.configOut = "applied"
	tr := &fakeTransport{conns: []*fakeConn{conn}}
	c := NewController(tr)
	if _, err := c.Connect(context.Background(), opts()); err != nil {
		t.Fatal(err)
	}

	cmds := []string{"ip dhcp snooping", "ip dhcp snooping vlan 10"}
	out, err := c.Execute(context.Background(), cmds)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "applied" {
		t.Errorf("output = %q", out)
	}
	if len(conn.configSets) != 1 || !reflect.DeepEqual(conn.configSets[0], cmds) {
		t.Errorf("config sets = %v, want one push of %v", conn.configSets, cmds)
	}
}

func TestExecutePartialFailureKeepsOutput(t *testing.T) {
	conn := newFakeConn(classicBanner)
	conn.configOut = "partial output before rejection"
	conn.configErr = errors.New("% Invalid input detected")
	tr := &fakeTransport{conns: []*fakeConn{conn}}
	c := NewController(tr)
	if _, err := c.Connect(context.Background(), opts()); err != nil {
		t.Fatal(err)
	}

	out, err := c.Execute(context.Background(), []string{"bogus"})
	if !errors.Is(err, util.ErrCommandFailed) {
		t.Fatalf("Execute() error = %v, want command failure", err)
	}
	if out != "partial output before rejection" {
		t.Errorf("partial output lost: %q", out)
	}
	var cmdErr *util.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Output != "partial output before rejection" {
		t.Errorf("CommandError should carry partial output, got %+v", cmdErr)
	}
}

func TestStatusDisconnected(t *testing.T) {
	c := NewController(&fakeTransport{})
	st := c.Status()
	if st.Connected {
		t.Error("Connected = true, want false")
	}
	if st.Host != "" || st.Username != "" || st.Platform != nil || st.ConnectedAt != "" {
		t.Errorf("disconnected status carries fields: %+v", st)
	}
}

func TestStatusDeadSessionReportsDisconnected(t *testing.T) {
	conn := newFakeConn(classicBanner)
	tr := &fakeTransport{conns: []*fakeConn{conn}}
	c := NewController(tr)
	if _, err := c.Connect(context.Background(), opts()); err != nil {
		t.Fatal(err)
	}

	conn.alive = false
	st := c.Status()
	if st.Connected {
		t.Error("dead session must report connected=false")
	}
	if c.Connected() {
		t.Error("dead session state must be cleared by the status probe")
	}
}

func TestIsAliveNeverErrors(t *testing.T) {
	c := NewController(&fakeTransport{})
	if c.IsAlive() {
		t.Error("IsAlive() = true while disconnected")
	}
}

func TestSaveConfig(t *testing.T) {
	conn := newFakeConn(classicBanner)
	conn.saveOut = "Building configuration...\n[OK]"
	tr := &fakeTransport{conns: []*fakeConn{conn}}
	c := NewController(tr)
	if _, err := c.Connect(context.Background(), opts()); err != nil {
		t.Fatal(err)
	}

	out, err := c.SaveConfig(context.Background())
	if err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	if out != "Building configuration...\n[OK]" {
		t.Errorf("output = %q", out)
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	conn := newFakeConn(classicBanner)
	tr := &fakeTransport{conns: []*fakeConn{conn}}
	c := NewController(tr)
	if _, err := c.Connect(context.Background(), opts()); err != nil {
		t.Fatal(err)
	}

	c.Disconnect()
	c.Disconnect()
	if !conn.closed {
		t.Error("channel not closed")
	}
	if c.Status().Connected {
		t.Error("still connected after disconnect")
	}
}
