// Package compiler turns a validated topology into ordered switch CLI
// command sequences: apply, verify, and rollback. All generators are pure
// functions over the topology; running them twice yields identical output.
//
// Command order is a hard contract. The switch parser rejects
// "switchport port-security" before maximum/violation are set, and rejects
// a VLAN assignment on a port that is not in access mode. Phases are never
// reordered or interleaved.
package compiler

import (
	"fmt"

	"github.com/channel-guard/channelguard/pkg/platform"
	"github.com/channel-guard/channelguard/pkg/topology"
)

// Mechanisms names the five port-security layers this compiler configures.
var Mechanisms = []string{
	"DHCP Snooping",
	"IP Source Guard",
	"Port Security",
	"BPDU Guard",
	"PortFast",
}

// Options tunes apply-command generation.
type Options struct {
	// SuppressOption82 emits "no ip dhcp snooping information option" so the
	// switch does not insert option-82 data into forwarded DHCP requests.
	SuppressOption82 bool
}

// Apply generates the full ordered apply command list with default options.
func Apply(t *topology.Topology) []string {
	return ApplyOpts(t, Options{})
}

// ApplyOpts generates the apply command list in three phases: global
// prerequisites, static source bindings, then per-port security blocks.
func ApplyOpts(t *topology.Topology, opts Options) []string {
	dialect := t.EffectiveDialect()
	var cmds []string

	// Phase 1: global prerequisites.
	cmds = append(cmds, "ip dhcp snooping")
	if opts.SuppressOption82 {
		cmds = append(cmds, "no ip dhcp snooping information option")
	}
	for _, vlan := range t.VLANs() {
		cmds = append(cmds, fmt.Sprintf("ip dhcp snooping vlan %d", vlan))
	}
	cmds = append(cmds, platform.DeviceTrackingEnable(dialect))
	for _, uplink := range t.Uplinks {
		cmds = append(cmds, "interface "+uplink)
		cmds = append(cmds, "  ip dhcp snooping trust")
	}

	// Phase 2: static bindings. All I/O block bindings first, then a second
	// full pass for end devices. Incomplete bindings are skipped; the
	// validator already ran, so nothing errors here.
	for _, ch := range t.Channels {
		if ch.IOBlock.Complete() {
			cmds = append(cmds, bindingCommand(ch.IOBlock, ch))
		}
	}
	for _, ch := range t.Channels {
		for _, dev := range ch.Devices {
			if dev.Complete() {
				cmds = append(cmds, bindingCommand(dev, ch))
			}
		}
	}

	// Phase 3: per-port security.
	for _, ch := range t.Channels {
		cmds = append(cmds, "interface "+ch.Port)
		if ch.Description != "" {
			cmds = append(cmds, "  description "+ch.Description)
		}
		cmds = append(cmds, "  switchport mode access")
		cmds = append(cmds, fmt.Sprintf("  switchport access vlan %d", ch.VLAN))
		cmds = append(cmds, fmt.Sprintf("  switchport port-security maximum %d", ch.MaxMACs()))
		cmds = append(cmds, "  switchport port-security violation restrict")
		cmds = append(cmds, "  switchport port-security")
		cmds = append(cmds, "  ip verify source port-security")
		cmds = append(cmds, "  spanning-tree portfast")
		cmds = append(cmds, "  spanning-tree bpduguard enable")
		cmds = append(cmds, "  no shutdown")
	}

	return cmds
}

func bindingCommand(b topology.Binding, ch topology.Channel) string {
	return fmt.Sprintf("ip source binding %s vlan %d %s interface %s",
		b.MAC, ch.VLAN, b.IP, ch.Port)
}

// Verify generates read-only status commands covering all five mechanisms,
// plus per-channel detail for every channel in topology order.
func Verify(t *topology.Topology) []string {
	cmds := []string{
		"show ip dhcp snooping",
		"show ip source binding",
		"show ip verify source",
		"show port-security",
		"show spanning-tree summary",
	}
	cmds = append(cmds, platform.DeviceTrackingShow(t.EffectiveDialect()))

	for _, ch := range t.Channels {
		cmds = append(cmds, "show port-security interface "+ch.Port)
		cmds = append(cmds, "show ip verify source interface "+ch.Port)
		cmds = append(cmds, "show spanning-tree interface "+ch.Port+" detail")
	}
	return cmds
}

// Rollback generates the structural inverse of Apply: binding removals per
// channel (I/O block then devices), per-port negations, uplink trust
// removal, per-VLAN snooping removal, and finally the global disables.
// Replaying it against an already-rolled-back device is harmless at the CLI
// level; the compiler itself does not deduplicate.
func Rollback(t *topology.Topology) []string {
	dialect := t.EffectiveDialect()
	var cmds []string

	for _, ch := range t.Channels {
		if ch.IOBlock.Complete() {
			cmds = append(cmds, "no "+bindingCommand(ch.IOBlock, ch))
		}
		for _, dev := range ch.Devices {
			if dev.Complete() {
				cmds = append(cmds, "no "+bindingCommand(dev, ch))
			}
		}
	}

	for _, ch := range t.Channels {
		cmds = append(cmds, "interface "+ch.Port)
		cmds = append(cmds, "  no ip verify source port-security")
		cmds = append(cmds, "  no switchport port-security")
		cmds = append(cmds, "  no spanning-tree bpduguard enable")
		cmds = append(cmds, "  no spanning-tree portfast")
	}

	for _, uplink := range t.Uplinks {
		cmds = append(cmds, "interface "+uplink)
		cmds = append(cmds, "  no ip dhcp snooping trust")
	}

	for _, vlan := range t.VLANs() {
		cmds = append(cmds, fmt.Sprintf("no ip dhcp snooping vlan %d", vlan))
	}

	cmds = append(cmds, "no ip dhcp snooping")
	cmds = append(cmds, platform.DeviceTrackingDisable(dialect))

	return cmds
}

// Summary is a statistics projection of a topology.
type Summary struct {
	Channels      int              `json:"channels"`
	IOBlocks      int              `json:"io_blocks"`
	Devices       int              `json:"devices"`
	Bindings      int              `json:"bindings"`
	VLANs         []int            `json:"vlans"`
	Dialect       topology.Dialect `json:"dialect"`
	Platform      string           `json:"platform"`
	TotalCommands int              `json:"total_commands"`
	Mechanisms    []string         `json:"mechanisms"`
}

// Summarize computes topology statistics. The command count comes from the
// same generator Apply uses, so it can never drift from generation logic.
func Summarize(t *topology.Topology) Summary {
	dialect := t.EffectiveDialect()
	totalDevices := 0
	for _, ch := range t.Channels {
		totalDevices += len(ch.Devices)
	}

	label := "Cisco IOS"
	if dialect == topology.DialectNextGen {
		label = "Cisco IOS XE"
	}

	return Summary{
		Channels:      len(t.Channels),
		IOBlocks:      len(t.Channels),
		Devices:       totalDevices,
		Bindings:      totalDevices + len(t.Channels),
		VLANs:         t.VLANs(),
		Dialect:       dialect,
		Platform:      label,
		TotalCommands: len(Apply(t)),
		Mechanisms:    Mechanisms,
	}
}
