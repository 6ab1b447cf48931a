// Package topology defines the declarative model of a guarded network
// segment: the switch uplinks, the access channels, and the devices bound
// behind each channel port.
package topology

import "sort"

// Dialect selects the command syntax variant of the switch operating system.
type Dialect string

const (
	// DialectClassic is traditional IOS syntax.
	DialectClassic Dialect = "classic"
	// DialectNextGen is IOS XE syntax.
	DialectNextGen Dialect = "xe"
)

// ParseDialect normalizes a dialect label. Anything that is not a recognized
// NextGen spelling falls back to Classic.
func ParseDialect(s string) Dialect {
	switch s {
	case "xe", "ios-xe", "iosxe", "nextgen":
		return DialectNextGen
	default:
		return DialectClassic
	}
}

// Binding pairs an IPv4 address with a MAC address for a static source
// binding. Either field may be empty; incomplete bindings pass structural
// validation but are skipped at command generation time.
type Binding struct {
	IP  string `yaml:"ip,omitempty" json:"ip,omitempty"`
	MAC string `yaml:"mac,omitempty" json:"mac,omitempty"`
}

// Complete reports whether both fields are present.
func (b Binding) Complete() bool {
	return b.IP != "" && b.MAC != ""
}

// Channel describes one secured access port: the I/O block directly behind
// it (tier 2) and the end devices behind that (tier 3).
type Channel struct {
	Port        string    `yaml:"port" json:"port"`
	VLAN        int       `yaml:"vlan" json:"vlan"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	IOBlock     Binding   `yaml:"io_block,omitempty" json:"io_block,omitempty"`
	Devices     []Binding `yaml:"devices,omitempty" json:"devices,omitempty"`
}

// MaxMACs returns the port-security address limit for the channel:
// the I/O block plus every end device.
func (c Channel) MaxMACs() int {
	return 1 + len(c.Devices)
}

// Topology is the top-level segment description. Uplink and channel order is
// significant: commands are emitted in declaration order.
type Topology struct {
	Dialect  string    `yaml:"dialect,omitempty" json:"dialect,omitempty"`
	Uplinks  []string  `yaml:"uplinks,omitempty" json:"uplinks,omitempty"`
	Channels []Channel `yaml:"channels" json:"channels"`
}

// EffectiveDialect resolves the topology's dialect label.
func (t *Topology) EffectiveDialect() Dialect {
	return ParseDialect(t.Dialect)
}

// VLANs returns the deduplicated, ascending set of all channel VLANs.
func (t *Topology) VLANs() []int {
	seen := make(map[int]bool)
	var vlans []int
	for _, ch := range t.Channels {
		if !seen[ch.VLAN] {
			seen[ch.VLAN] = true
			vlans = append(vlans, ch.VLAN)
		}
	}
	sort.Ints(vlans)
	return vlans
}
