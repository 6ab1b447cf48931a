// Package platform classifies a switch from its "show version" output into
// a command dialect and model descriptor. The classifier is best-effort:
// a NextGen device answering a Classic-profile probe is corrected by the
// session layer, not here.
package platform

import (
	"regexp"
	"strings"

	"github.com/channel-guard/channelguard/pkg/topology"
)

// Descriptor identifies the switch platform behind a live session.
type Descriptor struct {
	Dialect    topology.Dialect `json:"dialect"`
	IOSVersion string           `json:"ios_version"`
	Model      string           `json:"model"`
	Label      string           `json:"platform"`
	DeviceType string           `json:"device_type"`
}

// dialectProfile holds everything that varies between the two dialects.
// Adding a dialect is a row here, not new branching logic.
type dialectProfile struct {
	deviceType         string
	deviceTrackingOn   string
	deviceTrackingOff  string
	deviceTrackingShow string
}

var dialectProfiles = map[topology.Dialect]dialectProfile{
	topology.DialectClassic: {
		deviceType:         "cisco_ios",
		deviceTrackingOn:   "ip device tracking",
		deviceTrackingOff:  "no ip device tracking",
		deviceTrackingShow: "show ip device tracking all",
	},
	topology.DialectNextGen: {
		deviceType:         "cisco_xe",
		deviceTrackingOn:   "device-tracking tracking",
		deviceTrackingOff:  "no device-tracking tracking",
		deviceTrackingShow: "show device-tracking database",
	},
}

// DeviceType returns the transport profile string for a dialect.
func DeviceType(d topology.Dialect) string {
	return dialectProfiles[d].deviceType
}

// DeviceTrackingEnable returns the dialect's device-tracking enable command.
func DeviceTrackingEnable(d topology.Dialect) string {
	return dialectProfiles[d].deviceTrackingOn
}

// DeviceTrackingDisable returns the dialect's device-tracking disable command.
func DeviceTrackingDisable(d topology.Dialect) string {
	return dialectProfiles[d].deviceTrackingOff
}

// DeviceTrackingShow returns the dialect's device-tracking status command.
func DeviceTrackingShow(d topology.Dialect) string {
	return dialectProfiles[d].deviceTrackingShow
}

// catalogModels maps catalog-number tokens to platform names. Ordered;
// first match wins.
var catalogModels = []struct {
	catalog string
	name    string
}{
	{"1783-MMS", "Stratix 5800"},
	{"1783-MMX", "Stratix 5800"},
	{"1783-HMS", "Stratix 5400"},
	{"1783-IMS", "Stratix 5410"},
	{"1783-ZMS", "ArmorStratix 5700"},
	{"1783-BMS", "Stratix 5700"},
	{"WS-C2960", "Catalyst 2960"},
	{"WS-C3560", "Catalyst 3560"},
	{"WS-C3750", "Catalyst 3750"},
	{"C9200", "Catalyst 9200"},
	{"C9300", "Catalyst 9300"},
	{"C9500", "Catalyst 9500"},
	{"IE-2000", "IE 2000"},
	{"IE-3x00", "IE 3x00"},
	{"IE-4000", "IE 4000"},
}

var (
	xePattern      = regexp.MustCompile(`(?i)IOS[-_ ]?XE|XE Software`)
	versionPattern = regexp.MustCompile(`Version\s+([0-9A-Za-z().]+)`)
	modelPattern   = regexp.MustCompile(`\b(WS-C[0-9A-Za-z-]+|C9[0-9]{3}[0-9A-Za-z-]*|IE-[0-9A-Za-z-]+)\b`)
)

// Detect classifies raw "show version" output into a platform descriptor.
func Detect(showVersion string) Descriptor {
	desc := Descriptor{
		Dialect:    topology.DialectClassic,
		IOSVersion: "Unknown",
		Model:      "Unknown",
		Label:      "Cisco Catalyst Switch",
	}

	if xePattern.MatchString(showVersion) {
		desc.Dialect = topology.DialectNextGen
	}
	desc.DeviceType = DeviceType(desc.Dialect)

	if m := versionPattern.FindStringSubmatch(showVersion); m != nil {
		desc.IOSVersion = m[1]
	}

	for _, entry := range catalogModels {
		if strings.Contains(showVersion, entry.catalog) {
			desc.Model = entry.catalog
			desc.Label = entry.name
			return desc
		}
	}

	if m := modelPattern.FindStringSubmatch(showVersion); m != nil {
		desc.Model = m[1]
		desc.Label = "Cisco Catalyst " + m[1]
	}

	return desc
}
