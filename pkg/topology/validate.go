package topology

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ipPattern     = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	macPattern    = regexp.MustCompile(`^[0-9a-f]{4}\.[0-9a-f]{4}\.[0-9a-f]{4}$`)
	macRawPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)
	macSeparators = strings.NewReplacer(".", "", ":", "", "-", "")
)

// ValidIP reports whether s is a dotted-quad IPv4 address with every octet
// in 0-255.
func ValidIP(s string) bool {
	if !ipPattern.MatchString(s) {
		return false
	}
	for _, octet := range strings.Split(s, ".") {
		n, err := strconv.Atoi(octet)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// ValidMAC reports whether s is in canonical form (xxxx.xxxx.xxxx, lower-case).
func ValidMAC(s string) bool {
	return macPattern.MatchString(s)
}

// NormalizeMAC rewrites a MAC address in dot, colon, or dash notation to
// canonical xxxx.xxxx.xxxx form. Strings that are not 12 hex digits after
// stripping separators are returned unchanged so the caller can report the
// original value.
func NormalizeMAC(mac string) string {
	raw := macSeparators.Replace(strings.ToLower(strings.TrimSpace(mac)))
	if !macRawPattern.MatchString(raw) {
		return mac
	}
	return raw[0:4] + "." + raw[4:8] + "." + raw[8:12]
}

// Validate normalizes the topology in place and returns every validation
// error found, labeled by channel and device position (1-indexed). An empty
// list means the topology is valid. MAC fields are rewritten to canonical
// form even when other fields are invalid, and validation never
// short-circuits: all errors across all channels accumulate.
func Validate(t *Topology) []string {
	var errs []string
	portSeen := make(map[string]int) // port -> first channel number

	for i := range t.Channels {
		ch := &t.Channels[i]
		label := fmt.Sprintf("Channel %d", i+1)

		if ch.Port == "" {
			errs = append(errs, label+": Port is required")
		} else if first, dup := portSeen[ch.Port]; dup {
			errs = append(errs, fmt.Sprintf("%s: Port '%s' is already used by Channel %d", label, ch.Port, first))
		} else {
			portSeen[ch.Port] = i + 1
		}
		if ch.VLAN == 0 {
			errs = append(errs, label+": VLAN is required")
		}

		if ch.IOBlock.IP != "" && !ValidIP(ch.IOBlock.IP) {
			errs = append(errs, fmt.Sprintf("%s: I/O Block IP '%s' is invalid", label, ch.IOBlock.IP))
		}
		if ch.IOBlock.MAC != "" {
			ch.IOBlock.MAC = NormalizeMAC(ch.IOBlock.MAC)
			if !ValidMAC(ch.IOBlock.MAC) {
				errs = append(errs, fmt.Sprintf("%s: I/O Block MAC '%s' is invalid", label, ch.IOBlock.MAC))
			}
		}

		for j := range ch.Devices {
			dev := &ch.Devices[j]
			devLabel := fmt.Sprintf("%s, Device %d", label, j+1)
			if dev.IP != "" && !ValidIP(dev.IP) {
				errs = append(errs, fmt.Sprintf("%s: IP '%s' is invalid", devLabel, dev.IP))
			}
			if dev.MAC != "" {
				dev.MAC = NormalizeMAC(dev.MAC)
				if !ValidMAC(dev.MAC) {
					errs = append(errs, fmt.Sprintf("%s: MAC '%s' is invalid", devLabel, dev.MAC))
				}
			}
		}
	}

	return errs
}
