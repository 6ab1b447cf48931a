package topology

import (
	"reflect"
	"testing"
)

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"colon separated", "AA:BB:CC:DD:EE:FF", "aabb.ccdd.eeff"},
		{"dash separated", "aabb-ccdd-eeff", "aabb.ccdd.eeff"},
		{"already canonical", "aabb.ccdd.eeff", "aabb.ccdd.eeff"},
		{"mixed case bare", "AABBCCDDEEFF", "aabb.ccdd.eeff"},
		{"surrounding whitespace", " aa:bb:cc:dd:ee:ff ", "aabb.ccdd.eeff"},
		{"wrong length kept as-is", "aabb.ccdd", "aabb.ccdd"},
		{"non-hex kept as-is", "zzbb.ccdd.eeff", "zzbb.ccdd.eeff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMAC(tt.in); got != tt.want {
				t.Errorf("NormalizeMAC(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidIP(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"10.0.0.1", true},
		{"255.255.255.255", true},
		{"0.0.0.0", true},
		{"256.0.0.1", false},
		{"10.0.0", false},
		{"10.0.0.1.2", false},
		{"a.b.c.d", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidIP(tt.ip); got != tt.want {
			t.Errorf("ValidIP(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	topo := &Topology{
		Channels: []Channel{
			{VLAN: 10},        // missing port
			{Port: "Gi1/0/2"}, // missing vlan
			{
				Port:    "Gi1/0/3",
				VLAN:    20,
				IOBlock: Binding{IP: "300.1.1.1", MAC: "aabb.ccdd"},
				Devices: []Binding{
					{IP: "10.0.0.5", MAC: "not-a-mac"},
				},
			},
		},
	}

	errs := Validate(topo)
	want := []string{
		"Channel 1: Port is required",
		"Channel 2: VLAN is required",
		"Channel 3: I/O Block IP '300.1.1.1' is invalid",
		"Channel 3: I/O Block MAC 'aabb.ccdd' is invalid",
		"Channel 3, Device 1: MAC 'not-a-mac' is invalid",
	}
	if !reflect.DeepEqual(errs, want) {
		t.Errorf("Validate() errors = %v, want %v", errs, want)
	}
}

func TestValidateNormalizesInPlace(t *testing.T) {
	topo := &Topology{
		Channels: []Channel{
			{
				Port:    "Gi1/0/1",
				VLAN:    10,
				IOBlock: Binding{IP: "10.0.0.1", MAC: "AA:BB:CC:DD:EE:FF"},
				Devices: []Binding{
					{IP: "10.0.0.2", MAC: "1122-3344-5566"},
				},
			},
		},
	}

	if errs := Validate(topo); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := topo.Channels[0].IOBlock.MAC; got != "aabb.ccdd.eeff" {
		t.Errorf("I/O block MAC not normalized in place: %q", got)
	}
	if got := topo.Channels[0].Devices[0].MAC; got != "1122.3344.5566" {
		t.Errorf("device MAC not normalized in place: %q", got)
	}
}

func TestValidateUnnormalizableMACReportedAsOriginal(t *testing.T) {
	topo := &Topology{
		Channels: []Channel{
			{Port: "Gi1/0/1", VLAN: 10, IOBlock: Binding{MAC: "aabb.ccdd"}},
		},
	}
	errs := Validate(topo)
	if len(errs) != 1 || errs[0] != "Channel 1: I/O Block MAC 'aabb.ccdd' is invalid" {
		t.Errorf("Validate() = %v, want original string in message", errs)
	}
}

func TestValidateDuplicatePorts(t *testing.T) {
	topo := &Topology{
		Channels: []Channel{
			{Port: "Gi1/0/1", VLAN: 10},
			{Port: "Gi1/0/1", VLAN: 20},
		},
	}
	errs := Validate(topo)
	if len(errs) != 1 || errs[0] != "Channel 2: Port 'Gi1/0/1' is already used by Channel 1" {
		t.Errorf("Validate() = %v, want duplicate port error", errs)
	}
}

func TestValidatePartialBindingsPass(t *testing.T) {
	// A channel with no bindings at all is structurally valid; the compiler
	// just skips it at binding-generation time.
	topo := &Topology{
		Channels: []Channel{
			{Port: "Gi1/0/1", VLAN: 10},
			{Port: "Gi1/0/2", VLAN: 10, IOBlock: Binding{IP: "10.0.0.1"}},
		},
	}
	if errs := Validate(topo); len(errs) != 0 {
		t.Errorf("partial bindings should pass validation, got %v", errs)
	}
}

func TestVLANsDeduplicatedSorted(t *testing.T) {
	topo := &Topology{
		Channels: []Channel{
			{Port: "Gi1/0/1", VLAN: 30},
			{Port: "Gi1/0/2", VLAN: 10},
			{Port: "Gi1/0/3", VLAN: 30},
			{Port: "Gi1/0/4", VLAN: 20},
		},
	}
	want := []int{10, 20, 30}
	if got := topo.VLANs(); !reflect.DeepEqual(got, want) {
		t.Errorf("VLANs() = %v, want %v", got, want)
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
	}{
		{"xe", DialectNextGen},
		{"ios-xe", DialectNextGen},
		{"nextgen", DialectNextGen},
		{"classic", DialectClassic},
		{"", DialectClassic},
		{"garbage", DialectClassic},
	}
	for _, tt := range tests {
		if got := ParseDialect(tt.in); got != tt.want {
			t.Errorf("ParseDialect(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDecodeTopologyYAML(t *testing.T) {
	data := []byte(`
dialect: xe
uplinks:
  - Gi1/0/24
channels:
  - port: Gi1/0/1
    vlan: 10
    description: Line 4 PLC
    io_block:
      ip: 10.0.0.1
      mac: aabb.ccdd.eeff
    devices:
      - ip: 10.0.0.2
        mac: 1122.3344.5566
`)
	topo, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if topo.EffectiveDialect() != DialectNextGen {
		t.Errorf("dialect = %v, want NextGen", topo.EffectiveDialect())
	}
	if len(topo.Uplinks) != 1 || topo.Uplinks[0] != "Gi1/0/24" {
		t.Errorf("uplinks = %v", topo.Uplinks)
	}
	if len(topo.Channels) != 1 {
		t.Fatalf("channels = %d, want 1", len(topo.Channels))
	}
	ch := topo.Channels[0]
	if ch.Port != "Gi1/0/1" || ch.VLAN != 10 || ch.MaxMACs() != 2 {
		t.Errorf("channel decoded wrong: %+v", ch)
	}
}

func TestDecodeShapeError(t *testing.T) {
	if _, err := Decode([]byte("channels: notalist")); err == nil {
		t.Error("Decode() should fail on wrong channel shape")
	}
}
