package topology

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode parses topology YAML into the typed model. Shape errors (wrong
// types, non-mapping root) surface here, before semantic validation runs.
func Decode(data []byte) (*Topology, error) {
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing topology YAML: %w", err)
	}
	return &t, nil
}

// Encode serializes the topology back to YAML.
func Encode(t *Topology) ([]byte, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding topology YAML: %w", err)
	}
	return data, nil
}
