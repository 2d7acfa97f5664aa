package nasc

import (
	"io"

	"gopkg.in/yaml.v3"
)

// ContainerConfig holds the façade's bulk-tunable configuration surface:
// never bean-definition markup (that parsing style is explicitly out of
// scope), only the handful of container-level knobs §6 names directly.
type ContainerConfig struct {
	// EagerInit lists bean names to create immediately when the container
	// is frozen, instead of waiting for first lookup.
	EagerInit []string `yaml:"eagerInit"`
	// Frozen, if true, freezes the definition registry on the container's
	// first GetBean or GetBeanContext call.
	Frozen bool `yaml:"frozen"`
}

// LoadConfig reads a YAML document describing a ContainerConfig.
func LoadConfig(r io.Reader) (*ContainerConfig, error) {
	var cfg ContainerConfig
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
