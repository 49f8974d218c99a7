package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "k3s.yaml"

// Defaults matching the reference k3s stack.
const (
	DefaultStackName      = "K3sStack"
	DefaultCIDR           = "10.0.0.0/22"
	DefaultZones          = 3
	DefaultNamespace      = "/k3s/master"
	DefaultInstanceType   = "t3.micro"
	DefaultImageParameter = "/aws/service/ami-amazon-linux-latest/amzn2-ami-hvm-x86_64-gp2"
	DefaultDeviceName     = "/dev/xvda"
	DefaultVolumeSize     = 8
	DefaultVolumeType     = "gp2"
	DefaultMasterUserData = "lib/userdata/master.sh"
	DefaultAgentUserData  = "lib/userdata/agent.sh"
	DefaultMinWorkers     = 1
	DefaultMaxWorkers     = 3
)

// DefaultSubnets is the reference layout: small ingress and master blocks,
// one /24 per zone for workers.
func DefaultSubnets() []SubnetLayout {
	return []SubnetLayout{
		{Name: "Ingress", Role: RoleIngress, CIDRMask: 28},
		{Name: "Master", Role: RoleMaster, CIDRMask: 28},
		{Name: "Worker", Role: RoleWorker, CIDRMask: 24},
	}
}

// Default returns the reference configuration. Boot-script paths are relative
// to the working directory.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults(nil)
	return cfg
}

// LoadFile reads and parses the configuration from a YAML file. Missing fields
// take their defaults and relative boot-script paths are resolved against the
// file's directory.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes YAML configuration, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDefaults(rawConfig)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults(raw map[string]interface{}) {
	if c.StackName == "" {
		c.StackName = DefaultStackName
	}
	if c.Description == "" {
		c.Description = "k3s master and agent infrastructure"
	}

	if c.Network.CIDR == "" {
		c.Network.CIDR = DefaultCIDR
	}
	if c.Network.AvailabilityZones == 0 {
		c.Network.AvailabilityZones = DefaultZones
	}
	if len(c.Network.Subnets) == 0 {
		c.Network.Subnets = DefaultSubnets()
	}
	if c.Network.SourceCIDR == "" {
		c.Network.SourceCIDR = c.Network.CIDR
	}

	if c.Parameters.Namespace == "" {
		c.Parameters.Namespace = DefaultNamespace
	}

	if c.Nodes.InstanceType == "" {
		c.Nodes.InstanceType = DefaultInstanceType
	}
	if c.Nodes.ImageParameter == "" {
		c.Nodes.ImageParameter = DefaultImageParameter
	}
	if c.Nodes.DeviceName == "" {
		c.Nodes.DeviceName = DefaultDeviceName
	}
	if c.Nodes.VolumeSize == 0 {
		c.Nodes.VolumeSize = DefaultVolumeSize
	}
	if c.Nodes.VolumeType == "" {
		c.Nodes.VolumeType = DefaultVolumeType
	}

	if c.UserData.Master == "" {
		c.UserData.Master = DefaultMasterUserData
	}
	if c.UserData.Agent == "" {
		c.UserData.Agent = DefaultAgentUserData
	}

	// Zero is a valid pool bound, so only fill what the file did not set.
	if !isSet(raw, "worker_pool", "min_size") {
		c.WorkerPool.MinSize = DefaultMinWorkers
	}
	if !isSet(raw, "worker_pool", "max_size") {
		c.WorkerPool.MaxSize = DefaultMaxWorkers
	}
}

// isSet reports whether the nested key path exists in the raw YAML document.
func isSet(raw map[string]interface{}, path ...string) bool {
	cur := raw
	for i, key := range path {
		v, ok := cur[key]
		if !ok {
			return false
		}
		if i == len(path)-1 {
			return true
		}
		next, ok := v.(map[string]interface{})
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

func (c *Config) resolvePaths(dir string) {
	if !filepath.IsAbs(c.UserData.Master) {
		c.UserData.Master = filepath.Join(dir, c.UserData.Master)
	}
	if !filepath.IsAbs(c.UserData.Agent) {
		c.UserData.Agent = filepath.Join(dir, c.UserData.Agent)
	}
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
