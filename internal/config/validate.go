package config

import (
	"fmt"
	"strings"
)

var validRoles = map[string]bool{
	RoleIngress: true,
	RoleMaster:  true,
	RoleWorker:  true,
}

// Validate checks the configuration for values that cannot produce a template.
func (c *Config) Validate() error {
	if c.StackName == "" {
		return fmt.Errorf("stack_name is required")
	}

	if err := c.validateNetwork(); err != nil {
		return fmt.Errorf("network validation failed: %w", err)
	}

	if !strings.HasPrefix(c.Parameters.Namespace, "/") {
		return fmt.Errorf("parameters.namespace must start with '/', got %q", c.Parameters.Namespace)
	}
	if strings.HasSuffix(c.Parameters.Namespace, "/") {
		return fmt.Errorf("parameters.namespace must not end with '/', got %q", c.Parameters.Namespace)
	}

	if err := c.validateNodes(); err != nil {
		return fmt.Errorf("node validation failed: %w", err)
	}

	if c.UserData.Master == "" || c.UserData.Agent == "" {
		return fmt.Errorf("userdata.master and userdata.agent are required")
	}

	if err := c.validateWorkerPool(); err != nil {
		return fmt.Errorf("worker pool validation failed: %w", err)
	}

	return nil
}

func (c *Config) validateNetwork() error {
	if c.Network.AvailabilityZones < 1 {
		return fmt.Errorf("availability_zones must be at least 1, got %d", c.Network.AvailabilityZones)
	}

	names := make(map[string]bool)
	for _, s := range c.Network.Subnets {
		if s.Name == "" {
			return fmt.Errorf("subnet name is required")
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate subnet name %q", s.Name)
		}
		names[s.Name] = true
		if !validRoles[s.Role] {
			return fmt.Errorf("subnet %s: unknown role %q", s.Name, s.Role)
		}
	}

	if len(c.Network.SubnetsByRole(RoleMaster)) == 0 {
		return fmt.Errorf("at least one %s subnet is required", RoleMaster)
	}
	if len(c.Network.SubnetsByRole(RoleWorker)) == 0 {
		return fmt.Errorf("at least one %s subnet is required", RoleWorker)
	}

	if _, err := AllocateSubnets(c.Network.CIDR, c.Network.Subnets, c.Network.AvailabilityZones); err != nil {
		return err
	}

	inside, err := CIDRContains(c.Network.CIDR, c.Network.SourceCIDR)
	if err != nil {
		return fmt.Errorf("source_cidr: %w", err)
	}
	if !inside {
		return fmt.Errorf("source_cidr %s must lie within the network range %s", c.Network.SourceCIDR, c.Network.CIDR)
	}

	return nil
}

func (c *Config) validateNodes() error {
	if c.Nodes.InstanceType == "" {
		return fmt.Errorf("instance_type is required")
	}
	if c.Nodes.VolumeSize <= 0 {
		return fmt.Errorf("volume_size must be positive, got %d", c.Nodes.VolumeSize)
	}
	return nil
}

func (c *Config) validateWorkerPool() error {
	p := c.WorkerPool
	if p.MinSize < 0 || p.MaxSize < 0 {
		return fmt.Errorf("min_size and max_size must be non-negative, got %d and %d", p.MinSize, p.MaxSize)
	}
	if p.MinSize > p.MaxSize {
		return fmt.Errorf("min_size (%d) must not exceed max_size (%d)", p.MinSize, p.MaxSize)
	}
	if d := p.DesiredCapacity; d != nil && (*d < p.MinSize || *d > p.MaxSize) {
		return fmt.Errorf("desired_capacity (%d) must be within [%d, %d]", *d, p.MinSize, p.MaxSize)
	}
	return nil
}
