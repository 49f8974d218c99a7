// Package config holds the k3s stack configuration: network layout, node
// sizing, boot scripts, and worker pool bounds.
package config

// Subnet roles. Every layout must include master and worker subnets.
const (
	RoleIngress = "ingress"
	RoleMaster  = "master"
	RoleWorker  = "worker"
)

// Config is the top-level stack configuration.
type Config struct {
	// StackName is the CloudFormation stack name used by deploy.
	StackName   string `mapstructure:"stack_name" yaml:"stack_name"`
	Description string `mapstructure:"description" yaml:"description"`

	Network    Network    `mapstructure:"network" yaml:"network"`
	Parameters Parameters `mapstructure:"parameters" yaml:"parameters"`
	Nodes      Nodes      `mapstructure:"nodes" yaml:"nodes"`
	UserData   UserData   `mapstructure:"userdata" yaml:"userdata"`
	WorkerPool WorkerPool `mapstructure:"worker_pool" yaml:"worker_pool"`
	Deploy     Deploy     `mapstructure:"deploy" yaml:"deploy"`
}

// Network describes the VPC address space and its subnet layout.
type Network struct {
	CIDR string `mapstructure:"cidr" yaml:"cidr"`
	// AvailabilityZones is how many zones each subnet group spans.
	AvailabilityZones int            `mapstructure:"availability_zones" yaml:"availability_zones"`
	Subnets           []SubnetLayout `mapstructure:"subnets" yaml:"subnets"`
	// SourceCIDR is the firewall's allowed source range; defaults to CIDR.
	SourceCIDR string `mapstructure:"source_cidr" yaml:"source_cidr"`
}

// SubnetLayout is one named subnet group.
type SubnetLayout struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Role     string `mapstructure:"role" yaml:"role"`
	CIDRMask int    `mapstructure:"cidr_mask" yaml:"cidr_mask"`
}

// Parameters holds the shared parameter namespace the nodes rendezvous on.
type Parameters struct {
	// Namespace is an SSM parameter path prefix such as /k3s/master.
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// Nodes sizes the instances created from the launch templates.
type Nodes struct {
	InstanceType string `mapstructure:"instance_type" yaml:"instance_type"`
	// ImageParameter is the public SSM parameter resolving the machine image.
	ImageParameter string `mapstructure:"image_parameter" yaml:"image_parameter"`
	DeviceName     string `mapstructure:"device_name" yaml:"device_name"`
	VolumeSize     int    `mapstructure:"volume_size" yaml:"volume_size"`
	VolumeType     string `mapstructure:"volume_type" yaml:"volume_type"`
}

// UserData locates the boot scripts embedded in each launch template.
type UserData struct {
	Master string `mapstructure:"master" yaml:"master"`
	Agent  string `mapstructure:"agent" yaml:"agent"`
}

// WorkerPool bounds the worker autoscaling group.
type WorkerPool struct {
	MinSize int `mapstructure:"min_size" yaml:"min_size"`
	MaxSize int `mapstructure:"max_size" yaml:"max_size"`
	// DesiredCapacity is optional; nil leaves it to the group.
	DesiredCapacity *int `mapstructure:"desired_capacity" yaml:"desired_capacity,omitempty"`
}

// Deploy configures the deploy command.
type Deploy struct {
	Region  string `mapstructure:"region" yaml:"region,omitempty"`
	Profile string `mapstructure:"profile" yaml:"profile,omitempty"`
	// Bucket stages the template in S3 before submitting it.
	Bucket string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix string `mapstructure:"prefix" yaml:"prefix,omitempty"`
}

// SubnetsByRole returns the layouts assigned to role, in declaration order.
func (n Network) SubnetsByRole(role string) []SubnetLayout {
	var out []SubnetLayout
	for _, s := range n.Subnets {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}
