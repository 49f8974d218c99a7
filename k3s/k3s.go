package k3s

import (
	"github.com/lex00/wetwire-k3s-go/internal/config"
	"github.com/lex00/wetwire-k3s-go/intrinsics"
)

// Node roles as tagged on instances.
const (
	RoleMaster = "master"
	RoleAgent  = "agent"
)

// Cluster is everything Declare registered, for inspection and lint.
type Cluster struct {
	Image    intrinsics.Parameter
	Network  *Network
	Master   *Identity
	Worker   *Identity
	Firewall *Firewall

	MasterTemplate *LaunchTemplate
	AgentTemplate  *LaunchTemplate
	Pool           *WorkerPool
}

// Templates returns the launch templates, master first.
func (c *Cluster) Templates() []*LaunchTemplate {
	return []*LaunchTemplate{c.MasterTemplate, c.AgentTemplate}
}

// Declare registers the whole k3s stack described by cfg: network, roles,
// firewall, launch templates and worker pool, in that order.
func Declare(stack *Stack, cfg *config.Config) (*Cluster, error) {
	c := &Cluster{}

	c.Image = intrinsics.NewParameter("MachineImageId", "AWS::SSM::Parameter::Value<AWS::EC2::Image::Id>")
	c.Image.Description = "Machine image for every node, resolved from a public SSM parameter"
	c.Image.Default = cfg.Nodes.ImageParameter
	if err := stack.AddParameter(c.Image); err != nil {
		return nil, err
	}

	var err error
	if c.Network, err = NewNetwork(stack, cfg.Network); err != nil {
		return nil, err
	}

	if c.Master, err = NewRole(stack, RoleSpec{
		Name:            "MasterRole",
		PolicyName:      "k3s_write_server_info",
		Access:          AccessWrite,
		Namespace:       cfg.Parameters.Namespace,
		ManagedPolicies: []string{ManagedPolicySSM},
	}); err != nil {
		return nil, err
	}

	if c.Worker, err = NewRole(stack, RoleSpec{
		Name:            "WorkerRole",
		PolicyName:      "k3s_read_server_info",
		Access:          AccessRead,
		Namespace:       cfg.Parameters.Namespace,
		ManagedPolicies: []string{ManagedPolicySSM},
	}); err != nil {
		return nil, err
	}

	if c.Firewall, err = NewFirewall(stack, c.Network, cfg.Network.SourceCIDR); err != nil {
		return nil, err
	}

	base := LaunchSpec{
		Image:        c.Image,
		InstanceType: cfg.Nodes.InstanceType,
		DeviceName:   cfg.Nodes.DeviceName,
		VolumeSize:   cfg.Nodes.VolumeSize,
		VolumeType:   cfg.Nodes.VolumeType,
		Firewall:     c.Firewall,
	}

	master := base
	master.Name = "MasterLaunchTemplate"
	master.Role = RoleMaster
	master.Identity = c.Master
	master.UserDataPath = cfg.UserData.Master
	if c.MasterTemplate, err = NewLaunchTemplate(stack, master); err != nil {
		return nil, err
	}

	agent := base
	agent.Name = "AgentLaunchTemplate"
	agent.Role = RoleAgent
	agent.Identity = c.Worker
	agent.UserDataPath = cfg.UserData.Agent
	if c.AgentTemplate, err = NewLaunchTemplate(stack, agent); err != nil {
		return nil, err
	}

	if c.Pool, err = NewWorkerPool(stack, PoolSpec{
		Name:            "WorkerPool",
		Template:        c.AgentTemplate,
		Subnets:         c.Network.SubnetsByRole(config.RoleWorker),
		MinSize:         cfg.WorkerPool.MinSize,
		MaxSize:         cfg.WorkerPool.MaxSize,
		DesiredCapacity: cfg.WorkerPool.DesiredCapacity,
	}); err != nil {
		return nil, err
	}

	c.addOutputs(stack)
	return c, nil
}

func (c *Cluster) addOutputs(stack *Stack) {
	stack.AddOutput("VpcId", "VPC hosting the cluster", c.Network.VPC.Ref())
	stack.AddOutput("NodeSecurityGroupId", "Security group shared by every node", c.Firewall.GroupID())
	stack.AddOutput("MasterLaunchTemplateId", "Launch template for control-plane nodes", c.MasterTemplate.ID())
	stack.AddOutput("AgentLaunchTemplateId", "Launch template for worker nodes", c.AgentTemplate.ID())
	stack.AddOutput("WorkerPoolName", "Worker autoscaling group", c.Pool.Group.Ref())
	stack.AddOutput("MasterSubnetIds", "Subnets for control-plane nodes", intrinsics.Join{
		Delimiter: ",",
		Values:    c.Network.SubnetRefs(config.RoleMaster),
	})
}
