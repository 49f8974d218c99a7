package k3s

import (
	"fmt"
	"strconv"

	"github.com/lex00/wetwire-k3s-go/intrinsics"
	"github.com/lex00/wetwire-k3s-go/resources/autoscaling"
)

// PoolSpec bounds the worker autoscaling group.
type PoolSpec struct {
	Name     string
	Template *LaunchTemplate
	// Subnets are the worker subnets the group launches into.
	Subnets []Subnet
	MinSize int
	MaxSize int
	// DesiredCapacity is optional.
	DesiredCapacity *int
}

// WorkerPool is the declared autoscaling group.
type WorkerPool struct {
	Group           Handle
	Template        *LaunchTemplate
	MinSize         int
	MaxSize         int
	DesiredCapacity *int
}

// NewWorkerPool declares an autoscaling group running the latest version of
// the worker launch template across the given subnets.
func NewWorkerPool(stack *Stack, spec PoolSpec) (*WorkerPool, error) {
	if spec.Template == nil {
		return nil, fmt.Errorf("worker pool %s: launch template is required", spec.Name)
	}
	if len(spec.Subnets) == 0 {
		return nil, fmt.Errorf("worker pool %s: at least one subnet is required", spec.Name)
	}

	var zones []any
	for _, s := range spec.Subnets {
		zones = append(zones, s.Ref())
	}

	// CloudFormation types the bounds as strings.
	asg := &autoscaling.AutoScalingGroup{
		MinSize: strconv.Itoa(spec.MinSize),
		MaxSize: strconv.Itoa(spec.MaxSize),
		LaunchTemplate: &autoscaling.AutoScalingGroup_LaunchTemplateSpecification{
			LaunchTemplateId: spec.Template.ID(),
			Version:          spec.Template.LatestVersion(),
		},
		VPCZoneIdentifier: zones,
		Tags: []autoscaling.AutoScalingGroup_TagProperty{
			{
				Key:               "Name",
				Value:             intrinsics.Sub{String: "${AWS::StackName}-" + spec.Template.Role},
				PropagateAtLaunch: true,
			},
		},
	}
	if spec.DesiredCapacity != nil {
		asg.DesiredCapacity = strconv.Itoa(*spec.DesiredCapacity)
	}

	h, err := stack.Add(spec.Name, asg)
	if err != nil {
		return nil, err
	}

	return &WorkerPool{
		Group:           h,
		Template:        spec.Template,
		MinSize:         spec.MinSize,
		MaxSize:         spec.MaxSize,
		DesiredCapacity: spec.DesiredCapacity,
	}, nil
}
