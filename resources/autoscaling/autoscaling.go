// Package autoscaling provides CloudFormation resource types for EC2 Auto Scaling.
package autoscaling

// AutoScalingGroup represents AWS::AutoScaling::AutoScalingGroup.
// MinSize, MaxSize and DesiredCapacity are strings in the CloudFormation schema.
type AutoScalingGroup struct {
	AutoScalingGroupName   any                                           `json:"AutoScalingGroupName,omitempty"`
	MinSize                any                                           `json:"MinSize,omitempty"`
	MaxSize                any                                           `json:"MaxSize,omitempty"`
	DesiredCapacity        any                                           `json:"DesiredCapacity,omitempty"`
	LaunchTemplate         *AutoScalingGroup_LaunchTemplateSpecification `json:"LaunchTemplate,omitempty"`
	VPCZoneIdentifier      []any                                         `json:"VPCZoneIdentifier,omitempty"`
	HealthCheckType        any                                           `json:"HealthCheckType,omitempty"`
	HealthCheckGracePeriod any                                           `json:"HealthCheckGracePeriod,omitempty"`
	Tags                   []AutoScalingGroup_TagProperty                `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r AutoScalingGroup) ResourceType() string { return "AWS::AutoScaling::AutoScalingGroup" }

// AutoScalingGroup_LaunchTemplateSpecification selects a launch template version.
type AutoScalingGroup_LaunchTemplateSpecification struct {
	LaunchTemplateId   any `json:"LaunchTemplateId,omitempty"`
	LaunchTemplateName any `json:"LaunchTemplateName,omitempty"`
	Version            any `json:"Version,omitempty"`
}

// AutoScalingGroup_TagProperty is a tag optionally propagated to launched instances.
type AutoScalingGroup_TagProperty struct {
	Key               any  `json:"Key,omitempty"`
	Value             any  `json:"Value,omitempty"`
	PropagateAtLaunch bool `json:"PropagateAtLaunch"`
}
