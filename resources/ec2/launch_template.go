package ec2

// LaunchTemplate represents AWS::EC2::LaunchTemplate.
type LaunchTemplate struct {
	LaunchTemplateName any                                `json:"LaunchTemplateName,omitempty"`
	LaunchTemplateData *LaunchTemplate_LaunchTemplateData `json:"LaunchTemplateData,omitempty"`
	TagSpecifications  []any                              `json:"TagSpecifications,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r LaunchTemplate) ResourceType() string { return "AWS::EC2::LaunchTemplate" }

// LaunchTemplate_LaunchTemplateData holds the instance boot specification.
type LaunchTemplate_LaunchTemplateData struct {
	ImageId             any                                 `json:"ImageId,omitempty"`
	InstanceType        any                                 `json:"InstanceType,omitempty"`
	IamInstanceProfile  *LaunchTemplate_IamInstanceProfile  `json:"IamInstanceProfile,omitempty"`
	NetworkInterfaces   []LaunchTemplate_NetworkInterface   `json:"NetworkInterfaces,omitempty"`
	BlockDeviceMappings []LaunchTemplate_BlockDeviceMapping `json:"BlockDeviceMappings,omitempty"`
	UserData            any                                 `json:"UserData,omitempty"`
	TagSpecifications   []any                               `json:"TagSpecifications,omitempty"`
}

// LaunchTemplate_IamInstanceProfile names the instance profile by ARN or name.
type LaunchTemplate_IamInstanceProfile struct {
	Arn  any `json:"Arn,omitempty"`
	Name any `json:"Name,omitempty"`
}

// LaunchTemplate_NetworkInterface attaches a network interface at launch.
// DeviceIndex is a pointer because the primary interface is index 0.
type LaunchTemplate_NetworkInterface struct {
	DeviceIndex              *int  `json:"DeviceIndex,omitempty"`
	AssociatePublicIpAddress *bool `json:"AssociatePublicIpAddress,omitempty"`
	DeleteOnTermination      *bool `json:"DeleteOnTermination,omitempty"`
	Groups                   []any `json:"Groups,omitempty"`
	SubnetId                 any   `json:"SubnetId,omitempty"`
}

// LaunchTemplate_BlockDeviceMapping maps a device name to a volume.
type LaunchTemplate_BlockDeviceMapping struct {
	DeviceName any                 `json:"DeviceName,omitempty"`
	Ebs        *LaunchTemplate_Ebs `json:"Ebs,omitempty"`
}

// LaunchTemplate_Ebs describes an EBS volume.
type LaunchTemplate_Ebs struct {
	VolumeSize          any   `json:"VolumeSize,omitempty"`
	VolumeType          any   `json:"VolumeType,omitempty"`
	DeleteOnTermination *bool `json:"DeleteOnTermination,omitempty"`
	Encrypted           *bool `json:"Encrypted,omitempty"`
}

// LaunchTemplate_TagSpecification tags resources created from the template.
type LaunchTemplate_TagSpecification struct {
	ResourceType any   `json:"ResourceType,omitempty"`
	Tags         []any `json:"Tags,omitempty"`
}
