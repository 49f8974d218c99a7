package ec2

// SecurityGroup represents AWS::EC2::SecurityGroup.
type SecurityGroup struct {
	GroupDescription     any   `json:"GroupDescription,omitempty"`
	GroupName            any   `json:"GroupName,omitempty"`
	VpcId                any   `json:"VpcId,omitempty"`
	SecurityGroupIngress []any `json:"SecurityGroupIngress,omitempty"`
	SecurityGroupEgress  []any `json:"SecurityGroupEgress,omitempty"`
	Tags                 []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r SecurityGroup) ResourceType() string { return "AWS::EC2::SecurityGroup" }

// SecurityGroup_Ingress is an inbound rule of a SecurityGroup.
// FromPort and ToPort accept 0, so they are held as any rather than int.
type SecurityGroup_Ingress struct {
	Description           any `json:"Description,omitempty"`
	IpProtocol            any `json:"IpProtocol,omitempty"`
	FromPort              any `json:"FromPort,omitempty"`
	ToPort                any `json:"ToPort,omitempty"`
	CidrIp                any `json:"CidrIp,omitempty"`
	SourceSecurityGroupId any `json:"SourceSecurityGroupId,omitempty"`
}

// SecurityGroup_Egress is an outbound rule of a SecurityGroup.
type SecurityGroup_Egress struct {
	Description any `json:"Description,omitempty"`
	IpProtocol  any `json:"IpProtocol,omitempty"`
	FromPort    any `json:"FromPort,omitempty"`
	ToPort      any `json:"ToPort,omitempty"`
	CidrIp      any `json:"CidrIp,omitempty"`
}
