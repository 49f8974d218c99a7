package k3s

import (
	"github.com/lex00/wetwire-k3s-go/resources/ec2"
)

// Firewall is the security group shared by every node.
type Firewall struct {
	Group Handle
	// SourceCIDR is the only range allowed in.
	SourceCIDR string
	FromPort   int
	ToPort     int
	// Placeholder marks the allow-all-TCP rule as not yet tightened.
	Placeholder bool
}

// GroupID returns the security group ID attribute.
func (f *Firewall) GroupID() any {
	return f.Group.Attr("GroupId")
}

// NewFirewall declares a security group in the VPC allowing all TCP from
// sourceCIDR.
// TODO: replace the blanket TCP rule with the k3s port set (6443, 8472/udp, 10250).
func NewFirewall(stack *Stack, network *Network, sourceCIDR string) (*Firewall, error) {
	fw := &Firewall{
		SourceCIDR:  sourceCIDR,
		FromPort:    0,
		ToPort:      65535,
		Placeholder: true,
	}

	var err error
	fw.Group, err = stack.Add("NodeSecurityGroup", &ec2.SecurityGroup{
		GroupDescription: "k3s nodes",
		VpcId:            network.VPC.Ref(),
		SecurityGroupIngress: []any{
			ec2.SecurityGroup_Ingress{
				Description: "intra-cluster TCP",
				IpProtocol:  "tcp",
				FromPort:    fw.FromPort,
				ToPort:      fw.ToPort,
				CidrIp:      sourceCIDR,
			},
		},
		Tags: nameTag("k3s-nodes"),
	})
	if err != nil {
		return nil, err
	}
	return fw, nil
}
