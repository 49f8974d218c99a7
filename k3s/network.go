package k3s

import (
	"fmt"

	"github.com/lex00/wetwire-k3s-go/internal/config"
	"github.com/lex00/wetwire-k3s-go/intrinsics"
	"github.com/lex00/wetwire-k3s-go/resources/ec2"
)

// Subnet is one declared subnet and the block carved for it.
type Subnet struct {
	Handle
	Group   string
	Role    string
	AZIndex int
	CIDR    string
}

// Network is the declared VPC and its public subnets.
type Network struct {
	VPC  Handle
	CIDR string

	InternetGateway Handle
	Attachment      Handle
	RouteTable      Handle

	Subnets []Subnet
}

// SubnetsByRole returns the subnets of role in declaration order.
func (n *Network) SubnetsByRole(role string) []Subnet {
	var out []Subnet
	for _, s := range n.Subnets {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}

// SubnetRefs returns a Ref for each subnet of role.
func (n *Network) SubnetRefs(role string) []any {
	var refs []any
	for _, s := range n.SubnetsByRole(role) {
		refs = append(refs, s.Ref())
	}
	return refs
}

// NewNetwork declares a VPC with one public subnet per (group, zone). Subnet
// blocks are allocated sequentially from the VPC range.
func NewNetwork(stack *Stack, cfg config.Network) (*Network, error) {
	allocations, err := config.AllocateSubnets(cfg.CIDR, cfg.Subnets, cfg.AvailabilityZones)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate subnets: %w", err)
	}

	n := &Network{CIDR: cfg.CIDR}

	n.VPC, err = stack.Add("Vpc", &ec2.VPC{
		CidrBlock:          cfg.CIDR,
		EnableDnsHostnames: true,
		EnableDnsSupport:   true,
		Tags:               nameTag(intrinsics.AWS_STACK_NAME),
	})
	if err != nil {
		return nil, err
	}

	n.InternetGateway, err = stack.Add("InternetGateway", &ec2.InternetGateway{
		Tags: nameTag(intrinsics.AWS_STACK_NAME),
	})
	if err != nil {
		return nil, err
	}

	n.Attachment, err = stack.Add("VpcGatewayAttachment", &ec2.VPCGatewayAttachment{
		VpcId:             n.VPC.Ref(),
		InternetGatewayId: n.InternetGateway.Ref(),
	})
	if err != nil {
		return nil, err
	}

	n.RouteTable, err = stack.Add("PublicRouteTable", &ec2.RouteTable{
		VpcId: n.VPC.Ref(),
		Tags:  nameTag(intrinsics.Sub{String: "${AWS::StackName}-public"}),
	})
	if err != nil {
		return nil, err
	}

	// The route needs the gateway attached, which no property expresses.
	if _, err := stack.Add("PublicDefaultRoute", &ec2.Route{
		RouteTableId:         n.RouteTable.Ref(),
		DestinationCidrBlock: "0.0.0.0/0",
		GatewayId:            n.InternetGateway.Ref(),
	}, n.Attachment); err != nil {
		return nil, err
	}

	for _, a := range allocations {
		name := fmt.Sprintf("%sSubnet%d", a.Name, a.AZIndex+1)
		h, err := stack.Add(name, &ec2.Subnet{
			VpcId:               n.VPC.Ref(),
			CidrBlock:           a.CIDR,
			AvailabilityZone:    intrinsics.Select{Index: a.AZIndex, List: intrinsics.GetAZs{Region: ""}},
			MapPublicIpOnLaunch: true,
			Tags: []any{
				intrinsics.Tag{Key: "Name", Value: intrinsics.Sub{String: fmt.Sprintf("${AWS::StackName}-%s-%d", a.Name, a.AZIndex+1)}},
				intrinsics.Tag{Key: "k3s:role", Value: a.Role},
			},
		})
		if err != nil {
			return nil, err
		}

		if _, err := stack.Add(name+"RouteTableAssociation", &ec2.SubnetRouteTableAssociation{
			RouteTableId: n.RouteTable.Ref(),
			SubnetId:     h.Ref(),
		}); err != nil {
			return nil, err
		}

		n.Subnets = append(n.Subnets, Subnet{
			Handle:  h,
			Group:   a.Name,
			Role:    a.Role,
			AZIndex: a.AZIndex,
			CIDR:    a.CIDR,
		})
	}

	return n, nil
}

func nameTag(value any) []any {
	return []any{intrinsics.Tag{Key: "Name", Value: value}}
}
