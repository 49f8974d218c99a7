package ec2

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-k3s-go"
)

func TestResourceTypes(t *testing.T) {
	tests := []struct {
		name     string
		resource wetwire.Resource
		expected string
	}{
		{"VPC", VPC{}, "AWS::EC2::VPC"},
		{"Subnet", Subnet{}, "AWS::EC2::Subnet"},
		{"InternetGateway", InternetGateway{}, "AWS::EC2::InternetGateway"},
		{"VPCGatewayAttachment", VPCGatewayAttachment{}, "AWS::EC2::VPCGatewayAttachment"},
		{"RouteTable", RouteTable{}, "AWS::EC2::RouteTable"},
		{"Route", Route{}, "AWS::EC2::Route"},
		{"SubnetRouteTableAssociation", SubnetRouteTableAssociation{}, "AWS::EC2::SubnetRouteTableAssociation"},
		{"SecurityGroup", SecurityGroup{}, "AWS::EC2::SecurityGroup"},
		{"LaunchTemplate", LaunchTemplate{}, "AWS::EC2::LaunchTemplate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}

func TestLaunchTemplate_PrimaryInterfaceIndex(t *testing.T) {
	index := 0
	public := true
	lt := LaunchTemplate{
		LaunchTemplateData: &LaunchTemplate_LaunchTemplateData{
			InstanceType: "t3.micro",
			NetworkInterfaces: []LaunchTemplate_NetworkInterface{
				{DeviceIndex: &index, AssociatePublicIpAddress: &public},
			},
		},
	}

	data, err := json.Marshal(lt)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"LaunchTemplateData": {
			"InstanceType": "t3.micro",
			"NetworkInterfaces": [{"DeviceIndex": 0, "AssociatePublicIpAddress": true}]
		}
	}`, string(data))
}

func TestSecurityGroup_IngressFromPortZero(t *testing.T) {
	sg := SecurityGroup{
		GroupDescription: "k3s nodes",
		SecurityGroupIngress: []any{
			SecurityGroup_Ingress{IpProtocol: "tcp", FromPort: 0, ToPort: 65535, CidrIp: "10.0.0.0/22"},
		},
	}

	data, err := json.Marshal(sg)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	rules := parsed["SecurityGroupIngress"].([]any)
	require.Len(t, rules, 1)
	rule := rules[0].(map[string]any)
	assert.Equal(t, float64(0), rule["FromPort"])
	assert.Equal(t, float64(65535), rule["ToPort"])
}
