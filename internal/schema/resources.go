package schema

// resourceSchemas covers the resource types a k3s stack declares. Property
// types follow the CloudFormation resource specification; "Json" accepts any
// value.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::EC2::VPC": {
		Properties: map[string]PropertySchema{
			"CidrBlock":          {Type: "String"},
			"EnableDnsHostnames": {Type: "Boolean"},
			"EnableDnsSupport":   {Type: "Boolean"},
			"InstanceTenancy":    {Type: "String", AllowedValues: []string{"default", "dedicated", "host"}},
			"Tags":               {Type: "List"},
		},
	},
	"AWS::EC2::Subnet": {
		Properties: map[string]PropertySchema{
			"VpcId":               {Type: "String", Required: true},
			"CidrBlock":           {Type: "String"},
			"AvailabilityZone":    {Type: "String"},
			"MapPublicIpOnLaunch": {Type: "Boolean"},
			"Tags":                {Type: "List"},
		},
	},
	"AWS::EC2::InternetGateway": {
		Properties: map[string]PropertySchema{
			"Tags": {Type: "List"},
		},
	},
	"AWS::EC2::VPCGatewayAttachment": {
		Properties: map[string]PropertySchema{
			"VpcId":             {Type: "String", Required: true},
			"InternetGatewayId": {Type: "String"},
			"VpnGatewayId":      {Type: "String"},
		},
	},
	"AWS::EC2::RouteTable": {
		Properties: map[string]PropertySchema{
			"VpcId": {Type: "String", Required: true},
			"Tags":  {Type: "List"},
		},
	},
	"AWS::EC2::Route": {
		Properties: map[string]PropertySchema{
			"RouteTableId":         {Type: "String", Required: true},
			"DestinationCidrBlock": {Type: "String"},
			"GatewayId":            {Type: "String"},
		},
	},
	"AWS::EC2::SubnetRouteTableAssociation": {
		Properties: map[string]PropertySchema{
			"RouteTableId": {Type: "String", Required: true},
			"SubnetId":     {Type: "String", Required: true},
		},
	},
	"AWS::EC2::SecurityGroup": {
		Properties: map[string]PropertySchema{
			"GroupDescription":     {Type: "String", Required: true},
			"GroupName":            {Type: "String"},
			"VpcId":                {Type: "String"},
			"SecurityGroupIngress": {Type: "List"},
			"SecurityGroupEgress":  {Type: "List"},
			"Tags":                 {Type: "List"},
		},
	},
	"AWS::EC2::LaunchTemplate": {
		Properties: map[string]PropertySchema{
			"LaunchTemplateName": {Type: "String"},
			"LaunchTemplateData": {Type: "Map", Required: true},
			"TagSpecifications":  {Type: "List"},
		},
	},
	"AWS::IAM::Role": {
		Properties: map[string]PropertySchema{
			"AssumeRolePolicyDocument": {Type: "Json", Required: true},
			"Description":              {Type: "String"},
			"ManagedPolicyArns":        {Type: "List"},
			"Path":                     {Type: "String"},
			"Policies":                 {Type: "List"},
			"RoleName":                 {Type: "String"},
			"Tags":                     {Type: "List"},
		},
	},
	"AWS::IAM::InstanceProfile": {
		Properties: map[string]PropertySchema{
			"InstanceProfileName": {Type: "String"},
			"Path":                {Type: "String"},
			"Roles":               {Type: "List", Required: true},
		},
	},
	"AWS::AutoScaling::AutoScalingGroup": {
		Properties: map[string]PropertySchema{
			"AutoScalingGroupName":   {Type: "String"},
			"MinSize":                {Type: "String", Required: true},
			"MaxSize":                {Type: "String", Required: true},
			"DesiredCapacity":        {Type: "String"},
			"LaunchTemplate":         {Type: "Map"},
			"VPCZoneIdentifier":      {Type: "List"},
			"HealthCheckType":        {Type: "String", AllowedValues: []string{"EC2", "ELB", "EBS", "VPC_LATTICE"}},
			"HealthCheckGracePeriod": {Type: "Integer"},
			"Tags":                   {Type: "List"},
		},
	},
}
