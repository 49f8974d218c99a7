package k3s

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-k3s-go"
	"github.com/lex00/wetwire-k3s-go/internal/config"
	"github.com/lex00/wetwire-k3s-go/internal/differ"
	"github.com/lex00/wetwire-k3s-go/resources/ec2"
)

const (
	masterScript = "#!/bin/bash\ncurl -sfL https://get.k3s.io | sh -s - server\n"
	agentScript  = "#!/bin/bash\ncurl -sfL https://get.k3s.io | K3S_URL=$URL sh -\n"
)

// testConfig returns the default configuration with boot scripts in a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.UserData.Master = filepath.Join(dir, "master.sh")
	cfg.UserData.Agent = filepath.Join(dir, "agent.sh")
	require.NoError(t, os.WriteFile(cfg.UserData.Master, []byte(masterScript), 0o644))
	require.NoError(t, os.WriteFile(cfg.UserData.Agent, []byte(agentScript), 0o644))
	return cfg
}

func synthesize(t *testing.T, cfg *config.Config) (*Cluster, *wetwire.Template) {
	t.Helper()
	stack := NewStack(cfg.Description)
	cluster, err := Declare(stack, cfg)
	require.NoError(t, err)
	tmpl, err := stack.Template()
	require.NoError(t, err)
	return cluster, tmpl
}

func props(t *testing.T, tmpl *wetwire.Template, name string) map[string]any {
	t.Helper()
	res, ok := tmpl.Resources[name]
	require.True(t, ok, "resource %s not in template", name)
	return res.Properties
}

func TestDeclare_Topology(t *testing.T) {
	cluster, tmpl := synthesize(t, testConfig(t))

	counts := make(map[string]int)
	for _, res := range tmpl.Resources {
		counts[res.Type]++
	}

	assert.Equal(t, 1, counts["AWS::EC2::VPC"])
	assert.Equal(t, 9, counts["AWS::EC2::Subnet"])
	assert.Equal(t, 9, counts["AWS::EC2::SubnetRouteTableAssociation"])
	assert.Equal(t, 2, counts["AWS::IAM::Role"])
	assert.Equal(t, 2, counts["AWS::IAM::InstanceProfile"])
	assert.Equal(t, 1, counts["AWS::EC2::SecurityGroup"])
	assert.Equal(t, 2, counts["AWS::EC2::LaunchTemplate"])
	assert.Equal(t, 1, counts["AWS::AutoScaling::AutoScalingGroup"])

	assert.Len(t, cluster.Network.SubnetsByRole(config.RoleWorker), 3)
	assert.Equal(t, "10.0.1.0/24", cluster.Network.SubnetsByRole(config.RoleWorker)[0].CIDR)
	assert.Equal(t, "10.0.0.48/28", cluster.Network.SubnetsByRole(config.RoleMaster)[0].CIDR)

	assert.Equal(t, "AWS::SSM::Parameter::Value<AWS::EC2::Image::Id>", tmpl.Parameters["MachineImageId"].Type)
	assert.Equal(t, config.DefaultImageParameter, tmpl.Parameters["MachineImageId"].Default)

	for _, name := range []string{"VpcId", "NodeSecurityGroupId", "MasterLaunchTemplateId", "AgentLaunchTemplateId", "WorkerPoolName", "MasterSubnetIds"} {
		assert.Contains(t, tmpl.Outputs, name)
	}
}

func TestDeclare_SubnetsUseZones(t *testing.T) {
	_, tmpl := synthesize(t, testConfig(t))

	subnet := props(t, tmpl, "WorkerSubnet2")
	assert.Equal(t, "10.0.2.0/24", subnet["CidrBlock"])
	assert.Equal(t, map[string]any{"Ref": "Vpc"}, subnet["VpcId"])
	assert.Equal(t, true, subnet["MapPublicIpOnLaunch"])
	assert.Contains(t, subnet, "AvailabilityZone")

	route := tmpl.Resources["PublicDefaultRoute"]
	assert.Equal(t, []string{"VpcGatewayAttachment"}, route.DependsOn)
}

func TestDeclare_RoleDirections(t *testing.T) {
	cluster, tmpl := synthesize(t, testConfig(t))

	tests := []struct {
		role   string
		policy string
		action string
	}{
		{"MasterRole", "k3s_write_server_info", "ssm:PutParameter"},
		{"WorkerRole", "k3s_read_server_info", "ssm:GetParameter"},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			role := props(t, tmpl, tt.role)
			policies := role["Policies"].([]any)
			require.Len(t, policies, 1)

			policy := policies[0].(map[string]any)
			assert.Equal(t, tt.policy, policy["PolicyName"])

			doc := policy["PolicyDocument"].(map[string]any)
			stmt := doc["Statement"].([]any)[0].(map[string]any)
			assert.Equal(t, []any{tt.action}, stmt["Action"])
			assert.Equal(t, []any{"arn:aws:ssm:*:*:parameter/k3s/master/*"}, stmt["Resource"])

			managed := role["ManagedPolicyArns"].([]any)
			require.Len(t, managed, 1)
			assert.Contains(t, managed[0].(map[string]any)["Fn::Sub"], ManagedPolicySSM)
		})
	}

	assert.Equal(t, AccessWrite, cluster.Master.Access)
	assert.Equal(t, AccessRead, cluster.Worker.Access)
}

func TestDeclare_TemplatesBindRoles(t *testing.T) {
	_, tmpl := synthesize(t, testConfig(t))

	for name, profile := range map[string]string{
		"MasterLaunchTemplate": "MasterRoleProfile",
		"AgentLaunchTemplate":  "WorkerRoleProfile",
	} {
		data := props(t, tmpl, name)["LaunchTemplateData"].(map[string]any)
		assert.Equal(t,
			map[string]any{"Fn::GetAtt": []any{profile, "Arn"}},
			data["IamInstanceProfile"].(map[string]any)["Arn"], name)
		assert.Equal(t, map[string]any{"Ref": "MachineImageId"}, data["ImageId"])
		assert.Equal(t, "t3.micro", data["InstanceType"])

		nic := data["NetworkInterfaces"].([]any)[0].(map[string]any)
		assert.Equal(t, float64(0), nic["DeviceIndex"])
		assert.Equal(t, []any{map[string]any{"Fn::GetAtt": []any{"NodeSecurityGroup", "GroupId"}}}, nic["Groups"])

		bdm := data["BlockDeviceMappings"].([]any)[0].(map[string]any)
		assert.Equal(t, "/dev/xvda", bdm["DeviceName"])
		assert.Equal(t, float64(8), bdm["Ebs"].(map[string]any)["VolumeSize"])
	}
}

func TestDeclare_UserDataRoundTrip(t *testing.T) {
	cluster, tmpl := synthesize(t, testConfig(t))

	for _, lt := range cluster.Templates() {
		data := props(t, tmpl, lt.Template.Name())["LaunchTemplateData"].(map[string]any)
		encoded, ok := data["UserData"].(string)
		require.True(t, ok)
		require.NotEmpty(t, encoded)

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)

		source, err := os.ReadFile(lt.UserDataPath)
		require.NoError(t, err)
		assert.Equal(t, source, decoded)
	}
}

func TestDeclare_MissingUserData(t *testing.T) {
	cfg := testConfig(t)
	cfg.UserData.Agent = filepath.Join(t.TempDir(), "absent.sh")

	_, err := Declare(NewStack("test"), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserDataMissing)
	assert.Contains(t, err.Error(), "absent.sh")
}

func TestDeclare_EmptyUserData(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.UserData.Master, nil, 0o644))

	_, err := Declare(NewStack("test"), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserDataMissing)
	assert.Contains(t, err.Error(), "master.sh is empty")
}

func TestDeclare_WorkerPool(t *testing.T) {
	cfg := testConfig(t)
	desired := 2
	cfg.WorkerPool.DesiredCapacity = &desired

	_, tmpl := synthesize(t, cfg)
	pool := props(t, tmpl, "WorkerPool")

	assert.Equal(t, "1", pool["MinSize"])
	assert.Equal(t, "3", pool["MaxSize"])
	assert.Equal(t, "2", pool["DesiredCapacity"])
	assert.Equal(t, map[string]any{
		"LaunchTemplateId": map[string]any{"Ref": "AgentLaunchTemplate"},
		"Version":          map[string]any{"Fn::GetAtt": []any{"AgentLaunchTemplate", "LatestVersionNumber"}},
	}, pool["LaunchTemplate"])
	assert.Equal(t, []any{
		map[string]any{"Ref": "WorkerSubnet1"},
		map[string]any{"Ref": "WorkerSubnet2"},
		map[string]any{"Ref": "WorkerSubnet3"},
	}, pool["VPCZoneIdentifier"])
}

func TestDeclare_EditingScriptChangesOnlyItsPayload(t *testing.T) {
	cfg := testConfig(t)
	_, before := synthesize(t, cfg)

	require.NoError(t, os.WriteFile(cfg.UserData.Master, []byte(masterScript+"echo done\n"), 0o644))
	_, after := synthesize(t, cfg)

	result, err := differ.Compare(before, after, differ.Options{})
	require.NoError(t, err)

	assert.Empty(t, result.Diff.Added)
	assert.Empty(t, result.Diff.Removed)
	assert.Empty(t, result.Diff.Sections)
	require.Len(t, result.Diff.Modified, 1)
	assert.Equal(t, "MasterLaunchTemplate", result.Diff.Modified[0].Resource)
	assert.Equal(t, []string{"LaunchTemplateData.UserData modified"}, result.Diff.Modified[0].Changes)
}

func TestDeclare_TemplatesDoNotShareData(t *testing.T) {
	stack := NewStack("test")
	cluster, err := Declare(stack, testConfig(t))
	require.NoError(t, err)

	master, ok := stack.Resource("MasterLaunchTemplate")
	require.True(t, ok)
	agent, ok := stack.Resource("AgentLaunchTemplate")
	require.True(t, ok)

	assert.NotSame(t, master.(*ec2.LaunchTemplate).LaunchTemplateData, agent.(*ec2.LaunchTemplate).LaunchTemplateData)
	assert.NotEqual(t, cluster.MasterTemplate.UserData, cluster.AgentTemplate.UserData)
}
