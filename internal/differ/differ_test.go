package differ

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-k3s-go"
)

func TestCompare(t *testing.T) {
	t1 := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{
			"Vpc":      {Type: "AWS::EC2::VPC", Properties: map[string]any{"CidrBlock": "10.0.0.0/22"}},
			"Gateway":  {Type: "AWS::EC2::InternetGateway"},
			"Firewall": {Type: "AWS::EC2::SecurityGroup"},
		},
	}

	t2 := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{
			"Vpc":        {Type: "AWS::EC2::VPC", Properties: map[string]any{"CidrBlock": "10.0.0.0/16"}},
			"Firewall":   {Type: "AWS::EC2::SecurityGroup"},
			"WorkerPool": {Type: "AWS::AutoScaling::AutoScalingGroup"},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Removed) != 1 {
		t.Errorf("Removed = %d, want 1", len(result.Diff.Removed))
	} else if result.Diff.Removed[0].Resource != "Gateway" {
		t.Errorf("Removed[0].Resource = %s, want Gateway", result.Diff.Removed[0].Resource)
	}

	if len(result.Diff.Added) != 1 {
		t.Errorf("Added = %d, want 1", len(result.Diff.Added))
	} else if result.Diff.Added[0].Resource != "WorkerPool" {
		t.Errorf("Added[0].Resource = %s, want WorkerPool", result.Diff.Added[0].Resource)
	}

	if len(result.Diff.Modified) != 1 {
		t.Errorf("Modified = %d, want 1", len(result.Diff.Modified))
	} else if result.Diff.Modified[0].Resource != "Vpc" {
		t.Errorf("Modified[0].Resource = %s, want Vpc", result.Diff.Modified[0].Resource)
	}

	if result.Summary.Total != 3 {
		t.Errorf("Summary.Total = %d, want 3", result.Summary.Total)
	}
}

func TestCompareIdentical(t *testing.T) {
	template := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{
			"Vpc": {Type: "AWS::EC2::VPC", Properties: map[string]any{"CidrBlock": "10.0.0.0/22"}},
		},
	}

	result, err := Compare(template, template, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if !result.Empty() {
		t.Errorf("Compare() = %+v, want no differences", result.Diff)
	}
}

func TestCompareNil(t *testing.T) {
	_, err := Compare(nil, &wetwire.Template{}, Options{})
	assert.Error(t, err)
}

func TestCompareTypeChange(t *testing.T) {
	t1 := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{
			"Node": {Type: "AWS::EC2::LaunchTemplate"},
		},
	}
	t2 := &wetwire.Template{
		Resources: map[string]wetwire.ResourceDef{
			"Node": {Type: "AWS::EC2::Instance"},
		},
	}

	result, err := Compare(t1, t2, Options{})
	require.NoError(t, err)
	require.Len(t, result.Diff.Modified, 1)
	assert.Contains(t, result.Diff.Modified[0].Changes, "Type changed: AWS::EC2::LaunchTemplate → AWS::EC2::Instance")
}

func TestCompareProperties(t *testing.T) {
	tests := []struct {
		name   string
		props1 map[string]any
		props2 map[string]any
		want   []string
	}{
		{
			name:   "identical",
			props1: map[string]any{"Key": "value"},
			props2: map[string]any{"Key": "value"},
			want:   nil,
		},
		{
			name:   "added property",
			props1: map[string]any{},
			props2: map[string]any{"Key": "value"},
			want:   []string{"Key added"},
		},
		{
			name:   "removed property",
			props1: map[string]any{"Key": "value"},
			props2: map[string]any{},
			want:   []string{"Key removed"},
		},
		{
			name:   "nested property",
			props1: map[string]any{"LaunchTemplateData": map[string]any{"UserData": "YQ==", "InstanceType": "t3.micro"}},
			props2: map[string]any{"LaunchTemplateData": map[string]any{"UserData": "Yg==", "InstanceType": "t3.micro"}},
			want:   []string{"LaunchTemplateData.UserData modified"},
		},
		{
			name:   "intrinsic replaced",
			props1: map[string]any{"VpcId": map[string]any{"Ref": "Vpc"}},
			props2: map[string]any{"VpcId": map[string]any{"Ref": "OtherVpc"}},
			want:   []string{"VpcId modified"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compareProperties("", tt.props1, tt.props2, Options{}))
		})
	}
}

func TestCompareIgnoreOrder(t *testing.T) {
	t1 := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{
		"Pool": {Type: "AWS::AutoScaling::AutoScalingGroup", Properties: map[string]any{
			"VPCZoneIdentifier": []any{map[string]any{"Ref": "WorkerSubnet1"}, map[string]any{"Ref": "WorkerSubnet2"}},
		}},
	}}
	t2 := &wetwire.Template{Resources: map[string]wetwire.ResourceDef{
		"Pool": {Type: "AWS::AutoScaling::AutoScalingGroup", Properties: map[string]any{
			"VPCZoneIdentifier": []any{map[string]any{"Ref": "WorkerSubnet2"}, map[string]any{"Ref": "WorkerSubnet1"}},
		}},
	}}

	ordered, err := Compare(t1, t2, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, ordered.Summary.Modified)

	unordered, err := Compare(t1, t2, Options{IgnoreOrder: true})
	require.NoError(t, err)
	assert.True(t, unordered.Empty())
}

func TestCompareSections(t *testing.T) {
	t1 := &wetwire.Template{
		Description: "k3s",
		Parameters:  map[string]wetwire.Parameter{"MachineImageId": {Type: "String", Default: "a"}},
		Outputs:     map[string]wetwire.Output{"VpcId": {Value: map[string]any{"Ref": "Vpc"}}},
		Resources:   map[string]wetwire.ResourceDef{},
	}
	t2 := &wetwire.Template{
		Description: "k3s cluster",
		Parameters:  map[string]wetwire.Parameter{"MachineImageId": {Type: "String", Default: "b"}},
		Outputs:     map[string]wetwire.Output{"PoolName": {Value: map[string]any{"Ref": "WorkerPool"}}},
		Resources:   map[string]wetwire.ResourceDef{},
	}

	result, err := Compare(t1, t2, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Total)
	assert.False(t, result.Empty())
	assert.Equal(t, []string{
		"Description modified",
		"Parameters.MachineImageId modified",
		"Outputs.PoolName added",
		"Outputs.VpcId removed",
	}, result.Diff.Sections)
}

func TestCompareFiles_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "template.json")
	yamlPath := filepath.Join(dir, "template.yaml")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Resources": {
			"Pool": {"Type": "AWS::AutoScaling::AutoScalingGroup", "Properties": {"MinSize": "1", "MaxSize": "3"}}
		}
	}`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte(`AWSTemplateFormatVersion: "2010-09-09"
Resources:
  Pool:
    Type: AWS::AutoScaling::AutoScalingGroup
    Properties:
      MinSize: "1"
      MaxSize: "3"
`), 0o644))

	result, err := CompareFiles(jsonPath, yamlPath, Options{})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestLoadTemplate_Missing(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEqualStringSlices(t *testing.T) {
	tests := []struct {
		a, b []string
		want bool
	}{
		{nil, nil, true},
		{[]string{}, []string{}, true},
		{[]string{"a", "b"}, []string{"a", "b"}, true},
		{[]string{"a"}, []string{"b"}, false},
		{[]string{"a"}, []string{"a", "b"}, false},
	}

	for _, tt := range tests {
		got := equalStringSlices(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("equalStringSlices(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
