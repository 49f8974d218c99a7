package autoscaling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoScalingGroup_Serialization(t *testing.T) {
	asg := AutoScalingGroup{
		MinSize: "1",
		MaxSize: "3",
		LaunchTemplate: &AutoScalingGroup_LaunchTemplateSpecification{
			LaunchTemplateId: map[string]any{"Ref": "AgentLaunchTemplate"},
			Version:          "1",
		},
		Tags: []AutoScalingGroup_TagProperty{{Key: "k3s:role", Value: "worker", PropagateAtLaunch: true}},
	}

	assert.Equal(t, "AWS::AutoScaling::AutoScalingGroup", asg.ResourceType())

	data, err := json.Marshal(asg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"MinSize": "1",
		"MaxSize": "3",
		"LaunchTemplate": {"LaunchTemplateId": {"Ref": "AgentLaunchTemplate"}, "Version": "1"},
		"Tags": [{"Key": "k3s:role", "Value": "worker", "PropagateAtLaunch": true}]
	}`, string(data))
}
