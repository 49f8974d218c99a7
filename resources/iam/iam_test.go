package iam

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-k3s-go"
)

func TestResourceTypes(t *testing.T) {
	var role, profile wetwire.Resource = Role{}, InstanceProfile{}
	assert.Equal(t, "AWS::IAM::Role", role.ResourceType())
	assert.Equal(t, "AWS::IAM::InstanceProfile", profile.ResourceType())
}

func TestRole_InlinePolicy(t *testing.T) {
	role := Role{
		Policies: []any{
			Role_Policy{
				PolicyName:     "k3s_read_server_info",
				PolicyDocument: map[string]any{"Version": "2012-10-17"},
			},
		},
	}

	data, err := json.Marshal(role)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Policies": [{"PolicyName": "k3s_read_server_info", "PolicyDocument": {"Version": "2012-10-17"}}]}`, string(data))
}
