package k3s

import (
	"fmt"

	"github.com/lex00/wetwire-k3s-go/intrinsics"
	"github.com/lex00/wetwire-k3s-go/resources/iam"
)

// Access is the direction a role may use the shared parameter namespace.
type Access string

const (
	AccessWrite Access = "write"
	AccessRead  Access = "read"
)

// Actions on the shared namespace granted for each direction.
var namespaceActions = map[Access][]string{
	AccessWrite: {"ssm:PutParameter"},
	AccessRead:  {"ssm:GetParameter"},
}

// ManagedPolicySSM lets instances register with Systems Manager.
const ManagedPolicySSM = "service-role/AmazonEC2RoleforSSM"

// RoleSpec describes one node identity.
type RoleSpec struct {
	// Name is the logical ID of the role; the profile is Name + "Profile".
	Name string
	// PolicyName names the inline policy.
	PolicyName string
	Access     Access
	// Namespace is the parameter path prefix, e.g. /k3s/master.
	Namespace string
	// ManagedPolicies are AWS managed policy names without the arn prefix.
	ManagedPolicies []string
}

// Identity is a declared role with its instance profile.
type Identity struct {
	Role    Handle
	Profile Handle

	Access    Access
	Actions   []string
	Resource  string
	Namespace string
}

// NamespaceResource returns the parameter ARN pattern covering namespace.
func NamespaceResource(namespace string) string {
	return fmt.Sprintf("arn:aws:ssm:*:*:parameter%s/*", namespace)
}

// NewRole declares an EC2-assumable role allowed to use the shared namespace
// in one direction, and the instance profile carrying it.
func NewRole(stack *Stack, spec RoleSpec) (*Identity, error) {
	actions, ok := namespaceActions[spec.Access]
	if !ok {
		return nil, fmt.Errorf("role %s: unknown access %q", spec.Name, spec.Access)
	}

	id := &Identity{
		Access:    spec.Access,
		Actions:   append([]string(nil), actions...),
		Resource:  NamespaceResource(spec.Namespace),
		Namespace: spec.Namespace,
	}

	var managed []any
	for _, p := range spec.ManagedPolicies {
		managed = append(managed, intrinsics.Sub{String: "arn:${AWS::Partition}:iam::aws:policy/" + p})
	}

	var err error
	id.Role, err = stack.Add(spec.Name, &iam.Role{
		AssumeRolePolicyDocument: intrinsics.AssumeRolePolicy("ec2.amazonaws.com"),
		ManagedPolicyArns:        managed,
		Policies: []any{
			iam.Role_Policy{
				PolicyName:     spec.PolicyName,
				PolicyDocument: intrinsics.NewPolicyDocument(intrinsics.Allow(id.Actions, id.Resource)),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	id.Profile, err = stack.Add(spec.Name+"Profile", &iam.InstanceProfile{
		Roles: []any{id.Role.Ref()},
	})
	if err != nil {
		return nil, err
	}

	return id, nil
}
