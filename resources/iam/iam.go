// Package iam provides CloudFormation resource types for AWS IAM roles and
// instance profiles.
package iam

// Role represents AWS::IAM::Role.
type Role struct {
	RoleName                 any   `json:"RoleName,omitempty"`
	Description              any   `json:"Description,omitempty"`
	Path                     any   `json:"Path,omitempty"`
	AssumeRolePolicyDocument any   `json:"AssumeRolePolicyDocument,omitempty"`
	ManagedPolicyArns        []any `json:"ManagedPolicyArns,omitempty"`
	Policies                 []any `json:"Policies,omitempty"`
	Tags                     []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Role) ResourceType() string { return "AWS::IAM::Role" }

// Role_Policy is an inline policy embedded in a Role.
type Role_Policy struct {
	PolicyName     any `json:"PolicyName,omitempty"`
	PolicyDocument any `json:"PolicyDocument,omitempty"`
}

// InstanceProfile represents AWS::IAM::InstanceProfile.
type InstanceProfile struct {
	InstanceProfileName any   `json:"InstanceProfileName,omitempty"`
	Path                any   `json:"Path,omitempty"`
	Roles               []any `json:"Roles,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r InstanceProfile) ResourceType() string { return "AWS::IAM::InstanceProfile" }
