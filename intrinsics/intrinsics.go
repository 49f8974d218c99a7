// Package intrinsics provides CloudFormation intrinsic functions.
//
// This package re-exports the intrinsic types from cloudformation-schema-go
// and adds template parameters and IAM policy document types.
//
//	Ref{LogicalName: "Vpc"}                       → {"Ref": "Vpc"}
//	GetAtt{LogicalName: "Firewall", Attribute: "GroupId"}
//	Select{Index: 0, List: GetAZs{}}              → {"Fn::Select": [0, {"Fn::GetAZs": ""}]}
package intrinsics

import (
	"encoding/json"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Select represents a CloudFormation Fn::Select intrinsic function.
	Select = intrinsics.Select

	// GetAZs represents a CloudFormation Fn::GetAZs intrinsic function.
	GetAZs = intrinsics.GetAZs

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)

// Pseudo-parameters available in every template.
var (
	AWS_ACCOUNT_ID = intrinsics.AWS_ACCOUNT_ID
	AWS_PARTITION  = intrinsics.AWS_PARTITION
	AWS_REGION     = intrinsics.AWS_REGION
	AWS_STACK_NAME = intrinsics.AWS_STACK_NAME
	AWS_URL_SUFFIX = intrinsics.AWS_URL_SUFFIX
)

// Parameter defines a CloudFormation template parameter.
// When used as a property value, it serializes to {"Ref": "<name>"}.
//
//	var MachineImage = Parameter{
//	    Type:    "AWS::SSM::Parameter::Value<AWS::EC2::Image::Id>",
//	    Default: "/aws/service/ami-amazon-linux-latest/amzn2-ami-hvm-x86_64-gp2",
//	}
type Parameter struct {
	// Type is the CloudFormation parameter type
	Type string
	// Description is optional documentation for the parameter
	Description string
	// Default is the value used when none is supplied at deploy time
	Default any
	// AllowedValues restricts the parameter to specific values
	AllowedValues []any

	name string
}

// NewParameter returns a named parameter.
func NewParameter(name, typ string) Parameter {
	return Parameter{Type: typ, name: name}
}

// Name returns the parameter's logical name.
func (p Parameter) Name() string {
	return p.name
}

// MarshalJSON serializes Parameter as a Ref when used as a value.
func (p Parameter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Ref": p.name})
}

// Int returns a pointer to i, for optional integer fields where zero is meaningful.
func Int(i int) *int {
	return &i
}

// Bool returns a pointer to b, for optional boolean fields where false is meaningful.
func Bool(b bool) *bool {
	return &b
}
