// Package wetwire_k3s declares the AWS infrastructure that hosts a k3s cluster
// and renders it as a CloudFormation template.
//
// Resources are typed Go values registered on a k3s.Stack:
//
//	stack := k3s.NewStack("k3s cluster")
//	vpc, _ := stack.Add("Vpc", ec2.VPC{CidrBlock: "10.0.0.0/22"})
//	stack.Add("Subnet", ec2.Subnet{VpcId: vpc.Ref()})
//
// The wetwire-k3s CLI synthesizes the declared stack into CloudFormation JSON or
// YAML, lints it, and deploys it.
package wetwire_k3s

// Resource represents a CloudFormation resource.
// All resource types (ec2.VPC, iam.Role, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::EC2::VPC")
	ResourceType() string
}

// AttrRefUsage records a GetAtt reference from one resource to another.
type AttrRefUsage struct {
	ResourceName string
	Attribute    string
}

// DiscoveredResource describes a resource registered on a stack.
type DiscoveredResource struct {
	// Name is the CloudFormation logical ID
	Name string
	// Type is the Go type (e.g., "ec2.VPC", "iam.Role")
	Type string
	// ResourceType is the CloudFormation type (e.g., "AWS::EC2::VPC")
	ResourceType string
	// Package is the full package path of the Go type
	Package string
	// File is the source file that registered the resource
	File string
	// Line is the line number of the registration
	Line int
	// Dependencies are logical names of referenced resources and parameters
	Dependencies []string
	// DependsOn are explicit ordering dependencies with no value reference
	DependsOn []string
	// AttrRefUsages are the GetAtt references made by this resource
	AttrRefUsages []AttrRefUsage
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type          string `json:"Type" yaml:"Type"`
	Description   string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default       any    `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues []any  `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string        `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any           `json:"Value" yaml:"Value"`
	Export      *OutputExport `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// OutputExport names a cross-stack export.
type OutputExport struct {
	Name any `json:"Name" yaml:"Name"`
}

// LintResult is the JSON output from `wetwire-k3s lint`.
type LintResult struct {
	Success bool        `json:"success"`
	Issues  []LintIssue `json:"issues,omitempty"`
}

// LintIssue is a single linting issue.
type LintIssue struct {
	Resource string `json:"resource,omitempty"`
	Path     string `json:"path,omitempty"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Rule     string `json:"rule"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// ValidateResult is the JSON output from `wetwire-k3s validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `wetwire-k3s list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Name string `json:"name"`
	Type string `json:"type"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// SchemaError is a single offline schema violation.
type SchemaError struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

// DiffEntry describes one changed resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// TemplateDiff groups resource changes between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
	// Sections lists changes outside Resources (Parameters, Outputs, Description)
	Sections []string `json:"sections,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}
