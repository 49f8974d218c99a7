// Package k3s declares the AWS infrastructure for a k3s cluster: a public VPC,
// control-plane and worker identities, a shared firewall, one launch template
// per role and an autoscaling pool of workers.
//
// Components are registered on a Stack in dependency order. Each component
// embeds references to the components declared before it:
//
//	stack := k3s.NewStack(cfg.Description)
//	cluster, err := k3s.Declare(stack, cfg)
//	tmpl, err := stack.Template()
package k3s

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"

	wetwire "github.com/lex00/wetwire-k3s-go"
	"github.com/lex00/wetwire-k3s-go/internal/serialize"
	"github.com/lex00/wetwire-k3s-go/internal/template"
	"github.com/lex00/wetwire-k3s-go/intrinsics"
)

var (
	// ErrDuplicateResource is returned when a logical name is registered twice.
	ErrDuplicateResource = errors.New("duplicate resource")

	// ErrUserDataMissing is returned when a boot script cannot be read.
	ErrUserDataMissing = errors.New("userdata file missing or empty")
)

// Handle names a registered resource.
type Handle struct {
	name string
}

// Name returns the logical ID.
func (h Handle) Name() string {
	return h.name
}

// Ref returns {"Ref": name}.
func (h Handle) Ref() intrinsics.Ref {
	return intrinsics.Ref{LogicalName: h.name}
}

// Attr returns {"Fn::GetAtt": [name, attr]}.
func (h Handle) Attr(attr string) intrinsics.GetAtt {
	return intrinsics.GetAtt{LogicalName: h.name, Attribute: attr}
}

type entry struct {
	value     wetwire.Resource
	dependsOn []string
	file      string
	line      int
}

// Stack is an ordered registry of resources, parameters and outputs.
type Stack struct {
	description string
	names       []string
	entries     map[string]entry
	parameters  map[string]intrinsics.Parameter
	outputs     map[string]wetwire.Output
}

// NewStack returns an empty stack.
func NewStack(description string) *Stack {
	return &Stack{
		description: description,
		entries:     make(map[string]entry),
		parameters:  make(map[string]intrinsics.Parameter),
		outputs:     make(map[string]wetwire.Output),
	}
}

// Description returns the template description.
func (s *Stack) Description() string {
	return s.description
}

// Add registers r under name. dependsOn adds ordering dependencies that are
// not expressed through a Ref or GetAtt.
func (s *Stack) Add(name string, r wetwire.Resource, dependsOn ...Handle) (Handle, error) {
	if name == "" {
		return Handle{}, fmt.Errorf("resource of type %s has no logical name", r.ResourceType())
	}
	if _, exists := s.entries[name]; exists {
		return Handle{}, fmt.Errorf("%w: %s", ErrDuplicateResource, name)
	}
	if _, exists := s.parameters[name]; exists {
		return Handle{}, fmt.Errorf("%w: %s is a parameter", ErrDuplicateResource, name)
	}

	e := entry{value: r}
	for _, h := range dependsOn {
		e.dependsOn = append(e.dependsOn, h.name)
	}
	// Callers are the component constructors; skip Add itself.
	if _, file, line, ok := runtime.Caller(1); ok {
		e.file, e.line = file, line
	}

	s.entries[name] = e
	s.names = append(s.names, name)
	return Handle{name: name}, nil
}

// AddParameter registers a template parameter under p.Name().
func (s *Stack) AddParameter(p intrinsics.Parameter) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("parameter has no name")
	}
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("%w: %s is a resource", ErrDuplicateResource, name)
	}
	if _, exists := s.parameters[name]; exists {
		return fmt.Errorf("%w: parameter %s", ErrDuplicateResource, name)
	}
	s.parameters[name] = p
	return nil
}

// AddOutput registers a template output.
func (s *Stack) AddOutput(name, description string, value any) {
	s.outputs[name] = wetwire.Output{Description: description, Value: value}
}

// Names returns logical IDs in registration order.
func (s *Stack) Names() []string {
	return append([]string(nil), s.names...)
}

// Resource returns the value registered under name.
func (s *Stack) Resource(name string) (wetwire.Resource, bool) {
	e, ok := s.entries[name]
	return e.value, ok
}

// Source returns the file and line that registered name.
func (s *Stack) Source(name string) (string, int, bool) {
	e, ok := s.entries[name]
	if !ok || e.file == "" {
		return "", 0, false
	}
	return e.file, e.line, true
}

// Parameters returns the registered parameters keyed by name.
func (s *Stack) Parameters() map[string]intrinsics.Parameter {
	out := make(map[string]intrinsics.Parameter, len(s.parameters))
	for k, v := range s.parameters {
		out[k] = v
	}
	return out
}

// Discover describes every registered resource with the references it makes.
func (s *Stack) Discover() (map[string]wetwire.DiscoveredResource, error) {
	result := make(map[string]wetwire.DiscoveredResource, len(s.entries))
	for _, name := range s.names {
		e := s.entries[name]

		props, err := serialize.Properties(e.value)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}

		t := reflect.TypeOf(e.value)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}

		res := wetwire.DiscoveredResource{
			Name:         name,
			Type:         filepath.Base(t.PkgPath()) + "." + t.Name(),
			ResourceType: e.value.ResourceType(),
			Package:      t.PkgPath(),
			File:         e.file,
			Line:         e.line,
			DependsOn:    append([]string(nil), e.dependsOn...),
		}

		seen := make(map[string]bool)
		for _, ref := range serialize.References(props) {
			if !seen[ref.Name] {
				seen[ref.Name] = true
				res.Dependencies = append(res.Dependencies, ref.Name)
			}
			if ref.Attribute != "" {
				res.AttrRefUsages = append(res.AttrRefUsages, wetwire.AttrRefUsage{
					ResourceName: ref.Name,
					Attribute:    ref.Attribute,
				})
			}
		}
		sort.Strings(res.Dependencies)

		result[name] = res
	}
	return result, nil
}

// Template synthesizes the CloudFormation template.
func (s *Stack) Template() (*wetwire.Template, error) {
	resources, err := s.Discover()
	if err != nil {
		return nil, err
	}

	builder := template.NewBuilder(resources)
	builder.SetDescription(s.description)
	for name, e := range s.entries {
		builder.SetValue(name, e.value)
	}
	for _, p := range s.parameters {
		builder.SetParameter(p)
	}
	for name, out := range s.outputs {
		builder.SetOutput(name, out)
	}
	return builder.Build()
}
