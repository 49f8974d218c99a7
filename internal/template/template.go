// Package template builds CloudFormation templates from declared resources.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-k3s-go"
	"github.com/lex00/wetwire-k3s-go/internal/serialize"
	"github.com/lex00/wetwire-k3s-go/intrinsics"
)

// FormatVersion is the only CloudFormation template format version.
const FormatVersion = "2010-09-09"

// Builder constructs CloudFormation templates from declared resources.
type Builder struct {
	description string
	resources   map[string]wetwire.DiscoveredResource
	parameters  map[string]intrinsics.Parameter
	outputs     map[string]wetwire.Output
	values      map[string]any
}

// NewBuilder creates a template builder from declared resources.
func NewBuilder(resources map[string]wetwire.DiscoveredResource) *Builder {
	return &Builder{
		resources:  resources,
		parameters: make(map[string]intrinsics.Parameter),
		outputs:    make(map[string]wetwire.Output),
		values:     make(map[string]any),
	}
}

// SetDescription sets the template description.
func (b *Builder) SetDescription(description string) {
	b.description = description
}

// SetValue associates a resource value with its logical name.
func (b *Builder) SetValue(name string, value any) {
	b.values[name] = value
}

// SetParameter adds a template parameter under its own name.
func (b *Builder) SetParameter(p intrinsics.Parameter) {
	b.parameters[p.Name()] = p
}

// SetOutput adds a template output.
func (b *Builder) SetOutput(name string, out wetwire.Output) {
	b.outputs[name] = out
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*wetwire.Template, error) {
	order, err := b.Order()
	if err != nil {
		return nil, err
	}

	template := &wetwire.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]wetwire.ResourceDef, len(order)),
	}

	if len(b.parameters) > 0 {
		template.Parameters = make(map[string]wetwire.Parameter, len(b.parameters))
		for name, p := range b.parameters {
			param, err := serializeParameter(p)
			if err != nil {
				return nil, fmt.Errorf("serializing parameter %s: %w", name, err)
			}
			template.Parameters[name] = param
		}
	}

	for _, name := range order {
		res := b.resources[name]
		value, ok := b.values[name]
		if !ok {
			return nil, fmt.Errorf("no value set for resource %s", name)
		}

		resourceType := res.ResourceType
		if r, ok := value.(wetwire.Resource); ok {
			resourceType = r.ResourceType()
		}
		if resourceType == "" {
			return nil, fmt.Errorf("unknown resource type for %s (%s)", name, res.Type)
		}

		props, err := serialize.Properties(value)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}
		if err := b.checkReferences(name, props); err != nil {
			return nil, err
		}

		def := wetwire.ResourceDef{
			Type:       resourceType,
			Properties: props,
		}
		if len(res.DependsOn) > 0 {
			def.DependsOn = append([]string(nil), res.DependsOn...)
			sort.Strings(def.DependsOn)
		}
		template.Resources[name] = def
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]wetwire.Output, len(b.outputs))
		for name, out := range b.outputs {
			value, err := serialize.Value(out.Value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			if err := b.checkReferences("output "+name, value); err != nil {
				return nil, err
			}
			out.Value = value
			template.Outputs[name] = out
		}
	}

	return template, nil
}

// checkReferences rejects Ref and GetAtt targets that are not declared.
func (b *Builder) checkReferences(from string, value any) error {
	var errs []error
	for _, ref := range serialize.References(value) {
		if _, ok := b.resources[ref.Name]; ok {
			continue
		}
		if _, ok := b.parameters[ref.Name]; ok && ref.Attribute == "" {
			continue
		}
		errs = append(errs, fmt.Errorf("%s references undefined %s", from, ref.Name))
	}
	return errors.Join(errs...)
}

func serializeParameter(p intrinsics.Parameter) (wetwire.Parameter, error) {
	param := wetwire.Parameter{
		Type:          p.Type,
		Description:   p.Description,
		AllowedValues: p.AllowedValues,
	}
	if param.Type == "" {
		param.Type = "String"
	}
	if p.Default != nil {
		def, err := serialize.Value(p.Default)
		if err != nil {
			return wetwire.Parameter{}, err
		}
		param.Default = def
	}
	return param, nil
}

// Order returns resources in dependency order: every resource follows the
// resources it references. Ties are broken by name.
func (b *Builder) Order() ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range b.resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name := range b.resources {
		for _, dep := range b.dependencies(name) {
			graph[dep] = append(graph[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(b.resources) {
		return nil, b.detectCycle()
	}

	return result, nil
}

// dependencies returns the declared resources name depends on, by reference
// or explicit DependsOn, without duplicates.
func (b *Builder) dependencies(name string) []string {
	res := b.resources[name]
	seen := make(map[string]bool)
	var deps []string
	for _, group := range [][]string{res.Dependencies, res.DependsOn} {
		for _, dep := range group {
			if _, exists := b.resources[dep]; !exists || seen[dep] {
				continue
			}
			seen[dep] = true
			deps = append(deps, dep)
		}
	}
	return deps
}

// detectCycle finds and reports a cycle in the dependency graph.
func (b *Builder) detectCycle() error {
	visited := make(map[string]bool)
	path := make(map[string]bool)

	names := make([]string, 0, len(b.resources))
	for name := range b.resources {
		names = append(names, name)
	}
	sort.Strings(names)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		path[node] = true

		for _, dep := range b.dependencies(node) {
			if !visited[dep] {
				if findCycle(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if path[dep] {
				cycle = append([]string{dep, node}, cycle...)
				return true
			}
		}

		path[node] = false
		return false
	}

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) == 0 {
		return errors.New("circular dependency detected")
	}

	msg := "circular dependency detected:\n"
	for i, name := range cycle {
		res := b.resources[name]
		msg += fmt.Sprintf("  %s (%s:%d)", name, res.File, res.Line)
		if i < len(cycle)-1 {
			msg += "\n    → "
		}
	}
	return errors.New(msg)
}

// ToJSON serializes the template to JSON.
func ToJSON(t *wetwire.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *wetwire.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

// Encode serializes the template in the named format, json or yaml.
func Encode(t *wetwire.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return ToJSON(t)
	case "yaml":
		return ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
