// Package schema checks a synthesized template against the CloudFormation
// resource schemas of the types a k3s stack uses, without calling AWS.
package schema

import (
	"fmt"
	"regexp"
	"slices"
	"sort"

	wetwire "github.com/lex00/wetwire-k3s-go"
)

// Options configures schema validation.
type Options struct {
	// Strict also warns about properties the schema does not list.
	Strict bool
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []wetwire.SchemaError
	Warnings []wetwire.SchemaError
}

// ResourceSchema lists the properties of one resource type.
type ResourceSchema struct {
	Properties map[string]PropertySchema
}

// PropertySchema describes one property.
type PropertySchema struct {
	// Type is String, Integer, Boolean, List, Map or Json.
	Type          string
	Required      bool
	AllowedValues []string
}

var resourceTypePattern = regexp.MustCompile(`^(AWS::[A-Za-z0-9]+::[A-Za-z0-9]+|Custom::[A-Za-z0-9_@-]+)$`)

type checker struct {
	opts   Options
	tmpl   *wetwire.Template
	result *Result
}

// ValidateTemplate checks every resource in template. Unknown resource types
// are warnings; the stack may use types this table does not cover.
func ValidateTemplate(template *wetwire.Template, opts Options) (*Result, error) {
	if template == nil {
		return nil, fmt.Errorf("nil template")
	}

	c := &checker{opts: opts, tmpl: template, result: &Result{}}
	if len(template.Resources) == 0 {
		c.errorf("", "Resources", "template declares no resources")
	}

	names := make([]string, 0, len(template.Resources))
	for name := range template.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.resource(name, template.Resources[name])
	}

	c.result.Valid = len(c.result.Errors) == 0
	return c.result, nil
}

func (c *checker) errorf(resource, property, format string, args ...any) {
	c.result.Errors = append(c.result.Errors, wetwire.SchemaError{
		Resource: resource,
		Property: property,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) warnf(resource, property, format string, args ...any) {
	c.result.Warnings = append(c.result.Warnings, wetwire.SchemaError{
		Resource: resource,
		Property: property,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) resource(name string, res wetwire.ResourceDef) {
	for _, dep := range res.DependsOn {
		if _, ok := c.tmpl.Resources[dep]; !ok {
			c.errorf(name, "DependsOn", "depends on undefined resource %s", dep)
		}
	}

	if !resourceTypePattern.MatchString(res.Type) {
		c.errorf(name, "Type", "invalid resource type format: %s", res.Type)
		return
	}

	rs, ok := resourceSchemas[res.Type]
	if !ok {
		c.warnf(name, "Type", "unknown resource type: %s (schema not available for validation)", res.Type)
		return
	}

	props := make([]string, 0, len(rs.Properties))
	for prop := range rs.Properties {
		props = append(props, prop)
	}
	sort.Strings(props)
	for _, prop := range props {
		if _, set := res.Properties[prop]; rs.Properties[prop].Required && !set {
			c.errorf(name, prop, "missing required property: %s", prop)
		}
	}

	set := make([]string, 0, len(res.Properties))
	for prop := range res.Properties {
		set = append(set, prop)
	}
	sort.Strings(set)
	for _, prop := range set {
		ps, known := rs.Properties[prop]
		if !known {
			if c.opts.Strict {
				c.warnf(name, prop, "unknown property: %s", prop)
			}
			continue
		}
		if msg := ps.check(res.Properties[prop]); msg != "" {
			c.errorf(name, prop, "%s", msg)
		}
	}
}

// check returns a description of what is wrong with value, or "".
func (p PropertySchema) check(value any) string {
	if isIntrinsic(value) {
		return ""
	}
	if !matchesType(value, p.Type) {
		return fmt.Sprintf("expected type %s", p.Type)
	}
	if s, ok := value.(string); ok && len(p.AllowedValues) > 0 && !slices.Contains(p.AllowedValues, s) {
		return fmt.Sprintf("value %q not in allowed values: %v", s, p.AllowedValues)
	}
	return ""
}

// isIntrinsic reports whether value is a Ref or Fn:: call, resolved only at
// deploy time.
func isIntrinsic(value any) bool {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	for key := range m {
		return key == "Ref" || (len(key) > 4 && key[:4] == "Fn::")
	}
	return false
}

func matchesType(value any, typ string) bool {
	if isIntrinsic(value) {
		return true
	}
	switch typ {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	}
	// Json and types without a check.
	return true
}
