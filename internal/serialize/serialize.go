// Package serialize converts typed resource values into CloudFormation
// property maps and inspects the references they carry.
package serialize

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// Resource serializes a Go struct to CloudFormation resource properties.
// Zero values are omitted, json tags name the properties, and values that
// implement json.Marshaler (intrinsics, parameters) serialize themselves.
func Resource(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, nil
	}

	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}

		if isZeroValue(fieldVal) {
			continue
		}

		serialized, err := serializeValue(fieldVal)
		if err != nil {
			return nil, err
		}

		if serialized != nil {
			result[name] = serialized
		}
	}

	return result, nil
}

// Properties serializes v and normalizes the result through JSON so numbers
// are float64 and nested values are plain maps and slices, the same shape a
// template loaded from disk has.
func Properties(v any) (map[string]any, error) {
	props, err := Resource(v)
	if err != nil || props == nil {
		return props, err
	}
	var normalized map[string]any
	if err := roundTrip(props, &normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// Value normalizes an arbitrary value (an output value, a parameter default)
// through JSON.
func Value(v any) (any, error) {
	var out any
	if err := roundTrip(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Reference is a Ref or Fn::GetAtt found in a serialized value.
type Reference struct {
	Name string
	// Attribute is empty for Ref.
	Attribute string
}

// References walks a normalized value and returns every Ref and Fn::GetAtt
// target, sorted and de-duplicated. Pseudo-parameters (AWS::*) are skipped.
func References(v any) []Reference {
	seen := make(map[Reference]bool)
	collectReferences(v, seen)

	refs := make([]Reference, 0, len(seen))
	for r := range seen {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name < refs[j].Name
		}
		return refs[i].Attribute < refs[j].Attribute
	})
	return refs
}

func collectReferences(v any, seen map[Reference]bool) {
	switch val := v.(type) {
	case map[string]any:
		if name, ok := val["Ref"].(string); ok && len(val) == 1 {
			if !strings.HasPrefix(name, "AWS::") {
				seen[Reference{Name: name}] = true
			}
			return
		}
		if args, ok := val["Fn::GetAtt"].([]any); ok && len(val) == 1 && len(args) == 2 {
			name, _ := args[0].(string)
			attr, _ := args[1].(string)
			if name != "" {
				seen[Reference{Name: name, Attribute: attr}] = true
			}
			return
		}
		for _, child := range val {
			collectReferences(child, seen)
		}
	case []any:
		for _, child := range val {
			collectReferences(child, seen)
		}
	}
}

// fieldName returns the JSON field name for a struct field.
func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

// isZeroValue returns true if the value is the zero value for its type.
// Pointers are only zero when nil, so *int(0) and *bool(false) survive.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if v.CanInterface() {
			if zeroer, ok := v.Interface().(interface{ IsZero() bool }); ok {
				return zeroer.IsZero()
			}
		}
		return false
	default:
		return false
	}
}

// serializeValue converts a reflect.Value to a JSON-compatible value.
func serializeValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		// Marshalers with pointer receivers are checked before unwrapping.
		if m, ok := v.Interface().(json.Marshaler); ok && v.Kind() == reflect.Ptr {
			return marshalValue(m)
		}
		return serializeValue(v.Elem())
	}

	if v.CanInterface() {
		if m, ok := v.Interface().(json.Marshaler); ok {
			return marshalValue(m)
		}
	}

	switch v.Kind() {
	case reflect.Struct:
		return Resource(v.Interface())

	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := serializeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			result[i] = elem
		}
		return result, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make(map[string]any)
		iter := v.MapRange()
		for iter.Next() {
			val, err := serializeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			result[iter.Key().String()] = val
		}
		return result, nil

	case reflect.String:
		return v.String(), nil

	case reflect.Bool:
		return v.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	default:
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, err
		}
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, err
		}
		return result, nil
	}
}

func marshalValue(m json.Marshaler) (any, error) {
	data, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}
