// Package schema is a minimal runtime validator for command parameters.
// Every node exposes Parse, which returns the typed value or a
// *errors.ValidationError carrying one issue per failing field. Wrapper
// variants (Optional, Nullable, Default, Refine) compose around an inner
// schema instead of subclassing it.
package schema

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/usherbot/usher/pkg/errors"
)

type Kind string

const (
	KindNumber   Kind = "number"
	KindString   Kind = "string"
	KindBoolean  Kind = "boolean"
	KindLiteral  Kind = "literal"
	KindObject   Kind = "object"
	KindArray    Kind = "array"
	KindUnion    Kind = "union"
	KindOptional Kind = "optional"
	KindNullable Kind = "nullable"
	KindDefault  Kind = "default"
	KindRefine   Kind = "refine"
)

// Undefined marks an absent input value. A missing object key is undefined;
// an explicit nil is null. Optional and Default react to Undefined, Nullable
// reacts to nil.
var Undefined = undefined{}

type undefined struct{}

type Schema interface {
	Parse(input any) (any, error)
	Kind() Kind
}

func fail(path, msg string) error {
	return errors.NewValidationError([]errors.Issue{{Message: msg, Path: path}})
}

func prefixed(seg string, err error) []errors.Issue {
	if ve, ok := err.(*errors.ValidationError); ok {
		out := make([]errors.Issue, len(ve.Issues))
		for i, issue := range ve.Issues {
			path := seg
			if issue.Path != "" {
				path = seg + "." + issue.Path
			}
			out[i] = errors.Issue{Message: issue.Message, Path: path}
		}
		return out
	}
	return []errors.Issue{{Message: err.Error(), Path: seg}}
}

// NumberSchema coerces numeric input, including numeric strings, to float64.
type NumberSchema struct{}

func Number() *NumberSchema { return &NumberSchema{} }

func (s *NumberSchema) Kind() Kind { return KindNumber }

func (s *NumberSchema) Parse(input any) (any, error) {
	switch v := input.(type) {
	case undefined:
		return nil, fail("", "required")
	case nil:
		return nil, fail("", "expected number, got null")
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) {
			return nil, fail("", fmt.Sprintf("expected number, got %q", v))
		}
		return n, nil
	default:
		return nil, fail("", fmt.Sprintf("expected number, got %T", input))
	}
}

// StringSchema validates strings with optional length bounds.
type StringSchema struct {
	minLen, maxLen int
	hasMin, hasMax bool
}

func String() *StringSchema { return &StringSchema{} }

func (s *StringSchema) Min(n int) *StringSchema {
	s.minLen, s.hasMin = n, true
	return s
}

func (s *StringSchema) Max(n int) *StringSchema {
	s.maxLen, s.hasMax = n, true
	return s
}

func (s *StringSchema) Kind() Kind { return KindString }

func (s *StringSchema) Parse(input any) (any, error) {
	if input == Undefined {
		return nil, fail("", "required")
	}
	v, ok := input.(string)
	if !ok {
		return nil, fail("", fmt.Sprintf("expected string, got %T", input))
	}
	if s.hasMin && len(v) < s.minLen {
		return nil, fail("", fmt.Sprintf("string must be at least %d characters", s.minLen))
	}
	if s.hasMax && len(v) > s.maxLen {
		return nil, fail("", fmt.Sprintf("string must be at most %d characters", s.maxLen))
	}
	return v, nil
}

type BooleanSchema struct{}

func Boolean() *BooleanSchema { return &BooleanSchema{} }

func (s *BooleanSchema) Kind() Kind { return KindBoolean }

func (s *BooleanSchema) Parse(input any) (any, error) {
	if input == Undefined {
		return nil, fail("", "required")
	}
	v, ok := input.(bool)
	if !ok {
		return nil, fail("", fmt.Sprintf("expected boolean, got %T", input))
	}
	return v, nil
}

// LiteralSchema accepts exactly one value.
type LiteralSchema struct {
	Value any
}

func Literal(v any) *LiteralSchema { return &LiteralSchema{Value: v} }

func (s *LiteralSchema) Kind() Kind { return KindLiteral }

func (s *LiteralSchema) Parse(input any) (any, error) {
	if input == Undefined {
		return nil, fail("", "required")
	}
	if !reflect.DeepEqual(input, s.Value) {
		return nil, fail("", fmt.Sprintf("expected literal %v", s.Value))
	}
	return input, nil
}

// ArraySchema validates every element, collecting all issues.
type ArraySchema struct {
	Elem Schema
}

func Array(elem Schema) *ArraySchema { return &ArraySchema{Elem: elem} }

func (s *ArraySchema) Kind() Kind { return KindArray }

func (s *ArraySchema) Parse(input any) (any, error) {
	if input == Undefined {
		return nil, fail("", "required")
	}
	items, ok := input.([]any)
	if !ok {
		return nil, fail("", fmt.Sprintf("expected array, got %T", input))
	}
	out := make([]any, 0, len(items))
	var issues []errors.Issue
	for i, item := range items {
		v, err := s.Elem.Parse(item)
		if err != nil {
			issues = append(issues, prefixed(strconv.Itoa(i), err)...)
			continue
		}
		out = append(out, v)
	}
	if len(issues) > 0 {
		return nil, errors.NewValidationError(issues)
	}
	return out, nil
}

// UnionSchema tries each variant in order and returns the first success.
type UnionSchema struct {
	Variants []Schema
}

func Union(variants ...Schema) *UnionSchema { return &UnionSchema{Variants: variants} }

func (s *UnionSchema) Kind() Kind { return KindUnion }

func (s *UnionSchema) Parse(input any) (any, error) {
	var issues []errors.Issue
	for _, variant := range s.Variants {
		v, err := variant.Parse(input)
		if err == nil {
			return v, nil
		}
		if ve, ok := err.(*errors.ValidationError); ok {
			issues = append(issues, ve.Issues...)
		} else {
			issues = append(issues, errors.Issue{Message: err.Error()})
		}
	}
	issues = append(issues, errors.Issue{Message: "no union variant matched"})
	return nil, errors.NewValidationError(issues)
}

// OptionalSchema returns Undefined without consulting the inner schema when
// the input is absent.
type OptionalSchema struct {
	Inner Schema
}

func Optional(inner Schema) *OptionalSchema { return &OptionalSchema{Inner: inner} }

func (s *OptionalSchema) Kind() Kind { return KindOptional }

func (s *OptionalSchema) Parse(input any) (any, error) {
	if input == Undefined {
		return Undefined, nil
	}
	return s.Inner.Parse(input)
}

// NullableSchema passes nil through without consulting the inner schema.
type NullableSchema struct {
	Inner Schema
}

func Nullable(inner Schema) *NullableSchema { return &NullableSchema{Inner: inner} }

func (s *NullableSchema) Kind() Kind { return KindNullable }

func (s *NullableSchema) Parse(input any) (any, error) {
	if input == nil {
		return nil, nil
	}
	return s.Inner.Parse(input)
}

// DefaultSchema substitutes a value when the input is absent.
type DefaultSchema struct {
	Inner Schema
	Value any
}

func Default(inner Schema, value any) *DefaultSchema {
	return &DefaultSchema{Inner: inner, Value: value}
}

func (s *DefaultSchema) Kind() Kind { return KindDefault }

func (s *DefaultSchema) Parse(input any) (any, error) {
	if input == Undefined {
		return s.Value, nil
	}
	return s.Inner.Parse(input)
}

// RefineSchema runs the inner schema, then a predicate on its result.
type RefineSchema struct {
	Inner   Schema
	Check   func(any) bool
	Message string
}

func Refine(inner Schema, check func(any) bool, message string) *RefineSchema {
	return &RefineSchema{Inner: inner, Check: check, Message: message}
}

func (s *RefineSchema) Kind() Kind { return KindRefine }

func (s *RefineSchema) Parse(input any) (any, error) {
	v, err := s.Inner.Parse(input)
	if err != nil {
		return nil, err
	}
	if !s.Check(v) {
		return nil, fail("", s.Message)
	}
	return v, nil
}

// Traits summarizes the wrapper chain around a schema. A field is required
// when none of the three flags are set.
type Traits struct {
	Optional   bool
	Nullable   bool
	HasDefault bool
	Default    any
}

func (t Traits) Required() bool {
	return !t.Optional && !t.Nullable && !t.HasDefault
}

// TraitsOf walks the wrapper chain without parsing anything.
func TraitsOf(s Schema) Traits {
	var t Traits
	for {
		switch v := s.(type) {
		case *OptionalSchema:
			t.Optional = true
			s = v.Inner
		case *NullableSchema:
			t.Nullable = true
			s = v.Inner
		case *DefaultSchema:
			t.HasDefault = true
			t.Default = v.Value
			s = v.Inner
		case *RefineSchema:
			s = v.Inner
		default:
			return t
		}
	}
}
