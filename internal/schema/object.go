package schema

import (
	"fmt"
	"sort"

	"github.com/usherbot/usher/pkg/errors"
)

// Field pairs a name with its schema. Object fields are ordered, which lets
// callers enforce required-before-optional contracts at registration time.
type Field struct {
	Name   string
	Schema Schema
}

func F(name string, s Schema) Field {
	return Field{Name: name, Schema: s}
}

// ObjectSchema validates a map field by field. Every field is evaluated
// independently so the resulting error enumerates all failures, not just the
// first. Unknown keys are rejected unless the schema is Loose.
type ObjectSchema struct {
	fields []Field
	loose  bool
}

func Object(fields ...Field) *ObjectSchema {
	return &ObjectSchema{fields: fields}
}

func (s *ObjectSchema) Kind() Kind { return KindObject }

// Fields returns the declared fields in order.
func (s *ObjectSchema) Fields() []Field {
	return s.fields
}

// Loose returns a copy that ignores unknown keys.
func (s *ObjectSchema) Loose() *ObjectSchema {
	return &ObjectSchema{fields: s.fields, loose: true}
}

// Partial returns a copy with every field optional.
func (s *ObjectSchema) Partial() *ObjectSchema {
	fields := make([]Field, len(s.fields))
	for i, f := range s.fields {
		if TraitsOf(f.Schema).Optional {
			fields[i] = f
			continue
		}
		fields[i] = Field{Name: f.Name, Schema: Optional(f.Schema)}
	}
	return &ObjectSchema{fields: fields, loose: s.loose}
}

func (s *ObjectSchema) Parse(input any) (any, error) {
	if input == Undefined {
		return nil, fail("", "required")
	}
	m, ok := input.(map[string]any)
	if !ok {
		return nil, fail("", fmt.Sprintf("expected object, got %T", input))
	}

	out := make(map[string]any, len(s.fields))
	var issues []errors.Issue

	for _, f := range s.fields {
		v, present := m[f.Name]
		if !present {
			v = Undefined
		}
		parsed, err := f.Schema.Parse(v)
		if err != nil {
			issues = append(issues, prefixed(f.Name, err)...)
			continue
		}
		if parsed != Undefined {
			out[f.Name] = parsed
		}
	}

	if !s.loose {
		known := make(map[string]bool, len(s.fields))
		for _, f := range s.fields {
			known[f.Name] = true
		}
		var unknown []string
		for key := range m {
			if !known[key] {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			issues = append(issues, errors.Issue{Message: "unknown key", Path: key})
		}
	}

	if len(issues) > 0 {
		return nil, errors.NewValidationError(issues)
	}
	return out, nil
}
