package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectParsesEveryField(t *testing.T) {
	s := Object(
		F("a", Number()),
		F("b", String()),
	)

	v, err := s.Parse(map[string]any{"a": "1", "b": "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": "x"}, v)
}

func TestObjectCollectsAllIssues(t *testing.T) {
	s := Object(
		F("a", Number()),
		F("b", Number()),
	)

	_, err := s.Parse(map[string]any{"a": "x", "b": "y"})
	ve := validationErr(t, err)
	require.Len(t, ve.Issues, 2)
	assert.Equal(t, "a", ve.Issues[0].Path)
	assert.Equal(t, "b", ve.Issues[1].Path)
}

func TestObjectStrictRejectsUnknownKeys(t *testing.T) {
	s := Object(F("a", String()))

	_, err := s.Parse(map[string]any{"a": "x", "zz": 1, "bb": 2})
	ve := validationErr(t, err)
	require.Len(t, ve.Issues, 2)
	assert.Equal(t, "bb", ve.Issues[0].Path)
	assert.Equal(t, "zz", ve.Issues[1].Path)
	assert.Equal(t, "unknown key", ve.Issues[0].Message)
}

func TestObjectLooseAllowsUnknownKeys(t *testing.T) {
	s := Object(F("a", String())).Loose()

	v, err := s.Parse(map[string]any{"a": "x", "zz": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "x"}, v)
}

func TestObjectPartialMakesFieldsOptional(t *testing.T) {
	s := Object(
		F("a", Number()),
		F("b", String()),
	).Partial()

	v, err := s.Parse(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, v)
}

func TestObjectMissingRequiredField(t *testing.T) {
	s := Object(F("a", Number()))

	_, err := s.Parse(map[string]any{})
	ve := validationErr(t, err)
	require.Len(t, ve.Issues, 1)
	assert.Equal(t, "a", ve.Issues[0].Path)
	assert.Equal(t, "required", ve.Issues[0].Message)
}

func TestObjectOptionalFieldOmittedFromResult(t *testing.T) {
	s := Object(
		F("a", String()),
		F("b", Optional(Number())),
	)

	v, err := s.Parse(map[string]any{"a": "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "x"}, v)
}

func TestObjectNullableField(t *testing.T) {
	s := Object(F("name", Nullable(String())))

	v, err := s.Parse(map[string]any{"name": nil})
	require.NoError(t, err)
	m := v.(map[string]any)
	val, present := m["name"]
	assert.True(t, present)
	assert.Nil(t, val)
}

func TestObjectNestedPathPrefixing(t *testing.T) {
	s := Object(
		F("outer", Object(F("inner", Number()))),
	)

	_, err := s.Parse(map[string]any{"outer": map[string]any{"inner": "x"}})
	ve := validationErr(t, err)
	require.Len(t, ve.Issues, 1)
	assert.Equal(t, "outer.inner", ve.Issues[0].Path)
}

func TestObjectRejectsNonObject(t *testing.T) {
	s := Object(F("a", String()))

	_, err := s.Parse("nope")
	validationErr(t, err)
}
