package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type (
	Field struct {
		Name string    `json:"name"`
		Type FieldType `json:"fieldType"`
	}

	// Schema is an ordered list of uniquely named fields. The order is fixed when
	// the schema is built and never changes afterwards.
	Schema struct {
		fields []Field
		index  map[string]int
	}
)

var (
	ErrEmptyFieldName     = errors.New("empty field name")
	ErrDuplicateFieldName = errors.New("duplicate field name")
)

func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d: %w", i, ErrEmptyFieldName)
		}
		if _, exists := s.index[f.Name]; exists {
			return nil, fmt.Errorf("field %q: %w", f.Name, ErrDuplicateFieldName)
		}
		s.fields[i] = f
		s.index[f.Name] = i
	}
	return s, nil
}

// MustNewSchema is NewSchema for literal schemas in tests and fixtures.
func MustNewSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Len() int {
	return len(s.fields)
}

func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Fields returns a copy of the fields in schema order.
func (s *Schema) Fields() []Field {
	fields := make([]Field, len(s.fields))
	copy(fields, s.fields)
	return fields
}

func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// IndexOf returns the position of the named field, or -1.
func (s *Schema) IndexOf(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

func (s *Schema) FieldByName(name string) (Field, bool) {
	i := s.IndexOf(name)
	if i < 0 {
		return Field{}, false
	}
	return s.fields[i], true
}

// Equals compares names, order and types.
func (s *Schema) Equals(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.fields) != len(other.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i].Name != other.fields[i].Name || !s.fields[i].Type.Equals(other.fields[i].Type) {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	if s == nil {
		return "<>"
	}
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.Name + " " + f.Type.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Fields []Field `json:"fields"`
	}{Fields: s.fields})
}

func (s *Schema) UnmarshalJSON(b []byte) error {
	var raw struct {
		Fields []Field `json:"fields"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	decoded, err := NewSchema(raw.Fields...)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}
