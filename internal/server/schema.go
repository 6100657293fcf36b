package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"blog/internal/models"
)

// FieldType is the JSON type a procedure input field must carry.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	// TypeNumber accepts any JSON number and passes it through unchanged.
	TypeNumber FieldType = "number"
)

// Field describes one input field of a procedure.
type Field struct {
	Name      string    `json:"name" yaml:"name"`
	Type      FieldType `json:"type" yaml:"type"`
	Required  bool      `json:"required" yaml:"required"`
	MinLength int       `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength int       `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Positive  bool      `json:"positive,omitempty" yaml:"positive,omitempty"`
}

// Schema is the input contract of a procedure. A zero Schema takes no input.
type Schema struct {
	Fields []Field
}

// NoInput is the schema of procedures that ignore their input.
var NoInput = Schema{}

// Parse checks raw JSON against the schema and returns a normalized JSON
// object holding only the declared fields. Keys the schema does not declare
// are dropped.
func (s Schema) Parse(raw []byte) ([]byte, error) {
	if len(s.Fields) == 0 {
		return []byte("{}"), nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var input map[string]any
	if err := dec.Decode(&input); err != nil {
		return nil, models.NewValidationError("input must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, models.NewValidationError("input must be a single JSON object")
	}

	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		v, present := input[f.Name]
		if !present || v == nil {
			if f.Required {
				return nil, models.NewValidationError(fmt.Sprintf("%s: required", f.Name))
			}
			continue
		}
		normalized, err := f.check(v)
		if err != nil {
			return nil, err
		}
		out[f.Name] = normalized
	}

	return json.Marshal(out)
}

func (f Field) check(v any) (any, error) {
	switch f.Type {
	case TypeString:
		str, ok := v.(string)
		if !ok {
			return nil, models.NewValidationError(fmt.Sprintf("%s: expected string", f.Name))
		}
		n := utf8.RuneCountInString(str)
		if f.MinLength > 0 && n < f.MinLength {
			return nil, models.NewValidationError(fmt.Sprintf("%s: must contain at least %d character(s)", f.Name, f.MinLength))
		}
		if f.MaxLength > 0 && n > f.MaxLength {
			return nil, models.NewValidationError(fmt.Sprintf("%s: must contain at most %d character(s)", f.Name, f.MaxLength))
		}
		return str, nil

	case TypeNumber:
		num, ok := v.(json.Number)
		if !ok {
			return nil, models.NewValidationError(fmt.Sprintf("%s: expected number", f.Name))
		}
		if _, err := num.Float64(); err != nil {
			return nil, models.NewValidationError(fmt.Sprintf("%s: expected number", f.Name))
		}
		return num, nil

	case TypeInteger:
		num, ok := v.(json.Number)
		if !ok {
			return nil, models.NewValidationError(fmt.Sprintf("%s: expected number", f.Name))
		}
		i, err := num.Int64()
		if err != nil {
			fl, ferr := num.Float64()
			if ferr != nil || fl != math.Trunc(fl) || math.Abs(fl) > math.MaxInt32 {
				return nil, models.NewValidationError(fmt.Sprintf("%s: expected integer", f.Name))
			}
			i = int64(fl)
		}
		if f.Positive && i <= 0 {
			return nil, models.NewValidationError(fmt.Sprintf("%s: must be positive", f.Name))
		}
		if i > math.MaxUint32 || i < math.MinInt32 {
			return nil, models.NewValidationError(fmt.Sprintf("%s: out of range", f.Name))
		}
		return i, nil
	}

	return nil, models.NewValidationError(fmt.Sprintf("%s: unsupported field type", f.Name))
}
