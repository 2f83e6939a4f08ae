package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var schemaSeq atomic.Int64

// Schema describes the shape of the input an action needs from a player.
type Schema struct {
	source   string
	compiled *jsonschema.Schema
}

// CompileSchema compiles a JSON Schema document.
func CompileSchema(source string) (*Schema, error) {
	url := fmt.Sprintf("mem://action/%d.json", schemaSeq.Add(1))
	compiled, err := jsonschema.CompileString(url, source)
	if err != nil {
		return nil, fmt.Errorf("compile input schema: %w", err)
	}
	return &Schema{source: source, compiled: compiled}, nil
}

// MustSchema is CompileSchema for static schema literals.
func MustSchema(source string) *Schema {
	s, err := CompileSchema(source)
	if err != nil {
		panic(err)
	}
	return s
}

// Source returns the schema document.
func (s *Schema) Source() string {
	return s.source
}

// MarshalJSON emits the schema document itself.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return []byte(s.source), nil
}

// Validate checks an input against the schema.
func (s *Schema) Validate(in Input) error {
	if err := s.compiled.Validate(in.value); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return nil
}

// Input is player-provided data in its JSON form.
type Input struct {
	raw   json.RawMessage
	value any
}

// NewInput normalizes any JSON-encodable value into an Input.
func NewInput(v any) (Input, error) {
	if in, ok := v.(Input); ok {
		return in, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return Input{}, fmt.Errorf("%w: input is not JSON encodable: %v", ErrValidationFailed, err)
	}
	return ParseInput(raw)
}

// ParseInput wraps raw JSON.
func ParseInput(raw []byte) (Input, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return Input{raw: append(json.RawMessage(nil), raw...), value: value}, nil
}

// Decode unmarshals the input into v.
func (in Input) Decode(v any) error {
	if len(in.raw) == 0 {
		return fmt.Errorf("%w: no input", ErrValidationFailed)
	}
	if err := json.Unmarshal(in.raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return nil
}

// Empty reports whether no input was supplied.
func (in Input) Empty() bool {
	return len(in.raw) == 0
}

// Value returns the generic JSON value.
func (in Input) Value() any {
	return in.value
}

func (in Input) MarshalJSON() ([]byte, error) {
	if len(in.raw) == 0 {
		return []byte("null"), nil
	}
	return in.raw, nil
}
