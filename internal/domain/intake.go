package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// RawIntake is the shape a micronutrient amount arrives in. The concrete
// types are NumberIntake, TextIntake, ValueUnitIntake and InvalidIntake.
type RawIntake interface {
	isRawIntake()
}

// NumberIntake is a bare number whose unit is implied by context
type NumberIntake float64

// TextIntake is a numeric string whose unit is implied by context
type TextIntake string

// ValueUnitIntake is an explicit amount. Unit is empty when the payload had none.
type ValueUnitIntake struct {
	Value float64
	Unit  Unit
}

// InvalidIntake holds a payload that matched none of the accepted shapes
type InvalidIntake struct {
	Raw string
}

func (NumberIntake) isRawIntake()    {}
func (TextIntake) isRawIntake()      {}
func (ValueUnitIntake) isRawIntake() {}
func (InvalidIntake) isRawIntake()   {}

// DecodeRawIntake classifies one JSON micronutrient value. It only fails on
// syntactically broken JSON; unexpected shapes become InvalidIntake.
func DecodeRawIntake(data []byte) (RawIntake, error) {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode intake: %w", err)
	}

	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return InvalidIntake{Raw: string(data)}, nil
		}
		return NumberIntake(f), nil
	case string:
		return TextIntake(v), nil
	case map[string]interface{}:
		value, ok := v["value"]
		if !ok {
			return InvalidIntake{Raw: string(data)}, nil
		}
		intake := ValueUnitIntake{Value: coerceIntakeValue(value)}
		if unit, ok := v["unit"].(string); ok {
			intake.Unit = NormalizeUnit(unit)
		}
		return intake, nil
	default:
		return InvalidIntake{Raw: string(data)}, nil
	}
}

func coerceIntakeValue(value interface{}) float64 {
	if n, ok := value.(json.Number); ok {
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	}
	return coerceNumber(value)
}

// MarshalIntake renders an intake back to its wire shape
func MarshalIntake(in RawIntake) ([]byte, error) {
	switch v := in.(type) {
	case NumberIntake:
		return json.Marshal(float64(v))
	case TextIntake:
		return json.Marshal(string(v))
	case ValueUnitIntake:
		obj := map[string]interface{}{"value": v.Value}
		if v.Unit != "" {
			obj["unit"] = string(v.Unit)
		}
		return json.Marshal(obj)
	case InvalidIntake:
		if json.Valid([]byte(v.Raw)) {
			return []byte(v.Raw), nil
		}
		return []byte("null"), nil
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("unsupported intake type %T", in)
	}
}

// Micronutrients maps a nutrient key to its raw intake
type Micronutrients map[string]RawIntake

// UnmarshalJSON implements json.Unmarshaler
func (m *Micronutrients) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = nil
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("micronutrients must be an object: %w", err)
	}
	out := make(Micronutrients, len(fields))
	for key, raw := range fields {
		intake, err := DecodeRawIntake(raw)
		if err != nil {
			return fmt.Errorf("micronutrient %q: %w", key, err)
		}
		out[key] = intake
	}
	*m = out
	return nil
}

// MarshalJSON implements json.Marshaler with keys in sorted order
func (m Micronutrients) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := MarshalIntake(m[k])
		if err != nil {
			return nil, fmt.Errorf("micronutrient %q: %w", k, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
