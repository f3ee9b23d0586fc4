package tabular

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindText Kind = iota
	KindNumber
	KindBool
)

// String returns the lowercase kind name used in JSON schemas and logs.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "text"
	}
}

// numericLiteral accepts integers, decimals and exponent forms.
// Hex, Infinity and NaN spellings stay text.
var numericLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Value is a coerced cell: exactly one of Number, Bool or Text.
// The zero Value is empty text.
type Value struct {
	kind Kind
	num  float64
	b    bool
	text string
}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Text returns a text Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Coerce applies the field coercion rules to one raw field.
func Coerce(raw string) Value {
	s := strings.TrimSpace(raw)
	if s != "" && numericLiteral.MatchString(s) {
		// Out-of-range literals such as 1e999 stay text rather than becoming Inf.
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(f)
		}
	}
	switch strings.ToLower(s) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return Text(s)
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Number returns the numeric payload and whether v is a number.
func (v Value) Number() (float64, bool) { return v.num, v.kind == KindNumber }

// Bool returns the boolean payload and whether v is a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Text returns the text payload and whether v is text.
func (v Value) Text() (string, bool) { return v.text, v.kind == KindText }

// IsEmpty reports whether v is empty text.
func (v Value) IsEmpty() bool { return v.kind == KindText && v.text == "" }

// String renders v the way it would appear in a CSV cell.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.text
	}
}

// Equal reports whether v and o hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	default:
		return v.text == o.text
	}
}

// Any returns the payload as a plain Go value (float64, bool or string).
func (v Value) Any() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return v.text
	}
}

// MarshalJSON encodes numbers and booleans natively and text as a string.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON accepts a JSON number, boolean, string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case float64:
		*v = Number(x)
	case bool:
		*v = Bool(x)
	case string:
		*v = Text(x)
	case nil:
		*v = Text("")
	default:
		*v = Text(string(data))
	}
	return nil
}

// MarshalYAML renders v as a native YAML scalar.
func (v Value) MarshalYAML() (any, error) {
	return v.Any(), nil
}
