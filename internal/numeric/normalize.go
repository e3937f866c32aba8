// Package numeric coerces loosely typed input into finite float64 values.
package numeric

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Normalize returns value as a finite number, or 0 when value is nil, blank, boolean,
// or does not parse to a finite number. It never panics.
func Normalize(value any) (result float64) {
	defer func() {
		if recover() != nil {
			result = 0
		}
	}()

	switch v := value.(type) {
	case nil, bool:
		return 0
	case float64:
		return Finite(v)
	case float32:
		return Finite(float64(v))
	case *float64:
		if v == nil {
			return 0
		}
		return Finite(*v)
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0
		}
		value = v
	case *string:
		if v == nil {
			return 0
		}
		return Normalize(*v)
	case json.Number:
		value = strings.TrimSpace(v.String())
	case Value:
		return Finite(float64(v))
	}

	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0
	}
	return Finite(f)
}

// Finite maps NaN and ±Inf to 0.
func Finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Value decodes from a JSON number, a numeric string or null.
type Value float64

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*v = 0
			return nil
		}
		*v = Value(Normalize(s))
		return nil
	}
	*v = Value(Normalize(json.Number(data)))
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(Finite(float64(v)))
}

func (v Value) Float64() float64 {
	return Finite(float64(v))
}
