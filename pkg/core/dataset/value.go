package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the type held by a Value.
type Kind uint8

const (
	// KindText is a string cell. The zero Value is the empty text.
	KindText Kind = iota
	// KindNumber is a finite float64 cell.
	KindNumber
)

// Value is a tagged scalar: either a number or a piece of text.
// Cells, row keys and display labels are all Values.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text returns a textual Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Float returns the numeric content of v and whether v is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// String renders v the way it is displayed and compared: numbers use the
// shortest plain decimal that round-trips ("2019", "2.5", "-0.125").
func (v Value) String() string {
	if v.kind == KindNumber {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.text
}

// Equal reports whether a and b hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindNumber {
		return v.num == o.num
	}
	return v.text == o.text
}

// MarshalJSON encodes numbers as JSON numbers and text as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts JSON numbers, strings, booleans (stored as text)
// and null (stored as empty text).
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Text("")
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Text(string(data))
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("decode value %s: %w", data, err)
		}
		*v = Number(f)
	}
	return nil
}

// FromAny converts a loosely typed value (as produced by JSON decoding,
// spreadsheet readers or database drivers) into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Text("")
	case Value:
		return t
	case string:
		return Text(t)
	case bool:
		return Text(strconv.FormatBool(t))
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return Text(t.String())
	case fmt.Stringer:
		return Text(t.String())
	default:
		return Text(fmt.Sprint(t))
	}
}

// ParseCell converts raw editor text into a cell Value using Number()-style
// coercion: surrounding whitespace is ignored, the remainder must be a
// finite decimal (optionally signed, with fraction and exponent) or a
// 0x/0o/0b integer literal. Anything else, including the empty string, is
// kept verbatim as text.
func ParseCell(raw string) Value {
	if f, ok := coerceNumber(raw); ok {
		return Number(f)
	}
	return Text(raw)
}

func coerceNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}
	// ParseFloat is more permissive than Number(): reject its extensions.
	if strings.ContainsAny(s, "_xXpP") || strings.ContainsAny(strings.ToLower(s), "in") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// labelNumber matches the strict optional-sign integer/decimal form used
// when committing row labels.
var labelNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// ParseLabel converts already-trimmed label text into a Value: text that
// matches the strict numeric pattern becomes a number, everything else
// stays text.
func ParseLabel(s string) Value {
	if labelNumber.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Number(f)
		}
	}
	return Text(s)
}
