package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row of a collection.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Aliases expands a canonical snake_case field name into the spellings seen
// across record producers: snake_case, camelCase and the "_c" suffixed
// custom-field form of both.
func Aliases(field string) []string {
	camel := camelCase(field)
	names := []string{field}
	if camel != field {
		names = append(names, camel)
	}
	names = append(names, field+"_c")
	if camel != field {
		names = append(names, camel+"_c")
	}
	if field == "id" {
		names = append(names, "Id", "ID")
	}
	return names
}

func camelCase(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// Lookup returns the value stored under field or any of its aliases.
func (r Record) Lookup(field string) (any, bool) {
	for _, name := range Aliases(field) {
		if v, ok := r[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// ID returns the record id, or 0 when it is missing or malformed.
func (r Record) ID() int64 {
	id, err := r.Int64("id")
	if err != nil {
		return 0
	}
	return id
}

// String returns field as text; missing fields yield "".
func (r Record) String(field string) string {
	v, ok := r.Lookup(field)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// Int64 returns field as an integer.
func (r Record) Int64(field string) (int64, error) {
	v, ok := r.Lookup(field)
	if !ok {
		return 0, fmt.Errorf("field %q missing", field)
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", field, err)
	}
	return n, nil
}

// Decimal returns field as a decimal amount.
func (r Record) Decimal(field string) (decimal.Decimal, error) {
	v, ok := r.Lookup(field)
	if !ok {
		return decimal.Zero, fmt.Errorf("field %q missing", field)
	}
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("field %q: %w", field, err)
	}
	return d, nil
}

// Time returns field as a timestamp; missing fields yield the zero time.
func (r Record) Time(field string) (time.Time, error) {
	v, ok := r.Lookup(field)
	if !ok {
		return time.Time{}, nil
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	}
	return time.Time{}, fmt.Errorf("field %q: unsupported time type %T", field, v)
}

// JSON returns field as raw JSON, accepting encoded text or a decoded value.
func (r Record) JSON(field string) (json.RawMessage, error) {
	v, ok := r.Lookup(field)
	if !ok {
		return nil, fmt.Errorf("field %q missing", field)
	}
	switch t := v.(type) {
	case json.RawMessage:
		return t, nil
	case []byte:
		return json.RawMessage(t), nil
	case string:
		return json.RawMessage(t), nil
	default:
		return json.Marshal(t)
	}
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("%v is not an integer", t)
		}
		return int64(t), nil
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
	case decimal.Decimal:
		if !t.Equal(t.Truncate(0)) {
			return 0, fmt.Errorf("%s is not an integer", t)
		}
		return t.IntPart(), nil
	}
	return 0, fmt.Errorf("unsupported integer type %T", v)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int32:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case json.Number:
		return decimal.NewFromString(t.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(t)))
	}
	return decimal.Zero, fmt.Errorf("unsupported decimal type %T", v)
}

// compareValues orders two field values: times chronologically, numbers
// numerically and everything else by its text form. nil sorts first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	da, errA := toDecimal(a)
	db, errB := toDecimal(b)
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	return strings.Compare(textOf(a), textOf(b))
}

func textOf(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}
