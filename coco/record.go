package coco

import (
	"encoding/json"
	"math"

	"github.com/kbukum/datasets/errors"
)

// Record is one decoded JSON object of a metadata document: an image record
// or an annotation record. Numbers are json.Number.
type Record map[string]any

// Int returns an integral field. Fractions, values outside int64 and
// non-numbers are INVALID_FORMAT.
func (r Record) Int(field string) (int64, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, errors.MissingField(field)
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, errors.InvalidFormat(field, "integer")
		}
		return floatToInt(field, f)
	case float64:
		return floatToInt(field, n)
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, errors.InvalidFormat(field, "integer")
	}
}

// float64(math.MaxInt64) rounds up to 2^63, which is itself out of range.
func floatToInt(field string, f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errors.InvalidFormat(field, "integer")
	}
	return int64(f), nil
}

// Bool returns a flag field given either as a JSON boolean or as 0/1.
func (r Record) Bool(field string) (bool, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return false, errors.MissingField(field)
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	n, err := r.Int(field)
	if err != nil || (n != 0 && n != 1) {
		return false, errors.InvalidFormat(field, "0, 1 or boolean")
	}
	return n == 1, nil
}

// Float returns a numeric field.
func (r Record) Float(field string) (float64, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, errors.MissingField(field)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, errors.InvalidFormat(field, "number")
	}
	return f, nil
}

// String returns a string field.
func (r Record) String(field string) (string, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", errors.MissingField(field)
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.InvalidFormat(field, "string")
	}
	return s, nil
}

// Floats returns a field holding a flat list of numbers.
func (r Record) Floats(field string) ([]float64, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, errors.MissingField(field)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, errors.InvalidFormat(field, "list of numbers")
	}
	out := make([]float64, len(list))
	for i, item := range list {
		f, ok := toFloat(item)
		if !ok {
			return nil, errors.InvalidFormat(field, "list of numbers")
		}
		out[i] = f
	}
	return out, nil
}

// Without returns a shallow copy of r lacking field.
func (r Record) Without(field string) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if k != field {
			out[k] = v
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toRecords(objects []map[string]any) []Record {
	records := make([]Record, len(objects))
	for i, o := range objects {
		records[i] = Record(o)
	}
	return records
}
