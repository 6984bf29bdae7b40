package sqlload

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row to persist: an ordered bag of named scalar values.
// Field order is insertion order and drives column order when no mapping
// exists for the target table. Values are expected to be one of: string,
// int/int64, float64, decimal.Decimal, time.Time, bool, []byte or nil.
type Record struct {
	fields []string
	data   map[string]any
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{
		data: make(map[string]any),
	}
}

// Set stores a value under name, preserving first-insertion order. Setting an
// existing name overwrites the value without changing its position.
func (r *Record) Set(name string, value any) *Record {
	if _, exists := r.data[name]; !exists {
		r.fields = append(r.fields, name)
	}
	r.data[name] = value
	return r
}

// Get returns the value stored under name.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.data[name]
	return v, ok
}

// Fields returns the field names in insertion order.
func (r *Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// GetString returns the value under name formatted as a string.
func (r *Record) GetString(name string) string {
	v, ok := r.data[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// GetInt64 returns the value under name as an int64, or 0.
func (r *Record) GetInt64(name string) int64 {
	switch v := r.data[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case decimal.Decimal:
		return v.IntPart()
	}
	return 0
}

// GetDecimal returns the value under name as a decimal, or zero.
func (r *Record) GetDecimal(name string) decimal.Decimal {
	switch v := r.data[name].(type) {
	case decimal.Decimal:
		return v
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// GetTime returns the value under name as a time.Time, or the zero time.
func (r *Record) GetTime(name string) time.Time {
	if v, ok := r.data[name].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// RecordFromMap builds a record from a plain map. Iteration order of Go maps
// is randomized, so the resulting field order is sorted by the keys slice the
// caller provides; use Set directly when order matters.
func RecordFromMap(keys []string, values map[string]any) *Record {
	r := NewRecord()
	for _, k := range keys {
		if v, ok := values[k]; ok {
			r.Set(k, v)
		}
	}
	return r
}
