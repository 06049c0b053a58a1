package entity

import (
	"fmt"
	"strings"
)

// RawRecord is a loosely-typed case record as delivered by a source system.
// Field names differ between the Kaiser and Health Net sources.
type RawRecord map[string]interface{}

// Lookup returns the first present, non-empty value among keys
func (r RawRecord) Lookup(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// String returns the first non-empty value among keys rendered as a string
func (r RawRecord) String(keys ...string) string {
	v, ok := r.Lookup(keys...)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// Clone returns a shallow copy of the record
func (r RawRecord) Clone() RawRecord {
	out := make(RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
