package engine

import (
	"math"
	"strconv"
	"strings"
)

// Clean drops missing values (NaN, infinities) from a sample. The returned
// slice preserves the input order of the valid values; its length is the
// sample's n.
func Clean(sample []float64) []float64 {
	out := make([]float64, 0, len(sample))
	for _, v := range sample {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// CoerceValue converts a raw observation to a numeric value. Strings are
// trimmed and a trailing percent sign is stripped before parsing (survey
// exports store some ratios as "62.5%"). Non-convertible and absent values
// report ok=false and are treated as missing, never as an error.
func CoerceValue(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimSuffix(s, "%")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case nil:
		return 0, false
	default:
		return 0, false
	}
}

// CoerceSlice converts a slice of raw observations to a numeric sample,
// dropping everything CoerceValue rejects.
func CoerceSlice(raw []interface{}) []float64 {
	out := make([]float64, 0, len(raw))
	for _, r := range raw {
		if f, ok := CoerceValue(r); ok {
			out = append(out, f)
		}
	}
	return out
}
