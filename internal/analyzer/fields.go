package analyzer

import "math"

// Backend-specific value slots probed in priority order for scalar fields.
var scalarSlots = []string{"valueString", "valueNumber", "valueDate", "content", "value"}

// Value slots probed for bare array items (no nested object).
var arrayItemSlots = []string{"valueString", "content", "value"}

// ExtractFieldValues flattens a backend-native field map into plain values.
// Object-valued fields recurse into nested maps, array-valued fields into
// slices, dropping entries that yield no value. Scalar fields take the
// first present value among the typed slots, in priority order.
func ExtractFieldValues(fields map[string]any) map[string]any {
	result := make(map[string]any)
	for name, raw := range fields {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		if onlyTypeAndObject(obj) {
			if sub := extractObject(obj); sub != nil {
				result[name] = sub
			}
			continue
		}
		if len(obj) == 1 && hasKey(obj, "type") {
			continue
		}

		if val, ok := firstPresent(obj, scalarSlots); ok {
			result[name] = val
			continue
		}
		if sub := extractObject(obj); sub != nil {
			result[name] = sub
			continue
		}
		if arr := extractArray(obj); arr != nil {
			result[name] = arr
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// onlyTypeAndObject reports whether obj carries nothing but a type tag and
// a nested valueObject.
func onlyTypeAndObject(obj map[string]any) bool {
	if !hasKey(obj, "valueObject") {
		return false
	}
	for k := range obj {
		if k != "type" && k != "valueObject" {
			return false
		}
	}
	return true
}

func extractObject(obj map[string]any) map[string]any {
	nested, ok := obj["valueObject"].(map[string]any)
	if !ok {
		return nil
	}
	return ExtractFieldValues(nested)
}

func extractArray(obj map[string]any) []any {
	items, ok := obj["valueArray"].([]any)
	if !ok {
		return nil
	}
	var arr []any
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if hasKey(entry, "valueObject") {
			if sub := extractObject(entry); sub != nil {
				arr = append(arr, sub)
			}
			continue
		}
		if val, ok := firstPresent(entry, arrayItemSlots); ok {
			arr = append(arr, val)
		}
	}
	return arr
}

// firstPresent returns the first slot value that is actually present:
// non-nil, and for strings non-empty.
func firstPresent(obj map[string]any, slots []string) (any, bool) {
	for _, slot := range slots {
		val, ok := obj[slot]
		if !ok || val == nil {
			continue
		}
		if s, isStr := val.(string); isStr && s == "" {
			continue
		}
		if _, isMap := val.(map[string]any); isMap {
			continue
		}
		if _, isArr := val.([]any); isArr {
			continue
		}
		return val, true
	}
	return nil, false
}

func hasKey(obj map[string]any, key string) bool {
	_, ok := obj[key]
	return ok
}

// CollectConfidences walks a decoded JSON value depth-first and gathers
// every numeric value keyed "confidence", wherever it appears.
func CollectConfidences(v any) []float64 {
	var confs []float64
	collectConfidences(v, &confs)
	return confs
}

func collectConfidences(v any, confs *[]float64) {
	switch node := v.(type) {
	case map[string]any:
		if c, ok := node["confidence"].(float64); ok {
			*confs = append(*confs, c)
		}
		for _, child := range node {
			collectConfidences(child, confs)
		}
	case []any:
		for _, child := range node {
			collectConfidences(child, confs)
		}
	}
}

// AverageConfidence returns the mean of all confidence scores found in v,
// rounded to 4 decimals, or nil when none were found.
func AverageConfidence(v any) *float64 {
	confs := CollectConfidences(v)
	if len(confs) == 0 {
		return nil
	}
	sum := 0.0
	for _, c := range confs {
		sum += c
	}
	avg := Round(sum/float64(len(confs)), 4)
	return &avg
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
