package ml

import (
	"fmt"
)

// FeatureNames returns the model inputs in the order used at training time.
func FeatureNames() []string {
	return []string{
		"CRIM",
		"ZN",
		"INDUS",
		"CHAS",
		"NOX",
		"RM",
		"AGE",
		"DIS",
		"RAD",
		"TAX",
		"PTRATIO",
		"B",
		"LSTAT",
	}
}

// FeatureVector is one set of inputs in FeatureNames order.
type FeatureVector []float64

// NewFeatureVector orders named values canonically. Every feature must be present.
func NewFeatureVector(values map[string]float64) (FeatureVector, error) {
	names := FeatureNames()
	vector := make(FeatureVector, len(names))
	for i, name := range names {
		value, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("missing feature %q", name)
		}
		vector[i] = value
	}
	return vector, nil
}

// Map returns the vector keyed by feature name.
func (v FeatureVector) Map() map[string]float64 {
	names := FeatureNames()
	out := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(v) {
			out[name] = v[i]
		}
	}
	return out
}

func sameFeatures(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
