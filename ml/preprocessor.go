package ml

import (
	"errors"
	"fmt"
	"math"
)

// MeanImputer replaces missing (NaN) values with the column mean seen at fit time.
type MeanImputer struct {
	means []float64
}

func (p *MeanImputer) Fit(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("features is empty")
	}
	width := len(features[0])
	sums := make([]float64, width)
	counts := make([]int, width)
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), width)
		}
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sums[j] += v
			counts[j]++
		}
	}

	means := make([]float64, width)
	for j := range means {
		if counts[j] == 0 {
			return fmt.Errorf("column %d has no observed values", j)
		}
		means[j] = sums[j] / float64(counts[j])
	}
	p.means = means
	return nil
}

// Transform returns a copy of features with missing values filled.
func (p *MeanImputer) Transform(features [][]float64) ([][]float64, error) {
	if p.means == nil {
		return nil, errors.New("imputer not fitted")
	}
	out := make([][]float64, len(features))
	for i, row := range features {
		if len(row) != len(p.means) {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), len(p.means))
		}
		filled := make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				v = p.means[j]
			}
			filled[j] = v
		}
		out[i] = filled
	}
	return out, nil
}

func (p *MeanImputer) FitTransform(features [][]float64) ([][]float64, error) {
	if err := p.Fit(features); err != nil {
		return nil, err
	}
	return p.Transform(features)
}

// Means returns the fitted column means.
func (p *MeanImputer) Means() []float64 {
	return append([]float64(nil), p.means...)
}
