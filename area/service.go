// Package area computes descriptive statistics of home values grouped by
// the RAD accessibility index.
package area

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"housepricing/dataset"
)

const sampleSize = 5

var ErrAreaNotFound = errors.New("no data for this RAD")

// Stats summarizes MEDV for one area. Mean and Median are nil when the area
// has no recorded values; Std is nil when fewer than two values exist.
type Stats struct {
	Count  int       `json:"count"`
	Mean   *float64  `json:"mean"`
	Median *float64  `json:"median"`
	Std    *float64  `json:"std"`
	Sample []float64 `json:"sample"`
}

type Service struct {
	store *dataset.Store
}

func NewService(store *dataset.Store) *Service {
	return &Service{store: store}
}

// ListAreas returns the distinct RAD values as integers, ascending.
func (s *Service) ListAreas(ctx context.Context) ([]int, error) {
	frame, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	rads, err := frame.Column(dataset.AreaColumn)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{})
	areas := make([]int, 0)
	for _, rad := range rads {
		if math.IsNaN(rad) {
			continue
		}
		if math.IsInf(rad, 0) {
			return nil, fmt.Errorf("cannot convert %v to an area index", rad)
		}
		key := int(math.Trunc(rad))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		areas = append(areas, key)
	}
	sort.Ints(areas)
	return areas, nil
}

// AreaStats describes MEDV over the rows whose RAD equals rad.
func (s *Service) AreaStats(ctx context.Context, rad int) (*Stats, error) {
	frame, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	rads, err := frame.Column(dataset.AreaColumn)
	if err != nil {
		return nil, err
	}
	values, err := frame.Column(dataset.TargetColumn)
	if err != nil {
		return nil, err
	}

	matched := false
	prices := make([]float64, 0)
	for i, r := range rads {
		if r != float64(rad) {
			continue
		}
		matched = true
		if !math.IsNaN(values[i]) {
			prices = append(prices, values[i])
		}
	}
	if !matched {
		return nil, ErrAreaNotFound
	}
	return Describe(prices), nil
}

// Describe computes count, mean, median, sample standard deviation and the
// leading values of prices, which must be in file order.
func Describe(prices []float64) *Stats {
	stats := &Stats{
		Count:  len(prices),
		Sample: append([]float64{}, prices[:min(sampleSize, len(prices))]...),
	}
	if len(prices) == 0 {
		return stats
	}
	mean := stat.Mean(prices, nil)
	median := median(prices)
	stats.Mean = &mean
	stats.Median = &median
	if len(prices) > 1 {
		std := stat.StdDev(prices, nil)
		stats.Std = &std
	}
	return stats
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
