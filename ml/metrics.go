package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics are regression scores on a held-out set.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

func RMSE(actual, predicted []float64) (float64, error) {
	if err := checkPairs(actual, predicted); err != nil {
		return 0, err
	}
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual))), nil
}

// R2 is the coefficient of determination. A constant target scores 1 when
// predicted exactly and 0 otherwise.
func R2(actual, predicted []float64) (float64, error) {
	if err := checkPairs(actual, predicted); err != nil {
		return 0, err
	}
	mean := stat.Mean(actual, nil)
	var residual, total float64
	for i := range actual {
		d := actual[i] - predicted[i]
		residual += d * d
		t := actual[i] - mean
		total += t * t
	}
	if total == 0 {
		if residual == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - residual/total, nil
}

// Evaluate scores model on the given rows.
func Evaluate(model Regressor, features [][]float64, targets []float64) (Metrics, error) {
	if len(features) != len(targets) {
		return Metrics{}, errors.New("features and targets size mismatch")
	}
	predicted := make([]float64, len(features))
	for i, row := range features {
		p, err := model.Predict(row)
		if err != nil {
			return Metrics{}, fmt.Errorf("predict row %d: %w", i, err)
		}
		predicted[i] = p
	}
	rmse, err := RMSE(targets, predicted)
	if err != nil {
		return Metrics{}, err
	}
	r2, err := R2(targets, predicted)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{RMSE: rmse, R2: r2}, nil
}

func checkPairs(actual, predicted []float64) error {
	if len(actual) == 0 {
		return errors.New("no values to score")
	}
	if len(actual) != len(predicted) {
		return errors.New("actual and predicted size mismatch")
	}
	return nil
}
