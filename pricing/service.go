// Package pricing turns a client payload into a house price using the loaded model.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"housepricing/ml"
)

// ErrNoInput is returned when the payload is absent or empty.
var ErrNoInput = errors.New("no input data provided")

// Prediction is a price rounded to two decimals.
type Prediction struct {
	Price float64 `json:"price"`
}

// Service holds the model for the lifetime of the process. The model is
// never modified, so one Service may serve concurrent requests.
type Service struct {
	model ml.Regressor
}

func NewService(model ml.Regressor) *Service {
	return &Service{model: model}
}

// Predict validates payload, orders its features canonically and runs the
// model. payload is the decoded JSON body; any falsy value counts as absent.
func (s *Service) Predict(ctx context.Context, payload any) (Prediction, error) {
	if isEmpty(payload) {
		return Prediction{}, ErrNoInput
	}
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	fields, ok := payload.(map[string]any)
	if !ok {
		return Prediction{}, fmt.Errorf("input must be a JSON object, got %T", payload)
	}

	values := make(map[string]float64, len(ml.FeatureNames()))
	for _, name := range ml.FeatureNames() {
		raw, present := fields[name]
		if !present {
			return Prediction{}, fmt.Errorf("missing feature %q", name)
		}
		value, err := toFloat(raw)
		if err != nil {
			return Prediction{}, fmt.Errorf("feature %q: %w", name, err)
		}
		values[name] = value
	}

	vector, err := ml.NewFeatureVector(values)
	if err != nil {
		return Prediction{}, err
	}
	price, err := s.model.Predict(vector)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return Prediction{}, fmt.Errorf("model returned non-finite price %v", price)
	}
	return Prediction{Price: Round(price, 2)}, nil
}

// Round rounds the exact binary value of value to the given number of
// decimals. Exact ties go to the even digit, so 0.125 becomes 0.12.
func Round(value float64, decimals int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(value, 'f', decimals, 64), 64)
	if err != nil {
		return value
	}
	return rounded
}

// toFloat accepts JSON numbers, numeric strings and booleans.
func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case json.Number:
		return parseNumber(string(v))
	case string:
		return parseNumber(v)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, errors.New("value must be a number, not null")
	default:
		return 0, fmt.Errorf("value must be a number, got %T", raw)
	}
}

func parseNumber(s string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return value, nil
		}
		return 0, fmt.Errorf("could not convert string to float: %q", s)
	}
	return value, nil
}

func isEmpty(payload any) bool {
	switch v := payload.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case string:
		return v == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	}
	return false
}
