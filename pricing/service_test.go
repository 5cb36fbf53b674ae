package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housepricing/ml"
)

type fakeModel struct {
	price float64
	err   error
	seen  []float64
}

func (f *fakeModel) Predict(features []float64) (float64, error) {
	f.seen = append([]float64(nil), features...)
	return f.price, f.err
}

func validPayload() map[string]any {
	payload := make(map[string]any)
	for i, name := range ml.FeatureNames() {
		payload[name] = float64(i + 1)
	}
	return payload
}

func TestPredictRoundsToTwoDecimals(t *testing.T) {
	model := &fakeModel{price: 24.56789}
	service := NewService(model)

	got, err := service.Predict(context.Background(), validPayload())
	require.NoError(t, err)
	assert.Equal(t, 24.57, got.Price)
}

func TestPredictPassesCanonicalOrder(t *testing.T) {
	model := &fakeModel{price: 1}
	service := NewService(model)

	_, err := service.Predict(context.Background(), validPayload())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}, model.seen)
}

func TestPredictCoercesValues(t *testing.T) {
	payload := validPayload()
	payload["CRIM"] = " 0.5 "
	payload["CHAS"] = true
	payload["ZN"] = json.Number("18")

	model := &fakeModel{price: 30}
	_, err := NewService(model).Predict(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, 0.5, model.seen[0])
	assert.Equal(t, 18.0, model.seen[1])
	assert.Equal(t, 1.0, model.seen[3])
}

func TestPredictEmptyPayload(t *testing.T) {
	service := NewService(&fakeModel{})
	for _, payload := range []any{nil, map[string]any{}, []any{}, "", false, 0.0} {
		_, err := service.Predict(context.Background(), payload)
		assert.ErrorIs(t, err, ErrNoInput, "payload %#v", payload)
	}
}

func TestPredictFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		want   string
	}{
		{name: "missing field", mutate: func(p map[string]any) { delete(p, "LSTAT") }, want: `missing feature "LSTAT"`},
		{name: "non numeric", mutate: func(p map[string]any) { p["RM"] = "six" }, want: "could not convert string to float"},
		{name: "null", mutate: func(p map[string]any) { p["AGE"] = nil }, want: `feature "AGE"`},
		{name: "object", mutate: func(p map[string]any) { p["TAX"] = map[string]any{"v": 1} }, want: `feature "TAX"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validPayload()
			tt.mutate(payload)
			_, err := NewService(&fakeModel{}).Predict(context.Background(), payload)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrNoInput)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPredictNonObjectPayload(t *testing.T) {
	_, err := NewService(&fakeModel{}).Predict(context.Background(), []any{1.0})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoInput)
}

func TestPredictSurfacesModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("tree 3: invalid tree state")}
	_, err := NewService(model).Predict(context.Background(), validPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tree state")
}

func TestRound(t *testing.T) {
	assert.Equal(t, 21.6, Round(21.6, 2))
	assert.Equal(t, -2.35, Round(-2.349, 2))

	// Rounded from the stored binary value: 2.675 is held as 2.67499...
	cases := map[float64]float64{
		0.125:  0.12,
		2.675:  2.67,
		22.345: 22.34,
		24.125: 24.12,
		22.355: 22.36,
	}
	for in, want := range cases {
		assert.Equal(t, want, Round(in, 2), "Round(%v, 2)", in)
	}
}
