package ml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradientBoostingFitsLinearSignal(t *testing.T) {
	features, targets := linearData()

	model := NewGradientBoosting(DefaultBoostingConfig())
	require.NoError(t, model.Fit(features, targets, []string{"x0", "x1"}))

	metrics, err := Evaluate(model, features, targets)
	require.NoError(t, err)
	assert.Less(t, metrics.RMSE, 0.5)
	assert.Greater(t, metrics.R2, 0.99)

	info := model.Describe()
	assert.Equal(t, GradientBoostingType, info.Type)
	assert.Equal(t, 200, info.NEstimators)
	assert.Equal(t, 3, info.MaxDepth)
}

func TestGradientBoostingSingleStageIsShrunkTree(t *testing.T) {
	features := [][]float64{{0}, {1}}
	targets := []float64{0, 10}

	config := DefaultBoostingConfig()
	config.NEstimators = 1
	model := NewGradientBoosting(config)
	require.NoError(t, model.Fit(features, targets, []string{"x"}))

	// init is 5, the single tree predicts residuals of -5 and +5.
	got, err := model.Predict([]float64{1})
	require.NoError(t, err)
	assert.InDelta(t, 5.5, got, 1e-12)
}

func TestGradientBoostingIsDeterministic(t *testing.T) {
	features, targets := linearData()
	config := DefaultBoostingConfig()
	config.NEstimators = 20

	first := NewGradientBoosting(config)
	second := NewGradientBoosting(config)
	require.NoError(t, first.Fit(features, targets, []string{"x0", "x1"}))
	require.NoError(t, second.Fit(features, targets, []string{"x0", "x1"}))

	a, err := first.PredictBatch(features)
	require.NoError(t, err)
	b, err := second.PredictBatch(features)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGradientBoostingRejectsBadInput(t *testing.T) {
	model := NewGradientBoosting(DefaultBoostingConfig())
	_, err := model.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, ErrNotTrained)
	assert.ErrorIs(t, model.Save(filepath.Join(t.TempDir(), "m.json")), ErrNotTrained)

	features, targets := linearData()
	require.NoError(t, model.Fit(features, targets, []string{"x0", "x1"}))
	_, err = model.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrFeatureMismatch)

	bad := NewGradientBoosting(BoostingConfig{NEstimators: 0, LearningRate: 0.1, MaxDepth: 3, MinSamplesLeaf: 1})
	assert.Error(t, bad.Fit(features, targets, []string{"x0", "x1"}))
}

func TestGradientBoostingSaveLoad(t *testing.T) {
	features, targets := linearData()
	config := DefaultBoostingConfig()
	config.NEstimators = 25
	model := NewGradientBoosting(config)
	require.NoError(t, model.Fit(features, targets, []string{"x0", "x1"}))

	for _, name := range []string{"model.json", "model.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, model.Save(path))

			loaded := &GradientBoosting{}
			require.NoError(t, loaded.Load(path))
			assert.Equal(t, model.Describe(), loaded.Describe())

			want, err := model.PredictBatch(features)
			require.NoError(t, err)
			got, err := loaded.PredictBatch(features)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestGzipArtifactIsCompressed(t *testing.T) {
	features, targets := linearData()
	model := NewGradientBoosting(DefaultBoostingConfig())
	require.NoError(t, model.Fit(features, targets, []string{"x0", "x1"}))

	dir := t.TempDir()
	plain := filepath.Join(dir, "m.json")
	packed := filepath.Join(dir, "m.json.gz")
	require.NoError(t, model.Save(plain))
	require.NoError(t, model.Save(packed))

	plainInfo, err := os.Stat(plain)
	require.NoError(t, err)
	packedInfo, err := os.Stat(packed)
	require.NoError(t, err)
	assert.Less(t, packedInfo.Size(), plainInfo.Size())
}

func TestLoadModelChecksFeatureNames(t *testing.T) {
	features, targets := linearData()
	model := NewGradientBoosting(DefaultBoostingConfig())
	require.NoError(t, model.Fit(features, targets, []string{"x0", "x1"}))
	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, model.Save(path))

	_, err := LoadModel(GradientBoostingType, path)
	assert.ErrorIs(t, err, ErrFeatureMismatch)

	_, err = LoadModel("svm", path)
	assert.ErrorIs(t, err, ErrUnsupportedModel)

	_, err = LoadModel(GradientBoostingType, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
