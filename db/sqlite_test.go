package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := Open(filepath.Join(t.TempDir(), "training.db"))
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })
	return registry
}

func TestLatestTrainingRunEmpty(t *testing.T) {
	registry := openTestRegistry(t)
	run, err := registry.LatestTrainingRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestSaveAndLoadTrainingLog(t *testing.T) {
	registry := openTestRegistry(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	for i, rmse := range []float64{3.1, 2.7, 2.9} {
		id, err := registry.SaveTrainingRun(ctx, TrainingRun{
			ModelName:    "gradient_boosting",
			ModelPath:    "boston_model_gb.json",
			RMSE:         rmse,
			R2:           0.9,
			TrainRows:    404,
			TestRows:     102,
			NEstimators:  200,
			LearningRate: 0.1,
			MaxDepth:     3,
			Seed:         42,
			TrainedAt:    base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	runs, err := registry.LoadTrainingLog(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, 2.9, runs[0].RMSE)
	assert.Equal(t, 3.1, runs[2].RMSE)

	latest, err := registry.LatestTrainingRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(3), latest.ID)
	assert.Equal(t, 404, latest.TrainRows)
	assert.Equal(t, int64(42), latest.Seed)
	assert.True(t, latest.TrainedAt.Equal(base.Add(2*time.Hour)))

	limited, err := registry.LoadTrainingLog(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSaveTrainingRunRequiresName(t *testing.T) {
	registry := openTestRegistry(t)
	_, err := registry.SaveTrainingRun(context.Background(), TrainingRun{})
	assert.Error(t, err)
}
