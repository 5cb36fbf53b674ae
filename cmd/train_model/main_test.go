package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housepricing/db"
	"housepricing/ml"
)

func writeDataset(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(ml.FeatureNames(), ","))
	b.WriteString(",MEDV\n")
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(ml.FeatureNames())+1)
		for j := range ml.FeatureNames() {
			row = append(row, fmt.Sprintf("%d", (i*(j+3))%17))
		}
		row = append(row, fmt.Sprintf("%.1f", 10+float64(i%17)*1.5))
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "boston.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTrainCommandPrintsReport(t *testing.T) {
	data := writeDataset(t, 60)
	modelPath := filepath.Join(t.TempDir(), "model.json")
	registryPath := filepath.Join(t.TempDir(), "training.db")

	out, err := execute(t,
		"--data", data,
		"--out", modelPath,
		"--n-estimators", "20",
		"--registry", registryPath,
		"--log-level", "error",
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RMSE: "))
	assert.True(t, strings.HasPrefix(lines[1], "R2 Score: "))
	assert.Equal(t, "Model saved as "+modelPath, lines[2])
	assert.FileExists(t, modelPath)

	registry, err := db.Open(registryPath)
	require.NoError(t, err)
	defer registry.Close()
	latest, err := registry.LatestTrainingRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, ml.GradientBoostingType, latest.ModelName)
	assert.Equal(t, 20, latest.NEstimators)
	assert.Equal(t, 48, latest.TrainRows)
	assert.Equal(t, 12, latest.TestRows)
}

func TestTrainCommandErrors(t *testing.T) {
	_, err := execute(t, "--data", filepath.Join(t.TempDir(), "missing.csv"), "--log-level", "error")
	assert.Error(t, err)

	data := writeDataset(t, 30)
	_, err = execute(t, "--data", data, "--out", filepath.Join(t.TempDir(), "m.json"), "--model-type", "svm", "--log-level", "error")
	assert.ErrorIs(t, err, ml.ErrUnsupportedModel)

	_, err = execute(t, "extra")
	assert.Error(t, err)
}
