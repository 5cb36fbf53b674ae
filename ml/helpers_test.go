package ml

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeHousingCSV writes n synthetic rows whose MEDV depends mostly on RM and
// LSTAT. Every seventh row has a missing CRIM.
func writeHousingCSV(t *testing.T, n int) string {
	t.Helper()
	rnd := rand.New(rand.NewSource(7))

	var b strings.Builder
	b.WriteString(strings.Join(FeatureNames(), ","))
	b.WriteString(",MEDV\n")
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(FeatureNames())+1)
		rm := 4 + rnd.Float64()*4
		lstat := 2 + rnd.Float64()*30
		for _, name := range FeatureNames() {
			switch name {
			case "RM":
				row = append(row, fmt.Sprintf("%.3f", rm))
			case "LSTAT":
				row = append(row, fmt.Sprintf("%.3f", lstat))
			case "RAD":
				row = append(row, fmt.Sprintf("%d", 1+i%8))
			case "CRIM":
				if i%7 == 0 {
					row = append(row, "NA")
				} else {
					row = append(row, fmt.Sprintf("%.4f", rnd.Float64()*10))
				}
			default:
				row = append(row, fmt.Sprintf("%.3f", rnd.Float64()*100))
			}
		}
		medv := 5*rm - 0.6*lstat + math.Sin(float64(i))
		row = append(row, fmt.Sprintf("%.2f", medv))
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}

	path := filepath.Join(t.TempDir(), "boston.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

// linearData returns y = 3*x0 - 2*x1 on a grid.
func linearData() ([][]float64, []float64) {
	var features [][]float64
	var targets []float64
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			x0, x1 := float64(i), float64(j)
			features = append(features, []float64{x0, x1})
			targets = append(targets, 3*x0-2*x1)
		}
	}
	return features, targets
}
