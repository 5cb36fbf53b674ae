package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"housepricing/dataset"
)

// SplitFeaturesTarget separates the model inputs from MEDV. Rows without a
// target cannot be learned from and are dropped; the count is returned.
func SplitFeaturesTarget(frame *dataset.Frame) (features [][]float64, targets []float64, dropped int, err error) {
	for _, column := range frame.Columns {
		if column == dataset.TargetColumn {
			continue
		}
		if !contains(FeatureNames(), column) {
			return nil, nil, 0, fmt.Errorf("unexpected column %q in dataset", column)
		}
	}
	all, err := frame.Select(FeatureNames())
	if err != nil {
		return nil, nil, 0, err
	}
	target, err := frame.Column(dataset.TargetColumn)
	if err != nil {
		return nil, nil, 0, err
	}

	features = make([][]float64, 0, len(all))
	targets = make([]float64, 0, len(target))
	for i, row := range all {
		if math.IsNaN(target[i]) {
			dropped++
			continue
		}
		features = append(features, row)
		targets = append(targets, target[i])
	}
	if len(features) == 0 {
		return nil, nil, dropped, errors.New("dataset has no rows with a target value")
	}
	return features, targets, dropped, nil
}

// TrainTestSplit shuffles rows with a seeded permutation and holds out
// ceil(n*testRatio) of them. The same seed and input give the same split.
func TrainTestSplit(features [][]float64, targets []float64, testRatio float64, seed int64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64, err error) {
	if len(features) != len(targets) {
		return nil, nil, nil, nil, errors.New("features and targets size mismatch")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("test ratio %v must be in (0, 1)", testRatio)
	}
	n := len(features)
	testSize := int(math.Ceil(float64(n) * testRatio))
	if testSize >= n {
		return nil, nil, nil, nil, fmt.Errorf("%d rows is too few to hold out %d for testing", n, testSize)
	}

	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)
	for i, idx := range indices {
		if i < testSize {
			testX = append(testX, features[idx])
			testY = append(testY, targets[idx])
		} else {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, targets[idx])
		}
	}
	return trainX, trainY, testX, testY, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
