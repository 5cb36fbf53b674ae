package ml

import "errors"

var (
	ErrNotTrained       = errors.New("model not trained")
	ErrFeatureMismatch  = errors.New("feature count does not match model")
	ErrUnsupportedModel = errors.New("unsupported model type")
)

// Regressor produces a single numeric prediction from a feature vector.
type Regressor interface {
	Predict(features []float64) (float64, error)
}

// MLModel is a trainable, persistable regressor.
type MLModel interface {
	Regressor
	Fit(features [][]float64, targets []float64, featureNames []string) error
	Save(path string) error
	Load(path string) error
	Describe() ModelInfo
}

// ModelInfo summarizes a loaded artifact.
type ModelInfo struct {
	Type         string   `json:"type"`
	FeatureNames []string `json:"feature_names"`
	NEstimators  int      `json:"n_estimators,omitempty"`
	LearningRate float64  `json:"learning_rate,omitempty"`
	MaxDepth     int      `json:"max_depth"`
	Seed         int64    `json:"seed"`
	Nodes        int      `json:"nodes"`
}
