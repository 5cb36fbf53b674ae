package ml

import (
	"fmt"
)

const (
	GradientBoostingType = "gradient_boosting"
	RegressionTreeType   = "regression_tree"
)

// NewModel returns an untrained model of the given type.
func NewModel(modelType string, config BoostingConfig) (MLModel, error) {
	switch modelType {
	case GradientBoostingType, "":
		return NewGradientBoosting(config), nil
	case RegressionTreeType:
		return NewRegressionTree(config.MaxDepth, config.Seed), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, modelType)
	}
}

// LoadModel reads a persisted model. The result must only be read after this
// returns; it is never retrained.
func LoadModel(modelType, path string) (MLModel, error) {
	model, err := NewModel(modelType, BoostingConfig{})
	if err != nil {
		return nil, err
	}
	if err := model.Load(path); err != nil {
		return nil, err
	}
	info := model.Describe()
	if !sameFeatures(info.FeatureNames, FeatureNames()) {
		return nil, fmt.Errorf("%w: model was trained on %v", ErrFeatureMismatch, info.FeatureNames)
	}
	return model, nil
}
