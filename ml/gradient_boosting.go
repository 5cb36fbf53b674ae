package ml

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
)

// BoostingConfig holds the ensemble hyperparameters.
type BoostingConfig struct {
	NEstimators    int     `json:"n_estimators"`
	LearningRate   float64 `json:"learning_rate"`
	MaxDepth       int     `json:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
	Seed           int64   `json:"seed"`
}

func DefaultBoostingConfig() BoostingConfig {
	return BoostingConfig{
		NEstimators:    200,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

func (c BoostingConfig) validate() error {
	switch {
	case c.NEstimators <= 0:
		return errors.New("n_estimators must be positive")
	case c.LearningRate <= 0:
		return errors.New("learning_rate must be positive")
	case c.MaxDepth <= 0:
		return errors.New("max_depth must be positive")
	case c.MinSamplesLeaf <= 0:
		return errors.New("min_samples_leaf must be positive")
	}
	return nil
}

// GradientBoosting is a least-squares gradient-boosted ensemble of
// regression trees. A fitted or loaded model is read-only and safe for
// concurrent Predict calls.
type GradientBoosting struct {
	config       BoostingConfig
	featureNames []string
	init         float64
	trees        [][]TreeNode
}

func NewGradientBoosting(config BoostingConfig) *GradientBoosting {
	return &GradientBoosting{config: config}
}

// Fit starts from the target mean and adds one tree per stage, each fit to
// the residuals of the ensemble so far and scaled by the learning rate.
func (gb *GradientBoosting) Fit(features [][]float64, targets []float64, featureNames []string) error {
	if err := gb.config.validate(); err != nil {
		return err
	}
	if err := validateTrainingSet(features, targets, featureNames); err != nil {
		return err
	}

	init := floats.Sum(targets) / float64(len(targets))
	predictions := make([]float64, len(targets))
	for i := range predictions {
		predictions[i] = init
	}
	residuals := make([]float64, len(targets))

	grower := treeGrower{
		features:       features,
		maxDepth:       gb.config.MaxDepth,
		minSamplesLeaf: gb.config.MinSamplesLeaf,
		rng:            rand.New(rand.NewSource(gb.config.Seed)),
	}

	trees := make([][]TreeNode, 0, gb.config.NEstimators)
	for stage := 0; stage < gb.config.NEstimators; stage++ {
		floats.SubTo(residuals, targets, predictions)
		nodes := grower.grow(residuals)
		for i, row := range features {
			step, err := evaluateNodes(nodes, row)
			if err != nil {
				return fmt.Errorf("stage %d: %w", stage, err)
			}
			predictions[i] += gb.config.LearningRate * step
		}
		trees = append(trees, nodes)
	}

	gb.init = init
	gb.trees = trees
	gb.featureNames = append([]string(nil), featureNames...)
	return nil
}

func (gb *GradientBoosting) Predict(features []float64) (float64, error) {
	if len(gb.trees) == 0 {
		return 0, ErrNotTrained
	}
	if len(features) != len(gb.featureNames) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), len(gb.featureNames))
	}
	prediction := gb.init
	for i, nodes := range gb.trees {
		step, err := evaluateNodes(nodes, features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		prediction += gb.config.LearningRate * step
	}
	return prediction, nil
}

// PredictBatch runs Predict over every row.
func (gb *GradientBoosting) PredictBatch(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, row := range features {
		p, err := gb.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func (gb *GradientBoosting) Save(path string) error {
	if len(gb.trees) == 0 {
		return ErrNotTrained
	}
	return writeArtifact(path, &artifact{
		Type:         GradientBoostingType,
		FeatureNames: gb.featureNames,
		Config:       gb.config,
		Init:         gb.init,
		Trees:        gb.trees,
		SavedAt:      time.Now().UTC(),
	})
}

func (gb *GradientBoosting) Load(path string) error {
	a, err := readArtifact(path)
	if err != nil {
		return err
	}
	if a.Type != GradientBoostingType {
		return fmt.Errorf("%w: artifact holds %q", ErrUnsupportedModel, a.Type)
	}
	if len(a.Trees) == 0 {
		return errors.New("artifact holds no trees")
	}
	for i, nodes := range a.Trees {
		if err := validateNodes(nodes); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	gb.config = a.Config
	gb.featureNames = a.FeatureNames
	gb.init = a.Init
	gb.trees = a.Trees
	return nil
}

func (gb *GradientBoosting) Describe() ModelInfo {
	nodes := 0
	for _, tree := range gb.trees {
		nodes += len(tree)
	}
	return ModelInfo{
		Type:         GradientBoostingType,
		FeatureNames: append([]string(nil), gb.featureNames...),
		NEstimators:  len(gb.trees),
		LearningRate: gb.config.LearningRate,
		MaxDepth:     gb.config.MaxDepth,
		Seed:         gb.config.Seed,
		Nodes:        nodes,
	}
}
