package ml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"housepricing/dataset"
)

type TrainingConfig struct {
	DataPath  string
	ModelPath string
	ModelType string
	Boosting  BoostingConfig
	TestRatio float64
}

func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		DataPath:  "data/boston.csv",
		ModelPath: "boston_model_gb.json",
		ModelType: GradientBoostingType,
		Boosting:  DefaultBoostingConfig(),
		TestRatio: 0.2,
	}
}

// TrainingReport describes one completed training run.
type TrainingReport struct {
	ModelType    string         `json:"model_type"`
	ModelPath    string         `json:"model_path"`
	Metrics      Metrics        `json:"metrics"`
	TrainRows    int            `json:"train_rows"`
	TestRows     int            `json:"test_rows"`
	DroppedRows  int            `json:"dropped_rows"`
	ImputedMeans []float64      `json:"imputed_means"`
	Config       BoostingConfig `json:"config"`
	TrainedAt    time.Time      `json:"trained_at"`
}

// Train runs the offline pipeline: load, impute, split, fit, evaluate, save.
//
// The imputer is fit on every row of the dataset before the split, so
// held-out rows and rows without a target contribute to the means used to
// fill training rows.
func Train(ctx context.Context, config TrainingConfig) (*TrainingReport, error) {
	if config.DataPath == "" {
		return nil, errors.New("data path is required")
	}
	if config.ModelPath == "" {
		return nil, errors.New("model path is required")
	}

	frame, err := dataset.NewStore(config.DataPath).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	features, targets, dropped, err := SplitFeaturesTarget(frame)
	if err != nil {
		return nil, err
	}

	// Means come from every row, including those later dropped for lacking
	// a target.
	allFeatures, err := frame.Select(FeatureNames())
	if err != nil {
		return nil, err
	}
	imputer := &MeanImputer{}
	if err := imputer.Fit(allFeatures); err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}
	features, err = imputer.Transform(features)
	if err != nil {
		return nil, fmt.Errorf("impute: %w", err)
	}

	trainX, trainY, testX, testY, err := TrainTestSplit(features, targets, config.TestRatio, config.Boosting.Seed)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := NewModel(config.ModelType, config.Boosting)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(trainX, trainY, FeatureNames()); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	metrics, err := Evaluate(model, testX, testY)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	if dir := filepath.Dir(config.ModelPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := model.Save(config.ModelPath); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	return &TrainingReport{
		ModelType:    model.Describe().Type,
		ModelPath:    config.ModelPath,
		Metrics:      metrics,
		TrainRows:    len(trainX),
		TestRows:     len(testX),
		DroppedRows:  dropped,
		ImputedMeans: imputer.Means(),
		Config:       config.Boosting,
		TrainedAt:    time.Now().UTC(),
	}, nil
}
