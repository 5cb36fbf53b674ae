package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"housepricing/db"
	"housepricing/logging"
	"housepricing/ml"
)

type options struct {
	training     ml.TrainingConfig
	registryPath string
	logLevel     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{training: ml.DefaultTrainingConfig()}

	cmd := &cobra.Command{
		Use:   "train_model",
		Short: "Train the house price model and write the artifact the server loads",
		Long: `train_model fills missing features with column means, holds out a seeded
test split, fits a gradient-boosted regressor and reports RMSE and R2 on the
held-out rows before saving the model.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.training.DataPath, "data", opts.training.DataPath, "dataset CSV path")
	flags.StringVar(&opts.training.ModelPath, "out", opts.training.ModelPath, "model output path (.gz to compress)")
	flags.StringVar(&opts.training.ModelType, "model-type", opts.training.ModelType, "gradient_boosting or regression_tree")
	flags.IntVar(&opts.training.Boosting.NEstimators, "n-estimators", opts.training.Boosting.NEstimators, "number of boosting stages")
	flags.Float64Var(&opts.training.Boosting.LearningRate, "learning-rate", opts.training.Boosting.LearningRate, "shrinkage applied to each stage")
	flags.IntVar(&opts.training.Boosting.MaxDepth, "max-depth", opts.training.Boosting.MaxDepth, "maximum depth of each tree")
	flags.Int64Var(&opts.training.Boosting.Seed, "seed", opts.training.Boosting.Seed, "random seed for the split and the trees")
	flags.Float64Var(&opts.training.TestRatio, "test-ratio", opts.training.TestRatio, "fraction of rows held out for evaluation")
	flags.StringVar(&opts.registryPath, "registry", "", "SQLite training registry to record the run in")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level")

	return cmd
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := logging.New(logging.Config{Level: opts.logLevel})
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("training started",
		zap.String("data", opts.training.DataPath),
		zap.String("model_type", opts.training.ModelType),
		zap.Int("n_estimators", opts.training.Boosting.NEstimators),
		zap.Float64("learning_rate", opts.training.Boosting.LearningRate),
		zap.Int("max_depth", opts.training.Boosting.MaxDepth),
		zap.Int64("seed", opts.training.Boosting.Seed))

	report, err := ml.Train(ctx, opts.training)
	if err != nil {
		return err
	}
	if report.DroppedRows > 0 {
		logger.Warn("rows without a target were skipped", zap.Int("rows", report.DroppedRows))
	}

	fmt.Fprintln(out, "RMSE:", report.Metrics.RMSE)
	fmt.Fprintln(out, "R2 Score:", report.Metrics.R2)
	fmt.Fprintf(out, "Model saved as %s\n", report.ModelPath)

	if opts.registryPath == "" {
		return nil
	}
	registry, err := db.Open(opts.registryPath)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer registry.Close()

	id, err := registry.SaveTrainingRun(ctx, db.TrainingRun{
		ModelName:    report.ModelType,
		ModelPath:    report.ModelPath,
		RMSE:         report.Metrics.RMSE,
		R2:           report.Metrics.R2,
		TrainRows:    report.TrainRows,
		TestRows:     report.TestRows,
		NEstimators:  report.Config.NEstimators,
		LearningRate: report.Config.LearningRate,
		MaxDepth:     report.Config.MaxDepth,
		Seed:         report.Config.Seed,
		TrainedAt:    report.TrainedAt,
	})
	if err != nil {
		return fmt.Errorf("record training run: %w", err)
	}
	logger.Info("training run recorded", zap.Int64("id", id), zap.String("registry", opts.registryPath))
	return nil
}
