package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"housepricing/area"
	"housepricing/dataset"
	"housepricing/db"
	qhttp "housepricing/http"
	"housepricing/logging"
	"housepricing/ml"
	"housepricing/pricing"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// 1. Load config
	config, err := loadConfig(resolveConfigPath(*configPath))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(config, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("exiting")
}

func run(config *Config, logger *zap.Logger) error {
	// 2. Load the model once; it is shared read-only by every request.
	model, err := ml.LoadModel(config.Model.Type, config.Model.Path)
	if err != nil {
		return err
	}
	info := model.Describe()
	logger.Info("model loaded",
		zap.String("path", config.Model.Path),
		zap.String("type", info.Type),
		zap.Int("n_estimators", info.NEstimators))

	// 3. Optional training registry
	var trainingLog qhttp.TrainingLog
	if config.Registry.Path != "" {
		registry, err := db.Open(config.Registry.Path)
		if err != nil {
			logger.Warn("training registry unavailable", zap.String("path", config.Registry.Path), zap.Error(err))
		} else {
			defer registry.Close()
			trainingLog = registry
		}
	}

	api := qhttp.NewAPI(
		pricing.NewService(model),
		area.NewService(dataset.NewStore(config.Dataset.Path)),
		model,
		trainingLog,
		logger,
	)

	// 4. Start HTTP server and stop it on SIGINT/SIGTERM
	server := qhttp.NewServer(config.serverConfig(), api, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		return server.Stop(context.Background())
	})
	return g.Wait()
}
