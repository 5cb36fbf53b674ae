package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Registry records completed training runs in SQLite.
type Registry struct {
	database *sql.DB
}

// TrainingRun is one row of the training log.
type TrainingRun struct {
	ID           int64     `json:"id"`
	ModelName    string    `json:"model_name"`
	ModelPath    string    `json:"model_path"`
	RMSE         float64   `json:"rmse"`
	R2           float64   `json:"r2"`
	TrainRows    int       `json:"train_rows"`
	TestRows     int       `json:"test_rows"`
	NEstimators  int       `json:"n_estimators"`
	LearningRate float64   `json:"learning_rate"`
	MaxDepth     int       `json:"max_depth"`
	Seed         int64     `json:"seed"`
	TrainedAt    time.Time `json:"trained_at"`
}

// Open initializes the SQLite database at path, creating the schema if needed.
func Open(path string) (*Registry, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50) NOT NULL,
        model_path TEXT NOT NULL,
        rmse REAL,
        r2 REAL,
        train_rows INTEGER,
        test_rows INTEGER,
        n_estimators INTEGER,
        learning_rate REAL,
        max_depth INTEGER,
        seed INTEGER,
        trained_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_training_log_trained_at ON training_log(trained_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &Registry{database: database}, nil
}

func (r *Registry) Close() error {
	return r.database.Close()
}

// SaveTrainingRun appends run to the log and returns its id.
func (r *Registry) SaveTrainingRun(ctx context.Context, run TrainingRun) (int64, error) {
	if run.ModelName == "" {
		return 0, errors.New("model name required")
	}
	if run.TrainedAt.IsZero() {
		run.TrainedAt = time.Now()
	}
	result, err := r.database.ExecContext(ctx, `
        INSERT INTO training_log (
            model_name, model_path, rmse, r2, train_rows, test_rows,
            n_estimators, learning_rate, max_depth, seed, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ModelName,
		run.ModelPath,
		run.RMSE,
		run.R2,
		run.TrainRows,
		run.TestRows,
		run.NEstimators,
		run.LearningRate,
		run.MaxDepth,
		run.Seed,
		run.TrainedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LoadTrainingLog returns up to limit runs, newest first. limit <= 0 means all.
func (r *Registry) LoadTrainingLog(ctx context.Context, limit int) ([]TrainingRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.database.QueryContext(ctx, `
        SELECT id, model_name, model_path, rmse, r2, train_rows, test_rows,
               n_estimators, learning_rate, max_depth, seed, trained_at
        FROM training_log
        ORDER BY trained_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestTrainingRun returns the most recent run, or nil when the log is empty.
func (r *Registry) LatestTrainingRun(ctx context.Context) (*TrainingRun, error) {
	runs, err := r.LoadTrainingLog(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func scanRun(rows *sql.Rows) (TrainingRun, error) {
	var run TrainingRun
	var rmse, r2, learningRate sql.NullFloat64
	var trainRows, testRows, nEstimators, maxDepth, seed sql.NullInt64
	err := rows.Scan(&run.ID, &run.ModelName, &run.ModelPath, &rmse, &r2, &trainRows, &testRows,
		&nEstimators, &learningRate, &maxDepth, &seed, &run.TrainedAt)
	if err != nil {
		return run, err
	}
	run.RMSE = rmse.Float64
	run.R2 = r2.Float64
	run.LearningRate = learningRate.Float64
	run.TrainRows = int(trainRows.Int64)
	run.TestRows = int(testRows.Int64)
	run.NEstimators = int(nEstimators.Int64)
	run.MaxDepth = int(maxDepth.Int64)
	run.Seed = seed.Int64
	return run, nil
}
