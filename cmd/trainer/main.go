package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/loan-approval/internal/application/dto"
	"github.com/bibbank/loan-approval/internal/application/usecase"
	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
	"github.com/bibbank/loan-approval/internal/infrastructure/config"
	"github.com/bibbank/loan-approval/internal/infrastructure/dataset"
	"github.com/bibbank/loan-approval/internal/infrastructure/messaging"
	"github.com/bibbank/loan-approval/internal/infrastructure/ml"
	pgstore "github.com/bibbank/loan-approval/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/loan-approval/internal/infrastructure/persistence/sqlite"
	pkgkafka "github.com/bibbank/loan-approval/pkg/kafka"
	"github.com/bibbank/loan-approval/pkg/observability"
	pkgpostgres "github.com/bibbank/loan-approval/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $CONFIG_FILE)")
	dataPath := flag.String("data", "", "CSV loan book to train on (overrides dataset_path)")
	source := flag.String("source", "", "dataset source: csv or postgres (overrides dataset_source)")
	out := flag.String("out", "", "where to write the model artifact (overrides artifact_path)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *dataPath != "" {
		cfg.Training.DatasetPath = *dataPath
	}
	if *source != "" {
		cfg.Training.DatasetSource = *source
	}
	if *out != "" {
		cfg.Model.ArtifactPath = *out
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.Telemetry.ServiceName + "-trainer",
	})

	resp, err := run(ctx, cfg, logger)
	if err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}

	report, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		logger.Error("failed to encode training report", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(report))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dto.TrainModelResponse, error) {
	// Postgres is only dialled when the dataset or the ledger lives there.
	var db *pgxpool.Pool
	if cfg.Training.DatasetSource == config.DatasetSourcePostgres || cfg.Ledger.Kind == config.LedgerPostgres {
		pool, err := pkgpostgres.NewPool(ctx, pkgpostgres.Config{URL: cfg.Database.URL})
		if err != nil {
			return dto.TrainModelResponse{}, err
		}
		defer pool.Close()
		db = pool
	}

	var src port.DatasetSource
	switch cfg.Training.DatasetSource {
	case config.DatasetSourcePostgres:
		src = pgstore.NewDatasetSource(db, cfg.Training.DatasetTable)
	default:
		src = dataset.NewCSVSource(cfg.Training.DatasetPath)
	}

	var runs port.TrainingRunRepository
	switch cfg.Ledger.Kind {
	case config.LedgerSQLite:
		ledger, err := sqlite.Open(ctx, cfg.Ledger.Path)
		if err != nil {
			return dto.TrainModelResponse{}, err
		}
		defer ledger.Close()
		runs = ledger
	case config.LedgerPostgres:
		if err := pkgpostgres.RunMigrations(cfg.Database.URL, "file://"+cfg.Database.MigrationsPath); err != nil {
			return dto.TrainModelResponse{}, err
		}
		runs = pgstore.NewTrainingRunRepo(db)
	}

	publisher, closePublisher, err := messaging.NewEventPublisher(pkgkafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ClientID:      cfg.Telemetry.ServiceName + "-trainer",
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
		TLS:           cfg.Kafka.TLS,
	}, cfg.Kafka.Topic, logger)
	if err != nil {
		return dto.TrainModelResponse{}, err
	}
	defer func() {
		if err := closePublisher(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
	}()

	uc := usecase.NewTrainModel(
		src,
		ml.NewTrainer(cfg.Training.C, cfg.Training.MaxIter),
		ml.NewFileArtifactStore(cfg.Model.ArtifactPath),
		runs,
		publisher,
		logger,
	)

	resp, err := uc.Execute(ctx, dto.TrainModelRequest{
		Schema:       model.DefaultSchema(),
		Seed:         cfg.Training.Seed,
		TestFraction: cfg.Training.TestFraction,
	})
	if err != nil {
		return dto.TrainModelResponse{}, err
	}

	for _, c := range resp.Evaluation.Classes {
		logger.Info("class report",
			"label", c.Label,
			"precision", c.Precision,
			"recall", c.Recall,
			"f1", c.F1,
			"support", c.Support,
		)
	}
	return resp, nil
}
