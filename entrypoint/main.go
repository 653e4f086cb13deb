package main

import (
	"vitaai.com/prontuario/api"
	"vitaai.com/prontuario/logger"
	"vitaai.com/prontuario/records"
	"vitaai.com/prontuario/rmq"
	"vitaai.com/prontuario/s3client"
	"vitaai.com/prontuario/store"
	"vitaai.com/prontuario/types"
	"vitaai.com/prontuario/worker"
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type Config struct {
	AliasDir      string `envconfig:"VITA_ALIAS_DIR" default:""`
	RestAPIActive bool   `envconfig:"VITA_REST_API_ACTIVE" default:"true"`
	RestAPIPort   string `envconfig:"VITA_REST_API_PORT" default:"10000"`
	WorkerActive  bool   `envconfig:"VITA_WORKER_ACTIVE" default:"false"`
	ArchiveActive bool   `envconfig:"VITA_ARCHIVE_ACTIVE" default:"false"`
	PublishActive bool   `envconfig:"VITA_PUBLISH_ACTIVE" default:"false"`
}

const workerRestartDelay = 5 * time.Second

func main() {
	logger.SetupLogging()
	vitaLogger := logger.NewLogger("Main")
	checkAliases := flag.Bool("check-aliases", false, "validate alias extension files and exit")
	flag.Parse()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		vitaLogger.Fatal().Caller().Err(err).Msg("Failed to read environment")
	}

	reconciler, err := buildReconciler(config.AliasDir, &vitaLogger)
	if err != nil {
		vitaLogger.Fatal().Caller().Err(err).Msg("Failed to load alias extensions")
	}
	if *checkAliases {
		vitaLogger.Info().Int("aliases", len(reconciler.Table().Aliases())).Msg("Alias extensions are valid. Exit...")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.RestAPIActive {
		server, cleanup, err := buildServer(config, reconciler, &vitaLogger)
		if err != nil {
			vitaLogger.Fatal().Caller().Err(err).Msg("Could not start REST API")
		}
		defer cleanup()
		go func() {
			vitaLogger.Info().Msgf("REST API on %s", server.Addr)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				vitaLogger.Fatal().Err(err).Msg("REST API stopped with error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	if !config.WorkerActive {
		<-ctx.Done()
		vitaLogger.Info().Msg("Shutting down")
		return
	}

	vitaLogger.Info().Msg("Start timeline worker")
	for {
		timelineWorker, err := worker.New(reconciler.WithLogger(logger.NewLogger("Reconciler")))
		if err != nil {
			vitaLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
		}
		err = timelineWorker.StartWorker(ctx)
		if ctx.Err() != nil {
			vitaLogger.Info().Msg("Shutting down")
			return
		}
		vitaLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
		time.Sleep(workerRestartDelay)
	}
}

// buildReconciler extends the built-in alias table with every file in aliasDir.
func buildReconciler(aliasDir string, vitaLogger *zerolog.Logger) (*records.Reconciler, error) {
	table := records.DefaultTable()
	if aliasDir == "" {
		return records.NewReconciler(table), nil
	}
	extensions, err := types.LoadAliasExtensions(aliasDir)
	if err != nil {
		return nil, err
	}
	for _, ext := range extensions {
		table, err = table.Extend(ext.Fields)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ext.FilePath, err)
		}
		vitaLogger.Info().Str("extension", ext.Name).Str("source", ext.Source).Msg("Applied alias extension")
	}
	return records.NewReconciler(table), nil
}

func buildServer(config Config, reconciler *records.Reconciler, vitaLogger *zerolog.Logger) (*http.Server, func(), error) {
	storeClient, err := store.NewClient()
	if err != nil {
		return nil, nil, err
	}
	request := &api.Request{
		Reconciler: reconciler,
		Records:    storeClient.Records,
	}
	cleanups := []func(){storeClient.Close}

	if config.ArchiveActive {
		s3Client, err := s3client.New()
		if err != nil {
			storeClient.Close()
			return nil, nil, err
		}
		request.Archiver = s3Client
		cleanups = append(cleanups, s3Client.Close)
	}
	if config.PublishActive {
		publisher, err := rmq.NewPublisher()
		if err != nil {
			for _, cleanup := range cleanups {
				cleanup()
			}
			return nil, nil, err
		}
		request.Publisher = publisher
		cleanups = append(cleanups, publisher.Close)
	}
	vitaLogger.Info().
		Bool("archive", config.ArchiveActive).
		Bool("publish", config.PublishActive).
		Msg("Starting API service")

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.RestAPIPort),
		Handler:           request.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server, func() {
		for _, cleanup := range cleanups {
			cleanup()
		}
	}, nil
}
