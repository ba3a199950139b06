/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/myflix/apiserver/config"
	"github.com/myflix/apiserver/internal/db"
	"github.com/myflix/apiserver/internal/ingest"
	"github.com/myflix/apiserver/internal/mq"
	"github.com/myflix/apiserver/internal/server"
	"github.com/myflix/apiserver/internal/services"
	"github.com/myflix/apiserver/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ingestCmd represents the ingest command.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Consume catalog documents from the message queue",
	Long: `Runs the catalog ingest consumer. Movies are provisioned out-of-band:
documents published to the catalog channel are validated and upserted into the
store, with inlined posters uploaded to object storage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbConn.Close()

		posterStorage, err := server.BuildStorage(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to init poster storage: %w", err)
		}
		if posterStorage != nil {
			if err := posterStorage.EnsureBucket(ctx); err != nil {
				return fmt.Errorf("failed to ensure poster bucket: %w", err)
			}
		}

		broker, err := buildBroker(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("failed to connect to broker: %w", err)
		}
		defer broker.Close()

		movieService := services.NewMovieService(store.NewMovieRepository(dbConn), posterStorage)
		consumer := ingest.NewConsumer(movieService, broker, cfg.MQ.CatalogChannel, logger)

		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func buildBroker(ctx context.Context, cfg config.MQConfig) (*mq.MQ, error) {
	switch cfg.Backend {
	case "rabbitmq":
		backend, err := mq.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case "pubsub":
		backend, err := mq.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}
