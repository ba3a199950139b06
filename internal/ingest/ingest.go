// Package ingest feeds the movie catalog from a message queue. Movies have no
// HTTP write endpoints; this consumer is the only write path into the catalog.
package ingest

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/myflix/apiserver/internal/mq"
	"github.com/myflix/apiserver/internal/services"
	"go.uber.org/zap"
)

// Consumer subscribes to the catalog channel and upserts incoming movie
// documents.
type Consumer struct {
	movies  *services.MovieService
	broker  *mq.MQ
	channel string
	logger  *zap.Logger
}

// NewConsumer constructs a Consumer for the given channel.
func NewConsumer(movies *services.MovieService, broker *mq.MQ, channel string, logger *zap.Logger) *Consumer {
	return &Consumer{
		movies:  movies,
		broker:  broker,
		channel: channel,
		logger:  logger,
	}
}

// Run consumes catalog documents until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("catalog ingest started", zap.String("channel", c.channel))
	return c.broker.Subscribe(ctx, c.channel, c.handle)
}

// handle processes one catalog document. Malformed or invalid documents are
// acked and dropped; redelivering them cannot make them valid. Store and
// storage failures are returned so the broker redelivers.
func (c *Consumer) handle(ctx context.Context, msg mq.Message) error {
	var doc services.MovieDocument
	if err := json.Unmarshal(msg.Data, &doc); err != nil {
		c.logger.Warn("dropping malformed catalog document",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return nil
	}

	movie, err := c.movies.IngestDocument(ctx, doc)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			c.logger.Warn("dropping invalid catalog document",
				zap.String("message_id", msg.ID),
				zap.String("title", doc.Title),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("catalog upsert failed",
			zap.String("message_id", msg.ID),
			zap.String("title", doc.Title),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("movie ingested",
		zap.Int("movie_id", movie.ID),
		zap.String("title", movie.Title),
	)
	return nil
}
