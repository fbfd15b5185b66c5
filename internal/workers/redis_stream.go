package workers

import (
	"context"
	"errors"
	"strings"
	"time"

	go_redis "github.com/redis/go-redis/v9"

	"nonprofit-ads-analysis/internal/common/logger"
	"nonprofit-ads-analysis/internal/features/nonprofit/repository"
	"nonprofit-ads-analysis/internal/features/nonprofit/service"
	"nonprofit-ads-analysis/internal/platform/redis"
)

const (
	consumerGroup = "nonprofit_validators"
	consumerName  = "validator_1"
	defaultRunID  = "stream"

	readBlock     = 5 * time.Second
	retryInterval = 30 * time.Second
	backlogBatch  = 100
)

// StreamClient is the subset of go-redis used by the worker.
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *go_redis.StatusCmd
	XReadGroup(ctx context.Context, a *go_redis.XReadGroupArgs) *go_redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *go_redis.IntCmd
}

// RedisStreamWorker validates EINs requested through a Redis stream and
// publishes each classification.
type RedisStreamWorker struct {
	rdb       StreamClient
	stream    string
	validator service.ValidatorService
	publisher repository.ValidationPublisher

	readBlock     time.Duration
	retryInterval time.Duration
}

func NewRedisStreamWorker(rdb StreamClient, stream string, validator service.ValidatorService, publisher repository.ValidationPublisher) *RedisStreamWorker {
	return &RedisStreamWorker{
		rdb:           rdb,
		stream:        stream,
		validator:     validator,
		publisher:     publisher,
		readBlock:     readBlock,
		retryInterval: retryInterval,
	}
}

// Start reads the request stream until ctx is cancelled. Messages left
// pending by an earlier failure, or by a previous process, are retried on
// startup and then every retryInterval.
func (w *RedisStreamWorker) Start(ctx context.Context) {
	err := w.rdb.XGroupCreateMkStream(ctx, w.stream, consumerGroup, "$").Err()
	if err != nil && !redis.IsBusyGroup(err) {
		logger.Error().Err(err).Str("stream", w.stream).Msg("Error creating consumer group")
	}

	logger.Info().Str("stream", w.stream).Msg("Starting Redis stream worker")

	var lastRetry time.Time
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Stopping Redis stream worker")
			return
		default:
			if lastRetry.IsZero() || time.Since(lastRetry) >= w.retryInterval {
				w.retryPending(ctx)
				lastRetry = time.Now()
			}

			entries, err := w.rdb.XReadGroup(ctx, &go_redis.XReadGroupArgs{
				Group:    consumerGroup,
				Consumer: consumerName,
				Streams:  []string{w.stream, ">"},
				Count:    1,
				Block:    w.readBlock,
			}).Result()

			if err != nil {
				if !errors.Is(err, go_redis.Nil) && ctx.Err() == nil {
					logger.Error().Err(err).Msg("Error reading from stream")
					time.Sleep(1 * time.Second)
				}
				continue
			}

			w.handle(ctx, entries)
		}
	}
}

// retryPending walks this consumer's pending entries list once. Entries that
// fail again stay pending until the next pass.
func (w *RedisStreamWorker) retryPending(ctx context.Context) {
	cursor := "0"
	for ctx.Err() == nil {
		entries, err := w.rdb.XReadGroup(ctx, &go_redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: consumerName,
			Streams:  []string{w.stream, cursor},
			Count:    backlogBatch,
			Block:    -1,
		}).Result()
		if err != nil {
			if !errors.Is(err, go_redis.Nil) && ctx.Err() == nil {
				logger.Error().Err(err).Msg("Error reading pending requests")
			}
			return
		}

		last := w.handle(ctx, entries)
		if last == "" {
			return
		}
		cursor = last
	}
}

// handle processes a batch, acks what is done and returns the last message ID.
func (w *RedisStreamWorker) handle(ctx context.Context, entries []go_redis.XStream) string {
	var last string
	for _, stream := range entries {
		for _, msg := range stream.Messages {
			last = msg.ID
			if w.processMessage(ctx, msg.ID, msg.Values) {
				w.rdb.XAck(ctx, w.stream, consumerGroup, msg.ID)
			}
		}
	}
	return last
}

// processMessage reports whether the message is done and may be acked.
// Transport failures leave it pending for retryPending.
func (w *RedisStreamWorker) processMessage(ctx context.Context, id string, values map[string]interface{}) bool {
	ein, _ := values["ein"].(string)
	ein = strings.TrimSpace(ein)
	if ein == "" {
		logger.Warn().Str("message_id", id).Interface("values", values).Msg("Validation request without ein, skipping")
		return true
	}

	runID, _ := values["run_id"].(string)
	if runID == "" {
		runID = defaultRunID
	}

	v, err := w.validator.Validate(ctx, ein)
	if err != nil {
		logger.Error().Err(err).Str("message_id", id).Str("ein", ein).Msg("Registry lookup failed, leaving request pending")
		return false
	}

	logger.Info().
		Str("message_id", id).
		Str("ein", ein).
		Bool("valid", v.Valid).
		Str("reason", string(v.Reason)).
		Msg("Processed validation request")

	if w.publisher != nil {
		if err := w.publisher.PublishValidation(ctx, runID, v); err != nil {
			logger.Error().Err(err).Str("ein", ein).Msg("Failed to publish validation")
			return false
		}
	}
	return true
}
