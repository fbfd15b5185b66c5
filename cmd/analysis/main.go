package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"nonprofit-ads-analysis/internal/common/config"
	"nonprofit-ads-analysis/internal/common/errors"
	"nonprofit-ads-analysis/internal/common/logger"
	advertiserRepo "nonprofit-ads-analysis/internal/features/advertiser/repository/csv"
	advertiserService "nonprofit-ads-analysis/internal/features/advertiser/service"
	"nonprofit-ads-analysis/internal/features/nonprofit/repository"
	reportRepo "nonprofit-ads-analysis/internal/features/nonprofit/repository/csv"
	streamRepo "nonprofit-ads-analysis/internal/features/nonprofit/repository/redis"
	nonprofitService "nonprofit-ads-analysis/internal/features/nonprofit/service"
	"nonprofit-ads-analysis/internal/pipeline"
	"nonprofit-ads-analysis/internal/platform/propublica"
	"nonprofit-ads-analysis/internal/platform/redis"
)

const streamMaxLen = 100000

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("nonprofit-analysis", false)
		logger.Error().Err(err).Msg("Failed to load config")
		return 1
	}

	logger.Init("nonprofit-analysis", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publisher repository.ValidationPublisher
	if cfg.RedisEnabled() {
		rdb, err := redis.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to Redis")
			return 1
		}
		defer rdb.Close()
		publisher = streamRepo.NewStreamPublisher(rdb, cfg.Redis.ValidationStream, streamMaxLen)
		logger.Info().Str("stream", cfg.Redis.ValidationStream).Msg("Publishing validations to Redis")
	}

	runner := pipeline.NewRunner(
		pipeline.Paths{
			AdvertisersCSV: cfg.Data.AdvertisersCSV,
			EINAdvertisers: cfg.EINAdvertisersPath(),
			FECAdvertisers: cfg.FECAdvertisersPath(),
			ValidEINs:      cfg.Data.ValidEINs,
			InvalidEINs:    cfg.Data.InvalidEINs,
		},
		advertiserService.NewAdvertiserService(advertiserRepo.NewCSVRepository()),
		nonprofitService.NewValidatorService(propublica.NewClient(cfg.Registry.BaseURL, cfg.Registry.Timeout), publisher),
		reportRepo.NewReportRepository(),
	)

	summary, err := runner.Run(ctx)
	if err != nil {
		event := logger.Error().Err(err)
		if appErr, ok := errors.AsAppError(err); ok {
			event = event.Str("error_code", string(appErr.Code)).Interface("details", appErr.Details)
		}
		event.Msg("Analysis failed")
		return 1
	}

	logger.Info().
		Int("valid", len(summary.Valid)).
		Int("invalid", len(summary.Invalid)).
		Str("valid_path", cfg.Data.ValidEINs).
		Str("invalid_path", cfg.Data.InvalidEINs).
		Msg("Analysis complete")
	return 0
}
