package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nonprofit-ads-analysis/internal/common/logger"
	advertiserService "nonprofit-ads-analysis/internal/features/advertiser/service"
	nonprofitRepo "nonprofit-ads-analysis/internal/features/nonprofit/repository"
	nonprofitService "nonprofit-ads-analysis/internal/features/nonprofit/service"
)

// Paths are the files a run reads and writes.
type Paths struct {
	AdvertisersCSV string
	EINAdvertisers string
	FECAdvertisers string
	ValidEINs      string
	InvalidEINs    string
}

// Summary describes a finished run.
type Summary struct {
	RunID           string
	Advertisers     int
	USAdvertisers   int
	EINAdvertisers  int
	FECAdvertisers  int
	EINs            int
	UnparsedEINRows int
	Valid           []string
	Invalid         []string
	Duration        time.Duration
}

type Runner struct {
	paths       Paths
	advertisers advertiserService.AdvertiserService
	validator   nonprofitService.ValidatorService
	reports     nonprofitRepo.ReportRepository
}

func NewRunner(paths Paths, advertisers advertiserService.AdvertiserService, validator nonprofitService.ValidatorService, reports nonprofitRepo.ReportRepository) *Runner {
	return &Runner{
		paths:       paths,
		advertisers: advertisers,
		validator:   validator,
		reports:     reports,
	}
}

// Run filters the advertisers, validates every extracted EIN and writes the
// valid and invalid lists. Nothing is written for the validation stage when
// it fails part way.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := logger.With("run_id", runID)

	log.Info().Str("source", r.paths.AdvertisersCSV).Msg("Run started")

	filtered, err := r.advertisers.LoadAndFilter(r.paths.AdvertisersCSV, r.paths.EINAdvertisers, r.paths.FECAdvertisers)
	if err != nil {
		return nil, err
	}

	extraction := r.advertisers.ExtractEINs(filtered.EIN)
	if len(extraction.Unparsed) > 0 {
		log.Warn().
			Int("rows", len(extraction.Unparsed)).
			Msg("Advertisers mention an EIN that could not be extracted")
	}
	log.Info().Int("eins", len(extraction.EINs)).Msg("EINs extracted")

	result, err := r.validator.ValidateAll(ctx, runID, extraction.EINs)
	if err != nil {
		return nil, fmt.Errorf("validate EINs: %w", err)
	}

	if err := r.reports.SaveEINs(r.paths.ValidEINs, result.Valid); err != nil {
		return nil, fmt.Errorf("save valid EINs: %w", err)
	}
	if err := r.reports.SaveEINs(r.paths.InvalidEINs, result.Invalid); err != nil {
		return nil, fmt.Errorf("save invalid EINs: %w", err)
	}

	summary := &Summary{
		RunID:           runID,
		Advertisers:     len(filtered.All.Rows),
		USAdvertisers:   len(filtered.US.Rows),
		EINAdvertisers:  len(filtered.EIN.Rows),
		FECAdvertisers:  len(filtered.FEC.Rows),
		EINs:            len(extraction.EINs),
		UnparsedEINRows: len(extraction.Unparsed),
		Valid:           result.Valid,
		Invalid:         result.Invalid,
		Duration:        time.Since(start),
	}

	log.Info().
		Int("valid", len(summary.Valid)).
		Int("invalid", len(summary.Invalid)).
		Int("unparsed_ein_rows", summary.UnparsedEINRows).
		Dur("duration", summary.Duration).
		Msg("Run finished")

	return summary, nil
}
