package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	apperrors "nonprofit-ads-analysis/internal/common/errors"
	"nonprofit-ads-analysis/internal/common/logger"
	"nonprofit-ads-analysis/internal/features/nonprofit/models"
	"nonprofit-ads-analysis/internal/features/nonprofit/repository"
	"nonprofit-ads-analysis/internal/platform/propublica"
)

// Registry looks up an organization by EIN.
type Registry interface {
	LookupOrganization(ctx context.Context, ein string) (*propublica.LookupResponse, error)
}

type ValidatorService interface {
	// Validate classifies a single EIN. The error is non-nil only for
	// transport failures.
	Validate(ctx context.Context, ein string) (models.Validation, error)
	// ValidateAll classifies EINs one after another, in order. The first
	// transport failure aborts the loop and no result is returned.
	ValidateAll(ctx context.Context, runID string, eins []string) (*models.ValidationResult, error)
}

type validatorService struct {
	registry  Registry
	publisher repository.ValidationPublisher
}

// NewValidatorService builds the validator. publisher may be nil.
func NewValidatorService(registry Registry, publisher repository.ValidationPublisher) ValidatorService {
	return &validatorService{registry: registry, publisher: publisher}
}

func (s *validatorService) Validate(ctx context.Context, ein string) (models.Validation, error) {
	resp, err := s.registry.LookupOrganization(ctx, ein)
	if err != nil {
		return models.Validation{}, apperrors.NewRegistryAPIError(ein, err)
	}
	return Classify(ein, resp), nil
}

func (s *validatorService) ValidateAll(ctx context.Context, runID string, eins []string) (*models.ValidationResult, error) {
	log := logger.With("run_id", runID)
	result := &models.ValidationResult{
		Valid:   []string{},
		Invalid: []string{},
		Results: make([]models.Validation, 0, len(eins)),
	}

	for i, ein := range eins {
		v, err := s.Validate(ctx, ein)
		if err != nil {
			log.Error().Err(err).Str("ein", ein).Int("index", i).Msg("Registry lookup failed, aborting run")
			return nil, err
		}
		logValidation(&log, v)
		result.Add(v)

		if s.publisher != nil {
			if err := s.publisher.PublishValidation(ctx, runID, v); err != nil {
				log.Warn().Err(err).Str("ein", ein).Msg("Failed to publish validation")
			}
		}
	}

	return result, nil
}

// Classify applies the registry decision table:
// 200 with organization is valid, 200 without it and any other status are invalid.
func Classify(ein string, resp *propublica.LookupResponse) models.Validation {
	v := models.Validation{EIN: ein, StatusCode: resp.StatusCode}
	switch {
	case resp.StatusCode != http.StatusOK:
		v.Reason = models.ReasonHTTPStatus
	case resp.Organization == nil:
		v.Reason = models.ReasonNoOrganization
	default:
		v.Valid = true
		v.Reason = models.ReasonFound
		v.Organization = resp.Organization
	}
	return v
}

func logValidation(log *zerolog.Logger, v models.Validation) {
	switch v.Reason {
	case models.ReasonFound:
		log.Info().
			Str("ein", string(v.Organization.EIN)).
			Str("name", v.Organization.Name).
			Str("address", v.Organization.FullAddress()).
			Msg("Valid EIN")
	case models.ReasonNoOrganization:
		log.Info().Str("ein", v.EIN).Msg("Invalid EIN - no organization data found")
	default:
		log.Info().
			Str("ein", v.EIN).
			Int("status", v.StatusCode).
			Msg("Invalid EIN - failed to retrieve data")
	}
}

// Dedupe trims EINs and drops blanks and repeats, keeping first occurrences.
func Dedupe(eins []string) []string {
	out := make([]string, 0, len(eins))
	seen := make(map[string]struct{}, len(eins))
	for _, ein := range eins {
		ein = strings.TrimSpace(ein)
		if ein == "" {
			continue
		}
		if _, dup := seen[ein]; dup {
			continue
		}
		seen[ein] = struct{}{}
		out = append(out, ein)
	}
	return out
}
