package repository

import (
	"context"

	"nonprofit-ads-analysis/internal/features/nonprofit/models"
)

// ReportRepository persists the valid and invalid EIN lists.
type ReportRepository interface {
	SaveEINs(path string, eins []string) error
}

// ValidationPublisher fans classifications out to other consumers.
type ValidationPublisher interface {
	PublishValidation(ctx context.Context, runID string, v models.Validation) error
}
