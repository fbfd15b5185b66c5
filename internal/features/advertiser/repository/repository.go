package repository

import (
	"nonprofit-ads-analysis/internal/features/advertiser/models"
)

type AdvertiserRepository interface {
	Load(path string) (*models.Table, error)
	Save(path string, table *models.Table) error
}
