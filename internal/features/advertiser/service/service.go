package service

import (
	"fmt"
	"regexp"
	"strings"

	"nonprofit-ads-analysis/internal/common/logger"
	"nonprofit-ads-analysis/internal/features/advertiser/models"
	"nonprofit-ads-analysis/internal/features/advertiser/repository"
)

var einPattern = regexp.MustCompile(`EIN ID (\d+-?\d*)`)

// FilterResult holds the US advertisers split by identifier type.
type FilterResult struct {
	All *models.Table
	US  *models.Table
	EIN *models.Table
	FEC *models.Table
}

type AdvertiserService interface {
	// LoadAndFilter reads the source CSV, keeps US advertisers and writes the
	// EIN and FEC subsets to einPath and fecPath.
	LoadAndFilter(sourcePath, einPath, fecPath string) (*FilterResult, error)
	ExtractEINs(table *models.Table) *models.Extraction
}

type advertiserService struct {
	repo repository.AdvertiserRepository
}

func NewAdvertiserService(repo repository.AdvertiserRepository) AdvertiserService {
	return &advertiserService{repo: repo}
}

func (s *advertiserService) LoadAndFilter(sourcePath, einPath, fecPath string) (*FilterResult, error) {
	table, err := s.repo.Load(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("load advertisers: %w", err)
	}

	us := FilterContains(table, models.ColumnRegions, models.RegionUS)
	result := &FilterResult{
		All: table,
		US:  us,
		EIN: FilterContains(us, models.ColumnPublicIDsList, models.IDTypeEIN),
		FEC: FilterContains(us, models.ColumnPublicIDsList, models.IDTypeFEC),
	}

	if err := s.repo.Save(einPath, result.EIN); err != nil {
		return nil, fmt.Errorf("save EIN advertisers: %w", err)
	}
	if err := s.repo.Save(fecPath, result.FEC); err != nil {
		return nil, fmt.Errorf("save FEC advertisers: %w", err)
	}

	logger.Info().
		Int("total", len(table.Rows)).
		Int("us", len(us.Rows)).
		Int("ein", len(result.EIN.Rows)).
		Int("fec", len(result.FEC.Rows)).
		Msg("Advertisers filtered")

	return result, nil
}

func (s *advertiserService) ExtractEINs(table *models.Table) *models.Extraction {
	return ExtractEINs(table)
}

// FilterContains keeps rows whose column contains substr. Comparison is case
// sensitive and an empty cell never matches.
func FilterContains(table *models.Table, column, substr string) *models.Table {
	var rows [][]string
	for _, row := range table.Rows {
		v := table.Value(row, column)
		if v != "" && strings.Contains(v, substr) {
			rows = append(rows, row)
		}
	}
	return table.Subset(rows)
}

// ExtractEINs takes the first "EIN ID <number>" token of every row,
// dropping repeats. Rows that mention EIN without that shape are collected in
// Unparsed instead of being ignored.
func ExtractEINs(table *models.Table) *models.Extraction {
	out := &models.Extraction{}
	seen := make(map[string]struct{})

	for _, row := range table.Rows {
		ids := table.Value(row, models.ColumnPublicIDsList)
		if ids == "" {
			continue
		}
		ein, ok := ParseEIN(ids)
		if !ok {
			if strings.Contains(ids, models.IDTypeEIN) {
				out.Unparsed = append(out.Unparsed, ids)
				logger.Warn().Str("public_ids", ids).Msg("EIN mentioned but not extractable")
			}
			continue
		}
		if _, dup := seen[ein]; dup {
			continue
		}
		seen[ein] = struct{}{}
		out.EINs = append(out.EINs, ein)
	}

	return out
}

// ParseEIN returns the first EIN token in a Public_IDs_List value.
func ParseEIN(publicIDs string) (string, bool) {
	m := einPattern.FindStringSubmatch(publicIDs)
	if m == nil {
		return "", false
	}
	return m[1], true
}
