package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "nonprofit-ads-analysis/internal/common/errors"
	"nonprofit-ads-analysis/internal/common/logger"
	"nonprofit-ads-analysis/internal/features/advertiser/models"
	"nonprofit-ads-analysis/internal/features/advertiser/repository"
)

const utf8BOM = "\ufeff"

var requiredColumns = []string{models.ColumnRegions, models.ColumnPublicIDsList}

type csvRepository struct{}

func NewCSVRepository() repository.AdvertiserRepository {
	return &csvRepository{}
}

// Load reads an advertiser CSV. Rows shorter than the header are padded with
// empty cells, rows longer than the header or not parsable are dropped.
// Stray quotes inside unquoted fields are kept as literal text.
func (r *csvRepository) Load(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewFileError("open", path, err)
	}
	defer f.Close()

	reader := stdcsv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewFileError("read header", path, fmt.Errorf("empty file"))
		}
		return nil, apperrors.NewFileError("read header", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	table := models.NewTable(header, nil)
	for _, col := range requiredColumns {
		if table.Column(col) < 0 {
			return nil, apperrors.NewColumnMissingError(path, col)
		}
	}

	var rows [][]string
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *stdcsv.ParseError
			if errors.As(err, &parseErr) {
				logger.Debug().
					Err(err).
					Str("path", path).
					Int("line", parseErr.Line).
					Msg("Dropping unparsable advertiser row")
				continue
			}
			return nil, apperrors.NewFileError("read row", path, err)
		}
		if len(record) > len(header) {
			logger.Debug().
				Str("path", path).
				Int("line", line).
				Int("fields", len(record)).
				Msg("Dropping malformed advertiser row")
			continue
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		rows = append(rows, record)
	}

	logger.Debug().Str("path", path).Int("rows", len(rows)).Msg("Advertisers loaded")
	return table.Subset(rows), nil
}

// Save writes the table with its header, creating parent directories.
func (r *csvRepository) Save(path string, table *models.Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewFileError("mkdir", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewFileError("create", path, err)
	}

	w := stdcsv.NewWriter(f)
	if err := w.Write(table.Header); err != nil {
		f.Close()
		return apperrors.NewFileError("write", path, err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		f.Close()
		return apperrors.NewFileError("write", path, err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewFileError("close", path, err)
	}

	logger.Debug().Str("path", path).Int("rows", len(table.Rows)).Msg("Advertisers saved")
	return nil
}
