package csv

import (
	stdcsv "encoding/csv"
	"os"
	"path/filepath"

	apperrors "nonprofit-ads-analysis/internal/common/errors"
	"nonprofit-ads-analysis/internal/features/nonprofit/repository"
)

type reportRepository struct{}

func NewReportRepository() repository.ReportRepository {
	return &reportRepository{}
}

// SaveEINs writes one EIN per line without a header. An empty list produces
// an empty file.
func (r *reportRepository) SaveEINs(path string, eins []string) error {
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
	for _, ein := range eins {
		if err := w.Write([]string{ein}); err != nil {
			f.Close()
			return apperrors.NewFileError("write", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return apperrors.NewFileError("write", path, err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewFileError("close", path, err)
	}
	return nil
}
