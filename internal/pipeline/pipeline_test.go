package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	advertiserRepo "nonprofit-ads-analysis/internal/features/advertiser/repository/csv"
	advertiserService "nonprofit-ads-analysis/internal/features/advertiser/service"
	reportRepo "nonprofit-ads-analysis/internal/features/nonprofit/repository/csv"
	nonprofitService "nonprofit-ads-analysis/internal/features/nonprofit/service"
	"nonprofit-ads-analysis/internal/platform/propublica"
)

const sourceCSV = "Advertiser_ID,Advertiser_Name,Regions,Public_IDs_List\n" +
	"AR1,Friends of Parks,US,EIN ID 11-1111111\n" +
	"AR2,Friends of Parks PAC,US,\"EIN ID 11-1111111; FEC ID C001\"\n" +
	"AR3,Ghost Org,US,EIN ID 22-2222222\n" +
	"AR4,Committee,US,FEC ID C002\n" +
	"AR5,Overseas,GB,EIN ID 33-3333333\n" +
	"AR6,Typo Org,US,EIN: 44-4444444\n" +
	"AR7,No IDs,US,\n"

type registryCalls struct {
	mu    sync.Mutex
	count map[string]int
}

func (c *registryCalls) inc(ein string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count[ein]++
}

func setup(t *testing.T, handler http.HandlerFunc) (*Runner, Paths) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "raw_data_sources", "ads.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte(sourceCSV), 0o644))

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	paths := Paths{
		AdvertisersCSV: src,
		EINAdvertisers: filepath.Join(dir, "extracted_data", "advertisers_ein_us.csv"),
		FECAdvertisers: filepath.Join(dir, "extracted_data", "advertisers_fec_us.csv"),
		ValidEINs:      filepath.Join(dir, "valid_eins.csv"),
		InvalidEINs:    filepath.Join(dir, "invalid_eins.csv"),
	}
	runner := NewRunner(
		paths,
		advertiserService.NewAdvertiserService(advertiserRepo.NewCSVRepository()),
		nonprofitService.NewValidatorService(propublica.NewClient(srv.URL, 5*time.Second), nil),
		reportRepo.NewReportRepository(),
	)
	return runner, paths
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRun_EndToEnd(t *testing.T) {
	calls := &registryCalls{count: map[string]int{}}
	runner, paths := setup(t, func(w http.ResponseWriter, r *http.Request) {
		ein := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".json")
		calls.inc(ein)
		if ein == "11-1111111" {
			_, _ = w.Write([]byte(`{"organization":{"ein":111111111,"name":"FRIENDS OF PARKS","address":"1 Main St","city":"Springfield","state":"IL","zipcode":"62701"}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 7, summary.Advertisers)
	assert.Equal(t, 6, summary.USAdvertisers)
	assert.Equal(t, 4, summary.EINAdvertisers)
	assert.Equal(t, 2, summary.FECAdvertisers)
	assert.Equal(t, 2, summary.EINs)
	assert.Equal(t, 1, summary.UnparsedEINRows)
	assert.Equal(t, []string{"11-1111111"}, summary.Valid)
	assert.Equal(t, []string{"22-2222222"}, summary.Invalid)

	// duplicate EIN across AR1 and AR2 is looked up once
	assert.Equal(t, map[string]int{"11-1111111": 1, "22-2222222": 1}, calls.count)

	assert.Equal(t, "11-1111111\n", read(t, paths.ValidEINs))
	assert.Equal(t, "22-2222222\n", read(t, paths.InvalidEINs))
	assert.Equal(t, "Advertiser_ID,Advertiser_Name,Regions,Public_IDs_List\n"+
		"AR2,Friends of Parks PAC,US,EIN ID 11-1111111; FEC ID C001\n"+
		"AR4,Committee,US,FEC ID C002\n", read(t, paths.FECAdvertisers))
	assert.Contains(t, read(t, paths.EINAdvertisers), "AR6,Typo Org,US,EIN: 44-4444444\n")
	assert.NotContains(t, read(t, paths.EINAdvertisers), "AR5")
}

func TestRun_TransportFailureWritesNoValidationOutput(t *testing.T) {
	runner, paths := setup(t, func(w http.ResponseWriter, r *http.Request) {
		// drop the connection without a response
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
			}
		}
	})

	_, err := runner.Run(context.Background())
	require.Error(t, err)

	_, statErr := os.Stat(paths.ValidEINs)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(paths.InvalidEINs)
	assert.True(t, os.IsNotExist(statErr))

	// filtering happens before validation and its output stays
	_, statErr = os.Stat(paths.EINAdvertisers)
	assert.NoError(t, statErr)
}

func TestRun_MissingSource(t *testing.T) {
	runner, paths := setup(t, func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, os.Remove(paths.AdvertisersCSV))

	_, err := runner.Run(context.Background())
	require.Error(t, err)
}
