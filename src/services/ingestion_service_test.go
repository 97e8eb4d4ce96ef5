package services

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/wheeltracker/src/logger"
	"github.com/username/wheeltracker/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

const maxUploadBytes = 2 * 1024 * 1024

const activityHeader = "Activity Date,Process Date,Settle Date,Instrument,Description,Trans Code,Quantity,Price,Amount"

// fakeStore records created positions in memory and can be told to fail.
type fakeStore struct {
	created []models.ParsedOption
	failOn  func(opt models.ParsedOption) error
}

func (f *fakeStore) CreatePositionWithTransaction(userID int64, opt models.ParsedOption) (int64, error) {
	if f.failOn != nil {
		if err := f.failOn(opt); err != nil {
			return 0, err
		}
	}
	f.created = append(f.created, opt)
	return int64(len(f.created)), nil
}

func (f *fakeStore) ListPositions(userID int64) ([]models.Position, error) {
	var out []models.Position
	for i, opt := range f.created {
		out = append(out, models.Position{
			ID:         int64(i + 1),
			UserID:     userID,
			Symbol:     opt.Symbol,
			OptionType: opt.OptionType,
			Strike:     opt.Strike,
			Expiration: opt.Expiration.Format("2006-01-02"),
			OpenDate:   opt.OpenDate.Format("2006-01-02"),
			OpenPrice:  opt.OpenPrice,
			Contracts:  opt.Contracts,
			Premium:    opt.Premium,
			Status:     models.PositionStatusOpen,
		})
	}
	return out, nil
}

func (f *fakeStore) ListTransactions(userID int64) ([]models.OptionTransaction, error) {
	var out []models.OptionTransaction
	for i, opt := range f.created {
		out = append(out, models.OptionTransaction{
			ID:         int64(i + 1),
			UserID:     userID,
			PositionID: int64(i + 1),
			Action:     models.TransCodeSellToOpen,
			TradeDate:  opt.OpenDate.Format("2006-01-02"),
			Price:      opt.OpenPrice,
			Amount:     opt.Premium,
		})
	}
	return out, nil
}

func newTestService(store PositionStore) IngestionService {
	return NewIngestionService(store, cache.New(DefaultCacheExpiration, CacheCleanupInterval), maxUploadBytes)
}

func stoRow(desc, qty, price string) string {
	return fmt.Sprintf("6/20/2024,6/20/2024,6/21/2024,AAPL,%s,STO,%s,%s,", desc, qty, price)
}

func TestProcessUpload_AcceptsSellToOpen(t *testing.T) {
	csvData := activityHeader + "\n" + stoRow("AAPL 6/21/2024 Call $150.50", "2", "$1.25") + "\n"

	store := &fakeStore{}
	svc := newTestService(store)

	report, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", int64(len(csvData)))
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.AcceptedRows)
	assert.Equal(t, int64(0), report.IgnoredRows)
	assert.Equal(t, int64(1), report.NewPositions)
	assert.Empty(t, report.Warnings)

	require.Len(t, store.created, 1)
	opt := store.created[0]
	assert.Equal(t, "AAPL", opt.Symbol)
	assert.Equal(t, "250.00", opt.Premium.StringFixed(2))
}

func TestProcessUpload_CountersAlwaysAddUp(t *testing.T) {
	csvData := activityHeader + "\n" +
		stoRow("AAPL 6/21/2024 Call $150.50", "2", "$1.25") + "\n" + // accepted
		"6/18/2024,6/18/2024,6/19/2024,AAPL,Apple Inc.,Buy,10,$180.00,\n" + // non-STO, silent
		stoRow("not an option", "1", "$1.00") + "\n" + // bad description, warned
		stoRow("TSLA 6/28/2024 Put $200", "x", "$3.00") + "\n" // bad quantity, warned

	store := &fakeStore{}
	svc := newTestService(store)

	report, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", int64(len(csvData)))
	require.NoError(t, err)

	assert.Equal(t, int64(4), report.AcceptedRows+report.IgnoredRows)
	assert.Equal(t, int64(1), report.AcceptedRows)
	assert.Equal(t, int64(3), report.IgnoredRows)
	assert.Equal(t, int64(1), report.NewPositions)
	assert.Len(t, report.Warnings, 2)
}

func TestProcessUpload_NonSTOIgnoredSilently(t *testing.T) {
	csvData := activityHeader + "\n" +
		"6/18/2024,6/18/2024,6/19/2024,AAPL,Apple Inc.,Buy,10,$180.00,\n" +
		"6/19/2024,6/19/2024,6/20/2024,AAPL,AAPL 6/21/2024 Call $150.50,BTC,1,$0.50,\n"

	store := &fakeStore{}
	svc := newTestService(store)

	report, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", int64(len(csvData)))
	require.NoError(t, err)

	assert.Equal(t, int64(0), report.AcceptedRows)
	assert.Equal(t, int64(2), report.IgnoredRows)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, store.created)
}

func TestProcessUpload_BadDescriptionWarnsWithOriginalText(t *testing.T) {
	csvData := activityHeader + "\n" + stoRow("AAPL CallSpread Weird", "1", "$1.00") + "\n"

	store := &fakeStore{}
	svc := newTestService(store)

	report, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", int64(len(csvData)))
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "Invalid option description format")
	assert.Contains(t, report.Warnings[0], "AAPL CallSpread Weird")
	assert.Equal(t, int64(1), report.IgnoredRows)
}

func TestProcessUpload_DescriptionWarningIsSanitized(t *testing.T) {
	csvData := activityHeader + "\n" + stoRow("<script>alert(1)</script>", "1", "$1.00") + "\n"

	store := &fakeStore{}
	svc := newTestService(store)

	report, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", int64(len(csvData)))
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.NotContains(t, report.Warnings[0], "<script>")
}

func TestProcessUpload_ShortRowWarnsInvalidRowFormat(t *testing.T) {
	csvData := activityHeader + "\n" +
		"6/20/2024,6/20/2024,6/21/2024,AAPL,AAPL 6/21/2024 Call $150.50\n"

	store := &fakeStore{}
	svc := newTestService(store)

	report, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", int64(len(csvData)))
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "Invalid row format")
	assert.Equal(t, int64(1), report.IgnoredRows)
}

func TestProcessUpload_StoreFailureBecomesWarning(t *testing.T) {
	csvData := activityHeader + "\n" +
		stoRow("AAPL 6/21/2024 Call $150.50", "1", "$1.25") + "\n" +
		stoRow("TSLA 6/28/2024 Put $200", "1", "$3.00") + "\n"

	store := &fakeStore{
		failOn: func(opt models.ParsedOption) error {
			if opt.Symbol == "AAPL" {
				return errors.New("constraint violation")
			}
			return nil
		},
	}
	svc := newTestService(store)

	report, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", int64(len(csvData)))
	require.NoError(t, err)

	// The failing row never aborts the batch; the TSLA row still lands.
	assert.Equal(t, int64(1), report.AcceptedRows)
	assert.Equal(t, int64(1), report.IgnoredRows)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "Error processing row")
	require.Len(t, store.created, 1)
	assert.Equal(t, "TSLA", store.created[0].Symbol)
}

func TestProcessUpload_NotCSV(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.ProcessUpload(strings.NewReader("hello"), 1, "notes.txt", "text/plain", 5)
	assert.ErrorIs(t, err, ErrNotCSV)
}

func TestProcessUpload_CSVByMimeOnly(t *testing.T) {
	csvData := activityHeader + "\n" + stoRow("AAPL 6/21/2024 Call $150.50", "1", "$1.25") + "\n"

	store := &fakeStore{}
	svc := newTestService(store)

	// Filename has no .csv extension, but the declared MIME type does.
	report, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "export", "text/csv; charset=utf-8", int64(len(csvData)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.AcceptedRows)
}

func TestProcessUpload_SizeBoundary(t *testing.T) {
	csvData := activityHeader + "\n" + stoRow("AAPL 6/21/2024 Call $150.50", "1", "$1.25") + "\n"

	store := &fakeStore{}
	svc := newTestService(store)

	// Exactly at the limit is accepted.
	_, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", maxUploadBytes)
	require.NoError(t, err)

	// One byte over is rejected.
	_, err = svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", maxUploadBytes+1)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestProcessUpload_EmptyCSV(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.ProcessUpload(strings.NewReader(activityHeader+"\n"), 1, "activity.csv", "text/csv", 100)
	require.Error(t, err)
	assert.Equal(t, "CSV file is empty", err.Error())
}

func TestProcessUpload_MissingColumns(t *testing.T) {
	csvData := "Activity Date,Instrument,Description,Quantity,Price\n6/20/2024,AAPL,AAPL 6/21/2024 Call $150.50,1,$1.25\n"

	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", int64(len(csvData)))
	require.Error(t, err)
	assert.Equal(t, "Missing required columns: Trans Code", err.Error())
}

func TestProcessUpload_NoDeduplication(t *testing.T) {
	csvData := activityHeader + "\n" + stoRow("AAPL 6/21/2024 Call $150.50", "1", "$1.25") + "\n"

	store := &fakeStore{}
	svc := newTestService(store)

	for i := 0; i < 2; i++ {
		report, err := svc.ProcessUpload(strings.NewReader(csvData), 1, "activity.csv", "text/csv", int64(len(csvData)))
		require.NoError(t, err)
		assert.Equal(t, int64(1), report.NewPositions)
	}

	// Re-running the same file persists a second, independent set.
	assert.Len(t, store.created, 2)
}

func TestGetSummary_AggregatesAndCaches(t *testing.T) {
	csvData := activityHeader + "\n" +
		stoRow("AAPL 6/21/2024 Call $150.50", "2", "$1.25") + "\n" +
		stoRow("TSLA 6/28/2024 Put $200", "1", "$3.00") + "\n"

	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.ProcessUpload(strings.NewReader(csvData), 7, "activity.csv", "text/csv", int64(len(csvData)))
	require.NoError(t, err)

	summary, err := svc.GetSummary(7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.OpenPositions)
	assert.Equal(t, int64(2), summary.Transactions)
	assert.Equal(t, int64(3), summary.TotalContracts)
	// 250 + 300
	assert.Equal(t, "550.00", summary.TotalPremium.StringFixed(2))

	// Cached: mutating the store does not change the cached result.
	store.created = nil
	again, err := svc.GetSummary(7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.OpenPositions)

	// Invalidation drops the cache.
	svc.InvalidateUserCache(7)
	fresh, err := svc.GetSummary(7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.OpenPositions)
}

func TestGetPositions_EmptyIsNotNil(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	positions, err := svc.GetPositions(1)
	require.NoError(t, err)
	assert.NotNil(t, positions)
	assert.Empty(t, positions)

	txs, err := svc.GetTransactions(1)
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}
