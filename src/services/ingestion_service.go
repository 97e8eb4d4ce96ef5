package services

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/wheeltracker/src/logger"
	"github.com/username/wheeltracker/src/models"
	"github.com/username/wheeltracker/src/parsers/robinhood"
	"github.com/username/wheeltracker/src/processors"
	"github.com/username/wheeltracker/src/security/validation"
)

const (
	ckSummary              = "agg_summary_user_%d"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type ingestionServiceImpl struct {
	parser           *robinhood.Parser
	summaryProcessor *processors.SummaryProcessor
	store            PositionStore
	reportCache      *cache.Cache
	maxUploadBytes   int64
}

func NewIngestionService(store PositionStore, reportCache *cache.Cache, maxUploadBytes int64) IngestionService {
	return &ingestionServiceImpl{
		parser:           robinhood.NewParser(),
		summaryProcessor: processors.NewSummaryProcessor(),
		store:            store,
		reportCache:      reportCache,
		maxUploadBytes:   maxUploadBytes,
	}
}

// ProcessUpload runs the precondition gate, then processes every row
// independently and in input order. Rows are never retried and a bad
// row never aborts the batch: partial persistence across a batch is an
// accepted outcome.
func (s *ingestionServiceImpl) ProcessUpload(file io.Reader, userID int64, filename string, contentType string, filesize int64) (*models.IngestionReport, error) {
	if !isCSVUpload(filename, contentType) {
		return nil, ErrNotCSV
	}
	if filesize > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}

	records, err := s.parser.Parse(file)
	if err != nil {
		// ErrEmptyCSV and MissingColumnsError pass through to the handler.
		return nil, err
	}

	report := &models.IngestionReport{Warnings: []string{}}
	for _, rec := range records {
		s.processRecord(userID, rec, report)
	}

	s.InvalidateUserCache(userID)
	logger.L.Info("Activity import finished",
		"userID", userID,
		"filename", filename,
		"accepted", report.AcceptedRows,
		"ignored", report.IgnoredRows,
		"newPositions", report.NewPositions,
		"warnings", len(report.Warnings))

	return report, nil
}

// processRecord settles the disposition of one row: accepted (position
// and transaction persisted together) or ignored, with a warning for
// everything except the expected non-STO filtering.
func (s *ingestionServiceImpl) processRecord(userID int64, rec robinhood.Record, report *models.IngestionReport) {
	if len(rec.Missing) > 0 {
		rowErr := &robinhood.RowFormatError{
			Detail: "missing required fields: " + strings.Join(rec.Missing, ", "),
		}
		report.Warnings = append(report.Warnings, rowErr.Error())
		report.IgnoredRows++
		return
	}

	// Only sell-to-open rows open positions. Everything else is
	// expected, high-volume filtering, not an error.
	if rec.Row.TransCode != models.TransCodeSellToOpen {
		report.IgnoredRows++
		return
	}

	opt, err := robinhood.NormalizeRow(rec.Row)
	if err != nil {
		report.Warnings = append(report.Warnings, rowWarning(err))
		report.IgnoredRows++
		return
	}

	if _, err := s.store.CreatePositionWithTransaction(userID, opt); err != nil {
		logger.L.Error("Failed to persist position from activity row",
			"userID", userID, "symbol", opt.Symbol, "error", err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("Error processing row: %v", err))
		report.IgnoredRows++
		return
	}

	report.AcceptedRows++
	report.NewPositions++
}

// rowWarning converts a row-local error into its user-facing warning
// string. Description text is echoed back to the uploader, so it is
// sanitized first.
func rowWarning(err error) string {
	var descErr *robinhood.DescriptionFormatError
	var rowErr *robinhood.RowFormatError
	switch {
	case errors.As(err, &descErr):
		clean := validation.SanitizeText(validation.StripUnprintable(descErr.Description))
		return (&robinhood.DescriptionFormatError{Description: clean}).Error()
	case errors.As(err, &rowErr):
		return rowErr.Error()
	default:
		return fmt.Sprintf("Error processing row: %v", err)
	}
}

// isCSVUpload accepts a file when the declared MIME type is text/csv or
// the name carries a .csv extension.
func isCSVUpload(filename, contentType string) bool {
	mime := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if mime == "text/csv" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".csv")
}

func (s *ingestionServiceImpl) GetPositions(userID int64) ([]models.Position, error) {
	positions, err := s.store.ListPositions(userID)
	if err != nil {
		return nil, err
	}
	if positions == nil {
		positions = []models.Position{}
	}
	return positions, nil
}

func (s *ingestionServiceImpl) GetTransactions(userID int64) ([]models.OptionTransaction, error) {
	txs, err := s.store.ListTransactions(userID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []models.OptionTransaction{}
	}
	return txs, nil
}

func (s *ingestionServiceImpl) GetSummary(userID int64) (*models.PortfolioSummary, error) {
	cacheKey := fmt.Sprintf(ckSummary, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.PortfolioSummary), nil
	}

	positions, err := s.store.ListPositions(userID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(userID)
	if err != nil {
		return nil, err
	}

	summary := s.summaryProcessor.Process(positions, txs)
	s.reportCache.Set(cacheKey, &summary, cache.DefaultExpiration)
	return &summary, nil
}

func (s *ingestionServiceImpl) InvalidateUserCache(userID int64) {
	s.reportCache.Delete(fmt.Sprintf(ckSummary, userID))
}
