package services

import (
	"errors"
	"io"

	"github.com/username/wheeltracker/src/models"
)

// Batch-fatal upload errors. Their messages are surfaced verbatim in the
// JSON error envelope, so the wording is part of the API.
var (
	ErrNoFile       = errors.New("No file provided")
	ErrNotCSV       = errors.New("File must be a CSV")
	ErrFileTooLarge = errors.New("File size must be less than 2MB")
)

// IngestionService defines the core upload processing logic plus the
// read views derived from persisted positions.
type IngestionService interface {
	// ProcessUpload validates the upload as a whole, then folds every
	// activity row into the returned report. Row-level problems never
	// surface as an error, only as report warnings.
	ProcessUpload(file io.Reader, userID int64, filename string, contentType string, filesize int64) (*models.IngestionReport, error)

	GetPositions(userID int64) ([]models.Position, error)
	GetTransactions(userID int64) ([]models.OptionTransaction, error)
	GetSummary(userID int64) (*models.PortfolioSummary, error)
	InvalidateUserCache(userID int64)
}

// PositionStore is the persistence contract the ingestion fold writes
// through. The position and its linked transaction are created as one
// atomic unit, so a failed transaction insert never leaves an orphaned
// position behind.
type PositionStore interface {
	CreatePositionWithTransaction(userID int64, opt models.ParsedOption) (int64, error)
	ListPositions(userID int64) ([]models.Position, error)
	ListTransactions(userID int64) ([]models.OptionTransaction, error)
}
