package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/wheeltracker/src/database"
	"github.com/username/wheeltracker/src/logger"
	"github.com/username/wheeltracker/src/model"
	"github.com/username/wheeltracker/src/parsers/robinhood"
	"github.com/username/wheeltracker/src/security/validation"
	"github.com/username/wheeltracker/src/services"
	"github.com/username/wheeltracker/src/utils"
)

type UploadHandler struct {
	ingestionService services.IngestionService
}

func NewUploadHandler(service services.IngestionService) *UploadHandler {
	return &UploadHandler{
		ingestionService: service,
	}
}

// HandleUpload ingests one Robinhood activity CSV. Batch-fatal
// precondition failures come back as structured 400s; once row
// processing starts the caller always gets a 200 report, with bad rows
// surfaced as warnings rather than request failures.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "userID", userID, "error", err)
		utils.SendJSONError(w, services.ErrNoFile.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Content sniffing on top of the name/MIME gate: a binary payload
	// wearing a .csv name is still not a CSV.
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		ctxLogger.Warn("Server-side file content validation failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, services.ErrNotCSV.Error(), http.StatusBadRequest)
		return
	}

	ctxLogger.Info("Processing upload request", "userID", userID, "filename", fileHeader.Filename, "size", fileHeader.Size)

	declaredContentType := fileHeader.Header.Get("Content-Type")
	report, err := h.ingestionService.ProcessUpload(file, userID, fileHeader.Filename, declaredContentType, fileHeader.Size)
	if err != nil {
		h.sendUploadError(w, ctxLogger.Warn, err)
		return
	}

	if err := model.IncrementUploadCount(database.DB, userID); err != nil {
		ctxLogger.Error("Failed to increment upload count", "userID", userID, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		ctxLogger.Error("Error encoding JSON response for ingestion report", "userID", userID, "error", err)
	}
}

// sendUploadError maps the batch-fatal sentinels onto their 400
// responses; anything unexpected is an opaque 500.
func (h *UploadHandler) sendUploadError(w http.ResponseWriter, warn func(msg string, args ...any), err error) {
	var missingCols *robinhood.MissingColumnsError
	switch {
	case errors.Is(err, services.ErrNotCSV),
		errors.Is(err, services.ErrFileTooLarge),
		errors.Is(err, services.ErrNoFile),
		errors.Is(err, robinhood.ErrEmptyCSV):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &missingCols):
		utils.SendJSONError(w, missingCols.Error(), http.StatusBadRequest)
	default:
		warn("Upload failed with unexpected error", "error", err)
		utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}
