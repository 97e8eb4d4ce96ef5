package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/wheeltracker/src/logger"
	"github.com/username/wheeltracker/src/services"
	"github.com/username/wheeltracker/src/utils"
)

type PortfolioHandler struct {
	ingestionService services.IngestionService
}

func NewPortfolioHandler(service services.IngestionService) *PortfolioHandler {
	return &PortfolioHandler{
		ingestionService: service,
	}
}

func (h *PortfolioHandler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	positions, err := h.ingestionService.GetPositions(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error retrieving positions", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving positions for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(positions); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding positions response", "userID", userID, "error", err)
	}
}

func (h *PortfolioHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	txs, err := h.ingestionService.GetTransactions(userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error retrieving transactions", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving transactions for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(txs); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding transactions response", "userID", userID, "error", err)
	}
}

// HandleGetSummary serves the aggregate dashboard figures with ETag
// support so an unchanged portfolio costs the client nothing.
func (h *PortfolioHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	summary, err := h.ingestionService.GetSummary(userID)
	if err != nil {
		ctxLogger.Error("Error retrieving summary", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving summary for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(summary)
	if etagErr != nil {
		ctxLogger.Error("Failed to generate ETag for summary", "userID", userID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				ctxLogger.Debug("ETag match for summary", "userID", userID, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		ctxLogger.Error("Error encoding summary response", "userID", userID, "error", err)
	}
}
