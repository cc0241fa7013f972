package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photosense-backend/internal/models"
	"photosense-backend/internal/services/history"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// History lists past analyses, most recent first.
func (h *AnalysisHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.respondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	summaries, err := h.history.List(limit)
	if err != nil {
		h.logger.Error("History list failed", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to read history")
		return
	}

	entries := make([]models.HistoryEntry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, models.HistoryEntry{
			ID:         s.ID,
			Filename:   s.Filename,
			UploadTime: s.UploadTime,
			Caption:    s.Caption,
			Thumbnail:  s.Thumbnail,
		})
	}

	c.JSON(http.StatusOK, models.HistoryResponse{
		Success: true,
		History: entries,
	})
}

// ClearHistory irreversibly wipes the history index, records, and assets.
func (h *AnalysisHandler) ClearHistory(c *gin.Context) {
	removed, err := h.history.Clear()
	if err != nil {
		var clearErr *history.ClearError
		if errors.As(err, &clearErr) && clearErr.Step == "asset removal" {
			// The index is already gone: history reads empty, but image
			// files may linger on disk. Report the partial cleanup.
			h.logger.Warn("History cleared with leftover assets", zap.Error(clearErr))
			c.JSON(http.StatusOK, models.ClearResponse{
				Success: true,
				Removed: removed,
				Warning: "asset removal failed; stored images may remain on disk",
			})
			return
		}

		h.logger.Error("History clear failed", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to clear history")
		return
	}

	c.JSON(http.StatusOK, models.ClearResponse{
		Success: true,
		Removed: removed,
	})
}
