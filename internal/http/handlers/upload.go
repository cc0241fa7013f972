package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photosense-backend/internal/models"
	"photosense-backend/internal/services/ingest"
	"photosense-backend/internal/services/pipeline"
)

// Upload is the one linear state machine of the API: receive, ingest,
// analyze, persist, respond. A failed step answers immediately; nothing is
// retried.
func (h *AnalysisHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile(uploadParamKey)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	// Read one byte past the limit so an oversized upload is detected
	// without buffering the whole body.
	data, err := io.ReadAll(io.LimitReader(file, h.config.Storage.MaxFileSize+1))
	if err != nil {
		h.logger.Error("Failed to read upload", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	decoded, err := h.ingester.Ingest(data, header.Header.Get("Content-Type"))
	if err != nil {
		h.respondValidationError(c, err)
		return
	}

	record, err := h.pipeline.Analyze(c.Request.Context(), decoded, header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrAllStagesFailed):
			h.respondError(c, http.StatusServiceUnavailable, "Image analysis is currently unavailable")
		case errors.Is(err, c.Request.Context().Err()):
			h.respondError(c, http.StatusServiceUnavailable, "Analysis timed out")
		default:
			h.logger.Error("Analysis failed", zap.Error(err))
			h.respondError(c, http.StatusInternalServerError, "Failed to analyze image")
		}
		return
	}

	resp := toUploadResponse(record)

	// The analysis already succeeded; a history write failure is reported
	// alongside the result, not instead of it.
	if err := h.history.Append(record); err != nil {
		h.logger.Error("History append failed",
			zap.String("record_id", record.ID),
			zap.Error(err),
		)
		resp.HistoryError = "analysis completed but could not be saved to history"
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AnalysisHandler) respondValidationError(c *gin.Context, err error) {
	var vErr *ingest.ValidationError
	if !errors.As(err, &vErr) {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusBadRequest
	switch vErr.Kind {
	case ingest.KindOversized:
		status = http.StatusRequestEntityTooLarge
	case ingest.KindUnsupportedType:
		status = http.StatusUnsupportedMediaType
	}
	h.respondError(c, status, vErr.Message)
}

func toUploadResponse(record *models.AnalysisRecord) models.UploadResponse {
	objects := make([]models.ObjectDTO, 0, len(record.Objects))
	for _, obj := range record.Objects {
		objects = append(objects, models.ObjectDTO{
			Label:      obj.Label,
			Confidence: obj.RoundedConfidence(),
			Box:        obj.Box,
		})
	}

	ocr := models.OcrResult{}
	if record.Ocr != nil {
		ocr = *record.Ocr
	}

	return models.UploadResponse{
		Success:        true,
		ID:             record.ID,
		ProcessingTime: record.ProcessingTime,
		OriginalImage:  record.OriginalImage,
		AnnotatedImage: record.AnnotatedImage,
		Caption:        record.Caption,
		Summary:        record.Summary,
		Objects:        objects,
		Colors:         record.Colors,
		Ocr:            ocr,
	}
}
