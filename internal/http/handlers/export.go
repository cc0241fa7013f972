package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"photosense-backend/internal/models"
)

// Export re-serializes a previously returned analysis result into a
// downloadable file. It is a pure transformation: no inference or history
// access, just the client-supplied record in another shape.
func (h *AnalysisHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.Param("format"))
	if format != "txt" && format != "json" {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("unknown export format %q: use txt or json", format))
		return
	}

	var result models.UploadResponse
	if err := c.ShouldBindJSON(&result); err != nil {
		h.respondError(c, http.StatusBadRequest, "request body must be a previously returned analysis result")
		return
	}

	filename := fmt.Sprintf("analysis_%s.%s", time.Now().UTC().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			h.respondError(c, http.StatusInternalServerError, "Failed to export result")
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	case "txt":
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(renderTextReport(&result)))
	}
}

// renderTextReport builds the plain-text export: the same content a client
// would feed to text-to-speech, plus the structured details.
func renderTextReport(result *models.UploadResponse) string {
	var b strings.Builder

	b.WriteString("Image Analysis Report\n")
	b.WriteString("=====================\n\n")

	if result.Caption != "" {
		fmt.Fprintf(&b, "Caption: %s\n\n", result.Caption)
	}
	if result.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n\n", result.Summary)
	}

	if len(result.Objects) > 0 {
		b.WriteString("Detected objects:\n")
		for _, obj := range result.Objects {
			fmt.Fprintf(&b, "  - %s (confidence %.3f) at [%d, %d, %d, %d]\n",
				obj.Label, obj.Confidence, obj.Box[0], obj.Box[1], obj.Box[2], obj.Box[3])
		}
		b.WriteString("\n")
	}

	if len(result.Colors) > 0 {
		fmt.Fprintf(&b, "Dominant colors: %s\n\n", strings.Join(result.Colors, ", "))
	}

	if result.Ocr.HasText {
		if result.Ocr.Text != "" {
			fmt.Fprintf(&b, "Extracted text:\n%s\n\n", result.Ocr.Text)
		} else {
			b.WriteString("Extracted text: detected but unreadable\n\n")
		}
	}

	if result.ProcessingTime > 0 {
		fmt.Fprintf(&b, "Processing time: %.2fs\n", result.ProcessingTime)
	}

	return b.String()
}
