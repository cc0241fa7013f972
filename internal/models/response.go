package models

import "time"

// ObjectDTO is the wire form of a DetectedObject: confidence rounded for
// display, box flattened to [x, y, w, h].
type ObjectDTO struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        [4]int  `json:"box"`
}

// UploadResponse is the body returned by POST /upload on success.
type UploadResponse struct {
	Success        bool        `json:"success"`
	ID             string      `json:"id"`
	ProcessingTime float64     `json:"processing_time"`
	OriginalImage  string      `json:"original_image"`
	AnnotatedImage string      `json:"annotated_image"`
	Caption        string      `json:"caption"`
	Summary        string      `json:"summary"`
	Objects        []ObjectDTO `json:"objects"`
	Colors         []string    `json:"colors"`
	Ocr            OcrResult   `json:"ocr"`
	HistoryError   string      `json:"history_error,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HistoryEntry is one row of GET /history.
type HistoryEntry struct {
	ID         string    `json:"id,omitempty"`
	Filename   string    `json:"filename"`
	UploadTime time.Time `json:"upload_time"`
	Caption    string    `json:"caption"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
}

// HistoryResponse is the body of GET /history.
type HistoryResponse struct {
	Success bool           `json:"success"`
	History []HistoryEntry `json:"history"`
}

// ClearResponse is the body of POST /history/clear.
type ClearResponse struct {
	Success bool   `json:"success"`
	Removed int    `json:"removed"`
	Warning string `json:"warning,omitempty"`
}
