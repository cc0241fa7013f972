package models

import (
	"math"
	"time"
)

// DetectedObject is one object found by the detection stage. The bounding
// box is [x, y, w, h] in source-image pixel coordinates.
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        [4]int  `json:"box"`
}

// RoundedConfidence returns the confidence for display. The stored value
// keeps full precision.
func (o DetectedObject) RoundedConfidence() float64 {
	return math.Round(o.Confidence*1000) / 1000
}

// OcrResult is the output of the text-recognition stage. Text may be empty
// even when HasText is true: a text region was detected but not readable.
type OcrResult struct {
	HasText bool   `json:"has_text"`
	Text    string `json:"text"`
}

// AnalysisRecord is the unit of persistence and of API responses: everything
// one analysis produced for one uploaded image.
type AnalysisRecord struct {
	ID             string           `json:"id"`
	Filename       string           `json:"filename"`
	UploadTime     time.Time        `json:"upload_time"`
	ProcessingTime float64          `json:"processing_time"`
	Caption        string           `json:"caption"`
	Summary        string           `json:"summary"`
	Objects        []DetectedObject `json:"objects"`
	Colors         []string         `json:"colors"`
	Ocr            *OcrResult       `json:"ocr,omitempty"`
	OriginalImage  string           `json:"original_image"`
	AnnotatedImage string           `json:"annotated_image"`
	Thumbnail      string           `json:"thumbnail,omitempty"`
}

// RecordSummary is what history listings return. It deliberately carries no
// pixel data so listing stays cheap regardless of history size.
type RecordSummary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadTime time.Time `json:"upload_time"`
	Caption    string    `json:"caption"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
}

// Summarize reduces a record to its history listing form.
func (r *AnalysisRecord) Summarize() RecordSummary {
	return RecordSummary{
		ID:         r.ID,
		Filename:   r.Filename,
		UploadTime: r.UploadTime,
		Caption:    r.Caption,
		Thumbnail:  r.Thumbnail,
	}
}
