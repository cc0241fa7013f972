package pipeline

import (
	"fmt"
	"strings"

	"photosense-backend/internal/models"
)

// BuildSummary renders the audio-readable summary of an analysis: the text a
// client hands to text-to-speech, and the body of the txt export.
func BuildSummary(caption string, objects []models.DetectedObject, colors []string, ocr *models.OcrResult) string {
	var parts []string

	if caption != "" {
		parts = append(parts, sentence(caption))
	}

	switch len(objects) {
	case 0:
	case 1:
		parts = append(parts, fmt.Sprintf("I can see one object: %s.", objects[0].Label))
	default:
		labels := make([]string, 0, len(objects))
		for _, obj := range objects {
			labels = append(labels, obj.Label)
		}
		parts = append(parts, fmt.Sprintf("I can see %d objects: %s.", len(objects), joinNatural(labels)))
	}

	if len(colors) > 0 {
		parts = append(parts, fmt.Sprintf("The dominant colors are %s.", joinNatural(colors)))
	}

	if ocr != nil && ocr.HasText {
		if ocr.Text != "" {
			parts = append(parts, fmt.Sprintf("The image contains text: %s.", strings.ReplaceAll(ocr.Text, "\n", ", ")))
		} else {
			parts = append(parts, "The image contains text that could not be read.")
		}
	}

	if len(parts) == 0 {
		return "No description is available for this image."
	}

	return strings.Join(parts, " ")
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
		s += "."
	}
	return s
}

func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
