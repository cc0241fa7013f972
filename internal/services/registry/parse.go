package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"photosense-backend/internal/models"
)

type detectResponse struct {
	Objects []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		Box        struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			W float64 `json:"w"`
			H float64 `json:"h"`
		} `json:"box"`
	} `json:"objects"`
}

// parseObjects parses the detection response and converts normalized boxes
// to pixel coordinates of a width x height image. Entries without a label or
// with a degenerate box are dropped.
func parseObjects(raw string, width, height int) ([]models.DetectedObject, error) {
	cleaned, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("malformed detection response: %w", err)
	}

	objects := make([]models.DetectedObject, 0, len(resp.Objects))
	for _, o := range resp.Objects {
		label := strings.ToLower(strings.TrimSpace(o.Label))
		if label == "" || label == "none" {
			continue
		}

		x := clamp01(o.Box.X)
		y := clamp01(o.Box.Y)
		w := clamp01(o.Box.W)
		h := clamp01(o.Box.H)
		if w+x > 1 {
			w = 1 - x
		}
		if h+y > 1 {
			h = 1 - y
		}

		px := int(x * float64(width))
		py := int(y * float64(height))
		pw := int(w * float64(width))
		ph := int(h * float64(height))
		if pw <= 0 || ph <= 0 {
			continue
		}

		objects = append(objects, models.DetectedObject{
			Label:      label,
			Confidence: clamp01(o.Confidence),
			Box:        [4]int{px, py, pw, ph},
		})
	}

	return objects, nil
}

// parseOcr parses the text-recognition response.
func parseOcr(raw string) (*models.OcrResult, error) {
	cleaned, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var result models.OcrResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("malformed ocr response: %w", err)
	}
	result.Text = strings.TrimSpace(result.Text)

	return &result, nil
}

// extractJSON strips code fences and slices to the outermost braces. Vision
// models wrap JSON in markdown often enough that this is unavoidable.
func extractJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in model response")
	}

	return raw[start : end+1], nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
