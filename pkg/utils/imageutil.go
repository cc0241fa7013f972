package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxBaseNameLen = 64

// SanitizeFilename reduces an uploaded filename to a safe asset base name:
// path components stripped, unsafe runes replaced, length capped.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		cleaned = "image"
	}
	if len(cleaned) > maxBaseNameLen {
		cleaned = cleaned[len(cleaned)-maxBaseNameLen:]
	}
	return cleaned
}

// NewAssetName produces a unique on-disk name for an upload, keeping the
// original name recognizable.
func NewAssetName(originalFilename string) string {
	return fmt.Sprintf("%s_%s", uuid.New().String()[:8], SanitizeFilename(originalFilename))
}

// DerivedAssetName names an asset derived from a stored one, e.g.
// "ab12cd34_photo.jpg" + "annotated" -> "ab12cd34_photo_annotated.jpg".
// Derived assets are always JPEG.
func DerivedAssetName(assetName, suffix string) string {
	ext := filepath.Ext(assetName)
	base := strings.TrimSuffix(assetName, ext)
	return fmt.Sprintf("%s_%s.jpg", base, suffix)
}
