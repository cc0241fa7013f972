package ingest

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
)

// ValidationKind identifies why an upload was rejected.
type ValidationKind string

const (
	KindOversized       ValidationKind = "oversized"
	KindUnsupportedType ValidationKind = "unsupported_type"
	KindCorrupt         ValidationKind = "corrupt"
)

// ValidationError is returned for any rejected upload. Kind is always one of
// the constants above so callers can map it to an actionable message.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DecodedImage is a validated, decoded upload. Owned by a single request;
// never shared.
type DecodedImage struct {
	Pixels *image.NRGBA
	Width  int
	Height int
	Format string
}

// Ingester validates and decodes uploaded image bytes before any model sees
// them.
type Ingester struct {
	maxSize      int64
	allowedTypes []string
}

func New(maxSize int64, allowedTypes []string) *Ingester {
	return &Ingester{
		maxSize:      maxSize,
		allowedTypes: allowedTypes,
	}
}

// Ingest validates the upload and decodes it into pixel data. Checks run in
// order: size, declared MIME type, then the authoritative content decode.
// The declared MIME type is only a fast-path hint; mislabeled or truncated
// bytes are still rejected as corrupt by the decode step.
func (i *Ingester) Ingest(data []byte, declaredMIME string) (*DecodedImage, error) {
	if int64(len(data)) > i.maxSize {
		return nil, &ValidationError{
			Kind:    KindOversized,
			Message: fmt.Sprintf("file size %d exceeds maximum allowed size %d", len(data), i.maxSize),
		}
	}

	if !i.isAllowedType(declaredMIME) {
		return nil, &ValidationError{
			Kind:    KindUnsupportedType,
			Message: fmt.Sprintf("unsupported image type %q: only JPEG and PNG are accepted", declaredMIME),
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ValidationError{
			Kind:    KindCorrupt,
			Message: "file content is not a valid image",
		}
	}

	// image.Decode answers for any registered decoder, not just the formats
	// this service accepts, so the decoded format is checked independently of
	// the declared MIME type: GIF bytes labeled image/jpeg must still be
	// rejected.
	if format != "jpeg" && format != "png" {
		return nil, &ValidationError{
			Kind:    KindUnsupportedType,
			Message: fmt.Sprintf("unsupported image format %q: only JPEG and PNG are accepted", format),
		}
	}

	// Normalize to NRGBA so every downstream stage sees one pixel layout.
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()

	return &DecodedImage{
		Pixels: nrgba,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}

func (i *Ingester) isAllowedType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	for _, allowed := range i.allowedTypes {
		if ct == allowed {
			return true
		}
	}
	return false
}
