package ingest

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allowedTypes = []string{"image/jpeg", "image/jpg", "image/png"}

func testImageBytes(t *testing.T, format string, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, nil)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestIngestValidJPEG(t *testing.T) {
	ing := New(10*1024*1024, allowedTypes)

	decoded, err := ing.Ingest(testImageBytes(t, "jpeg", 320, 240), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, 320, decoded.Width)
	assert.Equal(t, 240, decoded.Height)
	assert.Equal(t, "jpeg", decoded.Format)
	assert.NotNil(t, decoded.Pixels)
}

func TestIngestValidPNGWithCharsetParam(t *testing.T) {
	ing := New(10*1024*1024, allowedTypes)

	decoded, err := ing.Ingest(testImageBytes(t, "png", 64, 64), "image/png; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "png", decoded.Format)
}

func TestIngestOversizedRejectedBeforeDecode(t *testing.T) {
	ing := New(100, allowedTypes)

	// Not even a valid image: size must be checked first.
	data := make([]byte, 101)
	_, err := ing.Ingest(data, "image/jpeg")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, KindOversized, vErr.Kind)
}

func TestIngestUnsupportedTypeRejectedBeforeDecode(t *testing.T) {
	ing := New(10*1024*1024, allowedTypes)

	// Valid PNG content, but the declared type is not jpeg/png: the MIME
	// check fires before any decode attempt.
	data := testImageBytes(t, "png", 32, 32)
	_, err := ing.Ingest(data, "image/gif")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, KindUnsupportedType, vErr.Kind)
}

func TestIngestGIFContentDeclaredAsJPEGRejected(t *testing.T) {
	ing := New(10*1024*1024, allowedTypes)

	// Real GIF bytes behind a lying Content-Type: the decode succeeds (the
	// GIF decoder is registered process-wide) but the decoded format is not
	// an accepted one.
	img := image.NewPaletted(image.Rect(0, 0, 16, 16), []color.Color{
		color.RGBA{R: 255, A: 255},
		color.RGBA{B: 255, A: 255},
	})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))

	_, err := ing.Ingest(buf.Bytes(), "image/jpeg")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, KindUnsupportedType, vErr.Kind)
}

func TestIngestCorruptContentOverridesDeclaredType(t *testing.T) {
	ing := New(10*1024*1024, allowedTypes)

	// A text file renamed to .jpg: declared MIME passes, content does not.
	data := []byte("this is definitely not a picture of anything")
	_, err := ing.Ingest(data, "image/jpeg")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, KindCorrupt, vErr.Kind)
}

func TestIngestTruncatedImageRejected(t *testing.T) {
	ing := New(10*1024*1024, allowedTypes)

	data := testImageBytes(t, "jpeg", 320, 240)
	_, err := ing.Ingest(data[:20], "image/jpeg")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, KindCorrupt, vErr.Kind)
}
