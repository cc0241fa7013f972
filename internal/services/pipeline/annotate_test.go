package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photosense-backend/internal/models"
)

func TestAnnotateDrawsOnCopy(t *testing.T) {
	src := redBallOnWhite(200)
	before := make([]byte, len(src.Pix))
	copy(before, src.Pix)

	annotated, err := Annotate(src, []models.DetectedObject{
		{Label: "ball", Confidence: 0.9, Box: [4]int{50, 50, 100, 100}},
	})
	require.NoError(t, err)

	// Source untouched, copy changed.
	assert.True(t, bytes.Equal(before, src.Pix), "source image was modified")
	assert.False(t, bytes.Equal(annotated.Pix, src.Pix), "annotation drew nothing")
}

func TestAnnotateBoxOutsideBounds(t *testing.T) {
	src := redBallOnWhite(100)

	annotated, err := Annotate(src, []models.DetectedObject{
		{Label: "ghost", Confidence: 0.5, Box: [4]int{500, 500, 100, 100}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.Equal(annotated.Pix, src.Pix), "out-of-bounds box should draw nothing")
}

func TestAnnotatePartiallyClippedBox(t *testing.T) {
	src := redBallOnWhite(100)

	annotated, err := Annotate(src, []models.DetectedObject{
		{Label: "edge", Confidence: 0.7, Box: [4]int{80, 80, 60, 60}},
	})
	require.NoError(t, err)
	assert.False(t, bytes.Equal(annotated.Pix, src.Pix))
}

func TestAnnotateNoObjects(t *testing.T) {
	src := redBallOnWhite(100)

	annotated, err := Annotate(src, nil)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(annotated.Pix, src.Pix))
}
