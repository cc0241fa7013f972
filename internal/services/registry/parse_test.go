package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectsScalesToPixels(t *testing.T) {
	raw := `{"objects":[{"label":"Ball","confidence":0.92,"box":{"x":0.25,"y":0.25,"w":0.5,"h":0.5}}]}`

	objects, err := parseObjects(raw, 400, 200)
	require.NoError(t, err)
	require.Len(t, objects, 1)

	assert.Equal(t, "ball", objects[0].Label)
	assert.InDelta(t, 0.92, objects[0].Confidence, 1e-9)
	assert.Equal(t, [4]int{100, 50, 200, 100}, objects[0].Box)
}

func TestParseObjectsStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"objects\":[{\"label\":\"cat\",\"confidence\":0.8,\"box\":{\"x\":0,\"y\":0,\"w\":1,\"h\":1}}]}\n```"

	objects, err := parseObjects(raw, 100, 100)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "cat", objects[0].Label)
}

func TestParseObjectsClampsOutOfRangeBoxes(t *testing.T) {
	raw := `{"objects":[{"label":"dog","confidence":1.7,"box":{"x":0.8,"y":0.8,"w":0.6,"h":0.6}}]}`

	objects, err := parseObjects(raw, 100, 100)
	require.NoError(t, err)
	require.Len(t, objects, 1)

	assert.Equal(t, 1.0, objects[0].Confidence)
	box := objects[0].Box
	assert.LessOrEqual(t, box[0]+box[2], 100)
	assert.LessOrEqual(t, box[1]+box[3], 100)
}

func TestParseObjectsDropsUnusableEntries(t *testing.T) {
	raw := `{"objects":[
		{"label":"","confidence":0.9,"box":{"x":0.1,"y":0.1,"w":0.2,"h":0.2}},
		{"label":"none","confidence":0.9,"box":{"x":0.1,"y":0.1,"w":0.2,"h":0.2}},
		{"label":"tree","confidence":0.9,"box":{"x":0.5,"y":0.5,"w":0,"h":0.2}}
	]}`

	objects, err := parseObjects(raw, 100, 100)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestParseObjectsRejectsProse(t *testing.T) {
	_, err := parseObjects("I can see a dog and a ball in this picture.", 100, 100)
	assert.Error(t, err)
}

func TestParseOcr(t *testing.T) {
	result, err := parseOcr(`{"has_text": true, "text": "  STOP\n "}`)
	require.NoError(t, err)
	assert.True(t, result.HasText)
	assert.Equal(t, "STOP", result.Text)
}

func TestParseOcrDetectedButUnreadable(t *testing.T) {
	result, err := parseOcr("```\n{\"has_text\": true, \"text\": \"\"}\n```")
	require.NoError(t, err)
	assert.True(t, result.HasText)
	assert.Empty(t, result.Text)
}

func TestParseOcrNoText(t *testing.T) {
	result, err := parseOcr(`Sure! Here is the result: {"has_text": false, "text": ""}`)
	require.NoError(t, err)
	assert.False(t, result.HasText)
}
