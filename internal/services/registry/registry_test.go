package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"photosense-backend/internal/config"
)

// fakeVisionClient lets tests fail model loading per model name and canned
// responses per prompt.
type fakeVisionClient struct {
	mu          sync.Mutex
	checkCalls  map[string]int
	failModels  map[string]bool
	response    string
	responseErr error
}

func newFakeVisionClient() *fakeVisionClient {
	return &fakeVisionClient{
		checkCalls: map[string]int{},
		failModels: map[string]bool{},
	}
}

func (f *fakeVisionClient) CheckModel(_ context.Context, model string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls[model]++
	if f.failModels[model] {
		return fmt.Errorf("model %s missing", model)
	}
	return nil
}

func (f *fakeVisionClient) Query(_ context.Context, _, _ string, _ []byte) (string, error) {
	return f.response, f.responseErr
}

func testVisionConfig() config.VisionConfig {
	return config.VisionConfig{
		CaptionModel: "caption-model",
		DetectModel:  "detect-model",
		OcrModel:     "ocr-model",
	}
}

func TestStageUnavailableDoesNotAffectOthers(t *testing.T) {
	client := newFakeVisionClient()
	client.failModels["ocr-model"] = true
	client.response = "a sunny beach"

	reg := New(client, testVisionConfig(), zap.NewNop())
	ctx := context.Background()

	caption, err := reg.Caption(ctx, []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "a sunny beach", caption)

	_, err = reg.Recognize(ctx, []byte("img"))
	assert.ErrorIs(t, err, ErrStageUnavailable)
}

func TestModelProbedOncePerProcess(t *testing.T) {
	client := newFakeVisionClient()
	client.response = "a caption"

	reg := New(client, testVisionConfig(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := reg.Caption(ctx, []byte("img"))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, client.checkCalls["caption-model"])
}

func TestFailedProbeSticks(t *testing.T) {
	client := newFakeVisionClient()
	client.failModels["detect-model"] = true

	reg := New(client, testVisionConfig(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := reg.Detect(ctx, []byte("img"), 100, 100)
		assert.ErrorIs(t, err, ErrStageUnavailable)
	}
	assert.Equal(t, 1, client.checkCalls["detect-model"])
	assert.False(t, reg.Available(ctx, StageDetect))
}

func TestCaptionTrimsQuotes(t *testing.T) {
	client := newFakeVisionClient()
	client.response = "\n \"A red ball on sand.\" \n"

	reg := New(client, testVisionConfig(), zap.NewNop())

	caption, err := reg.Caption(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "A red ball on sand.", caption)
}

func TestDetectPropagatesBackendError(t *testing.T) {
	client := newFakeVisionClient()
	client.responseErr = errors.New("connection refused")

	reg := New(client, testVisionConfig(), zap.NewNop())

	_, err := reg.Detect(context.Background(), []byte("img"), 100, 100)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStageUnavailable)
}

func TestConcurrentCallsSameStage(t *testing.T) {
	client := newFakeVisionClient()
	client.response = "caption"

	reg := New(client, testVisionConfig(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Caption(context.Background(), []byte("img"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, client.checkCalls["caption-model"])
}
