// Package registry holds the process-wide set of inference models. Each
// stage (caption, detect, ocr) is initialized at most once, gated by its own
// mutex, and independently optional: a stage that failed to load degrades to
// ErrStageUnavailable instead of taking the others down with it.
package registry

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"photosense-backend/internal/config"
	"photosense-backend/internal/models"
)

// ErrStageUnavailable is the sentinel returned by every call against a stage
// whose model failed to load.
var ErrStageUnavailable = errors.New("stage unavailable")

// Stage identifies one independent inference step.
type Stage string

const (
	StageCaption Stage = "caption"
	StageDetect  Stage = "detect"
	StageOcr     Stage = "ocr"
)

// stageState carries one model's lifecycle. The mutex serializes inference
// per stage only, so a slow OCR call never blocks a caption call.
type stageState struct {
	model   string
	once    sync.Once
	mu      sync.Mutex
	loadErr error
}

// Registry is shared read-mostly state across all concurrent requests in the
// process. Construct once in main and inject by reference.
type Registry struct {
	client VisionClient
	logger *zap.Logger
	stages map[Stage]*stageState
}

func New(client VisionClient, cfg config.VisionConfig, logger *zap.Logger) *Registry {
	return &Registry{
		client: client,
		logger: logger,
		stages: map[Stage]*stageState{
			StageCaption: {model: cfg.CaptionModel},
			StageDetect:  {model: cfg.DetectModel},
			StageOcr:     {model: cfg.OcrModel},
		},
	}
}

// Available reports whether a stage's model loaded, probing it on first use.
func (r *Registry) Available(ctx context.Context, stage Stage) bool {
	return r.ensure(ctx, stage) == nil
}

// Caption generates a one-sentence description of the image.
func (r *Registry) Caption(ctx context.Context, image []byte) (string, error) {
	raw, err := r.infer(ctx, StageCaption, captionPrompt, image)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`)), nil
}

// Detect finds objects in the image and returns them with pixel-coordinate
// bounding boxes for a width x height image.
func (r *Registry) Detect(ctx context.Context, image []byte, width, height int) ([]models.DetectedObject, error) {
	raw, err := r.infer(ctx, StageDetect, detectPrompt, image)
	if err != nil {
		return nil, err
	}
	return parseObjects(raw, width, height)
}

// Recognize extracts visible text from the image.
func (r *Registry) Recognize(ctx context.Context, image []byte) (*models.OcrResult, error) {
	raw, err := r.infer(ctx, StageOcr, ocrPrompt, image)
	if err != nil {
		return nil, err
	}
	return parseOcr(raw)
}

func (r *Registry) infer(ctx context.Context, stage Stage, prompt string, image []byte) (string, error) {
	if err := r.ensure(ctx, stage); err != nil {
		return "", err
	}

	st := r.stages[stage]
	st.mu.Lock()
	defer st.mu.Unlock()

	return r.client.Query(ctx, st.model, prompt, image)
}

// ensure probes the stage's model exactly once per process lifetime. The
// outcome sticks: a failed probe marks the stage unavailable for good.
func (r *Registry) ensure(ctx context.Context, stage Stage) error {
	st, ok := r.stages[stage]
	if !ok {
		return ErrStageUnavailable
	}

	st.once.Do(func() {
		if err := r.client.CheckModel(ctx, st.model); err != nil {
			st.loadErr = err
			r.logger.Warn("model stage unavailable",
				zap.String("stage", string(stage)),
				zap.String("model", st.model),
				zap.Error(err),
			)
			return
		}
		r.logger.Info("model stage ready",
			zap.String("stage", string(stage)),
			zap.String("model", st.model),
		)
	})

	if st.loadErr != nil {
		return ErrStageUnavailable
	}
	return nil
}
