// Package pipeline runs the independent analysis stages over one decoded
// image and reduces their outcomes into a single AnalysisRecord. Stages fail
// independently: a dead stage degrades its field instead of the request.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"photosense-backend/internal/models"
	"photosense-backend/internal/services/ingest"
	"photosense-backend/internal/services/registry"
	"photosense-backend/internal/services/storage"
	"photosense-backend/pkg/utils"
)

// ErrAllStagesFailed is returned when no inference stage produced anything.
var ErrAllStagesFailed = errors.New("no analysis stage is available")

// ModelRegistry is the inference surface the pipeline consumes. Satisfied by
// *registry.Registry; tests substitute fakes.
type ModelRegistry interface {
	Caption(ctx context.Context, image []byte) (string, error)
	Detect(ctx context.Context, image []byte, width, height int) ([]models.DetectedObject, error)
	Recognize(ctx context.Context, image []byte) (*models.OcrResult, error)
}

// cachedStages is the redis cache payload: stage outputs only, never assets,
// since assets are written fresh per record.
type cachedStages struct {
	Caption string                  `json:"caption"`
	Objects []models.DetectedObject `json:"objects"`
	Colors  []string                `json:"colors"`
	Ocr     *models.OcrResult       `json:"ocr"`
}

// Pipeline fans analysis out over the model registry and local stages. The
// semaphore bounds how many analyses run at once across all requests.
type Pipeline struct {
	registry ModelRegistry
	assets   *storage.AssetStore
	cache    *storage.Cache
	logger   *zap.Logger
	sem      chan struct{}
}

func New(reg ModelRegistry, assets *storage.AssetStore, cache *storage.Cache, maxConcurrent int, logger *zap.Logger) *Pipeline {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pipeline{
		registry: reg,
		assets:   assets,
		cache:    cache,
		logger:   logger,
		sem:      make(chan struct{}, maxConcurrent),
	}
}

// Analyze runs every stage against the decoded image and assembles one
// record. raw is the original upload, stored verbatim as the original asset
// and used as the cache key. Wall-clock duration covers everything from here
// to record assembly.
//
// Captioning is generative and not pinned to a seed: the same image may
// caption differently across runs. Detection, OCR, and colors are
// deterministic for fixed model versions.
func (p *Pipeline) Analyze(ctx context.Context, decoded *ingest.DecodedImage, filename string, raw []byte) (*models.AnalysisRecord, error) {
	// The clock starts before the semaphore: time spent queued behind other
	// analyses is part of what the caller waited for.
	start := time.Now()

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	stages, err := p.runStages(ctx, decoded, raw)
	if err != nil {
		return nil, err
	}

	record := &models.AnalysisRecord{
		ID:         uuid.New().String(),
		Filename:   filename,
		UploadTime: time.Now().UTC(),
		Caption:    stages.Caption,
		Objects:    stages.Objects,
		Colors:     stages.Colors,
		Ocr:        stages.Ocr,
	}
	if record.Objects == nil {
		record.Objects = []models.DetectedObject{}
	}
	if record.Colors == nil {
		record.Colors = []string{}
	}
	if record.Ocr == nil {
		record.Ocr = &models.OcrResult{}
	}

	p.storeAssets(record, decoded, filename, raw)
	record.Summary = BuildSummary(record.Caption, record.Objects, record.Colors, record.Ocr)
	record.ProcessingTime = time.Since(start).Seconds()

	return record, nil
}

// runStages answers from the content cache when possible, otherwise fans out
// to all stages and caches the reduced outputs.
func (p *Pipeline) runStages(ctx context.Context, decoded *ingest.DecodedImage, raw []byte) (*cachedStages, error) {
	cacheKey := storage.CacheKey(raw)
	if data, err := p.cache.Get(ctx, cacheKey); err != nil {
		p.logger.Warn("analysis cache read failed", zap.Error(err))
	} else if data != nil {
		var cached cachedStages
		if err := json.Unmarshal(data, &cached); err == nil {
			p.logger.Info("analysis cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	payload, err := encodeForModel(decoded)
	if err != nil {
		return nil, fmt.Errorf("encode model payload: %w", err)
	}

	var (
		wg sync.WaitGroup

		caption    string
		captionErr error
		objects    []models.DetectedObject
		detectErr  error
		ocr        *models.OcrResult
		ocrErr     error
		colors     []string
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		caption, captionErr = p.registry.Caption(ctx, payload)
	}()
	go func() {
		defer wg.Done()
		objects, detectErr = p.registry.Detect(ctx, payload, decoded.Width, decoded.Height)
	}()
	go func() {
		defer wg.Done()
		ocr, ocrErr = p.registry.Recognize(ctx, payload)
	}()
	go func() {
		defer wg.Done()
		colors = ExtractColors(decoded.Pixels)
	}()
	wg.Wait()

	if captionErr != nil && detectErr != nil && ocrErr != nil {
		p.logger.Error("all inference stages failed",
			zap.NamedError("caption", captionErr),
			zap.NamedError("detect", detectErr),
			zap.NamedError("ocr", ocrErr),
		)
		return nil, ErrAllStagesFailed
	}

	p.logStageError("caption", captionErr)
	p.logStageError("detect", detectErr)
	p.logStageError("ocr", ocrErr)

	stages := &cachedStages{
		Caption: caption,
		Objects: objects,
		Colors:  colors,
		Ocr:     ocr,
	}

	if data, err := json.Marshal(stages); err == nil {
		if err := p.cache.Set(ctx, cacheKey, data); err != nil {
			p.logger.Warn("analysis cache write failed", zap.Error(err))
		}
	}

	return stages, nil
}

// storeAssets writes the original, annotated, and thumbnail assets and fills
// the record's references. Asset failures degrade references, never the
// analysis: annotation falls back to the original image.
func (p *Pipeline) storeAssets(record *models.AnalysisRecord, decoded *ingest.DecodedImage, filename string, raw []byte) {
	originalName := utils.NewAssetName(filename)
	originalRef, err := p.assets.SaveBytes(raw, originalName)
	if err != nil {
		p.logger.Error("failed to store original asset", zap.Error(err))
	}
	record.OriginalImage = originalRef
	record.AnnotatedImage = originalRef

	if len(record.Objects) > 0 {
		annotated, err := Annotate(decoded.Pixels, record.Objects)
		if err != nil {
			p.logger.Warn("annotation failed, keeping original", zap.Error(err))
		} else {
			annotatedRef, err := p.assets.SaveImage(annotated, utils.DerivedAssetName(originalName, "annotated"))
			if err != nil {
				p.logger.Warn("failed to store annotated asset", zap.Error(err))
			} else {
				record.AnnotatedImage = annotatedRef
			}
		}
	}

	thumbRef, err := p.assets.SaveThumbnail(decoded.Pixels, utils.DerivedAssetName(originalName, "thumb"))
	if err != nil {
		p.logger.Warn("failed to store thumbnail", zap.Error(err))
	} else {
		record.Thumbnail = thumbRef
	}
}

func (p *Pipeline) logStageError(stage string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, registry.ErrStageUnavailable) {
		p.logger.Info("stage unavailable, degrading", zap.String("stage", stage))
		return
	}
	p.logger.Warn("stage failed, degrading", zap.String("stage", stage), zap.Error(err))
}

// encodeForModel produces the JPEG payload sent to the vision backend. One
// encode shared by all stages keeps per-request memory flat.
func encodeForModel(decoded *ingest.DecodedImage) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, decoded.Pixels, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
