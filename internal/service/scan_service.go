package service

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/google/uuid"

	"go-card-scanner/internal/classify"
	"go-card-scanner/internal/detect"
	"go-card-scanner/internal/enrich"
	apperrors "go-card-scanner/internal/errors"
	"go-card-scanner/internal/extract"
	"go-card-scanner/internal/merge"
	"go-card-scanner/internal/observer"
	"go-card-scanner/internal/quality"
	"go-card-scanner/internal/recognize"
	"go-card-scanner/internal/storage"
	"go-card-scanner/pkg/models"
	"go-card-scanner/pkg/validation"
)

// ScanService runs the full card-scanning pipeline: code detection, text
// recognition, field extraction, merging and optional page enrichment.
type ScanService interface {
	ProcessImage(ctx context.Context, img image.Image) (*models.ScanResult, error)
	ProcessImageFromURL(ctx context.Context, imageURL string) (*models.ScanResult, error)
	ProcessBatch(ctx context.Context, images []image.Image) []BatchItem
}

// BatchItem is one outcome of a batch scan, in submission order.
type BatchItem struct {
	Index  int
	Result *models.ScanResult
	Err    error
}

// Deps collects the service's collaborators. Enricher and Publisher are
// optional; nil disables the corresponding step.
type Deps struct {
	Detector   *detect.Orchestrator
	Recognizer recognize.TextRecognizer
	Enricher   enrich.MetadataFetcher
	Gate       *quality.Gate
	Fetcher    storage.ImageFetcher
	Validator  *validation.URLValidator
	Publisher  observer.Subject
	Workers    int
}

type scanService struct {
	detector   *detect.Orchestrator
	recognizer recognize.TextRecognizer
	enricher   enrich.MetadataFetcher
	gate       *quality.Gate
	fetcher    storage.ImageFetcher
	validator  *validation.URLValidator
	publisher  observer.Subject
	pool       *WorkerPool
}

// NewScanService creates a scan service and starts its batch worker pool.
func NewScanService(deps Deps) ScanService {
	pool := NewWorkerPool(deps.Workers)
	pool.Start()

	return &scanService{
		detector:   deps.Detector,
		recognizer: deps.Recognizer,
		enricher:   deps.Enricher,
		gate:       deps.Gate,
		fetcher:    deps.Fetcher,
		validator:  deps.Validator,
		publisher:  deps.Publisher,
		pool:       pool,
	}
}

// ProcessImage scans one capture. Component failures inside the pipeline
// degrade to warnings; only a nil image or an expired context fails the scan.
func (s *scanService) ProcessImage(ctx context.Context, img image.Image) (*models.ScanResult, error) {
	if img == nil {
		return nil, apperrors.NewValidationError("image must not be nil", nil)
	}

	start := time.Now()
	scanID := uuid.NewString()
	s.notify(ctx, observer.ScanEvent{
		EventType: observer.ScanStarted,
		Timestamp: start,
		ScanID:    scanID,
	})

	result := &models.ScanResult{
		ScanID:    scanID,
		Timestamp: start.UTC(),
	}

	var penalty float64
	if s.gate != nil {
		metrics, warnings := s.gate.Assess(img)
		result.Warnings = append(result.Warnings, warnings...)
		penalty = s.gate.ConfidencePenalty(metrics)
	}

	result.Payloads = s.detector.Detect(ctx, img)
	if err := s.failIfExpired(ctx, scanID, start); err != nil {
		return nil, err
	}

	for _, payload := range result.Payloads {
		result.Codes = append(result.Codes, classify.Classify(payload.Data))
	}
	if len(result.Codes) > 0 {
		s.notify(ctx, observer.ScanEvent{
			EventType: observer.CodesDetected,
			Timestamp: time.Now(),
			ScanID:    scanID,
			Success:   true,
			Metadata:  map[string]interface{}{"code_count": len(result.Codes)},
		})
	}

	recognized, err := s.recognizer.Recognize(ctx, img)
	if err != nil {
		if ctxErr := s.failIfExpired(ctx, scanID, start); ctxErr != nil {
			return nil, ctxErr
		}
		result.Warnings = append(result.Warnings, "text recognition failed: "+err.Error())
		recognized = models.RecognizedText{}
	}
	result.RecognizedText = recognized

	extracted := extract.Extract(recognized.Text)
	result.Contact = merge.Merge(result.Codes, extracted)
	result.Contact.SourceConfidence = sourceConfidence(result.Contact.Provenance, recognized.Confidence, penalty)

	if s.enricher != nil {
		if urls := urlPayloads(result.Codes); len(urls) > 0 {
			result.Enrichment = enrich.EnrichAll(ctx, s.enricher, urls)
		}
	}

	result.ProcessingTimeSec = time.Since(start).Seconds()
	s.notify(ctx, observer.ScanEvent{
		EventType:      observer.ScanCompleted,
		Timestamp:      time.Now(),
		ScanID:         scanID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"provenance": string(result.Contact.Provenance),
			"codes":      len(result.Codes),
		},
	})
	return result, nil
}

// ProcessImageFromURL fetches a capture and scans it.
func (s *scanService) ProcessImageFromURL(ctx context.Context, imageURL string) (*models.ScanResult, error) {
	if s.validator != nil {
		if err := s.validator.ValidateImageURL(imageURL); err != nil {
			return nil, err
		}
	}

	img, err := s.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		s.notify(ctx, observer.ScanEvent{
			EventType:    observer.ImageFetchFailed,
			Timestamp:    time.Now(),
			ErrorMessage: err.Error(),
		})
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("capture fetch timed out", err)
		}
		return nil, apperrors.NewNetworkError("failed to fetch capture", err)
	}
	s.notify(ctx, observer.ScanEvent{
		EventType: observer.ImageFetched,
		Timestamp: time.Now(),
		Success:   true,
	})

	return s.ProcessImage(ctx, img)
}

// ProcessBatch scans several captures concurrently on the worker pool and
// returns per-capture outcomes in submission order.
func (s *scanService) ProcessBatch(ctx context.Context, images []image.Image) []BatchItem {
	items := make([]BatchItem, len(images))

	for i, img := range images {
		i, img := i, img
		submitted := s.pool.Submit(func() {
			result, err := s.ProcessImage(ctx, img)
			items[i] = BatchItem{Index: i, Result: result, Err: err}
		})
		if !submitted {
			items[i] = BatchItem{Index: i, Err: apperrors.NewInternalError("worker pool closed", nil)}
		}
	}

	s.pool.Wait()
	return items
}

func (s *scanService) notify(ctx context.Context, event observer.ScanEvent) {
	if s.publisher != nil {
		s.publisher.NotifyObservers(ctx, event)
	}
}

func (s *scanService) failIfExpired(ctx context.Context, scanID string, start time.Time) error {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		return nil
	}
	s.notify(ctx, observer.ScanEvent{
		EventType:      observer.ScanFailed,
		Timestamp:      time.Now(),
		ScanID:         scanID,
		ProcessingTime: time.Since(start),
		ErrorMessage:   ctxErr.Error(),
	})
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("scan timed out", ctxErr)
	}
	return apperrors.NewInternalError("scan canceled", ctxErr)
}

// sourceConfidence scores the merged contact. Code-sourced data is near
// certain; text-sourced data inherits the recognizer's confidence minus any
// capture-quality penalty.
func sourceConfidence(provenance models.Provenance, ocrConfidence, penalty float64) float64 {
	var confidence float64
	switch provenance {
	case models.ProvenanceQR:
		confidence = 0.95
	case models.ProvenanceMerged:
		confidence = 0.85 - penalty/2
	default:
		confidence = ocrConfidence - penalty
	}
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func urlPayloads(codes []models.ContentRecord) []string {
	var urls []string
	for _, code := range codes {
		if code.Kind != models.ContentURL {
			continue
		}
		if u := code.Fields["url"]; u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
