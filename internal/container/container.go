package container

import (
	"fmt"
	"net/http"

	"go-card-scanner/internal/config"
	"go-card-scanner/internal/decoder"
	"go-card-scanner/internal/detect"
	"go-card-scanner/internal/enrich"
	"go-card-scanner/internal/factory"
	"go-card-scanner/internal/logger"
	"go-card-scanner/internal/observer"
	"go-card-scanner/internal/quality"
	"go-card-scanner/internal/recognize"
	"go-card-scanner/internal/service"
	"go-card-scanner/internal/transport"
	"go-card-scanner/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config      *config.Config
	scanService service.ScanService
	publisher   observer.Subject
	handler     http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	fetcher, err := factory.NewStorageFactory(cfg).CreateFetcher(factory.StorageType(cfg.StorageType))
	if err != nil {
		return nil, fmt.Errorf("failed to create image fetcher: %w", err)
	}

	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(observer.NewMetricsObserver())

	orchestrator := detect.NewOrchestrator(
		decoder.NewLocalDecoder(),
		decoder.NewRemoteDecoder(cfg.RemoteDecodeURL, cfg.RemoteDecodeTimeout),
	)

	var enricher enrich.MetadataFetcher
	if cfg.EnrichEnabled {
		enricher = enrich.NewHTTPMetadataFetcher(cfg.EnrichTimeout)
	}

	scanService := service.NewScanService(service.Deps{
		Detector:   orchestrator,
		Recognizer: recognize.NewTesseractRecognizer(cfg.OCRLanguage),
		Enricher:   enricher,
		Gate:       quality.NewGate(),
		Fetcher:    fetcher,
		Validator:  validation.NewURLValidator(),
		Publisher:  publisher,
		Workers:    cfg.BatchWorkers,
	})

	handler := transport.NewHandler(scanService, cfg)

	return &Container{
		config:      cfg,
		scanService: scanService,
		publisher:   publisher,
		handler:     handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// ScanService returns the scan pipeline service
func (c *Container) ScanService() service.ScanService {
	return c.scanService
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}
