package factory

import (
	"fmt"

	"go-card-scanner/internal/config"
	"go-card-scanner/internal/storage"
)

// StorageType selects where card captures are fetched from.
type StorageType string

const (
	// HTTPStorage fetches captures from arbitrary HTTP(S) URLs.
	HTTPStorage StorageType = "http"
	// AzureStorage fetches captures from Azure blob storage.
	AzureStorage StorageType = "azure"
)

// StorageFactory creates image fetchers for a configured backend.
type StorageFactory interface {
	CreateFetcher(storageType StorageType) (storage.ImageFetcher, error)
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a storage factory bound to the app configuration.
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateFetcher creates a fetcher for the specified backend.
func (f *storageFactory) CreateFetcher(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(), nil
	case AzureStorage:
		if f.cfg.AzureAccountName == "" || f.cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("azure storage requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
		}
		return storage.NewAzureImageFetcher(f.cfg.AzureAccountName, f.cfg.AzureAccountKey)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
