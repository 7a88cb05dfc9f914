package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	ScanTimeout        time.Duration
	MaxRequestBodySize int64

	// Remote decode fallback (hosted read-qr-code endpoint)
	RemoteDecodeURL     string
	RemoteDecodeTimeout time.Duration

	// Text recognition
	OCRLanguage string

	// Page metadata enrichment for url payloads
	EnrichEnabled bool
	EnrichTimeout time.Duration

	// Capture source
	StorageType      string
	AzureAccountName string
	AzureAccountKey  string

	// Batch processing
	BatchWorkers int
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		ScanTimeout:        parseDurationOrDefault("SCAN_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		RemoteDecodeURL:     getEnvOrDefault("REMOTE_DECODE_URL", "https://api.qrserver.com/v1/read-qr-code/"),
		RemoteDecodeTimeout: parseDurationOrDefault("REMOTE_DECODE_TIMEOUT", 10*time.Second),

		OCRLanguage: getEnvOrDefault("OCR_LANGUAGE", "eng"),

		EnrichEnabled: parseBoolOrDefault("ENRICH_ENABLED", false),
		EnrichTimeout: parseDurationOrDefault("ENRICH_TIMEOUT", 8*time.Second),

		StorageType:      getEnvOrDefault("STORAGE_TYPE", "http"),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),

		BatchWorkers: int(parseIntOrDefault("BATCH_WORKERS", 0)), // 0 = NumCPU
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.ScanTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, scan=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.ScanTimeout)
	}
	if cfg.RemoteDecodeURL != "" && !strings.HasPrefix(cfg.RemoteDecodeURL, "http") {
		return nil, fmt.Errorf("invalid REMOTE_DECODE_URL: %q", cfg.RemoteDecodeURL)
	}
	switch cfg.StorageType {
	case "http", "azure":
	default:
		return nil, fmt.Errorf("invalid STORAGE_TYPE: %q", cfg.StorageType)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
