package models

import "time"

// ScanURLRequest asks the pipeline to scan an image fetched from a URL.
type ScanURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ScanResult is the full outcome of processing one captured image.
type ScanResult struct {
	ScanID            string                  `json:"scan_id"`
	Timestamp         time.Time               `json:"timestamp"`
	ProcessingTimeSec float64                 `json:"processing_time_sec"`
	Contact           ContactRecord           `json:"contact"`
	Codes             []ContentRecord         `json:"codes,omitempty"`
	Payloads          []DecodedPayload        `json:"payloads,omitempty"`
	RecognizedText    RecognizedText          `json:"recognized_text"`
	Enrichment        map[string]PageMetadata `json:"enrichment,omitempty"`
	Warnings          []string                `json:"warnings,omitempty"`
}

// ScanResponse is the HTTP envelope around a scan result.
type ScanResponse struct {
	Success bool        `json:"success"`
	Result  *ScanResult `json:"result,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
