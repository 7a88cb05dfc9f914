// Package decoder provides the machine-readable-code decoding capabilities
// consumed by the detection cascade.
package decoder

import (
	"context"
	"image"

	"go-card-scanner/pkg/models"
)

// Decoder turns one image buffer into zero or more decoded payloads.
// Implementations absorb their own failures: a decode attempt that finds
// nothing, times out, or gets a malformed response returns an empty slice
// and a nil error. Only context cancellation is surfaced, so the cascade
// can return its best result so far.
type Decoder interface {
	Decode(ctx context.Context, img image.Image) ([]models.DecodedPayload, error)
}
