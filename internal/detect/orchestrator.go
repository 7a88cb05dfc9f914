// Package detect runs the multi-strategy detection cascade over a captured
// image: cheap local decoding first, preprocessed retries next, the remote
// service last.
package detect

import (
	"context"
	"image"

	"github.com/sirupsen/logrus"

	"go-card-scanner/internal/decoder"
	"go-card-scanner/internal/logger"
	"go-card-scanner/internal/preprocess"
	"go-card-scanner/pkg/models"
)

// Orchestrator coordinates the local decoder, preprocessor renderings, and
// remote decoder. Decoders are constructor-supplied capabilities, never
// discovered via global state.
type Orchestrator struct {
	local  decoder.Decoder
	remote decoder.Decoder
}

// NewOrchestrator wires the cascade from its two decoding capabilities.
func NewOrchestrator(local, remote decoder.Decoder) *Orchestrator {
	return &Orchestrator{local: local, remote: remote}
}

// Detect runs the cascade and returns the deduplicated payloads of the first
// tier that produced any. Exhausting every tier is not an error: the result
// is simply empty. Cancellation stops the cascade and returns whatever was
// found so far.
//
// Tier 0: local decoder on the raw image.
// Tier 1: per preprocessing transform, local then remote on that rendering.
// Tier 2: remote decoder on the raw image.
func (o *Orchestrator) Detect(ctx context.Context, img image.Image) []models.DecodedPayload {
	// Tier 0: local, raw.
	if payloads := o.attempt(ctx, o.local, img, models.StrategyLocal, 1); len(payloads) > 0 {
		return dedupe(payloads)
	}
	if ctx.Err() != nil {
		return nil
	}

	// Tier 1: local before remote at each preprocessing level, because local
	// decoding has no network latency or privacy cost.
	for _, rendering := range preprocess.Transform(img) {
		strategy := models.StrategyLocalPreprocessed(string(rendering.Kind))

		if payloads := o.attempt(ctx, o.local, rendering.Image, strategy, rendering.Scale); len(payloads) > 0 {
			return dedupe(payloads)
		}
		if ctx.Err() != nil {
			return nil
		}

		if payloads := o.attempt(ctx, o.remote, rendering.Image, models.StrategyRemote, rendering.Scale); len(payloads) > 0 {
			return dedupe(payloads)
		}
		if ctx.Err() != nil {
			return nil
		}
	}

	// Tier 2: remote, raw.
	if payloads := o.attempt(ctx, o.remote, img, models.StrategyRemote, 1); len(payloads) > 0 {
		return dedupe(payloads)
	}

	logger.Debug("detection cascade exhausted with no payloads")
	return nil
}

// attempt runs one decoder against one buffer, stamping the strategy and
// mapping geometry back to source coordinates.
func (o *Orchestrator) attempt(ctx context.Context, d decoder.Decoder, img image.Image, strategy models.DetectionStrategy, scale float64) []models.DecodedPayload {
	if ctx.Err() != nil {
		return nil
	}

	payloads, err := d.Decode(ctx, img)
	if err != nil {
		// Only cancellation propagates out of decoders.
		return nil
	}

	for i := range payloads {
		payloads[i].Strategy = strategy
		if scale != 1 && scale > 0 {
			for j := range payloads[i].Geometry {
				payloads[i].Geometry[j].X /= scale
				payloads[i].Geometry[j].Y /= scale
			}
		}
	}

	if len(payloads) > 0 {
		logger.WithFields(logrus.Fields{
			"strategy": string(strategy),
			"count":    len(payloads),
		}).Info("detection tier produced payloads")
	}
	return payloads
}

// dedupe collapses payloads by exact data equality, keeping the first-seen
// entry: earlier tiers carry higher-confidence geometry.
func dedupe(payloads []models.DecodedPayload) []models.DecodedPayload {
	seen := make(map[string]struct{}, len(payloads))
	out := make([]models.DecodedPayload, 0, len(payloads))
	for _, p := range payloads {
		if _, ok := seen[p.Data]; ok {
			continue
		}
		seen[p.Data] = struct{}{}
		out = append(out, p)
	}
	return out
}
