// Package recognize wraps the external text-recognition engine behind a
// capability interface so the pipeline never depends on a concrete OCR
// implementation.
package recognize

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"go-card-scanner/pkg/models"
)

// TextRecognizer is the text-recognition collaborator: image in,
// {text, confidence} out.
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image) (models.RecognizedText, error)
}

// TesseractRecognizer runs OCR through the local Tesseract engine.
type TesseractRecognizer struct {
	language string
}

// NewTesseractRecognizer creates a recognizer for the given language code
// ("eng" when empty).
func NewTesseractRecognizer(language string) *TesseractRecognizer {
	if language == "" {
		language = "eng"
	}
	return &TesseractRecognizer{language: language}
}

// Recognize extracts text and a mean word confidence normalized to [0,1].
// A fresh client per call: gosseract clients are not safe for concurrent
// use and batch scans run on a worker pool.
func (r *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) (models.RecognizedText, error) {
	if err := ctx.Err(); err != nil {
		return models.RecognizedText{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return models.RecognizedText{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.language); err != nil {
		return models.RecognizedText{}, err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return models.RecognizedText{}, err
	}

	text, err := client.Text()
	if err != nil {
		return models.RecognizedText{}, err
	}

	confidence := 0.0
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil && len(boxes) > 0 {
		var sum float64
		for _, box := range boxes {
			sum += box.Confidence
		}
		confidence = sum / float64(len(boxes)) / 100.0
	}
	if confidence > 1 {
		confidence = 1
	}

	return models.RecognizedText{Text: text, Confidence: confidence}, nil
}
