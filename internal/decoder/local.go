package decoder

import (
	"context"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/multi"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode"

	"go-card-scanner/internal/logger"
	"go-card-scanner/pkg/models"
)

// LocalDecoder wraps the in-process ZXing port. Synchronous, no network.
type LocalDecoder struct {
	multiReader  multi.MultipleBarcodeReader
	singleReader gozxing.Reader
	hints        map[gozxing.DecodeHintType]interface{}
}

// NewLocalDecoder creates a local QR decoder with the try-harder hint set,
// since captures are frequently rotated or low-contrast.
func NewLocalDecoder() *LocalDecoder {
	return &LocalDecoder{
		multiReader:  multiqr.NewQRCodeMultiReader(),
		singleReader: qrcode.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode returns every QR payload found in the image. Finding nothing is not
// an error.
func (d *LocalDecoder) Decode(ctx context.Context, img image.Image) ([]models.DecodedPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		logger.WithError(err).Debug("local decode: could not binarize image")
		return nil, nil
	}

	results, err := d.multiReader.DecodeMultiple(bitmap, d.hints)
	if err != nil || len(results) == 0 {
		// The multi reader can miss codes the plain reader finds on clean
		// single-code captures.
		single, serr := d.singleReader.Decode(bitmap, d.hints)
		if serr != nil {
			return nil, nil
		}
		results = []*gozxing.Result{single}
	}

	payloads := make([]models.DecodedPayload, 0, len(results))
	for _, result := range results {
		if result == nil || result.GetText() == "" {
			continue
		}
		payloads = append(payloads, models.DecodedPayload{
			Data:      result.GetText(),
			Symbology: symbologyFromFormat(result.GetBarcodeFormat()),
			Geometry:  geometryFromPoints(result.GetResultPoints()),
		})
	}
	return payloads, nil
}

func symbologyFromFormat(format gozxing.BarcodeFormat) models.Symbology {
	if format == gozxing.BarcodeFormat_QR_CODE {
		return models.SymbologyQR
	}
	return models.SymbologyOther
}

func geometryFromPoints(points []gozxing.ResultPoint) []models.Point {
	if len(points) == 0 {
		return nil
	}
	geometry := make([]models.Point, 0, len(points))
	for _, p := range points {
		geometry = append(geometry, models.Point{X: p.GetX(), Y: p.GetY()})
	}
	return geometry
}
