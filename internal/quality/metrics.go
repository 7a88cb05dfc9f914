// Package quality computes cheap capture-quality metrics used to warn about
// degraded scans and to temper the confidence of text-derived fields.
package quality

import (
	"fmt"
	"image"
	"image/draw"

	"gonum.org/v1/gonum/stat"
)

// Metrics are the raw measurements over one capture.
type Metrics struct {
	LaplacianVar float64 `json:"laplacian_var"`
	Brightness   float64 `json:"brightness"`
}

// Gate assesses captures against fixed thresholds.
type Gate struct {
	blurThreshold float64
	minBrightness float64
	maxBrightness float64
}

// NewGate creates a gate with thresholds tuned for card captures.
func NewGate() *Gate {
	return &Gate{
		blurThreshold: 100.0,
		minBrightness: 60.0,
		maxBrightness: 225.0,
	}
}

// Assess measures the capture and returns warnings for conditions that
// usually degrade recognition. Warnings never fail a scan.
func (g *Gate) Assess(img image.Image) (Metrics, []string) {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	metrics := Metrics{
		LaplacianVar: laplacianVariance(gray),
		Brightness:   meanBrightness(gray),
	}

	var warnings []string
	if metrics.LaplacianVar <= g.blurThreshold {
		warnings = append(warnings, fmt.Sprintf("capture looks blurry (laplacian variance %.1f)", metrics.LaplacianVar))
	}
	if metrics.Brightness < g.minBrightness {
		warnings = append(warnings, fmt.Sprintf("capture too dark (brightness %.1f)", metrics.Brightness))
	}
	if metrics.Brightness > g.maxBrightness {
		warnings = append(warnings, fmt.Sprintf("capture too bright (brightness %.1f)", metrics.Brightness))
	}
	return metrics, warnings
}

// ConfidencePenalty maps quality issues onto a [0,0.3] deduction applied to
// text-derived confidence.
func (g *Gate) ConfidencePenalty(metrics Metrics) float64 {
	penalty := 0.0
	if metrics.LaplacianVar <= g.blurThreshold {
		penalty += 0.2
	}
	if metrics.Brightness < g.minBrightness || metrics.Brightness > g.maxBrightness {
		penalty += 0.1
	}
	return penalty
}

// laplacianVariance measures sharpness: low variance of the Laplacian means
// few edges, i.e. blur. Kernel: [0,1,0; 1,-4,1; 0,1,0].
func laplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := make([]float64, 0, (width-2)*(height-2))
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			data = append(data, -4*center+top+bottom+left+right)
		}
	}
	if len(data) == 0 {
		return 0
	}
	return stat.Variance(data, nil)
}

func meanBrightness(gray *image.Gray) float64 {
	if len(gray.Pix) == 0 {
		return 0
	}
	var sum float64
	for _, v := range gray.Pix {
		sum += float64(v)
	}
	return sum / float64(len(gray.Pix))
}
