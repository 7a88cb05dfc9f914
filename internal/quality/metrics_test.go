package quality

import (
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
)

func uniformImage(w, h int, v uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func checkerboard(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestAssessFlatImageIsBlurry(t *testing.T) {
	gate := NewGate()

	metrics, warnings := gate.Assess(uniformImage(32, 32, 128))

	if metrics.LaplacianVar != 0 {
		t.Errorf("expected zero laplacian variance for flat image, got %f", metrics.LaplacianVar)
	}
	if metrics.Brightness != 128 {
		t.Errorf("expected brightness 128, got %f", metrics.Brightness)
	}
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "blurry") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected blur warning, got %v", warnings)
	}
}

func TestAssessSharpImageNotBlurry(t *testing.T) {
	gate := NewGate()

	metrics, warnings := gate.Assess(checkerboard(32, 32))

	if metrics.LaplacianVar <= gate.blurThreshold {
		t.Errorf("expected high laplacian variance for checkerboard, got %f", metrics.LaplacianVar)
	}
	for _, w := range warnings {
		if strings.Contains(w, "blurry") {
			t.Errorf("unexpected blur warning: %v", warnings)
		}
	}
}

func TestAssessBrightnessWarnings(t *testing.T) {
	gate := NewGate()

	tests := []struct {
		name  string
		value uint8
		want  string
	}{
		{"too dark", 20, "too dark"},
		{"too bright", 250, "too bright"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, warnings := gate.Assess(uniformImage(16, 16, tt.value))
			found := false
			for _, w := range warnings {
				if strings.Contains(w, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected %q warning, got %v", tt.want, warnings)
			}
		})
	}
}

func TestAssessTinyImageDoesNotPanic(t *testing.T) {
	gate := NewGate()

	metrics, _ := gate.Assess(uniformImage(2, 2, 128))
	if metrics.LaplacianVar != 0 {
		t.Errorf("expected zero variance for sub-kernel image, got %f", metrics.LaplacianVar)
	}
}

func TestConfidencePenalty(t *testing.T) {
	gate := NewGate()

	tests := []struct {
		name    string
		metrics Metrics
		want    float64
	}{
		{"clean capture", Metrics{LaplacianVar: 500, Brightness: 128}, 0},
		{"blurry only", Metrics{LaplacianVar: 10, Brightness: 128}, 0.2},
		{"dark only", Metrics{LaplacianVar: 500, Brightness: 30}, 0.1},
		{"blurry and bright", Metrics{LaplacianVar: 10, Brightness: 240}, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gate.ConfidencePenalty(tt.metrics)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConfidencePenalty() = %f, want %f", got, tt.want)
			}
		})
	}
}
