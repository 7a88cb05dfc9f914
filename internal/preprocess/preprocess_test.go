package preprocess

import (
	"image"
	"image/color"
	"testing"
)

// gradientImage builds a horizontal gray ramp between lo and hi.
func gradientImage(width, height int, lo, hi uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	span := int(hi) - int(lo)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(int(lo) + span*x/(width-1))
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func flatImage(width, height int, v uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestTransformOrderAndCount(t *testing.T) {
	img := gradientImage(40, 20, 60, 180)
	renderings := Transform(img)

	wantKinds := []Kind{KindContrastStretch, KindGrayscaleStretch, KindBinarized, KindDownscaled}
	if len(renderings) != len(wantKinds) {
		t.Fatalf("Transform() returned %d renderings, want %d", len(renderings), len(wantKinds))
	}
	for i, want := range wantKinds {
		if renderings[i].Kind != want {
			t.Errorf("rendering %d kind = %s, want %s", i, renderings[i].Kind, want)
		}
	}
}

func TestContrastStretchExpandsRange(t *testing.T) {
	img := gradientImage(32, 8, 100, 150)
	stretched := ContrastStretch(img)

	minV, maxV := 255, 0
	bounds := stretched.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := stretched.At(x, y).RGBA()
			v := int(r >> 8)
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}

	if minV != 0 {
		t.Errorf("stretched min = %d, want 0", minV)
	}
	if maxV != 255 {
		t.Errorf("stretched max = %d, want 255", maxV)
	}
}

func TestContrastStretchFlatImageUnchanged(t *testing.T) {
	img := flatImage(16, 16, 127)
	stretched := ContrastStretch(img)

	// Degenerate flat frame must be passed through untouched.
	if stretched != img {
		t.Errorf("ContrastStretch() on flat image returned a new buffer, want input unchanged")
	}
}

func TestBinarizeOutputIsStrictBlackWhite(t *testing.T) {
	img := gradientImage(64, 16, 20, 235)
	binary := Binarize(img)

	gray, ok := binary.(*image.Gray)
	if !ok {
		t.Fatalf("Binarize() returned %T, want *image.Gray", binary)
	}

	sawBlack, sawWhite := false, false
	for _, v := range gray.Pix {
		switch v {
		case 0:
			sawBlack = true
		case 255:
			sawWhite = true
		default:
			t.Fatalf("Binarize() produced intermediate value %d", v)
		}
	}
	if !sawBlack || !sawWhite {
		t.Errorf("Binarize() on a gradient produced black=%v white=%v, want both", sawBlack, sawWhite)
	}
}

func TestDownscaleHalvesDimensions(t *testing.T) {
	img := gradientImage(40, 30, 0, 255)
	renderings := Transform(img)

	downscaled := renderings[len(renderings)-1]
	if downscaled.Kind != KindDownscaled {
		t.Fatalf("last rendering kind = %s, want %s", downscaled.Kind, KindDownscaled)
	}
	bounds := downscaled.Image.Bounds()
	if bounds.Dx() != 20 || bounds.Dy() != 15 {
		t.Errorf("downscaled dimensions = %dx%d, want 20x15", bounds.Dx(), bounds.Dy())
	}
	if downscaled.Scale != 0.5 {
		t.Errorf("downscaled scale = %v, want 0.5", downscaled.Scale)
	}
}

func TestTransformDeterministic(t *testing.T) {
	img := gradientImage(24, 24, 30, 220)

	first := Transform(img)
	second := Transform(img)

	for i := range first {
		a, ok := first[i].Image.(*image.NRGBA)
		if !ok {
			continue
		}
		b := second[i].Image.(*image.NRGBA)
		for j := range a.Pix {
			if a.Pix[j] != b.Pix[j] {
				t.Fatalf("rendering %d differs between runs at byte %d", i, j)
			}
		}
	}
}
