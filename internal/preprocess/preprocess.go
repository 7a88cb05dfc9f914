// Package preprocess produces alternate renderings of a captured image to
// improve decode odds under poor capture conditions.
package preprocess

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Kind names one preprocessing transform.
type Kind string

const (
	KindContrastStretch  Kind = "contrast-stretch"
	KindGrayscaleStretch Kind = "grayscale-stretch"
	KindBinarized        Kind = "binarized"
	KindDownscaled       Kind = "downscaled"
)

// Rendering is one transformed image buffer. Scale maps decode geometry on
// the rendering back to source-image coordinates.
type Rendering struct {
	Kind  Kind
	Image image.Image
	Scale float64
}

// Transform returns the renderings in a fixed order: contrast and
// binarization are cheap and recover most degraded captures before the more
// aggressive resize is tried. Pure; the input image is never mutated.
func Transform(img image.Image) []Rendering {
	renderings := make([]Rendering, 0, 4)

	renderings = append(renderings, Rendering{
		Kind:  KindContrastStretch,
		Image: ContrastStretch(img),
		Scale: 1,
	})

	renderings = append(renderings, Rendering{
		Kind:  KindGrayscaleStretch,
		Image: ContrastStretch(imaging.Grayscale(img)),
		Scale: 1,
	})

	renderings = append(renderings, Rendering{
		Kind:  KindBinarized,
		Image: Binarize(img),
		Scale: 1,
	})

	bounds := img.Bounds()
	halfWidth := bounds.Dx() / 2
	if halfWidth < 1 {
		halfWidth = 1
	}
	renderings = append(renderings, Rendering{
		Kind:  KindDownscaled,
		Image: imaging.Resize(img, halfWidth, 0, imaging.NearestNeighbor),
		Scale: 0.5,
	})

	return renderings
}

// ContrastStretch rescales each channel to the full [0,255] range using the
// channel's global min/max over the frame. A flat image (min==max on every
// channel) is returned unchanged.
func ContrastStretch(img image.Image) image.Image {
	src := imaging.Clone(img)
	bounds := src.Bounds()

	var minC, maxC [3]uint8
	for i := range minC {
		minC[i] = 255
		maxC[i] = 0
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		rowStart := src.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			offset := rowStart + (x-bounds.Min.X)*4
			for c := 0; c < 3; c++ {
				v := src.Pix[offset+c]
				if v < minC[c] {
					minC[c] = v
				}
				if v > maxC[c] {
					maxC[c] = v
				}
			}
		}
	}

	flat := true
	for c := 0; c < 3; c++ {
		if maxC[c] > minC[c] {
			flat = false
			break
		}
	}
	if flat {
		return img
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		rowStart := src.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			offset := rowStart + (x-bounds.Min.X)*4
			for c := 0; c < 3; c++ {
				lo, hi := minC[c], maxC[c]
				if hi == lo {
					continue
				}
				v := src.Pix[offset+c]
				src.Pix[offset+c] = uint8(int(v-lo) * 255 / int(hi-lo))
			}
		}
	}

	return src
}

// Binarize converts the image to luminance and thresholds at the mean
// intensity, producing a strict black/white rendering.
func Binarize(img image.Image) image.Image {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	totalPixels := bounds.Dx() * bounds.Dy()
	if totalPixels == 0 {
		return gray
	}

	var sum int64
	for _, v := range gray.Pix {
		sum += int64(v)
	}
	threshold := uint8(sum / int64(len(gray.Pix)))

	out := image.NewGray(bounds)
	for i, v := range gray.Pix {
		if v > threshold {
			out.Pix[i] = 255
		}
	}
	return out
}
