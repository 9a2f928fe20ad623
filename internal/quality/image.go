package quality

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/presia-labs/presia/internal/domain"
)

// maxAnalysisSide bounds the pixel work per check. Larger crops are
// downsampled before luminance and blur analysis; the metrics are scale
// tolerant at this resolution.
const maxAnalysisSide = 256

// Decode parses raw image bytes (jpeg, png, gif, bmp).
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("decode image: %w", err))
	}
	return img, nil
}

// grayCrop extracts region from img as a grayscale buffer, downsampling
// when the crop exceeds maxAnalysisSide.
func grayCrop(img image.Image, region domain.Region) *image.Gray {
	src := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)

	w, h := region.Width, region.Height
	if w > maxAnalysisSide || h > maxAnalysisSide {
		if w >= h {
			h = h * maxAnalysisSide / w
			w = maxAnalysisSide
		} else {
			w = w * maxAnalysisSide / h
			h = maxAnalysisSide
		}
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, src, draw.Src, nil)
	return gray
}

// meanLuminance returns the average pixel intensity on the 0-255 scale
func meanLuminance(gray *image.Gray) float64 {
	b := gray.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[(y-b.Min.Y)*gray.Stride : (y-b.Min.Y)*gray.Stride+b.Dx()]
		for _, p := range row {
			sum += float64(p)
		}
	}
	return sum / float64(n)
}

// laplacianVariance computes the variance of a 4-neighbor Laplacian edge
// response. Sharp images produce strong edges and high variance; a low value
// indicates blur.
func laplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.Pix[y*gray.Stride+x])
	}

	n := (w - 2) * (h - 2)
	responses := make([]float64, 0, n)
	var sum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lap := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			responses = append(responses, lap)
			sum += lap
		}
	}

	mean := sum / float64(n)
	var variance float64
	for _, r := range responses {
		d := r - mean
		variance += d * d
	}
	return variance / float64(n)
}
