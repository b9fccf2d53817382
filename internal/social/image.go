package social

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// ImageSpec is a platform's preferred post image geometry and size cap.
// Width/Height of zero means the platform takes the original as-is.
type ImageSpec struct {
	Width    int
	Height   int
	MaxBytes int
}

// PlatformImageSpecs are the per-platform targets screenshots get fitted to.
var PlatformImageSpecs = map[string]ImageSpec{
	"twitter":   {1200, 675, 5 * 1024 * 1024},
	"facebook":  {1200, 630, 10 * 1024 * 1024},
	"instagram": {1080, 1080, 8 * 1024 * 1024},
	"reddit":    {0, 0, 20 * 1024 * 1024},
	"linkedin":  {1200, 627, 10 * 1024 * 1024},
}

// PlatformCharLimits caps post text (title for reddit) per platform.
var PlatformCharLimits = map[string]int{
	"twitter":   280,
	"facebook":  63206,
	"instagram": 2200,
	"reddit":    300,
	"linkedin":  3000,
	"threads":   500,
	"bluesky":   300,
	"mastodon":  500,
	"tiktok":    2200,
	"youtube":   5000,
	"pinterest": 500,
}

// OptimizeImage fits an image to the platform's spec: scale to cover the
// target box, center-crop to exact dimensions, and re-encode as JPEG with
// stepped-down quality until it fits the byte cap. Platforms without a spec
// (or with a pass-through spec) get the original bytes.
func OptimizeImage(path, platform string) ([]byte, error) {
	original, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	spec, ok := PlatformImageSpecs[platform]
	if !ok || spec.Width == 0 {
		return original, nil
	}

	src, _, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		// Undecodable input is passed through; the upstream API will reject
		// it with a clearer message than we could synthesize here.
		return original, nil
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return original, nil
	}

	// Cover fit: scale so both dimensions meet the target, then center-crop.
	targetRatio := float64(spec.Width) / float64(spec.Height)
	srcRatio := float64(srcW) / float64(srcH)

	var scaledW, scaledH int
	if srcRatio > targetRatio {
		scaledH = spec.Height
		scaledW = int(srcRatio * float64(spec.Height))
	} else {
		scaledW = spec.Width
		scaledH = int(float64(spec.Width) / srcRatio)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)

	left := (scaledW - spec.Width) / 2
	top := (scaledH - spec.Height) / 2
	cropped := scaled.SubImage(image.Rect(left, top, left+spec.Width, top+spec.Height))

	quality := 92
	for {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, cropped, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode image: %w", err)
		}
		if buf.Len() <= spec.MaxBytes || quality <= 30 {
			return buf.Bytes(), nil
		}
		quality -= 10
	}
}
