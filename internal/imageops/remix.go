package imageops

import (
	"bytes"
	"fmt"
	"math/rand"

	"github.com/disintegration/imaging"
)

// Variation produces one remix of a source image. Strength scales how far
// the contrast/brightness jitter may drift; even-indexed variations get a
// blur pass and odd-indexed ones a sharpen pass, for variety within a batch.
func Variation(data []byte, index int, strength float64) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	effect := strength * 1.5

	// PIL-style enhancement factors (1.0 = unchanged) mapped onto imaging's
	// percentage adjustments.
	contrastFactor := 0.8 + rand.Float64()*effect
	brightnessFactor := 0.9 + rand.Float64()*effect

	out := imaging.AdjustContrast(img, (contrastFactor-1)*100)
	out = imaging.AdjustBrightness(out, (brightnessFactor-1)*100)

	if index%2 == 0 {
		out = imaging.Blur(out, 0.5+strength)
	} else {
		out = imaging.Sharpen(out, 0.5+strength)
	}

	return encode(out, "PNG")
}
