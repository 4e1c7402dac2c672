package services

import (
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// sampleSize is the edge of the grid the frame is reduced to before sampling
	sampleSize = 10

	// colorDifferenceThreshold is the per-channel 8-bit difference above which
	// two samples count as different colours (absorbs compression noise)
	colorDifferenceThreshold = 1
)

// validateThumbnail rejects frames that cannot be decoded or are a single
// solid colour, which is what a seek past the end or a black intro yields.
func validateThumbnail(thumbnailPath string) error {
	img, err := imaging.Open(thumbnailPath)
	if err != nil {
		return fmt.Errorf("failed to decode thumbnail: %w", err)
	}

	grid := imaging.Resize(img, sampleSize, sampleSize, imaging.NearestNeighbor)
	pix := grid.Pix

	differentPixels := 0
	totalSamples := 0
	for i := 0; i+3 < len(pix); i += 4 {
		totalSamples++
		if channelDiffers(pix[0], pix[i]) ||
			channelDiffers(pix[1], pix[i+1]) ||
			channelDiffers(pix[2], pix[i+2]) ||
			channelDiffers(pix[3], pix[i+3]) {
			differentPixels++
		}
	}

	if totalSamples > 0 && float64(differentPixels)/float64(totalSamples) < 0.01 {
		return fmt.Errorf("thumbnail appears to be a solid color (only %d/%d sampled pixels differ)", differentPixels, totalSamples)
	}

	return nil
}

func channelDiffers(a, b uint8) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d > colorDifferenceThreshold
}
