package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Extractor grabs single frames from a video with the ffmpeg binary
type Extractor struct {
	binary string
	logger *zap.Logger
}

// NewExtractor uses binary ("ffmpeg" when empty) resolved through PATH
func NewExtractor(binary string, logger *zap.Logger) *Extractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Extractor{binary: binary, logger: logger}
}

// Check verifies that ffmpeg is installed and runs
func (e *Extractor) Check(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, e.binary, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found or not working: %w", err)
	}
	return nil
}

// ExtractFrame writes the frame at timeMs of videoPath to outputPath
func (e *Extractor) ExtractFrame(ctx context.Context, videoPath, outputPath string, timeMs int) error {
	cmd := exec.CommandContext(ctx, e.binary, FrameArgs(videoPath, outputPath, timeMs)...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		e.logger.Error("ffmpeg failed",
			zap.String("video", videoPath),
			zap.Int("time_ms", timeMs),
			zap.ByteString("output", output),
		)
		return fmt.Errorf("ffmpeg failed: %w, output: %s", err, strings.TrimSpace(string(output)))
	}

	e.logger.Debug("frame extracted", zap.String("output", outputPath))
	return nil
}

// FrameArgs builds the ffmpeg arguments: seek (seconds), input, one frame,
// JPEG quality, overwrite, output.
func FrameArgs(videoPath, outputPath string, timeMs int) []string {
	return []string{
		"-ss", Seconds(timeMs),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		outputPath,
	}
}

// Seconds formats a millisecond offset as fractional seconds, e.g. 1500 -> "1.5"
func Seconds(timeMs int) string {
	if timeMs < 0 {
		timeMs = 0
	}
	return strconv.FormatFloat(float64(timeMs)/1000, 'f', -1, 64)
}
