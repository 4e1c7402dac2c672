package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeBinary writes an executable shell script standing in for ffmpeg
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0"},
		{1000, "1"},
		{1500, "1.5"},
		{61001, "61.001"},
		{-20, "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Seconds(tt.ms), "ms=%d", tt.ms)
	}
}

func TestFrameArgs(t *testing.T) {
	args := FrameArgs("/tmp/in.mp4", "/tmp/out.jpg", 2500)
	assert.Equal(t, []string{
		"-ss", "2.5",
		"-i", "/tmp/in.mp4",
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		"/tmp/out.jpg",
	}, args)
}

func TestCheckMissingBinary(t *testing.T) {
	e := NewExtractor(filepath.Join(t.TempDir(), "does-not-exist"), zaptest.NewLogger(t))
	assert.Error(t, e.Check(context.Background()))
}

func TestCheckWorkingBinary(t *testing.T) {
	e := NewExtractor(fakeBinary(t, "exit 0\n"), zaptest.NewLogger(t))
	assert.NoError(t, e.Check(context.Background()))
}

func TestExtractFramePassesArguments(t *testing.T) {
	// The last argument is the output path; write the full argv there.
	bin := fakeBinary(t, `for last; do :; done
echo "$@" > "$last"
`)
	e := NewExtractor(bin, zaptest.NewLogger(t))

	out := filepath.Join(t.TempDir(), "thumb.jpg")
	require.NoError(t, e.ExtractFrame(context.Background(), "in.mp4", out, 1000))

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "-ss 1 -i in.mp4 -frames:v 1 -q:v 2 -y "+out+"\n", string(written))
}

func TestExtractFrameNonZeroExit(t *testing.T) {
	bin := fakeBinary(t, "echo 'Invalid data found when processing input' >&2\nexit 1\n")
	e := NewExtractor(bin, zaptest.NewLogger(t))

	err := e.ExtractFrame(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "x.jpg"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid data found")
}
