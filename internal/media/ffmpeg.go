package media

import (
	"context"
	"fmt"
	"os/exec"
)

type ffmpeg struct {
	ffmpegCmd string
}

// NewFfmpeg returns the ffmpeg-backed media operator.
func NewFfmpeg() ffmpeg {
	return ffmpeg{
		ffmpegCmd: "ffmpeg",
	}
}

// ExtractAudio decodes the audio track of a media file into a mono PCM wav.
func (ff ffmpeg) ExtractAudio(
	ctx context.Context,
	mediaPath string,
	wavPath string,
) error {
	cmdPath, err := exec.LookPath(ff.ffmpegCmd)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, cmdPath, ff.extractAudioArgs(mediaPath, wavPath)...)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg audio extraction failed: %w: %s", err, output)
	}
	return nil
}

// AdjustTempo re-times an audio file by a uniform speed factor so its
// duration matches the original video.
func (ff ffmpeg) AdjustTempo(
	ctx context.Context,
	inputPath string,
	outputPath string,
	factor float64,
) error {
	if factor <= 0 {
		return fmt.Errorf("tempo factor must be positive, got %v", factor)
	}

	cmdPath, err := exec.LookPath(ff.ffmpegCmd)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, cmdPath, ff.tempoArgs(inputPath, outputPath, factor)...)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg tempo adjustment failed: %w: %s", err, output)
	}
	return nil
}

func (ffmpeg) extractAudioArgs(mediaPath, wavPath string) []string {
	return []string{
		"-i", mediaPath,
		"-vn", // drop the video stream
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-y",
		wavPath,
	}
}

func (ffmpeg) tempoArgs(inputPath, outputPath string, factor float64) []string {
	return []string{
		"-i", inputPath,
		"-filter:a", fmt.Sprintf("atempo=%g", factor),
		"-y",
		outputPath,
	}
}
