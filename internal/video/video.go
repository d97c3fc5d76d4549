// Package video drives ffmpeg: one encoded segment per slide, then the
// segments joined with crossfades.
package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/system"
)

type VideoEncoder interface {
	EncodeSegment(ctx context.Context, img image.Image, videoPath string, params config.SegmentParams, encoderName string, quality int) error
	Concatenate(ctx context.Context, segments []Segment, finalPath string, tmpDir string, opts ConcatOptions) error
}

// Segment is an encoded slide and its length in seconds, fade included.
type Segment struct {
	Path     string
	Duration float64
}

// ConcatOptions control the final join.
type ConcatOptions struct {
	Transition   string // xfade transition; "" or "none" concatenates
	FadeDuration float64
	Encoder      string
	Quality      int
}

type FFmpegEncoder struct {
	// Binary defaults to "ffmpeg".
	Binary string
}

func (e *FFmpegEncoder) binary() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

func (e *FFmpegEncoder) EncodeSegment(
	ctx context.Context,
	img image.Image,
	videoPath string,
	params config.SegmentParams,
	encoderName string,
	quality int,
) error {
	inputW, inputH := img.Bounds().Dx(), img.Bounds().Dy()

	args := BuildSegmentArgs(inputW, inputH, videoPath, params, encoderName, quality)

	cmd := exec.CommandContext(ctx, e.binary(), args...)
	var out strings.Builder
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}

	// A single raw frame; zoompan repeats it d times.
	if err := writeRawRGBA(stdin, img); err != nil {
		stdin.Close()
		_ = cmd.Wait()
		return fmt.Errorf("write raw frame: %w", err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg segment %d: %w: %s", params.PageIndex, err, tail(out.String()))
	}

	return nil
}

// BuildSegmentArgs is the ffmpeg command line for one slide fed as raw RGBA
// on stdin.
func BuildSegmentArgs(
	inputW, inputH int,
	videoPath string,
	params config.SegmentParams,
	encoderName string,
	quality int,
) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", inputW, inputH),
		"-i", "-",
		"-vf", params.Filter,
		"-t", fmt.Sprintf("%f", params.Duration),
		"-r", fmt.Sprintf("%d", params.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	}
	args = append(args, qualityArgs(encoderName, quality)...)
	return append(args, videoPath)
}

func qualityArgs(encoderName string, quality int) []string {
	switch encoderName {
	case "h264_videotoolbox":
		// VideoToolbox has no constant-quality knob on every version; 75 -> 7.5 Mbit/s.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if ok && rgba.Stride == bounds.Dx()*4 && rgba.Rect.Min == (image.Point{}) {
		_, err := w.Write(rgba.Pix)
		return err
	}
	buf := system.GetImage(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	defer system.PutImage(buf)
	draw.Draw(buf, buf.Bounds(), img, bounds.Min, draw.Src)
	_, err := w.Write(buf.Pix)
	return err
}

// Offsets returns the xfade offset of every join: each segment starts one
// fade before the previous one ends.
func Offsets(durations []float64, fade float64) []float64 {
	if len(durations) < 2 {
		return nil
	}
	offsets := make([]float64, len(durations)-1)
	acc := 0.0
	for i := range offsets {
		acc += durations[i] - fade
		offsets[i] = acc
	}
	return offsets
}

// BuildConcatArgs is the ffmpeg command line joining segments with xfade.
// Callers use the concat demuxer instead when there is no transition.
func BuildConcatArgs(segments []Segment, finalPath string, opts ConcatOptions) []string {
	args := []string{"-y"}
	durations := make([]float64, len(segments))
	for i, s := range segments {
		args = append(args, "-i", s.Path)
		durations[i] = s.Duration
	}

	var graph strings.Builder
	lastOut := "[0:v]"
	for i, offset := range Offsets(durations, opts.FadeDuration) {
		outName := fmt.Sprintf("[v%d]", i+1)
		if graph.Len() > 0 {
			graph.WriteString(";")
		}
		fmt.Fprintf(&graph, "%s[%d:v]xfade=transition=%s:duration=%f:offset=%f%s",
			lastOut, i+1, opts.Transition, opts.FadeDuration, offset, outName)
		lastOut = outName
	}
	if graph.Len() > 0 {
		args = append(args, "-filter_complex", graph.String())
	}

	args = append(args, "-map", lastOut, "-c:v", opts.Encoder, "-pix_fmt", "yuv420p")
	args = append(args, qualityArgs(opts.Encoder, opts.Quality)...)
	return append(args, finalPath)
}

func (e *FFmpegEncoder) Concatenate(ctx context.Context, segments []Segment, finalPath string, tmpDir string, opts ConcatOptions) error {
	if len(segments) == 0 {
		return fmt.Errorf("concatenate: no segments")
	}
	if opts.Transition == "" || opts.Transition == "none" || len(segments) == 1 {
		return e.concatCopy(ctx, segments, finalPath, tmpDir)
	}

	cmd := exec.CommandContext(ctx, e.binary(), BuildConcatArgs(segments, finalPath, opts)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg xfade: %w: %s", err, tail(string(out)))
	}
	return nil
}

func (e *FFmpegEncoder) concatCopy(ctx context.Context, segments []Segment, finalPath, tmpDir string) error {
	listPath := filepath.Join(tmpDir, "inputs.txt")
	f, err := os.Create(listPath)
	if err != nil {
		return err
	}
	for _, s := range segments {
		absPath, _ := filepath.Abs(s.Path)
		fmt.Fprintf(f, "file '%s'\n", absPath)
	}
	if err := f.Close(); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, e.binary(), "-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy", finalPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w: %s", err, tail(string(out)))
	}
	return nil
}

// tail keeps the end of ffmpeg's output, where the error is.
func tail(s string) string {
	const keep = 2000
	if len(s) > keep {
		return "..." + s[len(s)-keep:]
	}
	return s
}
