package preview

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotWriter stores frames as numbered PNG files.
type SnapshotWriter struct {
	Dir    string
	next   int
	logger zerolog.Logger
}

func NewSnapshotWriter(dir string, logger zerolog.Logger) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &SnapshotWriter{Dir: dir, logger: logger.With().Str("component", "snapshot").Logger()}, nil
}

// Write encodes img as the next frame_NNNNNN.png and returns its path.
func (w *SnapshotWriter) Write(img image.Image) (string, error) {
	path := filepath.Join(w.Dir, fmt.Sprintf("frame_%06d.png", w.next))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	w.next++
	return path, nil
}

// Capture writes a frame of s every interval until ctx is done.
func (w *SnapshotWriter) Capture(ctx context.Context, s *Surface, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			frame := s.Frame()
			path, err := w.Write(frame)
			s.Release(frame)
			if err != nil {
				return err
			}
			w.logger.Debug().Str("path", path).Msg("snapshot written")
		}
	}
}
