package source

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ivlev/kenburns/internal/media"
	"github.com/ivlev/kenburns/internal/system"
)

// Dir is a directory (or a single file) of images and video clips, sorted
// by name.
type Dir struct {
	paths []string
	paged *Paged
	log   zerolog.Logger
}

// NewDir lists path. A file path yields a one-item source.
func NewDir(path string, parallel int64, logger zerolog.Logger) (*Dir, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if system.HasExt(entry.Name(), imageExts...) || system.HasExt(entry.Name(), videoExts...) {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	d := &Dir{paths: paths, log: logger.With().Str("component", "source").Str("source", path).Logger()}
	d.paged = NewPaged(d, filepath.Base(path), 0, parallel, logger)
	return d, nil
}

func (d *Dir) Count() int {
	return len(d.paths)
}

// Fetch decodes images on a goroutine; videos get a ProbePlayer.
func (d *Dir) Fetch(ctx context.Context, index int, deliver func(*media.Item)) {
	if index < 0 || index >= len(d.paths) {
		deliver(nil)
		return
	}
	path := d.paths[index]
	if !system.HasExt(path, videoExts...) {
		d.paged.Fetch(ctx, index, func(it *media.Item) {
			if it != nil {
				it.ID = filepath.Base(path)
			}
			deliver(it)
		})
		return
	}
	go func() {
		p := NewProbePlayer(path)
		if _, err := p.Probe(ctx); err != nil {
			d.log.Debug().Err(err).Str("path", path).Msg("clip length unknown")
		}
		it := media.NewVideo(filepath.Base(path), p)
		deliver(&it)
	}()
}

// PageCount counts every entry; RenderPage fails on videos.
func (d *Dir) PageCount() int {
	return len(d.paths)
}

func (d *Dir) GetPageDimensions(index int) (float64, float64, error) {
	path, err := d.imagePath(index)
	if err != nil {
		return 0, 0, err
	}
	cfg, err := decodeConfig(path)
	if err != nil {
		return 0, 0, err
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

// RenderPage decodes the image; dpi does not apply.
func (d *Dir) RenderPage(index int, dpi int) (image.Image, error) {
	path, err := d.imagePath(index)
	if err != nil {
		return nil, err
	}
	return decodeImage(path)
}

// Path returns the file behind index.
func (d *Dir) Path(index int) string {
	return d.paths[index]
}

func (d *Dir) imagePath(index int) (string, error) {
	if index < 0 || index >= len(d.paths) {
		return "", fmt.Errorf("index %d out of range", index)
	}
	path := d.paths[index]
	if system.HasExt(path, videoExts...) {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrNotImage)
	}
	return path, nil
}

func (d *Dir) Close() error {
	return nil
}
