// Package source supplies slideshow items: image directories, PDF pages,
// YAML playlists and in-memory lists.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/ivlev/kenburns/internal/media"
)

var (
	ErrNoItems  = errors.New("source has no items")
	ErrNotImage = errors.New("entry is not an image")
)

// Pages is random access to still frames, such as PDF pages or image files.
// The offline exporter reads it directly.
type Pages interface {
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Paged serves Pages as an IndexedSource. Each fetch renders on its own
// goroutine; at most parallel renders run at once.
type Paged struct {
	pages Pages
	name  string
	dpi   int
	sem   *semaphore.Weighted
	log   zerolog.Logger
}

// NewPaged wraps pages. Item ids are "name#index".
func NewPaged(pages Pages, name string, dpi int, parallel int64, logger zerolog.Logger) *Paged {
	if parallel < 1 {
		parallel = 1
	}
	return &Paged{
		pages: pages,
		name:  name,
		dpi:   dpi,
		sem:   semaphore.NewWeighted(parallel),
		log:   logger.With().Str("component", "source").Str("source", name).Logger(),
	}
}

func (p *Paged) Count() int {
	return p.pages.PageCount()
}

// Fetch renders the page asynchronously. Render failures deliver nil.
func (p *Paged) Fetch(ctx context.Context, index int, deliver func(*media.Item)) {
	go func() {
		it, err := p.render(ctx, index)
		if err != nil {
			p.log.Warn().Err(err).Int("index", index).Msg("render failed")
			deliver(nil)
			return
		}
		deliver(&it)
	}()
}

func (p *Paged) render(ctx context.Context, index int) (media.Item, error) {
	if index < 0 || index >= p.pages.PageCount() {
		return media.Item{}, fmt.Errorf("page %d out of range", index)
	}
	if err := ctx.Err(); err != nil {
		return media.Item{}, err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return media.Item{}, err
	}
	defer p.sem.Release(1)

	img, err := p.pages.RenderPage(index, p.dpi)
	if err != nil {
		return media.Item{}, fmt.Errorf("render page %d: %w", index, err)
	}
	return media.NewImage(fmt.Sprintf("%s#%d", p.name, index), img), nil
}

func (p *Paged) Close() error {
	return p.pages.Close()
}
