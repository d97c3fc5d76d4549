package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/kenburns/internal/media"
	"github.com/ivlev/kenburns/internal/system"
)

// Entry is one playlist line.
type Entry struct {
	ID       string        `yaml:"id,omitempty"`
	Path     string        `yaml:"path"`
	Duration time.Duration `yaml:"duration,omitempty"`
}

type playlistFile struct {
	Items []Entry `yaml:"items"`
}

// Playlist is a SequentialSource cycling through a YAML list of files.
// Entries that fail to load are skipped.
type Playlist struct {
	entries []Entry
	log     zerolog.Logger

	mu  sync.Mutex
	pos int
}

// LoadPlaylist reads a playlist; relative paths resolve against its
// directory. Entries without an id get a random one.
func LoadPlaylist(path string, logger zerolog.Logger) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	var f playlistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse playlist %s: %w", path, err)
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("playlist %s: %w", path, ErrNoItems)
	}

	base := filepath.Dir(path)
	for i := range f.Items {
		e := &f.Items[i]
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(base, e.Path)
		}
	}
	return NewPlaylist(f.Items, logger), nil
}

func NewPlaylist(entries []Entry, logger zerolog.Logger) *Playlist {
	return &Playlist{
		entries: entries,
		log:     logger.With().Str("component", "source").Str("source", "playlist").Logger(),
	}
}

func (p *Playlist) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = 0
}

// Next loads the next entry. It gives up after one full lap of failures.
func (p *Playlist) Next(ctx context.Context) (media.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for tries := 0; tries < len(p.entries); tries++ {
		if ctx.Err() != nil {
			return media.Item{}, false
		}
		e := p.entries[p.pos]
		p.pos = (p.pos + 1) % len(p.entries)

		it, err := p.load(ctx, e)
		if err != nil {
			p.log.Warn().Err(err).Str("path", e.Path).Msg("skipping entry")
			continue
		}
		return it, true
	}
	return media.Item{}, false
}

func (p *Playlist) load(ctx context.Context, e Entry) (media.Item, error) {
	if system.HasExt(e.Path, videoExts...) {
		if _, err := os.Stat(e.Path); err != nil {
			return media.Item{}, err
		}
		pl := NewProbePlayer(e.Path)
		if _, err := pl.Probe(ctx); err != nil {
			p.log.Debug().Err(err).Str("path", e.Path).Msg("clip length unknown")
		}
		return media.NewVideo(e.ID, pl).WithDuration(e.Duration), nil
	}
	img, err := decodeImage(e.Path)
	if err != nil {
		return media.Item{}, err
	}
	return media.NewImage(e.ID, img).WithDuration(e.Duration), nil
}

// Entries returns the loaded entries.
func (p *Playlist) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}
