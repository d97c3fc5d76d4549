package source

import (
	"context"
	"sync"
	"time"

	"github.com/ivlev/kenburns/internal/system"
)

// ProbePlayer is a headless video handle. It learns the clip length from
// ffprobe and tracks the playback position against the wall clock; decoding
// is left to whatever renders the surface.
type ProbePlayer struct {
	path string

	mu       sync.Mutex
	length   time.Duration
	known    bool
	playing  bool
	startAt  time.Time
	position time.Duration
	now      func() time.Time
}

func NewProbePlayer(path string) *ProbePlayer {
	return &ProbePlayer{path: path, now: time.Now}
}

// Probe runs ffprobe once and caches the result.
func (p *ProbePlayer) Probe(ctx context.Context) (time.Duration, error) {
	p.mu.Lock()
	if p.known {
		d := p.length
		p.mu.Unlock()
		return d, nil
	}
	p.mu.Unlock()

	d, err := system.GetMediaDuration(ctx, p.path)
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.length, p.known = d, d > 0
	p.mu.Unlock()
	return d, nil
}

func (p *ProbePlayer) Path() string {
	return p.path
}

func (p *ProbePlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	p.playing = true
	p.startAt = p.now()
}

func (p *ProbePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.position = p.clampLocked(p.position + p.now().Sub(p.startAt))
	p.playing = false
}

func (p *ProbePlayer) SeekToStart() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = 0
	p.startAt = p.now()
}

func (p *ProbePlayer) Duration() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.length, p.known
}

// Position is the current playback offset.
func (p *ProbePlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return p.position
	}
	return p.clampLocked(p.position + p.now().Sub(p.startAt))
}

// Playing reports whether Play was called without a later Pause.
func (p *ProbePlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *ProbePlayer) clampLocked(d time.Duration) time.Duration {
	if p.known && d > p.length {
		return p.length
	}
	return d
}
