// Package media defines the items a slideshow displays.
package media

import (
	"image"
	"time"

	"github.com/ivlev/kenburns/internal/geometry"
)

// Kind tags an Item.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

// Player is the handle of a video clip. Decoding and presentation belong to
// the implementation; the scheduler only starts, stops and rewinds it.
type Player interface {
	Play()
	Pause()
	SeekToStart()
	// Duration reports the clip length when it is known.
	Duration() (time.Duration, bool)
}

// Item is an immutable image or video entry.
type Item struct {
	ID     string
	Kind   Kind
	Image  image.Image
	Player Player

	// Duration overrides the configured animation duration when > 0.
	Duration time.Duration
}

// NewImage wraps a decoded image.
func NewImage(id string, img image.Image) Item {
	return Item{ID: id, Kind: KindImage, Image: img}
}

// NewVideo wraps a video player.
func NewVideo(id string, p Player) Item {
	return Item{ID: id, Kind: KindVideo, Player: p}
}

// WithDuration returns a copy with an explicit duration override.
func (i Item) WithDuration(d time.Duration) Item {
	i.Duration = d
	return i
}

// Size is the pixel size of an image item, zero for video.
func (i Item) Size() geometry.Size {
	if i.Image == nil {
		return geometry.Size{}
	}
	return geometry.SizeOf(i.Image.Bounds())
}

// PlaybackWindow is how long a video item stays on screen: the override or
// the configured duration, capped by the clip's own length when known.
func (i Item) PlaybackWindow(configured time.Duration) time.Duration {
	window := configured
	if i.Duration > 0 {
		window = i.Duration
	}
	if i.Player != nil {
		if clip, ok := i.Player.Duration(); ok && clip > 0 && clip < window {
			window = clip
		}
	}
	return window
}
