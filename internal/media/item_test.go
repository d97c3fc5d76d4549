package media

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clip struct {
	length time.Duration
	known  bool
}

func (c clip) Play()                           {}
func (c clip) Pause()                          {}
func (c clip) SeekToStart()                    {}
func (c clip) Duration() (time.Duration, bool) { return c.length, c.known }

func TestPlaybackWindow(t *testing.T) {
	tests := []struct {
		name     string
		item     Item
		expected time.Duration
	}{
		{"configured", NewVideo("v", clip{length: time.Minute, known: true}), 10 * time.Second},
		{"short clip", NewVideo("v", clip{length: 3 * time.Second, known: true}), 3 * time.Second},
		{"unknown length", NewVideo("v", clip{}), 10 * time.Second},
		{"override", NewVideo("v", clip{length: time.Minute, known: true}).WithDuration(8 * time.Second), 8 * time.Second},
		{"override capped by clip", NewVideo("v", clip{length: 5 * time.Second, known: true}).WithDuration(8 * time.Second), 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.item.PlaybackWindow(10*time.Second))
		})
	}
}

func TestImageItem(t *testing.T) {
	item := NewImage("a", image.NewRGBA(image.Rect(0, 0, 300, 200)))
	assert.Equal(t, KindImage, item.Kind)
	assert.Equal(t, 300.0, item.Size().W)
	assert.Equal(t, 200.0, item.Size().H)
	assert.Equal(t, "image", item.Kind.String())
}
