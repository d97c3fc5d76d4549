package source

import (
	"context"

	"github.com/ivlev/kenburns/internal/media"
)

// Slice is an in-memory IndexedSource that delivers synchronously.
type Slice []media.Item

func (s Slice) Count() int {
	return len(s)
}

func (s Slice) Fetch(_ context.Context, index int, deliver func(*media.Item)) {
	if index < 0 || index >= len(s) {
		deliver(nil)
		return
	}
	it := s[index]
	deliver(&it)
}
