package source

import (
	"context"

	"github.com/ivlev/kenburns/internal/media"
)

// IndexedSource knows how many items it has and fetches any of them by
// index. Fetch may deliver synchronously or from another goroutine; a nil
// item means nothing is available at that index.
type IndexedSource interface {
	Count() int
	Fetch(ctx context.Context, index int, deliver func(*media.Item))
}

// SequentialSource hands out items one after another with no index. The
// scheduler calls Reset when it starts.
type SequentialSource interface {
	Reset()
	Next(ctx context.Context) (media.Item, bool)
}

// Feed is the item source consumed by the scheduler: either an IndexedFeed
// or a SequentialFeed.
type Feed interface {
	feed()
}

// IndexedFeed adapts an IndexedSource.
type IndexedFeed struct {
	Source IndexedSource
}

// SequentialFeed adapts a SequentialSource.
type SequentialFeed struct {
	Source SequentialSource
}

func (IndexedFeed) feed()    {}
func (SequentialFeed) feed() {}

// Indexed wraps src as a Feed.
func Indexed(src IndexedSource) Feed {
	return IndexedFeed{Source: src}
}

// Sequential wraps src as a Feed.
func Sequential(src SequentialSource) Feed {
	return SequentialFeed{Source: src}
}
