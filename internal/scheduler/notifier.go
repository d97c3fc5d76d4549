package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ivlev/kenburns/internal/media"
)

type event struct {
	started bool
	item    media.Item
}

// notifier delivers observer callbacks off the control goroutine, so an
// observer may call back into the scheduler. Events are dropped when the
// observers fall behind.
type notifier struct {
	observers []any
	events    chan event
	log       zerolog.Logger
}

func newNotifier(observers []any, log zerolog.Logger) *notifier {
	return &notifier{
		observers: observers,
		events:    make(chan event, 64),
		log:       log,
	}
}

func (n *notifier) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-n.events:
			n.dispatch(ev)
		}
	}
}

func (n *notifier) dispatch(ev event) {
	for _, o := range n.observers {
		if ev.started {
			if so, ok := o.(StartObserver); ok {
				so.TransitionStarted(ev.item)
			}
			continue
		}
		if fo, ok := o.(FinishObserver); ok {
			fo.TransitionFinished()
		}
	}
}

func (n *notifier) send(ev event) {
	if len(n.observers) == 0 {
		return
	}
	select {
	case n.events <- ev:
	default:
		n.log.Warn().Bool("started", ev.started).Msg("observer queue full, dropping notification")
	}
}

func (n *notifier) started(item media.Item) {
	n.send(event{started: true, item: item})
}

func (n *notifier) finished() {
	n.send(event{})
}
