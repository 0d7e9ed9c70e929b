package engine

import "github.com/cloudpe/pemarket/internal/domain"

// ProgressSink fans progress events out to the presentation layer over a
// bounded channel. The engine never blocks on a slow consumer:
// intermediate events are dropped under backpressure, terminal events
// evict the oldest queued event instead and always get through.
type ProgressSink struct {
	ch chan domain.ProgressEvent
}

func NewProgressSink(buffer int) *ProgressSink {
	if buffer < 1 {
		buffer = 16
	}
	return &ProgressSink{ch: make(chan domain.ProgressEvent, buffer)}
}

func (s *ProgressSink) Events() <-chan domain.ProgressEvent {
	return s.ch
}

func (s *ProgressSink) Emit(ev domain.ProgressEvent) {
	if !ev.Terminal() {
		select {
		case s.ch <- ev:
		default:
			// consumer is behind; this snapshot is stale the moment the
			// next one arrives anyway
		}
		return
	}

	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		// make room by dropping the oldest queued event
		select {
		case <-s.ch:
		default:
		}
	}
}
