package sinks

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sink is a secondary destination for accepted leads. Delivery failures are
// the dispatcher's to log; they never reach the caller.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, sourceName string, payload map[string]interface{}) error
}

// Dispatcher fans an accepted lead's raw payload out to every registered
// sink in the background. This isolation is the contract: a flaky Notion or
// ad-platform endpoint must not slow or fail lead ingestion.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, timeout: 30 * time.Second}
}

func (d *Dispatcher) Dispatch(sourceName string, payload map[string]interface{}) {
	for _, sink := range d.sinks {
		go d.deliver(sink, sourceName, payload)
	}
}

func (d *Dispatcher) deliver(sink Sink, sourceName string, payload map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := sink.Deliver(ctx, sourceName, payload); err != nil {
		log.Error().Err(err).
			Str("sink", sink.Name()).
			Str("source", sourceName).
			Msg("best-effort sink delivery failed")
		return
	}

	log.Debug().
		Str("sink", sink.Name()).
		Str("source", sourceName).
		Msg("sink delivery ok")
}
