package types

import "time"

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the Get lifecycle. The cache calls these
methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when a fresh entry is returned without producing.
	Hit()

	// Miss is called when the key has no fresh entry and the producer must run.
	Miss()

	// Expire is called when an entry was found but was too old to serve.
	Expire()

	// Produced is called after every producer invocation with its duration.
	// err is nil on success.
	Produced(d time.Duration, err error)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

Callers that do not care about metrics still get a cache that works
without nil checks on every event.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()                          {}
func (NoopMetrics) Miss()                         {}
func (NoopMetrics) Expire()                       {}
func (NoopMetrics) Produced(time.Duration, error) {}
