package pipeline

import (
	"github.com/kbukum/datasets/errors"
)

// InfiniteBuffer disables the buffer bound of a buffering stage. The stage
// then grows with its input: Demux with the backlog of channels not being
// drained, Group with the whole input, Join with the whole right stream.
const InfiniteBuffer = 0

// Option configures a buffering stage (Demux, Group, Join).
type Option func(*options)

type options struct {
	name        string
	maxBuffered int
	stats       *Stats
}

func resolveOptions(stage string, opts []Option) options {
	o := options{name: stage, maxBuffered: InfiniteBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	if o.stats == nil {
		o.stats = &Stats{}
	}
	o.stats.Stage = o.name
	return o
}

// WithName labels the stage in errors and statistics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithMaxBuffered bounds the number of items the stage may hold at once.
// Exceeding the bound fails the pass with a BUFFER_EXHAUSTED error.
// InfiniteBuffer (0) or a negative value means unbounded.
func WithMaxBuffered(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = InfiniteBuffer
		}
		o.maxBuffered = n
	}
}

// WithStats records stage counters into s. The counters are updated as the
// stage runs and are only meaningful for a single pass.
func WithStats(s *Stats) Option {
	return func(o *options) { o.stats = s }
}

// Stats holds the counters of one buffering stage for one pass.
type Stats struct {
	// Stage is the stage name given through WithName.
	Stage string
	// In counts items pulled from the source(s).
	In int
	// Out counts items emitted downstream.
	Out int
	// Dropped counts classification misses (Demux) or unmatched left items (Join).
	Dropped int
	// Duplicates counts right items ignored by Join because their key was already buffered.
	Duplicates int
	// Buffered is the current number of held items.
	Buffered int
	// HighWater is the largest value Buffered reached.
	HighWater int
}

func (o *options) hold(n int) error {
	s := o.stats
	if o.maxBuffered != InfiniteBuffer && s.Buffered+n > o.maxBuffered {
		return errors.BufferExhausted(o.name, o.maxBuffered)
	}
	s.Buffered += n
	if s.Buffered > s.HighWater {
		s.HighWater = s.Buffered
	}
	return nil
}

func (o *options) release(n int) {
	o.stats.Buffered -= n
}
