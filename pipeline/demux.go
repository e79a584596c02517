package pipeline

import (
	"context"
)

// Classifier routes a value to an output channel. ok=false drops the value.
type Classifier[T any] func(T) (channel int, ok bool)

// Demux splits p into n pipelines according to classify.
//
// All outputs share one pass over p. Pulling from an output reads the shared
// source until a value for that output appears; values for other outputs are
// buffered and replayed when those outputs are pulled. Values that classify
// to no channel, or to a channel whose iterator has been closed, are discarded
// immediately and never buffered.
//
// The buffer is unbounded unless WithMaxBuffered is given. Its size is the
// backlog of outputs that are not being drained; consumers that drain one
// output completely before the other hold the entire other output in memory.
//
// Each output must be iterated at most once per pass: creating an iterator for
// an output that is already attached to the current pass starts a new pass.
// The outputs are not safe for concurrent iteration.
func Demux[T any](p *Pipeline[T], n int, classify Classifier[T], opts ...Option) []*Pipeline[T] {
	o := resolveOptions("demux", opts)
	d := &demuxer[T]{parent: p, n: n, classify: classify, opts: o}

	outputs := make([]*Pipeline[T], n)
	for i := 0; i < n; i++ {
		ch := i
		outputs[i] = &Pipeline[T]{
			create: func(ctx context.Context) Iterator[T] {
				return &demuxIter[T]{state: d.attach(ctx, ch), ch: ch}
			},
		}
	}
	return outputs
}

// demuxer hands out the shared state of the current pass.
type demuxer[T any] struct {
	parent   *Pipeline[T]
	n        int
	classify Classifier[T]
	opts     options
	current  *demuxState[T]
}

func (d *demuxer[T]) attach(ctx context.Context, ch int) *demuxState[T] {
	if d.current == nil || d.current.finished || d.current.attached[ch] {
		d.current = &demuxState[T]{
			source:   d.parent.create(ctx),
			classify: d.classify,
			opts:     d.opts,
			queues:   make([]queue[T], d.n),
			attached: make([]bool, d.n),
			closed:   make([]bool, d.n),
		}
	}
	d.current.attached[ch] = true
	return d.current
}

type demuxState[T any] struct {
	source    Iterator[T]
	classify  Classifier[T]
	opts      options
	queues    []queue[T]
	attached  []bool
	closed    []bool
	exhausted bool
	finished  bool
	err       error
}

func (s *demuxState[T]) next(ctx context.Context, ch int) (T, bool, error) {
	var zero T
	if val, ok := s.queues[ch].pop(); ok {
		s.opts.release(1)
		s.opts.stats.Out++
		return val, true, nil
	}
	if s.err != nil {
		return zero, false, s.err
	}
	if s.exhausted {
		return zero, false, nil
	}
	for {
		val, ok, err := s.source.Next(ctx)
		if err != nil {
			s.err = err
			return zero, false, err
		}
		if !ok {
			s.exhausted = true
			return zero, false, nil
		}
		s.opts.stats.In++

		target, routed := s.classify(val)
		if !routed || target < 0 || target >= len(s.queues) || s.closed[target] {
			s.opts.stats.Dropped++
			continue
		}
		if target == ch {
			s.opts.stats.Out++
			return val, true, nil
		}
		if err := s.opts.hold(1); err != nil {
			s.err = err
			return zero, false, err
		}
		s.queues[target].push(val)
	}
}

func (s *demuxState[T]) close(ch int) error {
	if s.closed[ch] {
		return nil
	}
	s.closed[ch] = true
	s.opts.release(s.queues[ch].len())
	s.queues[ch] = queue[T]{}

	for i := range s.closed {
		if s.attached[i] && !s.closed[i] {
			return nil
		}
	}
	s.finished = true
	return s.source.Close()
}

type demuxIter[T any] struct {
	state *demuxState[T]
	ch    int
}

func (it *demuxIter[T]) Next(ctx context.Context) (T, bool, error) {
	return it.state.next(ctx, it.ch)
}

func (it *demuxIter[T]) Close() error { return it.state.close(it.ch) }

// queue is a FIFO that releases consumed slots.
type queue[T any] struct {
	items []T
	head  int
}

func (q *queue[T]) push(v T) { q.items = append(q.items, v) }

func (q *queue[T]) pop() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return v, true
}

func (q *queue[T]) len() int { return len(q.items) - q.head }
