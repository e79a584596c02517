package pipeline

import (
	"context"
)

// Grouped is the set of values sharing one key. Items keep arrival order and
// are never empty.
type Grouped[K comparable, T any] struct {
	Key   K
	Items []T
}

// Group collects values by keyFn and emits one Grouped per distinct key.
//
// Groups are only emitted once the source is exhausted: the first Next drains
// the whole source. Groups come out in first-seen key order. A keyFn error
// fails the pass. The stage holds every input value until its group is
// emitted; WithMaxBuffered bounds that count.
func Group[T any, K comparable](p *Pipeline[T], keyFn func(T) (K, error), opts ...Option) *Pipeline[Grouped[K, T]] {
	o := resolveOptions("group", opts)
	return &Pipeline[Grouped[K, T]]{
		create: func(ctx context.Context) Iterator[Grouped[K, T]] {
			return &groupIter[T, K]{source: p.create(ctx), keyFn: keyFn, opts: o}
		},
	}
}

type groupIter[T any, K comparable] struct {
	source Iterator[T]
	keyFn  func(T) (K, error)
	opts   options
	groups []Grouped[K, T]
	index  int
	filled bool
}

func (it *groupIter[T, K]) Next(ctx context.Context) (Grouped[K, T], bool, error) {
	var zero Grouped[K, T]
	if !it.filled {
		if err := it.fill(ctx); err != nil {
			return zero, false, err
		}
		it.filled = true
	}
	if it.index >= len(it.groups) {
		return zero, false, nil
	}
	g := it.groups[it.index]
	it.groups[it.index] = zero
	it.index++
	it.opts.release(len(g.Items))
	it.opts.stats.Out++
	return g, true, nil
}

func (it *groupIter[T, K]) fill(ctx context.Context) error {
	positions := make(map[K]int)
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		it.opts.stats.In++
		key, err := it.keyFn(val)
		if err != nil {
			return err
		}
		if err := it.opts.hold(1); err != nil {
			return err
		}
		if pos, seen := positions[key]; seen {
			it.groups[pos].Items = append(it.groups[pos].Items, val)
			continue
		}
		positions[key] = len(it.groups)
		it.groups = append(it.groups, Grouped[K, T]{Key: key, Items: []T{val}})
	}
}

func (it *groupIter[T, K]) Close() error {
	for i := it.index; i < len(it.groups); i++ {
		it.opts.release(len(it.groups[i].Items))
	}
	it.groups = nil
	it.index = 0
	return it.source.Close()
}
