package pipeline

import (
	"context"
)

// Pair is one result of Join.
type Pair[L, R any] struct {
	Left  L
	Right R
}

// Join performs a streaming inner join of left against right.
//
// For every left value the stage looks up a right value with
// refKeyFn(right) == keyFn(left). Right values are buffered by key as they
// are pulled, so the two streams may arrive in any relative order; the right
// stream is only read as far as needed to find the current match. Left values
// without a match are dropped.
//
// Each left value matches at most once. When several right values share a
// key the first one wins and later ones are ignored. Matched right values stay
// buffered, so several left values may match the same right value. The buffer
// therefore grows up to the full right stream; WithMaxBuffered bounds it.
func Join[L, R any, K comparable](
	left *Pipeline[L],
	right *Pipeline[R],
	keyFn func(L) (K, error),
	refKeyFn func(R) (K, error),
	opts ...Option,
) *Pipeline[Pair[L, R]] {
	o := resolveOptions("join", opts)
	return &Pipeline[Pair[L, R]]{
		create: func(ctx context.Context) Iterator[Pair[L, R]] {
			return &joinIter[L, R, K]{
				left:     left.create(ctx),
				right:    right.create(ctx),
				keyFn:    keyFn,
				refKeyFn: refKeyFn,
				opts:     o,
				buffer:   make(map[K]R),
			}
		},
	}
}

type joinIter[L, R any, K comparable] struct {
	left      Iterator[L]
	right     Iterator[R]
	keyFn     func(L) (K, error)
	refKeyFn  func(R) (K, error)
	opts      options
	buffer    map[K]R
	rightDone bool
}

func (it *joinIter[L, R, K]) Next(ctx context.Context) (Pair[L, R], bool, error) {
	var zero Pair[L, R]
	for {
		l, ok, err := it.left.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		it.opts.stats.In++
		key, err := it.keyFn(l)
		if err != nil {
			return zero, false, err
		}
		r, found, err := it.lookup(ctx, key)
		if err != nil {
			return zero, false, err
		}
		if !found {
			it.opts.stats.Dropped++
			continue
		}
		it.opts.stats.Out++
		return Pair[L, R]{Left: l, Right: r}, true, nil
	}
}

// lookup returns the buffered right value for key, reading further into the
// right stream when it has not been seen yet.
func (it *joinIter[L, R, K]) lookup(ctx context.Context, key K) (R, bool, error) {
	if r, ok := it.buffer[key]; ok {
		return r, true, nil
	}
	var zero R
	for !it.rightDone {
		r, ok, err := it.right.Next(ctx)
		if err != nil {
			return zero, false, err
		}
		if !ok {
			it.rightDone = true
			break
		}
		rk, err := it.refKeyFn(r)
		if err != nil {
			return zero, false, err
		}
		if _, dup := it.buffer[rk]; dup {
			it.opts.stats.Duplicates++
			continue
		}
		if err := it.opts.hold(1); err != nil {
			return zero, false, err
		}
		it.buffer[rk] = r
		if rk == key {
			return r, true, nil
		}
	}
	return zero, false, nil
}

func (it *joinIter[L, R, K]) Close() error {
	it.opts.release(len(it.buffer))
	it.buffer = nil
	errL := it.left.Close()
	errR := it.right.Close()
	if errL != nil {
		return errL
	}
	return errR
}
