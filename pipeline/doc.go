// Package pipeline provides composable, pull-based data pipeline operators.
//
// Pipelines are lazy: no work happens until values are pulled via Collect,
// ForEach, Take or Iter. Each stage pulls from the previous stage on demand
// from a single consumer goroutine; nothing runs in the background, and
// stopping early (Close) is always safe.
//
// # Operators
//
// Streaming:
//
//   - Map: transform each value
//   - FlatMap: transform each value into multiple values
//   - Unbatch: flatten a pipeline of slices
//   - Filter: keep values matching a predicate
//   - Tap: side-effect without altering the value (logging, metrics)
//   - Finally: run a callback once when a pass ends
//   - Concat: join pipelines sequentially
//
// Buffering (configured with WithMaxBuffered, WithName, WithStats):
//
//   - Demux: split one source into n independently consumable outputs
//   - Group: collect values by key, emitted once the source is exhausted
//   - Join: streaming inner join of a left and a right pipeline by key
//
// Buffering stages are unbounded by default (InfiniteBuffer). A bound turns
// growth past it into a BUFFER_EXHAUSTED error that ends the pass.
//
// # Usage
//
//	outs := pipeline.Demux(records, 2, classify)
//	groups := pipeline.Group(outs[1], func(r Record) (int64, error) { return r.Int("image_id") })
//	joined := pipeline.Join(groups, outs[0], groupKey, recordID)
//	pairs, err := pipeline.Collect(ctx, joined)
package pipeline
