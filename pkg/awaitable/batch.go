package awaitable

import (
	"context"
	"errors"
	"time"
)

// Batch awaits many children and collects their values in input order.
// Every child is awaited even if earlier ones fail; the failures are joined
// into the returned error and the corresponding slots hold zero values.
type Batch[T any] struct {
	children []Awaitable[T]
}

// NewBatch returns a batch over children.
func NewBatch[T any](children ...Awaitable[T]) *Batch[T] {
	return &Batch[T]{children: children}
}

// Len returns the number of children.
func (b *Batch[T]) Len() int { return len(b.children) }

func (b *Batch[T]) Await() ([]T, error) {
	return b.AwaitContext(context.Background())
}

// AwaitTimeout applies a single deadline to the whole batch.
func (b *Batch[T]) AwaitTimeout(d time.Duration) ([]T, error) {
	if d <= 0 {
		return b.Await()
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return b.AwaitContext(ctx)
}

func (b *Batch[T]) AwaitContext(ctx context.Context) ([]T, error) {
	out := make([]T, len(b.children))
	var errs []error
	for i, c := range b.children {
		if c == nil {
			continue
		}
		v, err := c.AwaitContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// The deadline is shared, so the remaining children cannot finish in time.
				return out, err
			}
			errs = append(errs, err)
			continue
		}
		out[i] = v
	}
	return out, errors.Join(errs...)
}
