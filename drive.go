package signalvec

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var driveLogger = loggo.GetLogger("signalvec.drive")

// Drive polls source until it ends, calling fn with every diff it emits.
// While the source is pending Drive parks until it is woken or ctx is done.
//
// Drive returns nil once the source has ended, the error returned by fn, or
// the context error.
func Drive[T any](ctx context.Context, source Source[T], fn func(Diff[T]) error) error {
	woken := make(chan struct{}, 1)
	waker := WakerFunc(func() {
		select {
		case woken <- struct{}{}:
		default:
		}
	})

	for {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}

		poll := source.PollChange(waker)
		switch poll.Status {
		case StatusReady:
			if err := fn(poll.Diff); err != nil {
				return errors.Annotatef(err, "handling %s", poll.Diff.Kind())
			}
		case StatusEnded:
			driveLogger.Tracef("source ended")
			return nil
		case StatusPending:
			driveLogger.Tracef("source pending, parking")
			select {
			case <-woken:
			case <-ctx.Done():
				return errors.Trace(ctx.Err())
			}
		}
	}
}

// Collect drives source to the end and returns the resulting collection.
func Collect[T any](ctx context.Context, source Source[T]) ([]T, error) {
	var values []T
	err := Drive(ctx, source, func(diff Diff[T]) error {
		values = Apply(values, diff)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}
