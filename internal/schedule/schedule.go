// Package schedule runs periodic work against an injectable clock.
package schedule

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
)

// Every calls fn immediately and then every interval until ctx is done or
// fn returns an error. The interval is measured from the end of one call to
// the start of the next, so slow passes never overlap.
//
// Every returns the error of fn, or ctx.Err() once ctx is done.
func Every(ctx context.Context, clk clock.Clock, interval time.Duration, fn func(context.Context) error) error {
	if interval <= 0 {
		return errors.NotValidf("interval %v", interval)
	}
	if clk == nil {
		clk = clock.WallClock
	}
	for {
		if err := fn(ctx); err != nil {
			return errors.Trace(err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(interval):
		}
	}
}
