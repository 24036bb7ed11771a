// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package locksim

import (
	"context"

	"golang.org/x/time/rate"
)

const runBatch = 1024

// Run clocks the circuit until ctx is done, and returns ctx.Err().
//
// If hz is greater than zero, the clock is paced to approximately hz cycles
// per second of wall time. Otherwise the circuit runs as fast as possible.
//
// While Run is active, the only safe ways to interact with the circuit are
// edge hooks (such as a bus bridge) and functions documented as safe for
// concurrent use.
//
func (c *Circuit) Run(ctx context.Context, hz float64) error {
	var lim *rate.Limiter
	if hz > 0 {
		// allow bursts worth 10ms of clock
		burst := int(hz / 100)
		if burst < 1 {
			burst = 1
		}
		if burst > runBatch {
			burst = runBatch
		}
		lim = rate.NewLimiter(rate.Limit(hz), burst)
	}
	for {
		n := runBatch
		if lim != nil {
			n = lim.Burst()
			if err := lim.WaitN(ctx, n); err != nil {
				// the limiter fails early when the wait would exceed the
				// deadline; no more cycles can run before it anyway.
				<-ctx.Done()
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		c.Steps(n)
	}
}
