package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
)

// PollOptions controls RunPoll.
type PollOptions struct {
	// Trigger is the INT_SOURCE bit that makes a sample worth printing,
	// adxl345.DataReady or adxl345.Activity.
	Trigger  adxl345.InterruptFlags
	Interval time.Duration
	// Count stops after that many printed samples; 0 runs until ctx is done.
	Count int
}

// RunPoll prints "X=.. mg, Y=.. mg, Z=.. mg" to w each time the trigger
// bit is set.
func RunPoll(ctx context.Context, sess *Session, w io.Writer, o PollOptions) error {
	if o.Trigger == 0 {
		o.Trigger = adxl345.DataReady
	}
	printed := 0
	for {
		s, _, err := sess.Read(ctx)
		if err != nil {
			return err
		}
		if s.Flags.Has(o.Trigger) {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
			printed++
			if o.Count > 0 && printed >= o.Count {
				return nil
			}
		}
		if o.Interval <= 0 {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(o.Interval):
		}
	}
}
