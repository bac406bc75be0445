// File: internal/browser/await/await.go

// Package await implements polling completion detection for operations the
// target application finishes client-side without any observable request to
// anchor on. Callers describe the observable signals; one loop owns the
// ordering, pacing and timeout behaviour for every operation type.
package await

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Outcome is the terminal classification of a watched operation.
type Outcome int

const (
	Pending Outcome = iota
	Succeeded
	Failed
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Probe checks one observable signal. It returns whether the signal fired
// and a human-readable detail for the result. Probe errors are treated as
// "signal not observed" so a flaky DOM read cannot fail the whole wait.
type Probe func(ctx context.Context) (bool, string, error)

// Signals groups the probes for one operation. Order inside each slice is
// significant; within a tick, Success is evaluated before Failure before
// Busy, so an operation that renders both a progress bar and a success
// toast in the same instant counts as done.
type Signals struct {
	Success []Probe
	Failure []Probe
	Busy    []Probe
}

// Config paces the polling loop.
type Config struct {
	// Timeout bounds the whole wait.
	Timeout time.Duration
	// Interval is the idle poll spacing.
	Interval time.Duration
	// BusyInterval replaces Interval for the tick after a busy signal
	// fired, so actively processing operations are watched more closely.
	BusyInterval time.Duration
}

// Result describes how the wait ended.
type Result struct {
	Outcome Outcome
	// Detail is the message from the probe that decided the outcome.
	Detail  string
	Elapsed time.Duration
}

// Wait polls the signals until a terminal outcome or the timeout. The only
// error it returns is the parent context's cancellation; a timeout is a
// normal TimedOut result, never a hang.
func Wait(ctx context.Context, cfg Config, signals Signals, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("await")

	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BusyInterval <= 0 {
		cfg.BusyInterval = cfg.Interval
	}

	start := time.Now()
	deadline := start.Add(cfg.Timeout)
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	interval := cfg.Interval
	for {
		outcome, detail := tick(waitCtx, signals, logger)
		elapsed := time.Since(start)

		switch outcome {
		case Succeeded, Failed:
			logger.Debug("Completion detected",
				zap.Stringer("outcome", outcome),
				zap.String("detail", detail),
				zap.Duration("elapsed", elapsed))
			return Result{Outcome: outcome, Detail: detail, Elapsed: elapsed}, nil
		case Pending:
			interval = cfg.Interval
		default:
		}
		if outcome == busyOutcome {
			interval = cfg.BusyInterval
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				// The caller went away; propagate rather than classify.
				return Result{Outcome: Pending, Elapsed: time.Since(start)}, ctx.Err()
			}
			logger.Debug("Completion wait timed out", zap.Duration("elapsed", time.Since(start)))
			return Result{Outcome: TimedOut, Detail: detail, Elapsed: time.Since(start)}, nil
		case <-time.After(interval):
		}
	}
}

// busyOutcome is internal to the tick/loop protocol; it never escapes Wait.
const busyOutcome Outcome = -1

func tick(ctx context.Context, signals Signals, logger *zap.Logger) (Outcome, string) {
	if fired, detail := check(ctx, signals.Success, logger, "success"); fired {
		return Succeeded, detail
	}
	if fired, detail := check(ctx, signals.Failure, logger, "failure"); fired {
		return Failed, detail
	}
	if fired, detail := check(ctx, signals.Busy, logger, "busy"); fired {
		return busyOutcome, detail
	}
	return Pending, ""
}

func check(ctx context.Context, probes []Probe, logger *zap.Logger, kind string) (bool, string) {
	for i, probe := range probes {
		if ctx.Err() != nil {
			return false, ""
		}
		fired, detail, err := probe(ctx)
		if err != nil {
			logger.Debug("Probe error ignored",
				zap.String("kind", kind),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		if fired {
			return true, detail
		}
	}
	return false, ""
}
