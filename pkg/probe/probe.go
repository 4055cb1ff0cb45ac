// Package probe runs startup checks before the globe starts serving.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a single check.
const DefaultTimeout = 5 * time.Second

// CheckFunc returns nil when the checked resource is usable.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check. A failed Critical probe aborts startup;
// other failures are only logged.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool
	Timeout  time.Duration
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool { return r.Error == nil }

// Run executes all probes concurrently, each under its own timeout, and
// returns results in probe order.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Go(func() {
			results[i] = runOne(ctx, p)
		})
	}
	wg.Wait()
	return results
}

func runOne(ctx context.Context, p Probe) Result {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := p.Check(checkCtx)
	return Result{Probe: p, Error: err, Duration: time.Since(start)}
}

// AnalyzeResults logs one line per result and returns the joined errors of
// failed critical probes. A nil logger uses slog.Default.
func AnalyzeResults(logger *slog.Logger, results []Result) error {
	if logger == nil {
		logger = slog.Default()
	}
	var critical []error
	failed := 0
	for _, r := range results {
		attrs := []any{"probe", r.Probe.Name, "duration", r.Duration.Round(time.Millisecond)}
		if r.Passed() {
			logger.Info("Startup check passed", attrs...)
			continue
		}
		failed++
		attrs = append(attrs, "error", r.Error, "critical", r.Probe.Critical)
		if r.Probe.Critical {
			logger.Error("Startup check failed", attrs...)
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		} else {
			logger.Warn("Startup check failed", attrs...)
		}
	}
	logger.Info("Startup checks complete", "total", len(results), "failed", failed)
	return errors.Join(critical...)
}
