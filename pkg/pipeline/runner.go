package pipeline

import "context"

// Runner is the guarded entry point shared by scheduled ticks and manual
// triggers. Both paths converge here; the guard ensures at most one active
// job process-wide.
type Runner struct {
	guard      Guard
	logf       Logf
	loadConfig func() (Config, error)
}

// NewRunner creates a Runner. loadConfig is called at trigger time so each
// run sees the latest persisted configuration.
func NewRunner(loadConfig func() (Config, error), logf Logf) *Runner {
	return &Runner{loadConfig: loadConfig, logf: logf}
}

// Trigger runs one job synchronously. If a job is already active the trigger
// is a no-op that only logs; callers wanting a responsive control surface run
// Trigger on its own goroutine.
func (r *Runner) Trigger(ctx context.Context) Outcome {
	if !r.guard.TryAcquire() {
		r.logf("Job already running. Skipping.")
		return Outcome{Success: false, Kind: KindSkipped, Message: "job already running"}
	}
	defer r.guard.Release()

	r.logf("Starting automation job...")

	cfg, err := r.loadConfig()
	if err != nil {
		r.logf("Configuration load failed: %v", err)
		return Outcome{Success: false, Kind: KindInternal, Message: err.Error()}
	}

	outcome := Run(ctx, cfg, r.logf)
	if outcome.Success {
		r.logf("Job finished: %s", outcome.Message)
	} else {
		r.logf("Job failed (%s): %s", outcome.Kind, outcome.Message)
	}
	return outcome
}

// Running reports whether a job currently holds the run guard.
func (r *Runner) Running() bool {
	return r.guard.Held()
}
