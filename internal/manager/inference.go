package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Executor runs predictions against registry-held handles. Every call takes
// exactly one reference and releases it on all exit paths.
type Executor struct {
	registry *Registry
	timeout  time.Duration
	metrics  *Metrics
	log      zerolog.Logger
}

// NewExecutor returns an executor over reg. A zero timeout leaves the
// computation unbounded.
func NewExecutor(reg *Registry, timeout time.Duration, metrics *Metrics, log zerolog.Logger) *Executor {
	return &Executor{registry: reg, timeout: timeout, metrics: metrics, log: log}
}

// Predict runs input through the model registered as name.
//
// The computation is detached from ctx cancellation: once a reference is
// held the model runs to completion (or predict timeout) so the handle is
// never torn down mid-computation. If ctx is done by then, the output is
// discarded and ctx's error returned.
func (e *Executor) Predict(ctx context.Context, name string, input []byte) ([]byte, error) {
	h, release, err := e.registry.AcquireForPredict(name)
	if err != nil {
		e.metrics.predict("not_ready", 0)
		return nil, fmt.Errorf("%w: %w", ErrModelNotReady, err)
	}
	defer release()

	e.metrics.inflightAdd(1)
	defer e.metrics.inflightAdd(-1)

	start := time.Now()
	out, err := e.compute(ctx, h, input)
	dur := time.Since(start)

	if cerr := ctx.Err(); cerr != nil {
		e.metrics.predict("canceled", dur)
		return nil, cerr
	}
	if err != nil {
		e.metrics.predict("error", dur)
		e.log.Warn().Err(err).Str("model", name).Dur("dur", dur).Msg("predict failed")
		return nil, fmt.Errorf("%w: %q: %w", ErrCompute, name, err)
	}
	e.metrics.predict("ok", dur)
	return out, nil
}

func (e *Executor) compute(ctx context.Context, h Handle, input []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	cctx := context.WithoutCancel(ctx)
	if e.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(cctx, e.timeout)
		defer cancel()
	}
	return h.Predict(cctx, input)
}
