package automerge

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/logfields"
)

// DefaultRetries is the default number of times a failed merge is retried.
const DefaultRetries = 3

const defBaseWait = time.Second

const mergeFailedHint = "An error occurred while merging the pull request. " +
	"This is usually caused by the base branch being out of sync with the " +
	"target branch. In this case, the base branch must be rebased. Some " +
	"tools, such as Dependabot, do that automatically."

var _ backoff.BackOff = &quadraticBackOff{}

// quadraticBackOff is a backoff.BackOff that returns trial² * base as
// delay and increments trial with every call.
// When trial exceeds maxRetries backoff.Stop is returned.
type quadraticBackOff struct {
	base         time.Duration
	initialTrial uint
	trial        uint
	maxRetries   uint
}

func newQuadraticBackOff(base time.Duration, initialTrial, maxRetries uint) *quadraticBackOff {
	return &quadraticBackOff{
		base:         base,
		initialTrial: initialTrial,
		trial:        initialTrial,
		maxRetries:   maxRetries,
	}
}

func (b *quadraticBackOff) NextBackOff() time.Duration {
	if b.trial > b.maxRetries {
		return backoff.Stop
	}

	d := time.Duration(b.trial*b.trial) * b.base
	b.trial++

	return d
}

func (b *quadraticBackOff) Reset() {
	b.trial = b.initialTrial
}

// Retryer runs a function until it succeeded or it failed maxRetries+1
// times.
// Executions are never run concurrently, after a failure Retryer sleeps
// for trial² * 1s before the next execution.
type Retryer struct {
	logger     *zap.Logger
	maxRetries uint
	baseWait   time.Duration
	sleepFn    func(context.Context, time.Duration) error
}

// NewRetryer returns a Retryer that retries a failed function up to
// maxRetries times.
func NewRetryer(maxRetries uint) *Retryer {
	return &Retryer{
		logger:     zap.L().Named("retryer"),
		maxRetries: maxRetries,
		baseWait:   defBaseWait,
		sleepFn:    sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run is RunFromTrial starting with the first trial.
func (r *Retryer) Run(ctx context.Context, fn func(context.Context) error, logF []zap.Field) error {
	return r.RunFromTrial(ctx, 1, fn, logF)
}

// RunFromTrial executes fn until it was successful or it failed and trial
// is bigger than the configured maximum number of retries.
// If it failed, the error of the last execution of fn is returned.
// If ctx is cancelled while waiting for the next retry, the context error
// is returned.
func (r *Retryer) RunFromTrial(ctx context.Context, trial uint, fn func(context.Context) error, logF []zap.Field) error {
	bo := newQuadraticBackOff(r.baseWait, trial, r.maxRetries)

	logger := r.logger.With(logF...)

	for {
		logger := logger.With(zap.Uint("trial", bo.trial))

		err := fn(ctx)
		if err == nil {
			return nil
		}

		logger.Info(mergeFailedHint, logfields.Event("merge_failed"))
		logger.Debug(fmt.Sprintf("Original error: %s.", err), zap.Error(err))

		retryIn := bo.NextBackOff()
		if retryIn == backoff.Stop {
			logger.Error(
				"giving up merging pull request, retries exhausted",
				logfields.Event("merge_retries_exhausted"),
				zap.Uint("max_retries", r.maxRetries),
				zap.Error(err),
			)

			return err
		}

		logger.Info(
			fmt.Sprintf("Retrying in %s...", retryIn),
			logfields.Event("merge_retry_scheduled"),
			zap.Duration("retry_in", retryIn),
		)

		if sleepErr := r.sleepFn(ctx, retryIn); sleepErr != nil {
			logger.Info(
				"merge retry cancelled",
				logfields.Event("merge_retry_cancelled"),
				zap.NamedError("merge_error", err),
				zap.Error(sleepErr),
			)

			return sleepErr
		}
	}
}
