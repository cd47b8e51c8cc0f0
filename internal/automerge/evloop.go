package automerge

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v43/github"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/filter"
	"github.com/simplesurance/automerger/internal/logfields"
	github_prov "github.com/simplesurance/automerger/internal/provider/github"
)

// DefEventChannelBufferSize is the number of events that can be queued
// while an event is processed.
const DefEventChannelBufferSize = 512

const (
	checkSuiteActionCompleted   = "completed"
	checkSuiteConclusionSuccess = "success"
)

// Repository identifies a GitHub repository.
type Repository struct {
	OwnerLogin     string
	RepositoryName string
}

func (r *Repository) String() string {
	return fmt.Sprintf("%s/%s", r.OwnerLogin, r.RepositoryName)
}

// EvLoop receives GitHub webhook events and passes check suite and push
// events to a Handler.
// Events are processed sequentially in the order they were received, the
// processing of an event, including merge retries, finishes before the next
// event is processed.
type EvLoop struct {
	ch      chan *github_prov.Event
	logger  *zap.Logger
	handler *Handler

	filter       *filter.Filter
	repositories map[Repository]struct{}

	ctx      context.Context
	cancelFn context.CancelFunc
	done     chan struct{}

	processedEventCnt atomic.Uint64
}

// EvLoopOption configures optional settings of an EvLoop.
type EvLoopOption func(*EvLoop)

// WithFilter sets a filter that events must match to be processed.
func WithFilter(f *filter.Filter) EvLoopOption {
	return func(e *EvLoop) {
		e.filter = f
	}
}

// WithRepositories restricts processing to events of the given
// repositories.
// By default events of all repositories are processed.
func WithRepositories(repos []Repository) EvLoopOption {
	return func(e *EvLoop) {
		if len(repos) == 0 {
			return
		}

		e.repositories = make(map[Repository]struct{}, len(repos))
		for _, r := range repos {
			e.repositories[r] = struct{}{}
		}
	}
}

// NewEventLoop returns an EvLoop that passes received events to handler.
func NewEventLoop(handler *Handler, opts ...EvLoopOption) *EvLoop {
	ctx, cancelFn := context.WithCancel(context.Background())

	evl := EvLoop{
		ch:       make(chan *github_prov.Event, DefEventChannelBufferSize),
		logger:   zap.L().Named("event_loop"),
		handler:  handler,
		ctx:      ctx,
		cancelFn: cancelFn,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(&evl)
	}

	return &evl
}

// C returns the event channel.
// Events sent to this channel will be processed.
// The channel is closed when Stop() is called.
func (e *EvLoop) C() chan<- *github_prov.Event {
	return e.ch
}

// Start processes events until Stop() is called.
func (e *EvLoop) Start() {
	defer close(e.done)

	e.logger.Info("ready to process events", logfields.Event("eventloop_started"))

	for ev := range e.ch {
		logger := e.logger.With(ev.LogFields...)

		logger.Debug("event received", logfields.Event("event_received"))

		if err := e.Process(e.ctx, ev); err != nil {
			logger.Error(
				"processing event failed",
				logfields.Event("event_processing_failed"),
				zap.Error(err),
			)
		}
	}

	e.logger.Info(
		"event loop terminated, event channel was closed",
		logfields.Event("eventloop_terminated"),
	)
}

// Stop closes the event channel, cancels the processing of the current
// event and waits until Start() returned.
func (e *EvLoop) Stop() {
	e.logger.Debug("event loop terminating", logfields.Event("eventloop_terminating"))

	close(e.ch)
	e.cancelFn()

	<-e.done
}

func (e *EvLoop) isMonitoredRepository(owner, repositoryName string) bool {
	if e.repositories == nil {
		return true
	}

	_, exist := e.repositories[Repository{OwnerLogin: owner, RepositoryName: repositoryName}]
	return exist
}

// Process passes a check_suite or push event to the Handler.
// Events of other types, not matching the filter or belonging to a
// repository that is not monitored are ignored.
// The error of the Handler is returned.
func (e *EvLoop) Process(ctx context.Context, ev *github_prov.Event) error {
	defer e.processedEventCnt.Inc()

	metrics.ProcessedEventsInc(ev.Type)

	logger := e.logger.With(ev.LogFields...)

	if e.filter != nil {
		match, err := e.filter.Match(ctx, ev.JSON)
		if err != nil {
			return fmt.Errorf("evaluating filter query failed: %w", err)
		}

		if !match {
			logger.Debug(
				"event ignored, filter query evaluated to false",
				logEventEventIgnored,
				zap.Stringer("filter_query", e.filter),
			)

			return nil
		}
	}

	switch gev := ev.Event.(type) {
	case *github.CheckSuiteEvent:
		return e.processCheckSuiteEvent(ctx, logger, gev)

	case *github.PushEvent:
		return e.processPushEvent(ctx, logger, gev)

	case *github.PingEvent:
		logger.Info("ping event received", logfields.Event("github_ping_received"))
		return nil

	default:
		logger.Debug("event ignored, unsupported event type", logEventEventIgnored)
		return nil
	}
}

func (e *EvLoop) processCheckSuiteEvent(ctx context.Context, logger *zap.Logger, gev *github.CheckSuiteEvent) error {
	logger = logger.With(
		zap.String("github.check_suite.action", gev.GetAction()),
		zap.String("github.check_suite.conclusion", gev.GetCheckSuite().GetConclusion()),
	)

	if gev.GetAction() != checkSuiteActionCompleted {
		logger.Debug("event ignored, check suite is not completed", logEventEventIgnored)
		return nil
	}

	if gev.GetCheckSuite().GetConclusion() != checkSuiteConclusionSuccess {
		logger.Debug("event ignored, check suite did not succeed", logEventEventIgnored)
		return nil
	}

	ev, err := NewCheckSuiteEvent(gev)
	if err != nil {
		return fmt.Errorf("converting check_suite event failed: %w", err)
	}

	if !e.isMonitoredRepository(ev.RepositoryOwner, ev.Repository) {
		logger.Debug("event is for repository that is not monitored", logEventEventIgnored)
		return nil
	}

	return e.handler.HandleCheckSuite(ctx, ev)
}

func (e *EvLoop) processPushEvent(ctx context.Context, logger *zap.Logger, gev *github.PushEvent) error {
	ev, err := NewPushEvent(gev)
	if err != nil {
		if errors.Is(err, ErrNotABranch) || errors.Is(err, ErrBranchDeleted) {
			logger.Debug(
				"event ignored",
				logEventEventIgnored,
				zap.String("github.ref", gev.GetRef()),
				zap.Error(err),
			)

			return nil
		}

		return fmt.Errorf("converting push event failed: %w", err)
	}

	if !e.isMonitoredRepository(ev.RepositoryOwner, ev.Repository) {
		logger.Debug("event is for repository that is not monitored", logEventEventIgnored)
		return nil
	}

	return e.handler.HandlePush(ctx, ev)
}
