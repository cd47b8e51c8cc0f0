package automerge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/githubclt"
	"github.com/simplesurance/automerger/internal/logfields"
	"github.com/simplesurance/automerger/internal/stringutils"
)

const loggerName = "automerger"

//go:generate mockgen -destination=mocks/github_client.go -package=mocks . GithubClient

// GithubClient is the subset of githubclt.Client methods the Handler uses.
type GithubClient interface {
	PullRequestByNumber(ctx context.Context, owner, repo string, number int) (*githubclt.PullRequest, error)
	PullRequestByBranch(ctx context.Context, owner, repo, branch string) (*githubclt.PullRequest, error)
	ApproveAndMerge(ctx context.Context, pullRequestID, commitHeadline string, method githubclt.MergeMethod) error
	Merge(ctx context.Context, pullRequestID, commitHeadline string, method githubclt.MergeMethod) error
}

// Handler merges pull requests created by a single user in response to
// check suite and push events.
type Handler struct {
	clt         GithubClient
	login       string
	mergeMethod githubclt.MergeMethod
	retryer     *Retryer
	logger      *zap.Logger
}

// HandlerOption configures optional settings of a Handler.
type HandlerOption func(*Handler)

// WithMergeMethod sets the method that is used to merge pull requests.
// The default is githubclt.MergeMethodSquash.
func WithMergeMethod(m githubclt.MergeMethod) HandlerOption {
	return func(h *Handler) {
		h.mergeMethod = m
	}
}

// NewHandler returns a Handler that merges pull requests authored by
// login, failed merges are retried up to retries times.
func NewHandler(clt GithubClient, login string, retries uint, opts ...HandlerOption) *Handler {
	h := Handler{
		clt:         clt,
		login:       login,
		mergeMethod: githubclt.MergeMethodSquash,
		retryer:     NewRetryer(retries),
		logger:      zap.L().Named(loggerName),
	}

	for _, opt := range opts {
		opt(&h)
	}

	return &h
}

// HandleCheckSuite merges the pull request associated with a successfully
// completed check suite.
// Additionally to the checks done for push events, the merge state status
// of the pull request must be CLEAN.
// An error is only returned if fetching the pull request state failed or
// merging failed for the last time.
func (h *Handler) HandleCheckSuite(ctx context.Context, ev *CheckSuiteEvent) error {
	logger := h.logger.With(ev.LogFields()...)

	if !h.authorMatches(logger, ev.Actor) {
		return nil
	}

	pr, err := h.fetchCheckSuitePullRequest(ctx, ev)
	if err != nil {
		if errors.Is(err, githubclt.ErrPullRequestNotFound) {
			h.logNotFound(logger)
			return nil
		}

		return err
	}

	return h.tryMerge(ctx, logger, pr, pr.CommitHeadline, true)
}

func (h *Handler) fetchCheckSuitePullRequest(ctx context.Context, ev *CheckSuiteEvent) (*githubclt.PullRequest, error) {
	if ev.PullRequestNumber > 0 {
		return h.clt.PullRequestByNumber(ctx, ev.RepositoryOwner, ev.Repository, ev.PullRequestNumber)
	}

	if ev.HeadBranch != "" {
		return h.clt.PullRequestByBranch(ctx, ev.RepositoryOwner, ev.Repository, ev.HeadBranch)
	}

	return nil, githubclt.ErrPullRequestNotFound
}

// HandlePush merges the pull request that has the pushed branch as head
// branch.
// The first line of the first pushed commit is used as merge commit
// headline.
// An error is only returned if fetching the pull request state failed or
// merging failed for the last time.
func (h *Handler) HandlePush(ctx context.Context, ev *PushEvent) error {
	logger := h.logger.With(ev.LogFields()...)

	if !h.authorMatches(logger, ev.Actor) {
		return nil
	}

	pr, err := h.clt.PullRequestByBranch(ctx, ev.RepositoryOwner, ev.Repository, ev.Branch)
	if err != nil {
		if errors.Is(err, githubclt.ErrPullRequestNotFound) {
			h.logNotFound(logger)
			return nil
		}

		return err
	}

	headline := stringutils.FirstLine(ev.CommitMessage)
	if headline == "" {
		headline = pr.CommitHeadline
	}

	return h.tryMerge(ctx, logger, pr, headline, false)
}

func (h *Handler) authorMatches(logger *zap.Logger, actor string) bool {
	decision := CheckAuthor(actor, h.login)
	if decision.Proceed() {
		return true
	}

	h.logSkip(logger, decision)

	return false
}

func (h *Handler) logNotFound(logger *zap.Logger) {
	logger.Warn(
		"Unable to fetch pull request information.",
		logfields.Event("pull_request_not_found"),
	)
	metrics.SkippedInc(SkipReasonNotFound)
}

func (h *Handler) logSkip(logger *zap.Logger, decision Decision) {
	logger.Info(
		decision.Message,
		logfields.Event("merge_skipped"),
		logFieldReason(decision.Skip),
	)
	metrics.SkippedInc(decision.Skip)
}

func (h *Handler) tryMerge(ctx context.Context, logger *zap.Logger, pr *githubclt.PullRequest, commitHeadline string, requireCleanMergeState bool) error {
	logger = logger.With(pr.LogFields()...)

	logger.Debug("found pull request information", logfields.Event("pull_request_state_fetched"))

	decision := Evaluate(pr, requireCleanMergeState)
	if !decision.Proceed() {
		h.logSkip(logger, decision)
		return nil
	}

	op := SelectOperation(pr)
	req := mergeRequest{
		operation:      op,
		pullRequestID:  pr.ID,
		commitHeadline: commitHeadline,
	}

	logF := append(pr.LogFields(), req.LogFields()...)

	err := h.retryer.Run(ctx, func(ctx context.Context) error {
		err := h.execute(ctx, &req)
		metrics.MergeAttemptInc(op, err)
		return err
	}, logF)
	if err != nil {
		return err
	}

	logger.Info(
		"pull request merged",
		logfields.Event("pull_request_merged"),
		logFieldOperation(op),
	)

	return nil
}

type mergeRequest struct {
	operation      MergeOperation
	pullRequestID  string
	commitHeadline string
}

func (r *mergeRequest) LogFields() []zap.Field {
	return []zap.Field{
		logFieldOperation(r.operation),
		zap.String("commit_headline", r.commitHeadline),
	}
}

// execute sends exactly one merge mutation to GitHub.
func (h *Handler) execute(ctx context.Context, req *mergeRequest) error {
	switch req.operation {
	case OperationApproveAndMerge:
		return h.clt.ApproveAndMerge(ctx, req.pullRequestID, req.commitHeadline, h.mergeMethod)
	case OperationMergeOnly:
		return h.clt.Merge(ctx, req.pullRequestID, req.commitHeadline, h.mergeMethod)
	default:
		return fmt.Errorf("unsupported merge operation: %s", req.operation)
	}
}
