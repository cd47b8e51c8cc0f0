package githubclt

import (
	"context"
	"errors"
	"strings"

	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/logfields"
)

// ErrPullRequestNotFound is returned when a lookup did not match any pull
// request.
var ErrPullRequestNotFound = errors.New("pull request not found")

// MergeableState describes if a pull request can be merged without
// conflicts.
type MergeableState string

const (
	MergeableStateMergeable   = MergeableState(githubv4.MergeableStateMergeable)
	MergeableStateConflicting = MergeableState(githubv4.MergeableStateConflicting)
	MergeableStateUnknown     = MergeableState(githubv4.MergeableStateUnknown)
)

// PullRequestState is the lifecycle state of a pull request.
type PullRequestState string

const (
	PullRequestStateOpen   = PullRequestState(githubv4.PullRequestStateOpen)
	PullRequestStateClosed = PullRequestState(githubv4.PullRequestStateClosed)
	PullRequestStateMerged = PullRequestState(githubv4.PullRequestStateMerged)
)

// MergeStateStatus describes if the required checks and the branch state
// allow a clean merge.
// It is independent of MergeableState.
// The githubv4 package does not provide this enum, it is decoded from the
// GraphQL string value.
type MergeStateStatus string

const (
	MergeStateStatusBehind   MergeStateStatus = "BEHIND"
	MergeStateStatusBlocked  MergeStateStatus = "BLOCKED"
	MergeStateStatusClean    MergeStateStatus = "CLEAN"
	MergeStateStatusDirty    MergeStateStatus = "DIRTY"
	MergeStateStatusDraft    MergeStateStatus = "DRAFT"
	MergeStateStatusHasHooks MergeStateStatus = "HAS_HOOKS"
	MergeStateStatusUnknown  MergeStateStatus = "UNKNOWN"
	MergeStateStatusUnstable MergeStateStatus = "UNSTABLE"
)

// ReviewState is the state of a pull request review, e.g. APPROVED.
type ReviewState string

const (
	ReviewStateApproved         = ReviewState(githubv4.PullRequestReviewStateApproved)
	ReviewStateChangesRequested = ReviewState(githubv4.PullRequestReviewStateChangesRequested)
	ReviewStateCommented        = ReviewState(githubv4.PullRequestReviewStateCommented)
)

// PullRequest is the state of a pull request relevant for deciding if it can
// be merged automatically.
type PullRequest struct {
	// ID is the GraphQL node ID.
	ID               string
	Number           int
	Mergeable        MergeableState
	Merged           bool
	State            PullRequestState
	MergeStateStatus MergeStateStatus
	// CommitHeadline is the first line of the commit message of the
	// last commit of the pull request.
	CommitHeadline string
	// LatestReviewState is the state of the most recent review, it is
	// empty if the pull request has not been reviewed.
	LatestReviewState ReviewState
}

// HasReview returns true if at least 1 review exists for the pull request.
func (pr *PullRequest) HasReview() bool {
	return pr.LatestReviewState != ""
}

func (pr *PullRequest) LogFields() []zap.Field {
	return []zap.Field{
		logfields.PullRequest(pr.Number),
		logfields.PullRequestID(pr.ID),
		zap.String("github.pull_request_state", string(pr.State)),
		zap.String("github.mergeable", string(pr.Mergeable)),
		zap.Bool("github.merged", pr.Merged),
		zap.String("github.merge_state_status", string(pr.MergeStateStatus)),
		zap.String("github.latest_review_state", string(pr.LatestReviewState)),
	}
}

type queryPullRequest struct {
	ID               string
	Number           int
	Mergeable        githubv4.MergeableState
	Merged           bool
	State            githubv4.PullRequestState
	MergeStateStatus MergeStateStatus

	Reviews struct {
		Edges []struct {
			Node struct {
				State githubv4.PullRequestReviewState
			}
		}
	} `graphql:"reviews(last: 1)"`

	Commits struct {
		Edges []struct {
			Node struct {
				Commit struct {
					MessageHeadline string
				}
			}
		}
	} `graphql:"commits(last: 1)"`
}

func (q *queryPullRequest) toPullRequest() *PullRequest {
	result := PullRequest{
		ID:               q.ID,
		Number:           q.Number,
		Mergeable:        MergeableState(q.Mergeable),
		Merged:           q.Merged,
		State:            PullRequestState(q.State),
		MergeStateStatus: q.MergeStateStatus,
	}

	if len(q.Reviews.Edges) > 0 {
		result.LatestReviewState = ReviewState(q.Reviews.Edges[0].Node.State)
	}

	if len(q.Commits.Edges) > 0 {
		result.CommitHeadline = q.Commits.Edges[0].Node.Commit.MessageHeadline
	}

	return &result
}

// PullRequestByNumber returns the pull request with the given number.
// If it does not exist ErrPullRequestNotFound is returned.
func (clt *Client) PullRequestByNumber(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var q struct {
		Repository struct {
			PullRequest queryPullRequest `graphql:"pullRequest(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	vars := map[string]any{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(repo),
		"number": githubv4.Int(number),
	}

	err := clt.graphQLClt.Query(ctx, &q, vars)
	if err != nil {
		if isNotFoundErr(err) {
			clt.logger.Debug(
				"pull request lookup returned a not found error",
				logfields.RepositoryOwner(owner),
				logfields.Repository(repo),
				logfields.PullRequest(number),
				logfields.Event("github_pull_request_not_found"),
				zap.Error(err),
			)

			return nil, ErrPullRequestNotFound
		}

		return nil, err
	}

	if q.Repository.PullRequest.ID == "" {
		return nil, ErrPullRequestNotFound
	}

	return q.Repository.PullRequest.toPullRequest(), nil
}

// PullRequestByBranch returns the most recently created pull request that
// has branch as head branch.
// If none exists ErrPullRequestNotFound is returned.
func (clt *Client) PullRequestByBranch(ctx context.Context, owner, repo, branch string) (*PullRequest, error) {
	var q struct {
		Repository struct {
			PullRequests struct {
				Nodes []queryPullRequest
			} `graphql:"pullRequests(headRefName: $headRefName, first: 1, orderBy: {field: CREATED_AT, direction: DESC})"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	vars := map[string]any{
		"owner":       githubv4.String(owner),
		"name":        githubv4.String(repo),
		"headRefName": githubv4.String(branch),
	}

	err := clt.graphQLClt.Query(ctx, &q, vars)
	if err != nil {
		return nil, err
	}

	if len(q.Repository.PullRequests.Nodes) == 0 {
		return nil, ErrPullRequestNotFound
	}

	return q.Repository.PullRequests.Nodes[0].toPullRequest(), nil
}

func isNotFoundErr(err error) bool {
	return strings.Contains(err.Error(), "Could not resolve to a PullRequest")
}
