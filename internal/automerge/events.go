package automerge

import (
	"errors"
	"strings"

	"github.com/google/go-github/v43/github"
	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/logfields"
)

// CheckSuiteEvent is the information of a completed check suite that is
// needed to merge the associated pull request.
type CheckSuiteEvent struct {
	// Actor is the login of the user that triggered the check suite.
	Actor           string
	RepositoryOwner string
	Repository      string
	// PullRequestNumber is 0 if the check suite is not associated with a
	// pull request of the repository.
	PullRequestNumber int
	HeadBranch        string
	HeadCommit        string
}

// NewCheckSuiteEvent converts a GitHub check_suite webhook event.
func NewCheckSuiteEvent(ev *github.CheckSuiteEvent) (*CheckSuiteEvent, error) {
	result := CheckSuiteEvent{
		Actor:           ev.GetSender().GetLogin(),
		RepositoryOwner: ev.GetRepo().GetOwner().GetLogin(),
		Repository:      ev.GetRepo().GetName(),
		HeadBranch:      ev.GetCheckSuite().GetHeadBranch(),
		HeadCommit:      ev.GetCheckSuite().GetHeadSHA(),
	}

	if cs := ev.GetCheckSuite(); cs != nil && len(cs.PullRequests) > 0 {
		result.PullRequestNumber = cs.PullRequests[0].GetNumber()
	}

	if result.RepositoryOwner == "" || result.Repository == "" {
		return nil, errRepoIncomplete
	}

	return &result, nil
}

func (e *CheckSuiteEvent) LogFields() []zap.Field {
	fields := []zap.Field{
		logfields.Actor(e.Actor),
		logfields.RepositoryOwner(e.RepositoryOwner),
		logfields.Repository(e.Repository),
	}

	if e.PullRequestNumber != 0 {
		fields = append(fields, logfields.PullRequest(e.PullRequestNumber))
	}

	if e.HeadBranch != "" {
		fields = append(fields, logfields.Branch(e.HeadBranch))
	}

	if e.HeadCommit != "" {
		fields = append(fields, logfields.Commit(e.HeadCommit))
	}

	return fields
}

// PushEvent is the information of a push to a branch that is needed to
// merge the associated pull request.
type PushEvent struct {
	// Actor is the name of the user that pushed the commits.
	Actor           string
	RepositoryOwner string
	Repository      string
	// Branch is the name of the branch without the refs/heads/ prefix.
	Branch string
	// CommitMessage is the message of the first pushed commit.
	CommitMessage string
}

var (
	ErrNotABranch     = errors.New("ref is not a branch")
	ErrBranchDeleted  = errors.New("branch was deleted")
	errRepoIncomplete = errors.New("event does not contain repository information")
)

// NewPushEvent converts a GitHub push webhook event.
// If the push was not for a branch ErrNotABranch is returned, if the
// branch was deleted ErrBranchDeleted.
func NewPushEvent(ev *github.PushEvent) (*PushEvent, error) {
	branch, isBranch := strings.CutPrefix(ev.GetRef(), "refs/heads/")
	if !isBranch {
		return nil, ErrNotABranch
	}

	if ev.GetDeleted() {
		return nil, ErrBranchDeleted
	}

	result := PushEvent{
		Actor:      ev.GetPusher().GetName(),
		Repository: ev.GetRepo().GetName(),
		Branch:     branch,
	}

	if result.Actor == "" {
		result.Actor = ev.GetPusher().GetLogin()
	}

	if owner := ev.GetRepo().GetOwner(); owner != nil {
		result.RepositoryOwner = owner.GetLogin()
		if result.RepositoryOwner == "" {
			result.RepositoryOwner = owner.GetName()
		}
	}

	if len(ev.Commits) > 0 {
		result.CommitMessage = ev.Commits[0].GetMessage()
	} else {
		result.CommitMessage = ev.GetHeadCommit().GetMessage()
	}

	if result.RepositoryOwner == "" || result.Repository == "" {
		return nil, errRepoIncomplete
	}

	return &result, nil
}

func (e *PushEvent) LogFields() []zap.Field {
	return []zap.Field{
		logfields.Actor(e.Actor),
		logfields.RepositoryOwner(e.RepositoryOwner),
		logfields.Repository(e.Repository),
		logfields.Branch(e.Branch),
	}
}
