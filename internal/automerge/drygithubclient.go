package automerge

import (
	"context"

	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/githubclt"
	"github.com/simplesurance/automerger/internal/logfields"
)

// DryGithubClient is a github-client that does not do any changes on github.
// All operations that could cause a change are simulated and always succeed.
// All all other operations are forwarded to a wrapped GithubClient.
type DryGithubClient struct {
	clt    GithubClient
	logger *zap.Logger
}

func NewDryGithubClient(clt GithubClient, logger *zap.Logger) *DryGithubClient {
	return &DryGithubClient{
		clt:    clt,
		logger: logger.Named("dry_github_client"),
	}
}

func (c *DryGithubClient) PullRequestByNumber(ctx context.Context, owner, repo string, number int) (*githubclt.PullRequest, error) {
	return c.clt.PullRequestByNumber(ctx, owner, repo, number)
}

func (c *DryGithubClient) PullRequestByBranch(ctx context.Context, owner, repo, branch string) (*githubclt.PullRequest, error) {
	return c.clt.PullRequestByBranch(ctx, owner, repo, branch)
}

func (c *DryGithubClient) ApproveAndMerge(_ context.Context, pullRequestID, commitHeadline string, method githubclt.MergeMethod) error {
	c.logger.Info(
		"simulated approving and merging of pull request, no change done on github",
		logfields.PullRequestID(pullRequestID),
		zap.String("commit_headline", commitHeadline),
		zap.String("merge_method", string(method)),
	)

	return nil
}

func (c *DryGithubClient) Merge(_ context.Context, pullRequestID, commitHeadline string, method githubclt.MergeMethod) error {
	c.logger.Info(
		"simulated merging of pull request, no change done on github",
		logfields.PullRequestID(pullRequestID),
		zap.String("commit_headline", commitHeadline),
		zap.String("merge_method", string(method)),
	)

	return nil
}
