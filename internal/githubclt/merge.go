package githubclt

import (
	"context"
	"fmt"
	"strings"

	"github.com/shurcooL/githubv4"
)

// MergeMethod is the strategy used to merge a pull request.
type MergeMethod string

const (
	MergeMethodMerge  = MergeMethod(githubv4.PullRequestMergeMethodMerge)
	MergeMethodSquash = MergeMethod(githubv4.PullRequestMergeMethodSquash)
	MergeMethodRebase = MergeMethod(githubv4.PullRequestMergeMethodRebase)
)

// ParseMergeMethod converts a case-insensitive merge method name to a
// MergeMethod.
func ParseMergeMethod(in string) (MergeMethod, error) {
	switch m := MergeMethod(strings.ToUpper(strings.TrimSpace(in))); m {
	case MergeMethodMerge, MergeMethodSquash, MergeMethodRebase:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported merge method: %q, supported values: %s, %s, %s",
			in, MergeMethodMerge, MergeMethodSquash, MergeMethodRebase)
	}
}

func mergeInput(pullRequestID, commitHeadline string, method MergeMethod) githubv4.MergePullRequestInput {
	mergeMethod := githubv4.PullRequestMergeMethod(method)

	input := githubv4.MergePullRequestInput{
		PullRequestID: githubv4.ID(pullRequestID),
		MergeMethod:   &mergeMethod,
	}

	if commitHeadline != "" {
		input.CommitHeadline = githubv4.NewString(githubv4.String(commitHeadline))
	}

	return input
}

// ApproveAndMerge approves the pull request and merges it.
// Both mutations are sent in a single GraphQL request, the approval is
// applied first.
func (clt *Client) ApproveAndMerge(ctx context.Context, pullRequestID, commitHeadline string, method MergeMethod) error {
	var m struct {
		AddPullRequestReview struct {
			ClientMutationID string
		} `graphql:"addPullRequestReview(input: $reviewInput)"`
		MergePullRequest struct {
			PullRequest struct {
				ID string
			}
		} `graphql:"mergePullRequest(input: $input)"`
	}

	approve := githubv4.PullRequestReviewEventApprove

	return clt.graphQLClt.Mutate(
		ctx,
		&m,
		mergeInput(pullRequestID, commitHeadline, method),
		map[string]any{
			"reviewInput": githubv4.AddPullRequestReviewInput{
				PullRequestID: githubv4.ID(pullRequestID),
				Event:         &approve,
			},
		},
	)
}

// Merge merges the pull request without submitting a review.
func (clt *Client) Merge(ctx context.Context, pullRequestID, commitHeadline string, method MergeMethod) error {
	var m struct {
		MergePullRequest struct {
			PullRequest struct {
				ID string
			}
		} `graphql:"mergePullRequest(input: $input)"`
	}

	return clt.graphQLClt.Mutate(ctx, &m, mergeInput(pullRequestID, commitHeadline, method), nil)
}
