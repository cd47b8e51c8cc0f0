package automerge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simplesurance/automerger/internal/githubclt"
)

func mergeablePR() *githubclt.PullRequest {
	return &githubclt.PullRequest{
		ID:               "MDExOlB1bGxSZXF1ZXN0MzE3MDI5MjU4",
		Number:           1,
		Mergeable:        githubclt.MergeableStateMergeable,
		Merged:           false,
		State:            githubclt.PullRequestStateOpen,
		MergeStateStatus: githubclt.MergeStateStatusClean,
		CommitHeadline:   "Update test",
	}
}

func TestEvaluateMergeablePR(t *testing.T) {
	for _, requireClean := range []bool{true, false} {
		d := Evaluate(mergeablePR(), requireClean)
		assert.True(t, d.Proceed())
		assert.Empty(t, d.Message)
	}
}

func TestEvaluateNotOpenPRIsSkippedFirst(t *testing.T) {
	for _, state := range []githubclt.PullRequestState{githubclt.PullRequestStateClosed, githubclt.PullRequestStateMerged} {
		for _, merged := range []bool{true, false} {
			for _, mergeable := range []githubclt.MergeableState{
				githubclt.MergeableStateMergeable,
				githubclt.MergeableStateConflicting,
				githubclt.MergeableStateUnknown,
			} {
				pr := mergeablePR()
				pr.State = state
				pr.Merged = merged
				pr.Mergeable = mergeable
				pr.MergeStateStatus = githubclt.MergeStateStatusDirty

				d := Evaluate(pr, true)
				assert.False(t, d.Proceed())
				assert.Equal(t, SkipReasonNotOpen, d.Skip)
				assert.Equal(t, fmt.Sprintf("Pull request is not open: %s.", state), d.Message)
			}
		}
	}
}

func TestEvaluateMergedPR(t *testing.T) {
	for _, mergeable := range []githubclt.MergeableState{
		githubclt.MergeableStateMergeable,
		githubclt.MergeableStateConflicting,
		githubclt.MergeableStateUnknown,
	} {
		pr := mergeablePR()
		pr.Merged = true
		pr.Mergeable = mergeable
		pr.MergeStateStatus = githubclt.MergeStateStatusUnknown

		d := Evaluate(pr, true)
		assert.Equal(t, SkipReasonAlreadyMerged, d.Skip)
		assert.Equal(t, "Pull request is already merged.", d.Message)
	}
}

func TestEvaluateNotMergeablePR(t *testing.T) {
	pr := mergeablePR()
	pr.Mergeable = githubclt.MergeableStateConflicting
	pr.MergeStateStatus = githubclt.MergeStateStatusDirty

	d := Evaluate(pr, true)
	assert.Equal(t, SkipReasonNotMergeable, d.Skip)
	assert.Equal(t, "Pull request is not in a mergeable state: CONFLICTING.", d.Message)
}

func TestEvaluateMergeStateStatus(t *testing.T) {
	pr := mergeablePR()
	pr.MergeStateStatus = githubclt.MergeStateStatusUnknown

	d := Evaluate(pr, true)
	assert.Equal(t, SkipReasonNotClean, d.Skip)
	assert.Equal(t, "Pull request cannot be merged cleanly. Current state: UNKNOWN.", d.Message)

	d = Evaluate(pr, false)
	assert.True(t, d.Proceed(), "merge state status must be ignored when a clean state is not required")
}

func TestCheckAuthor(t *testing.T) {
	assert.True(t, CheckAuthor("dependabot[bot]", "dependabot[bot]").Proceed())

	d := CheckAuthor("dependabot-preview[bot]", "some-other-login")
	assert.Equal(t, SkipReasonAuthorMismatch, d.Skip)
	assert.Equal(t, "Pull request created by dependabot-preview[bot], not some-other-login, skipping.", d.Message)
}

func TestSelectOperation(t *testing.T) {
	pr := mergeablePR()
	assert.Equal(t, OperationApproveAndMerge, SelectOperation(pr))

	for _, state := range []githubclt.ReviewState{
		githubclt.ReviewStateApproved,
		githubclt.ReviewStateChangesRequested,
		githubclt.ReviewStateCommented,
	} {
		pr.LatestReviewState = state
		assert.Equal(t, OperationMergeOnly, SelectOperation(pr), "review state: %s", state)
	}
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "not_clean", SkipReasonNotClean.String())
	assert.Equal(t, "approve_and_merge", OperationApproveAndMerge.String())
	assert.Contains(t, SkipReason(200).String(), "unsupported")
	assert.Contains(t, MergeOperation(200).String(), "unsupported")
}
