package automerge

import (
	"fmt"

	"github.com/simplesurance/automerger/internal/githubclt"
)

// MergeOperation is the GitHub mutation that is run to merge a pull request.
type MergeOperation uint8

const (
	OperationUndefined MergeOperation = iota
	// OperationApproveAndMerge submits an approving review and merges
	// the pull request.
	OperationApproveAndMerge
	// OperationMergeOnly merges the pull request.
	OperationMergeOnly
)

var mergeOperationStrings = [...]string{
	OperationUndefined:       "undefined",
	OperationApproveAndMerge: "approve_and_merge",
	OperationMergeOnly:       "merge",
}

func (o MergeOperation) String() string {
	if int(o) > len(mergeOperationStrings)-1 {
		return fmt.Sprintf("unsupported MergeOperation value: %d", o)
	}

	return mergeOperationStrings[o]
}

// SelectOperation returns OperationApproveAndMerge if pr was never reviewed,
// otherwise OperationMergeOnly.
func SelectOperation(pr *githubclt.PullRequest) MergeOperation {
	if pr.HasReview() {
		return OperationMergeOnly
	}

	return OperationApproveAndMerge
}
