package automerge

import (
	"fmt"

	"github.com/simplesurance/automerger/internal/githubclt"
)

// SkipReason is the cause why a pull request is not merged.
type SkipReason uint8

const (
	SkipReasonNone SkipReason = iota
	SkipReasonAuthorMismatch
	SkipReasonNotFound
	SkipReasonNotOpen
	SkipReasonAlreadyMerged
	SkipReasonNotMergeable
	SkipReasonNotClean
)

var skipReasonStrings = [...]string{
	SkipReasonNone:           "none",
	SkipReasonAuthorMismatch: "author_mismatch",
	SkipReasonNotFound:       "not_found",
	SkipReasonNotOpen:        "not_open",
	SkipReasonAlreadyMerged:  "already_merged",
	SkipReasonNotMergeable:   "not_mergeable",
	SkipReasonNotClean:       "not_clean",
}

func (r SkipReason) String() string {
	if int(r) > len(skipReasonStrings)-1 {
		return fmt.Sprintf("unsupported SkipReason value: %d", r)
	}

	return skipReasonStrings[r]
}

// Decision is the result of evaluating if a pull request can be merged.
// The zero value is a decision to proceed.
type Decision struct {
	Skip SkipReason
	// Message describes why the pull request is skipped.
	Message string
}

// Proceed returns true if the pull request should be merged.
func (d Decision) Proceed() bool {
	return d.Skip == SkipReasonNone
}

var proceed = Decision{}

func skip(reason SkipReason, format string, a ...any) Decision {
	return Decision{
		Skip:    reason,
		Message: fmt.Sprintf(format, a...),
	}
}

// CheckAuthor returns a skip decision if actual and expected differ.
func CheckAuthor(actual, expected string) Decision {
	if actual != expected {
		return skip(
			SkipReasonAuthorMismatch,
			"Pull request created by %s, not %s, skipping.", actual, expected,
		)
	}

	return proceed
}

// Evaluate decides if pr can be merged.
// The checks are run in a fixed order, the decision of the first failed
// check is returned.
// The merge state status is only evaluated when requireCleanMergeState is
// true.
func Evaluate(pr *githubclt.PullRequest, requireCleanMergeState bool) Decision {
	if pr.State != githubclt.PullRequestStateOpen {
		return skip(SkipReasonNotOpen, "Pull request is not open: %s.", pr.State)
	}

	if pr.Merged {
		return skip(SkipReasonAlreadyMerged, "Pull request is already merged.")
	}

	if pr.Mergeable != githubclt.MergeableStateMergeable {
		return skip(SkipReasonNotMergeable, "Pull request is not in a mergeable state: %s.", pr.Mergeable)
	}

	if requireCleanMergeState && pr.MergeStateStatus != githubclt.MergeStateStatusClean {
		return skip(
			SkipReasonNotClean,
			"Pull request cannot be merged cleanly. Current state: %s.", pr.MergeStateStatus,
		)
	}

	return proceed
}
