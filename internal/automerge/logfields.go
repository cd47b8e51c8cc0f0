package automerge

import (
	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/logfields"
)

var logEventEventIgnored = logfields.Event("github_event_ignored")

func logFieldReason(reason SkipReason) zap.Field {
	return zap.Stringer("reason", reason)
}

func logFieldOperation(op MergeOperation) zap.Field {
	return zap.Stringer("merge_operation", op)
}
