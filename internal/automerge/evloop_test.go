package automerge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/simplesurance/automerger/internal/automerge/mocks"
	"github.com/simplesurance/automerger/internal/filter"
	"github.com/simplesurance/automerger/internal/githubclt"
	github_prov "github.com/simplesurance/automerger/internal/provider/github"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const checkSuitePayload = `{
  "action": "%s",
  "check_suite": {
    "head_branch": "dependabot/go_modules/github.com/stretchr/testify-1.8.4",
    "head_sha": "ec26c3e57ca3a959ca5aad62de7213c562f8c821",
    "conclusion": "%s",
    "pull_requests": [{"number": 1}]
  },
  "repository": {"name": "automerger", "owner": {"login": "simplesurance"}},
  "sender": {"login": "dependabot[bot]"}
}`

const pushPayload = `{
  "ref": "%s",
  "deleted": false,
  "repository": {"name": "automerger", "owner": {"name": "simplesurance"}},
  "pusher": {"name": "dependabot[bot]"},
  "commits": [{"message": "Bump testify from 1.8.2 to 1.8.4"}]
}`

func parseEvent(t *testing.T, eventType, payload string) *github_prov.Event {
	t.Helper()

	ev, err := github_prov.ParseEvent(eventType, "72d3162e-cc78-11e3-81ab-4c9367dc0958", []byte(payload))
	require.NoError(t, err)

	return ev
}

func checkSuiteJSON(action, conclusion string) string {
	return fmt.Sprintf(checkSuitePayload, action, conclusion)
}

func newTestEventLoop(t *testing.T, opts ...EvLoopOption) (*EvLoop, *mocks.MockGithubClient) {
	t.Helper()

	h, clt, _ := newTestHandler(t, DefaultRetries)
	return NewEventLoop(h, opts...), clt
}

func TestProcessCompletedCheckSuite(t *testing.T) {
	observeLogs(t)
	evl, clt := newTestEventLoop(t)

	pr := mergeablePR()
	clt.EXPECT().PullRequestByNumber(gomock.Any(), testOwner, testRepo, 1).Return(pr, nil)
	clt.EXPECT().ApproveAndMerge(gomock.Any(), pr.ID, pr.CommitHeadline, githubclt.MergeMethodSquash).Return(nil)

	err := evl.Process(context.Background(), parseEvent(t, "check_suite", checkSuiteJSON("completed", "success")))
	require.NoError(t, err)
}

func TestProcessIgnoresUnfinishedOrFailedCheckSuites(t *testing.T) {
	observeLogs(t)
	// the mock fails the test on any unexpected call
	evl, _ := newTestEventLoop(t)

	for _, tc := range [][2]string{
		{"requested", ""},
		{"rerequested", ""},
		{"completed", "failure"},
		{"completed", "cancelled"},
	} {
		err := evl.Process(context.Background(), parseEvent(t, "check_suite", checkSuiteJSON(tc[0], tc[1])))
		require.NoError(t, err)
	}
}

func TestProcessPush(t *testing.T) {
	observeLogs(t)
	evl, clt := newTestEventLoop(t)

	pr := mergeablePR()
	clt.EXPECT().PullRequestByBranch(gomock.Any(), testOwner, testRepo, testBranch).Return(pr, nil)
	clt.EXPECT().
		ApproveAndMerge(gomock.Any(), pr.ID, "Bump testify from 1.8.2 to 1.8.4", githubclt.MergeMethodSquash).
		Return(nil)

	err := evl.Process(context.Background(), parseEvent(t, "push", fmt.Sprintf(pushPayload, "refs/heads/"+testBranch)))
	require.NoError(t, err)
}

func TestProcessIgnoresTagPush(t *testing.T) {
	observeLogs(t)
	evl, _ := newTestEventLoop(t)

	err := evl.Process(context.Background(), parseEvent(t, "push", fmt.Sprintf(pushPayload, "refs/tags/v1.2.3")))
	require.NoError(t, err)
}

func TestProcessIgnoresOtherEventTypes(t *testing.T) {
	observeLogs(t)
	evl, _ := newTestEventLoop(t)

	err := evl.Process(context.Background(), parseEvent(t, "ping", `{"zen": "Keep it logically awesome."}`))
	require.NoError(t, err)

	err = evl.Process(context.Background(), parseEvent(t, "star", `{"action": "created"}`))
	require.NoError(t, err)
}

func TestProcessIgnoresUnmonitoredRepositories(t *testing.T) {
	observeLogs(t)
	evl, clt := newTestEventLoop(t, WithRepositories([]Repository{
		{OwnerLogin: testOwner, RepositoryName: "dependabot-core"},
	}))

	err := evl.Process(context.Background(), parseEvent(t, "check_suite", checkSuiteJSON("completed", "success")))
	require.NoError(t, err)

	evl.repositories[Repository{OwnerLogin: testOwner, RepositoryName: testRepo}] = struct{}{}

	pr := mergeablePR()
	pr.Merged = true
	clt.EXPECT().PullRequestByNumber(gomock.Any(), testOwner, testRepo, 1).Return(pr, nil)

	err = evl.Process(context.Background(), parseEvent(t, "check_suite", checkSuiteJSON("completed", "success")))
	require.NoError(t, err)
}

func TestProcessAppliesFilter(t *testing.T) {
	observeLogs(t)

	f, err := filter.New(`.repository.name == "dependabot-core"`)
	require.NoError(t, err)

	evl, _ := newTestEventLoop(t, WithFilter(f))

	err = evl.Process(context.Background(), parseEvent(t, "check_suite", checkSuiteJSON("completed", "success")))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), evl.processedEventCnt.Load())
}

func TestProcessFilterError(t *testing.T) {
	observeLogs(t)

	f, err := filter.New(`.repository.name`)
	require.NoError(t, err)

	evl, _ := newTestEventLoop(t, WithFilter(f))

	err = evl.Process(context.Background(), parseEvent(t, "check_suite", checkSuiteJSON("completed", "success")))
	assert.Error(t, err)
}

func TestEventLoopProcessesEventsSequentially(t *testing.T) {
	observeLogs(t)
	evl, clt := newTestEventLoop(t)

	pr := mergeablePR()
	merged := make(chan struct{}, 2)

	clt.EXPECT().PullRequestByNumber(gomock.Any(), testOwner, testRepo, 1).Return(pr, nil).Times(2)
	clt.EXPECT().
		ApproveAndMerge(gomock.Any(), pr.ID, pr.CommitHeadline, githubclt.MergeMethodSquash).
		DoAndReturn(func(context.Context, string, string, githubclt.MergeMethod) error {
			merged <- struct{}{}
			return nil
		}).
		Times(2)

	go evl.Start()

	evl.C() <- parseEvent(t, "check_suite", checkSuiteJSON("completed", "success"))
	evl.C() <- parseEvent(t, "check_suite", checkSuiteJSON("completed", "success"))

	for i := 0; i < 2; i++ {
		select {
		case <-merged:
		case <-time.After(5 * time.Second):
			t.Fatal("event was not processed")
		}
	}

	evl.Stop()
	assert.Equal(t, uint64(2), evl.processedEventCnt.Load())
}

func TestEventLoopStopCancelsRetries(t *testing.T) {
	observeLogs(t)
	evl, clt := newTestEventLoop(t)
	evl.handler.retryer.sleepFn = sleep

	pr := mergeablePR()
	attempted := make(chan struct{})

	clt.EXPECT().PullRequestByNumber(gomock.Any(), testOwner, testRepo, 1).Return(pr, nil)
	clt.EXPECT().
		ApproveAndMerge(gomock.Any(), pr.ID, pr.CommitHeadline, githubclt.MergeMethodSquash).
		DoAndReturn(func(context.Context, string, string, githubclt.MergeMethod) error {
			close(attempted)
			return errors.New("Base branch was modified")
		})

	go evl.Start()

	evl.C() <- parseEvent(t, "check_suite", checkSuiteJSON("completed", "success"))
	<-attempted

	evl.Stop()
}
