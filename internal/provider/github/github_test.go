package github

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-github/v43/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const pushEventPayload = `{
  "ref": "refs/heads/dependabot/npm_and_yarn/lodash-4.17.19",
  "deleted": false,
  "repository": {
    "name": "repo",
    "owner": {"name": "fho", "login": "fho"}
  },
  "pusher": {"name": "dependabot[bot]"},
  "commits": [{"id": "8ad9dec4298f6b8f020997373cf4fe22005f2c06", "message": "Bump lodash from 4.17.15 to 4.17.19\n\nBumps lodash."}]
}`

const deliveryID = "3355fab0-b22c-11eb-9936-51d9540c0cdc"

func newPushHTTPReq(secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/listener/github", bytes.NewBufferString(pushEventPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-GitHub-Delivery", deliveryID)

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(pushEventPayload))
		req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	return req
}

func TestHTTPHandlerEventParsing(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))

	evChan := make(chan *Event, 1)
	t.Cleanup(func() { close(evChan) })

	provider := New([]chan<- *Event{evChan})

	respRecorder := httptest.NewRecorder()
	provider.HTTPHandler(respRecorder, newPushHTTPReq(""))
	require.Equal(t, http.StatusOK, respRecorder.Code)

	event := <-evChan

	assert.Equal(t, pushEventPayload, string(event.JSON))
	assert.Equal(t, deliveryID, event.DeliveryID)
	assert.Equal(t, "push", event.Type)

	pushEv, ok := event.Event.(*github.PushEvent)
	require.True(t, ok, "event has unexpected type: %T", event.Event)
	assert.Equal(t, "refs/heads/dependabot/npm_and_yarn/lodash-4.17.19", pushEv.GetRef())
	assert.Equal(t, "dependabot[bot]", pushEv.GetPusher().GetName())
}

func TestHTTPHandlerValidSignature(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))

	evChan := make(chan *Event, 1)
	t.Cleanup(func() { close(evChan) })

	provider := New([]chan<- *Event{evChan}, WithPayloadSecret("hello"))

	respRecorder := httptest.NewRecorder()
	provider.HTTPHandler(respRecorder, newPushHTTPReq("hello"))
	require.Equal(t, http.StatusOK, respRecorder.Code)
	assert.Len(t, evChan, 1)
}

func TestHTTPHandlerInvalidSignature(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))

	evChan := make(chan *Event, 1)
	t.Cleanup(func() { close(evChan) })

	provider := New([]chan<- *Event{evChan}, WithPayloadSecret("hello"))

	respRecorder := httptest.NewRecorder()
	provider.HTTPHandler(respRecorder, newPushHTTPReq("wrong"))
	assert.Equal(t, http.StatusBadRequest, respRecorder.Code)
	assert.Empty(t, evChan)
}

func TestHTTPHandlerUnknownEventType(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))

	evChan := make(chan *Event, 1)
	t.Cleanup(func() { close(evChan) })

	provider := New([]chan<- *Event{evChan})

	req := newPushHTTPReq("")
	req.Header.Set("X-GitHub-Event", "not_an_event")

	respRecorder := httptest.NewRecorder()
	provider.HTTPHandler(respRecorder, req)
	assert.Equal(t, http.StatusBadRequest, respRecorder.Code)
	assert.Empty(t, evChan)
}

func TestHTTPHandlerQueueFull(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))

	evChan := make(chan *Event)
	t.Cleanup(func() { close(evChan) })

	provider := New([]chan<- *Event{evChan})

	respRecorder := httptest.NewRecorder()
	provider.HTTPHandler(respRecorder, newPushHTTPReq(""))
	assert.Equal(t, http.StatusServiceUnavailable, respRecorder.Code)
}
