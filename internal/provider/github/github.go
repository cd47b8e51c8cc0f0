package github

import (
	"net/http"

	"github.com/google/go-github/v43/github"
	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/logfields"
)

const loggerName = "github_event_provider"

// Provider listens for github-webhook http-requests at a http-server handler,
// validates and converts the requests to Events and forwards them to event
// channels.
type Provider struct {
	logger        *zap.Logger
	webhookSecret []byte
	chans         []chan<- *Event
}

type option func(*Provider)

func WithPayloadSecret(secret string) option {
	return func(p *Provider) {
		p.webhookSecret = []byte(secret)
	}
}

func New(eventChans []chan<- *Event, opts ...option) *Provider {
	p := Provider{
		chans: eventChans,
	}

	for _, o := range opts {
		o(&p)
	}

	if p.logger == nil {
		p.logger = zap.L().Named(loggerName)
	}

	return &p
}

// ParseEvent converts a webhook payload of the type eventType to an Event.
func ParseEvent(eventType, deliveryID string, payload []byte) (*Event, error) {
	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		DeliveryID: deliveryID,
		Type:       eventType,
		JSON:       payload,
		Event:      event,
		LogFields: []zap.Field{
			logfields.EventProvider("github"),
			logfields.DeliveryID(deliveryID),
			logfields.WebhookType(eventType),
		},
	}, nil
}

// HTTPHandler validates and parses a webhook request and forwards the event
// to all channels of the Provider.
// If a channel is full, the request is answered with 503 Service
// Unavailable.
func (p *Provider) HTTPHandler(resp http.ResponseWriter, req *http.Request) {
	deliveryID := github.DeliveryID(req)
	hookType := github.WebHookType(req)

	logger := p.logger.With(
		logfields.EventProvider("github"),
		logfields.DeliveryID(deliveryID),
		logfields.WebhookType(hookType),
	)

	logger.Debug("received a http request", logfields.Event("github_http_request_received"))

	payload, err := github.ValidatePayload(req, p.webhookSecret)
	if err != nil {
		logger.Info(
			"received invalid http request, payload validation failed",
			logfields.Event("github_http_request_validation_failed"),
			zap.Error(err),
		)
		http.Error(resp, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Debug(
		"received http request",
		logfields.Event("github_event_received"),
		zap.ByteString("http_body", payload),
	)

	ev, err := ParseEvent(hookType, deliveryID, payload)
	if err != nil {
		logger.Info(
			"received invalid http request, parsing failed",
			logfields.Event("github_event_parsing_failed"),
			zap.Error(err),
		)
		http.Error(resp, err.Error(), http.StatusBadRequest)
		return
	}

	for _, ch := range p.chans {
		select {
		case ch <- ev:
			logger.Debug("event forwarded to channel",
				logfields.Event("github_event_forwarded"),
			)

		default:
			logger.Warn(
				"event lost, forwarding event to channel failed",
				zap.String("error", "could not forward event to channel, send would have blocked"),
				logfields.Event("github_forwarding_event_failed"),
			)

			http.Error(resp, "queue full", http.StatusServiceUnavailable)
			return
		}
	}
}
