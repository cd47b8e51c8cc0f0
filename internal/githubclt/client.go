// Package githubclt provides a github API client.
package githubclt

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const DefaultHTTPClientTimeout = time.Minute

const loggerName = "github_client"

// New returns a new github api client that authenticates with an oauth
// token.
// If graphQLURL is empty, the github.com GraphQL endpoint is used.
func New(oauthAPItoken, graphQLURL string) *Client {
	return newClient(newHTTPClient(oauthAPItoken), graphQLURL)
}

// NewWithAppInstallation returns a new github api client that authenticates
// as a GitHub App installation.
func NewWithAppInstallation(appID, installationID int64, privateKeyFile, graphQLURL string) (*Client, error) {
	tr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, privateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("creating github app installation transport failed: %w", err)
	}

	if graphQLURL != "" {
		tr.BaseURL = restBaseURL(graphQLURL)
	}

	httpClient := &http.Client{
		Transport: tr,
		Timeout:   DefaultHTTPClientTimeout,
	}

	return newClient(httpClient, graphQLURL), nil
}

func newClient(httpClient *http.Client, graphQLURL string) *Client {
	var graphQLClt *githubv4.Client

	if graphQLURL == "" {
		graphQLClt = githubv4.NewClient(httpClient)
	} else {
		graphQLClt = githubv4.NewEnterpriseClient(graphQLURL, httpClient)
	}

	return &Client{
		graphQLClt: graphQLClt,
		logger:     zap.L().Named(loggerName),
	}
}

func newHTTPClient(apiToken string) *http.Client {
	if apiToken == "" {
		return &http.Client{
			Timeout: DefaultHTTPClientTimeout,
		}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: apiToken},
	)

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = DefaultHTTPClientTimeout

	return tc
}

// restBaseURL converts a GitHub Enterprise GraphQL URL
// (https://host/api/graphql) to the REST API base URL (https://host/api/v3).
// ghinstallation uses the REST API to create installation tokens.
func restBaseURL(graphQLURL string) string {
	return strings.TrimSuffix(strings.TrimSuffix(graphQLURL, "/"), "/graphql") + "/v3"
}

// Client is a github GraphQL API client.
// Errors returned by the API are passed through unmodified, except for pull
// request lookups that did not find a result, they return
// ErrPullRequestNotFound.
type Client struct {
	graphQLClt *githubv4.Client
	logger     *zap.Logger
}
