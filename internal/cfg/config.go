package cfg

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/simplesurance/automerger/internal/githubclt"
)

const DefaultConfigFile = "/etc/automerger/config.toml"

const (
	DefGithubWebhookEndpoint = "/listener/github"
	DefMetricsEndpoint       = "/metrics"
	DefLogFormat             = "logfmt"
	DefLogTimeKey            = "time_iso8601"
	DefLogLevel              = "info"
	DefGithubLogin           = "dependabot[bot]"
	DefMergeMethod           = string(githubclt.MergeMethodSquash)
	DefRetries               = 3
)

type Config struct {
	HTTPListenAddr            string `toml:"http_server_listen_addr"`
	HTTPSListenAddr           string `toml:"https_server_listen_addr"`
	HTTPSCertFile             string `toml:"https_ssl_cert_file"`
	HTTPSKeyFile              string `toml:"https_ssl_key_file"`
	HTTPGithubWebhookEndpoint string `toml:"github_webhook_endpoint"`
	HTTPMetricsEndpoint       string `toml:"http_metrics_endpoint"`

	GithubWebHookSecret string    `toml:"github_webhook_secret"`
	GithubAPIToken      string    `toml:"github_api_token"`
	GithubGraphQLURL    string    `toml:"github_graphql_url"`
	GithubApp           GithubApp `toml:"github_app"`

	LogFormat  string `toml:"log_format"`
	LogTimeKey string `toml:"log_time_key"`
	LogLevel   string `toml:"log_level"`

	GithubLogin  string             `toml:"github_login"`
	MergeMethod  string             `toml:"merge_method"`
	Retries      int64              `toml:"retries"`
	DryRun       bool               `toml:"dry_run"`
	FilterQuery  string             `toml:"filter_query"`
	Repositories []GithubRepository `toml:"repository"`
}

// GithubApp are the credentials to authenticate as installation of a
// GitHub App.
type GithubApp struct {
	AppID          int64  `toml:"app_id"`
	InstallationID int64  `toml:"installation_id"`
	PrivateKeyFile string `toml:"private_key_file"`
}

func (a *GithubApp) IsSet() bool {
	return a.AppID != 0 || a.InstallationID != 0 || a.PrivateKeyFile != ""
}

type GithubRepository struct {
	Owner          string `toml:"owner"`
	RepositoryName string `toml:"repository"`
}

// Load parses a TOML configuration and applies the defaults for all keys
// that are not set.
func Load(reader io.Reader) (*Config, error) {
	var result Config

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}

	if err := tree.Unmarshal(&result); err != nil {
		return nil, err
	}

	result.applyDefaults(tree)

	return &result, nil
}

// LoadFile is Load for the file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

func (r *Config) applyDefaults(tree *toml.Tree) {
	setDefault := func(key string, val *string, def string) {
		if !tree.Has(key) {
			*val = def
		}
	}

	setDefault("github_webhook_endpoint", &r.HTTPGithubWebhookEndpoint, DefGithubWebhookEndpoint)
	setDefault("http_metrics_endpoint", &r.HTTPMetricsEndpoint, DefMetricsEndpoint)
	setDefault("log_format", &r.LogFormat, DefLogFormat)
	setDefault("log_time_key", &r.LogTimeKey, DefLogTimeKey)
	setDefault("log_level", &r.LogLevel, DefLogLevel)
	setDefault("github_login", &r.GithubLogin, DefGithubLogin)
	setDefault("merge_method", &r.MergeMethod, DefMergeMethod)

	if !tree.Has("retries") {
		r.Retries = DefRetries
	}
}

// Validate returns an error if the configuration contains invalid or
// conflicting settings.
func (r *Config) Validate() error {
	if _, err := githubclt.ParseMergeMethod(r.MergeMethod); err != nil {
		return fmt.Errorf("merge_method: %w", err)
	}

	if r.Retries < 0 {
		return fmt.Errorf("retries: must be >=0, is: %d", r.Retries)
	}

	if r.GithubLogin == "" {
		return errors.New("github_login: must not be empty")
	}

	if r.GithubAPIToken != "" && r.GithubApp.IsSet() {
		return errors.New("github_api_token and github_app are mutually exclusive")
	}

	if r.GithubApp.IsSet() {
		if r.GithubApp.AppID == 0 || r.GithubApp.InstallationID == 0 || r.GithubApp.PrivateKeyFile == "" {
			return errors.New("github_app: app_id, installation_id and private_key_file must be set")
		}
	}

	switch r.LogFormat {
	case "logfmt", "json", "console":
	default:
		return fmt.Errorf("log_format: unsupported value %q, supported: logfmt, json, console", r.LogFormat)
	}

	for i, repo := range r.Repositories {
		if repo.Owner == "" || repo.RepositoryName == "" {
			return fmt.Errorf("repository #%d: owner and repository must be set", i+1)
		}
	}

	return nil
}

// ValidateServer is Validate and additionally checks that the settings
// required to run the webhook server are set.
func (r *Config) ValidateServer() error {
	if err := r.Validate(); err != nil {
		return err
	}

	if r.HTTPListenAddr == "" && r.HTTPSListenAddr == "" {
		return errors.New("http_server_listen_addr or https_server_listen_addr must be set")
	}

	if r.HTTPGithubWebhookEndpoint == "" {
		return errors.New("github_webhook_endpoint: must not be empty")
	}

	if r.HTTPSListenAddr != "" && (r.HTTPSCertFile == "" || r.HTTPSKeyFile == "") {
		return errors.New("https_ssl_cert_file and https_ssl_key_file must be set when https_server_listen_addr is set")
	}

	return nil
}

const redactedValue = "**hidden**"

// Redacted returns a copy of the configuration with the secrets replaced by
// a placeholder.
func (r *Config) Redacted() *Config {
	result := *r
	result.Repositories = append([]GithubRepository(nil), r.Repositories...)

	for _, s := range []*string{&result.GithubWebHookSecret, &result.GithubAPIToken} {
		if *s != "" {
			*s = redactedValue
		}
	}

	return &result
}

// Marshal writes the configuration in TOML format to writer.
func (r *Config) Marshal(writer io.Writer) error {
	return toml.NewEncoder(writer).Encode(r)
}
