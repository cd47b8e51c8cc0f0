package main

import (
	"context"
	"fmt"
	"os"

	zaplogfmt "github.com/sykesm/zap-logfmt"
	"github.com/thecodeteam/goodbye"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/simplesurance/automerger/internal/automerge"
	"github.com/simplesurance/automerger/internal/cfg"
	"github.com/simplesurance/automerger/internal/filter"
	"github.com/simplesurance/automerger/internal/githubclt"
	"github.com/simplesurance/automerger/internal/logfields"
)

func mustParseCfg(validateFn func(*cfg.Config) error) *cfg.Config {
	// we use exitOnErr in this function instead of logger.Fatal() because
	// the logger is not initialized yet

	config, err := cfg.LoadFile(args.ConfigFile)
	exitOnErr(fmt.Sprintf("could not load configuration file: %s", args.ConfigFile), err)

	err = validateFn(config)
	exitOnErr(fmt.Sprintf("invalid configuration file: %s", args.ConfigFile), err)

	return config
}

func initLogFmtLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zapEncoderConfig(config)

	logger := zap.New(zapcore.NewCore(
		zaplogfmt.NewEncoder(cfg),
		os.Stdout,
		logLevel),
	)

	return logger
}

func zapEncoderConfig(config *cfg.Config) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()

	cfg.LevelKey = "loglevel"
	cfg.TimeKey = config.LogTimeKey
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	return cfg
}

func mustInitZapFormatLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.EncoderConfig = zapEncoderConfig(config)
	cfg.OutputPaths = []string{"stdout"}
	cfg.Encoding = config.LogFormat
	cfg.Level = zap.NewAtomicLevelAt(logLevel)

	logger, err := cfg.Build()
	exitOnErr("could not initialize logger", err)

	return logger
}

func mustInitLogger(config *cfg.Config) {
	var logLevel zapcore.Level
	if args.Verbose {
		logLevel = zapcore.DebugLevel
	} else {
		if err := (&logLevel).Set(config.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "can not set log level to %q: %s \n", config.LogLevel, err)
			os.Exit(2)
		}
	}

	switch config.LogFormat {
	case "logfmt":
		logger = initLogFmtLogger(config, logLevel)
	case "console", "json":
		logger = mustInitZapFormatLogger(config, logLevel)
	default:
		fmt.Fprintf(os.Stderr, "unsupported log-format argument: %q\n", config.LogFormat)
		os.Exit(2)
	}

	logger = logger.Named("main")
	zap.ReplaceGlobals(logger)

	goodbye.Register(func(context.Context, os.Signal) {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "flushing logs failed: %s\n", err)
		}
	})
}

func hide(in string) string {
	if in == "" {
		return in
	}

	return "**hidden**"
}

func logCfg(config *cfg.Config) {
	repos := make([]string, 0, len(config.Repositories))
	for _, r := range config.Repositories {
		repos = append(repos, r.Owner+"/"+r.RepositoryName)
	}

	logger.Info(
		"loaded cfg file",
		logfields.Event("cfg_loaded"),
		zap.String("cfg_file", args.ConfigFile),
		zap.String("http_server_listen_addr", config.HTTPListenAddr),
		zap.String("https_server_listen_addr", config.HTTPSListenAddr),
		zap.String("github_webhook_endpoint", config.HTTPGithubWebhookEndpoint),
		zap.String("http_metrics_endpoint", config.HTTPMetricsEndpoint),
		zap.String("github_webhook_secret", hide(config.GithubWebHookSecret)),
		zap.String("github_api_token", hide(config.GithubAPIToken)),
		zap.String("github_graphql_url", config.GithubGraphQLURL),
		zap.Int64("github_app.app_id", config.GithubApp.AppID),
		zap.Int64("github_app.installation_id", config.GithubApp.InstallationID),
		zap.String("log_format", config.LogFormat),
		zap.String("log_time_key", config.LogTimeKey),
		zap.String("log_level", config.LogLevel),
		zap.String("github_login", config.GithubLogin),
		zap.String("merge_method", config.MergeMethod),
		zap.Int64("retries", config.Retries),
		zap.Bool("dry_run", config.DryRun),
		zap.String("filter_query", config.FilterQuery),
		zap.Strings("repositories", repos),
	)
}

func mustInitGithubClient(config *cfg.Config) automerge.GithubClient {
	var clt *githubclt.Client

	if config.GithubApp.IsSet() {
		var err error

		clt, err = githubclt.NewWithAppInstallation(
			config.GithubApp.AppID,
			config.GithubApp.InstallationID,
			config.GithubApp.PrivateKeyFile,
			config.GithubGraphQLURL,
		)
		exitOnErr("could not create github app installation client", err)
	} else {
		clt = githubclt.New(config.GithubAPIToken, config.GithubGraphQLURL)
	}

	if config.DryRun {
		logger.Info(
			"dry run mode enabled, pull requests will not be approved or merged",
			logfields.Event("dry_run_enabled"),
		)

		return automerge.NewDryGithubClient(clt, logger)
	}

	return clt
}

func mustInitEventLoop(config *cfg.Config) *automerge.EvLoop {
	// already validated
	mergeMethod, err := githubclt.ParseMergeMethod(config.MergeMethod)
	exitOnErr("parsing merge_method failed", err)

	handler := automerge.NewHandler(
		mustInitGithubClient(config),
		config.GithubLogin,
		uint(config.Retries),
		automerge.WithMergeMethod(mergeMethod),
	)

	opts := []automerge.EvLoopOption{
		automerge.WithRepositories(repositoriesFromCfg(config.Repositories)),
	}

	if config.FilterQuery != "" {
		f, err := filter.New(config.FilterQuery)
		exitOnErr("parsing filter_query failed", err)

		opts = append(opts, automerge.WithFilter(f))
	}

	return automerge.NewEventLoop(handler, opts...)
}

func repositoriesFromCfg(repos []cfg.GithubRepository) []automerge.Repository {
	result := make([]automerge.Repository, 0, len(repos))

	for _, r := range repos {
		result = append(result, automerge.Repository{
			OwnerLogin:     r.Owner,
			RepositoryName: r.RepositoryName,
		})
	}

	return result
}
