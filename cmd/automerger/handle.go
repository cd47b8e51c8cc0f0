package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/cfg"
	"github.com/simplesurance/automerger/internal/logfields"
	"github.com/simplesurance/automerger/internal/provider/github"
)

type handleArguments struct {
	EventName string
	EventPath string
}

func addHandleFlags(flags *pflag.FlagSet, hargs *handleArguments) {
	flags.StringVar(
		&hargs.EventName,
		"event-name",
		os.Getenv("GITHUB_EVENT_NAME"),
		"github webhook event type, e.g. check_suite or push",
	)
	flags.StringVar(
		&hargs.EventPath,
		"event-path",
		os.Getenv("GITHUB_EVENT_PATH"),
		"path to a file containing the webhook event payload",
	)
}

func newHandleCmd() *cobra.Command {
	var hargs handleArguments

	cmd := cobra.Command{
		Use:   "handle",
		Short: "process a single webhook event read from a file",
		Long: "Process a single GitHub webhook event that is read from a file.\n" +
			"The defaults of the event flags are read from the GITHUB_EVENT_NAME " +
			"and GITHUB_EVENT_PATH environment variables that are set in " +
			"GitHub Actions workflows.\n" +
			"The command exits with status 1 if merging the pull request failed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handle(cmd.Context(), &hargs)
		},
	}

	addHandleFlags(cmd.Flags(), &hargs)

	return &cmd
}

func handle(ctx context.Context, hargs *handleArguments) error {
	if hargs.EventName == "" || hargs.EventPath == "" {
		return errors.New("--event-name and --event-path must be set")
	}

	config := mustParseCfg((*cfg.Config).Validate)

	mustInitLogger(config)
	logCfg(config)

	payload, err := os.ReadFile(hargs.EventPath)
	if err != nil {
		return fmt.Errorf("reading event file failed: %w", err)
	}

	ev, err := github.ParseEvent(hargs.EventName, "", payload)
	if err != nil {
		return fmt.Errorf("parsing %s event from %s failed: %w", hargs.EventName, hargs.EventPath, err)
	}

	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancelFn()

	evLoop := mustInitEventLoop(config)

	if err := evLoop.Process(ctx, ev); err != nil {
		logger.Error(
			"processing event failed",
			logfields.Event("event_processing_failed"),
			zap.String("event_path", hargs.EventPath),
			zap.Error(err),
		)

		return err
	}

	return nil
}
