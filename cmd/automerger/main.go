package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thecodeteam/goodbye"
	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/cfg"
)

const appName = "automerger"

var logger = zap.NewNop()

// Version is set via a ldflag on compilation
var Version = "unknown"

type arguments struct {
	Verbose    bool
	ConfigFile string
}

var args arguments

func exitOnErr(msg string, err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "ERROR:", msg+", error:", err.Error())
	os.Exit(1)
}

func panicHandler() {
	if r := recover(); r != nil {
		logger.Info(
			"panic caught , terminating gracefully",
			zap.String("panic", fmt.Sprintf("%v", r)),
			zap.StackSkip("stacktrace", 1),
		)

		ctx, cancelFn := context.WithTimeout(context.Background(), time.Minute)
		defer cancelFn()

		goodbye.Exit(ctx, 1)
	}
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.BoolVarP(
		&args.Verbose,
		"verbose",
		"v",
		false,
		"enable verbose logging",
	)
	flags.StringVarP(
		&args.ConfigFile,
		"cfg-file",
		"c",
		cfg.DefaultConfigFile,
		"path to the automerger configuration file",
	)
}

func newRootCmd() *cobra.Command {
	root := cobra.Command{
		Use:   appName,
		Short: "Approve and merge pull requests of a bot user when their checks passed",
		Long: appName + " receives GitHub check_suite and push webhook events and " +
			"merges the pull requests created by a configured user, usually " +
			"dependabot, as soon as GitHub reports them as mergeable.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(),
		newHandleCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return &root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, Version)
		},
	}
}

func main() {
	defer panicHandler()

	if err := newRootCmd().Execute(); err != nil {
		_ = logger.Sync()
		fmt.Fprintln(os.Stderr, "ERROR:", err.Error())
		os.Exit(1)
	}
}
