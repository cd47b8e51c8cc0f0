package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/thecodeteam/goodbye"
	"go.uber.org/zap"

	"github.com/simplesurance/automerger/internal/automerge"
	"github.com/simplesurance/automerger/internal/cfg"
	"github.com/simplesurance/automerger/internal/logfields"
	"github.com/simplesurance/automerger/internal/provider/github"
)

const httpShutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "receive GitHub webhook events via HTTP and merge pull requests",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			serve()
		},
	}
}

func startHTTPServer(listenAddr string, mux *http.ServeMux) *http.Server {
	return startServer("http", &http.Server{Addr: listenAddr, Handler: mux}, func(srv *http.Server) error {
		return srv.ListenAndServe()
	})
}

func startHTTPSServer(listenAddr string, certFile, keyFile string, mux *http.ServeMux) *http.Server {
	return startServer("https", &http.Server{Addr: listenAddr, Handler: mux}, func(srv *http.Server) error {
		return srv.ListenAndServeTLS(certFile, keyFile)
	})
}

func startServer(proto string, srv *http.Server, listenFn func(*http.Server) error) *http.Server {
	go func() {
		defer panicHandler()

		logger.Info(
			proto+" server started",
			logfields.Event(proto+"_server_started"),
			zap.String("listenAddr", srv.Addr),
		)

		err := listenFn(srv)
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info(proto+" server terminated", logfields.Event(proto+"_server_terminated"))
			return
		}

		logger.Fatal(
			proto+" server terminated unexpectedly",
			logfields.Event(proto+"_server_terminated_unexpectedly"),
			zap.Error(err),
		)
	}()

	return srv
}

func shutdownHTTPServers(servers []*http.Server) {
	ctx, cancelFn := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancelFn()

	for _, srv := range servers {
		logger.Debug(
			"terminating http server",
			logfields.Event("http_server_terminating"),
			zap.String("listenAddr", srv.Addr),
			zap.Duration("shutdown_timeout", httpShutdownTimeout),
		)

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn(
				"shutting down http server failed",
				logfields.Event("http_server_termination_failed"),
				zap.String("listenAddr", srv.Addr),
				zap.Error(err),
			)
		}
	}
}

func registerHTTPHandlers(config *cfg.Config, mux *http.ServeMux, evLoop *automerge.EvLoop) {
	gh := github.New(
		[]chan<- *github.Event{evLoop.C()},
		github.WithPayloadSecret(config.GithubWebHookSecret),
	)

	mux.HandleFunc(config.HTTPGithubWebhookEndpoint, gh.HTTPHandler)
	logger.Info(
		"registered github webhook event http endpoint",
		logfields.Event("github_http_handler_registered"),
		zap.String("endpoint", config.HTTPGithubWebhookEndpoint),
	)

	if config.HTTPMetricsEndpoint != "" {
		mux.Handle(config.HTTPMetricsEndpoint, promhttp.Handler())
		logger.Info(
			"registered prometheus metrics http endpoint",
			logfields.Event("metrics_http_handler_registered"),
			zap.String("endpoint", config.HTTPMetricsEndpoint),
		)
	}
}

func serve() {
	defer goodbye.Exit(context.Background(), 1)
	goodbye.Notify(context.Background())

	config := mustParseCfg((*cfg.Config).ValidateServer)

	mustInitLogger(config)
	logCfg(config)

	goodbye.Register(func(_ context.Context, sig os.Signal) {
		logger.Info(fmt.Sprintf("terminating, received signal %s", sig.String()))
	})

	evLoop := mustInitEventLoop(config)

	mux := http.NewServeMux()
	registerHTTPHandlers(config, mux, evLoop)

	var servers []*http.Server

	if config.HTTPListenAddr != "" {
		servers = append(servers, startHTTPServer(config.HTTPListenAddr, mux))
	}

	if config.HTTPSListenAddr != "" {
		servers = append(servers, startHTTPSServer(
			config.HTTPSListenAddr,
			config.HTTPSCertFile,
			config.HTTPSKeyFile,
			mux,
		))
	}

	// the http servers must be stopped before the event loop, the
	// webhook handler sends to the channel that Stop() closes
	goodbye.Register(func(context.Context, os.Signal) {
		shutdownHTTPServers(servers)

		logger.Debug(
			"stopping event loop",
			logfields.Event("event_loop_stopping"),
		)
		evLoop.Stop()
	})

	go func() {
		defer panicHandler()
		evLoop.Start()
	}()

	select {}
}
