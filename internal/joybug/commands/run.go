/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/expend20/joybug-tauri/internal/config"
	"github.com/expend20/joybug-tauri/internal/console"
	"github.com/expend20/joybug-tauri/internal/debugsession"
	"github.com/expend20/joybug-tauri/internal/notify"
	"github.com/expend20/joybug-tauri/internal/uilog"
	"github.com/expend20/joybug-tauri/pkg/logger"
	"github.com/expend20/joybug-tauri/pkg/resiliency"
)

const (
	FeedPath = "/feed"

	feedSubscriberBuffer = 32
	feedShutdownTimeout  = 5 * time.Second

	// How long to wait for the operator to render the last snapshots after the session ends.
	operatorDrainTimeout = 2 * time.Second
)

func NewRunCommand(log *logger.Logger) (*cobra.Command, error) {
	runCmd := &cobra.Command{
		Use:   "run [launch command]",
		Short: "Launches a program under the debugger and runs the debug session to completion",
		Long: `Launches a program under the debugger and runs the debug session to completion.

	The session stops at every debug event. Answer 'c' (or just press Enter) to continue,
	or 'q' to stop the session. The launch command can be passed as the argument
	or through the configuration.`,
		RunE: runSession(log),
		Args: cobra.MaximumNArgs(1),
	}

	config.AddFlags(runCmd.Flags())

	return runCmd, nil
}

func runSession(log *logger.Logger) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := cmd.Flags().Set("launch-command", args[0]); err != nil {
				return err
			}
		}

		configFile, _ := cmd.Flags().GetString(configFlagName)
		cfg, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}

		renderer := console.NewRenderer(cmd.OutOrStdout(), uilog.LevelInfo)
		store := uilog.NewStore(cfg.LogBufferSize, renderer.RenderEntry)
		log.WithTee(store)

		return runDebugSession(cmd.Context(), runDependencies{
			config:   cfg,
			renderer: renderer,
			store:    store,
			cmd:      cmd,
			log:      log.Logger.WithName("run"),
		})
	}
}

type runDependencies struct {
	config   *config.Config
	renderer *console.Renderer
	store    *uilog.Store
	cmd      *cobra.Command
	log      logr.Logger
}

func runDebugSession(ctx context.Context, deps runDependencies) error {
	cfg := deps.config
	log := deps.log

	// The snapshot sinks outlive the command context, so that the final snapshot of a cancelled
	// session still reaches the operator.
	sinkCtx, cancelSinks := context.WithCancel(context.Background())
	defer cancelSinks()

	channelSink := notify.NewChannelSink(sinkCtx)
	sinks := notify.MultiSink{channelSink, notify.NewLogSink(log)}

	var broadcaster *notify.Broadcaster
	if cfg.FeedAddress != "" {
		broadcaster = notify.NewBroadcaster(feedSubscriberBuffer)
		defer broadcaster.Close()
		sinks = append(sinks, broadcaster)
	}

	manager, err := debugsession.NewManager(debugsession.ManagerConfig{
		Dialer:   newDialer(cfg, log),
		Sink:     sinks,
		Notifier: deps.store,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	defer manager.Stop()

	if broadcaster != nil {
		stopFeed, feedErr := startFeed(cfg.FeedAddress, broadcaster, manager, log)
		if feedErr != nil {
			return feedErr
		}
		defer stopFeed()
	}

	operator, err := console.NewOperator(console.OperatorConfig{
		Stepper:      manager,
		Renderer:     deps.renderer,
		Input:        deps.cmd.InOrStdin(),
		AutoContinue: cfg.AutoContinue,
		Logger:       log,
	})
	if err != nil {
		return err
	}

	session, err := manager.Create(cfg.ServerAddress, cfg.LaunchCommand)
	if err != nil {
		return err
	}

	operatorDone := make(chan struct{})
	go func() {
		defer close(operatorDone)
		if opErr := operator.Run(sinkCtx, channelSink.Out()); opErr != nil && !errors.Is(opErr, context.Canceled) {
			log.Error(opErr, "Operator stopped unexpectedly")
		}
	}()

	sessionErr := <-manager.Start(ctx, session.ID())

	if !resiliency.AwaitClosed(operatorDone, operatorDrainTimeout) {
		log.V(1).Info("Operator did not finish rendering in time", "sessionID", session.ID())
	}

	if sessionErr != nil {
		return fmt.Errorf("debug session %s failed: %w", session.ID(), sessionErr)
	}

	log.V(1).Info("Debug session ended", "sessionID", session.ID(), "status", session.Status().String())
	return nil
}

// newDialer applies the dial timeout to every connection attempt, and retries failed
// attempts when a retry timeout is configured.
func newDialer(cfg *config.Config, log logr.Logger) debugsession.Dialer {
	protocolDialer := debugsession.ProtocolDialer(log.WithName("protocol"))

	dialOnce := func(ctx context.Context, address string) (debugsession.Conn, error) {
		dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		return protocolDialer.Dial(dialCtx, address)
	}

	if cfg.ConnectRetryTimeout <= 0 {
		return debugsession.DialerFunc(dialOnce)
	}

	return debugsession.DialerFunc(func(ctx context.Context, address string) (debugsession.Conn, error) {
		return resiliency.RetryGetFor(ctx, cfg.ConnectRetryTimeout, func() (debugsession.Conn, error) {
			conn, dialErr := dialOnce(ctx, address)
			if dialErr != nil {
				log.V(1).Info("Connection attempt failed", "address", address, "error", dialErr.Error())
			}
			return conn, dialErr
		})
	})
}

// startFeed serves the WebSocket snapshot feed in the background. The returned function shuts the server down.
func startFeed(address string, broadcaster *notify.Broadcaster, stepper notify.Stepper, log logr.Logger) (func(), error) {
	feed, err := notify.NewWebSocketFeed(notify.WebSocketFeedConfig{
		Broadcaster: broadcaster,
		Stepper:     stepper,
		Logger:      log.WithName("feed"),
	})
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("could not listen on feed address '%s': %w", address, err)
	}

	mux := http.NewServeMux()
	mux.Handle(FeedPath, feed)
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Error(serveErr, "Snapshot feed server stopped")
		}
	}()
	log.Info("Serving snapshot feed", "address", "ws://"+listener.Addr().String()+FeedPath)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), feedShutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			log.V(1).Info("Snapshot feed server did not shut down cleanly", "error", shutdownErr.Error())
		}
	}, nil
}
