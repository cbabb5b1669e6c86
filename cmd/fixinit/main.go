// Command fixinit runs a FIX initiator: for every configured session
// with a socket_connect_host/port, it dials out, logs on, and drives
// the connection through internal/fixnet.RunConnection, reconnecting
// with a fixed backoff if the counterparty drops the line.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/config"
	"github.com/qyangdu/gofix/internal/fixapp"
	"github.com/qyangdu/gofix/internal/fixengine"
	"github.com/qyangdu/gofix/internal/fixlog"
	"github.com/qyangdu/gofix/internal/fixnet"
)

var cfgFile string

const reconnectDelay = 5 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fixinit",
		Short:         "Run a FIX initiator that logs on and answers QuoteRequests with a MassQuote",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "fixinit.yaml", "path to the engine config file")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	engine, err := fixengine.Build(cfg, func(id quickfix.SessionID, reg *quickfix.Registry, log quickfix.Logger) quickfix.Application {
		return &fixapp.EchoApplication{Registry: reg, Log: log}
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	maxSize := cfg.Global.MaxMessageSize
	if maxSize == 0 {
		maxSize = 1 << 20
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	for i, sc := range engine.Configs {
		if sc.SocketConnectHost == "" || sc.SocketConnectPort == 0 {
			continue
		}
		i := i
		sc := sc
		g.Go(func() error {
			dialLoop(gctx, engine.Sessions[i], sc.SocketConnectHost, sc.SocketConnectPort, maxSize, engine.Log)
			return nil
		})
	}

	metricsSrv := startMetricsServer(cfg.Metrics.Addr, cfg.Metrics.Path, engine)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	engine.Log.Info("fixinit: shutting down")

	cancel()
	metricsSrv.Close()
	return g.Wait()
}

// dialLoop dials host:port, runs sess's connection until it ends, then
// redials after reconnectDelay until ctx is cancelled.
func dialLoop(ctx context.Context, sess *quickfix.Session, host string, port, maxSize int, log *fixlog.Logger) {
	addr := fmt.Sprintf("%s:%d", host, port)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := net.Dial("tcp", addr)
		if err != nil {
			log.Warn(fmt.Sprintf("fixinit: dial %s failed, retrying", addr), err)
			sleepOrDone(ctx, reconnectDelay)
			continue
		}

		responder := fixnet.NewConnResponder(conn)
		fixnet.RunConnection(sess, conn, maxSize, responder)

		log.Warn(fmt.Sprintf("fixinit: connection to %s ended, reconnecting", addr), nil)
		sleepOrDone(ctx, reconnectDelay)
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func startMetricsServer(addr, path string, engine *fixengine.Engine) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			engine.Log.Error("fixinit: metrics server failed", err)
		}
	}()
	return srv
}
