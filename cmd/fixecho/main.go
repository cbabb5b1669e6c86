// Command fixecho runs a FIX acceptor: for every configured session with
// a socket_accept_port, it listens on that port, peek-routes each
// accepted connection to the Session it names, and answers QuoteRequests
// with a MassQuote through internal/fixapp.EchoApplication.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/config"
	"github.com/qyangdu/gofix/internal/fixapp"
	"github.com/qyangdu/gofix/internal/fixengine"
	"github.com/qyangdu/gofix/internal/fixnet"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fixecho",
		Short:         "Run a FIX acceptor that answers QuoteRequests with a MassQuote",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "fixecho.yaml", "path to the engine config file")
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

	listeners, err := acceptorListeners(engine)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	maxSize := cfg.Global.MaxMessageSize
	if maxSize == 0 {
		maxSize = defaultMaxMessageSize
	}
	for _, l := range listeners {
		l := l
		g.Go(func() error {
			acceptLoop(gctx, l, engine, maxSize)
			return nil
		})
	}

	metricsSrv := startMetricsServer(cfg.Metrics.Addr, cfg.Metrics.Path, engine)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	engine.Log.Info("fixecho: shutting down")

	cancel()
	for _, l := range listeners {
		l.Close()
	}
	metricsSrv.Close()
	return g.Wait()
}

// acceptorListeners opens one net.Listener per distinct socket_accept_port
// named across engine.Configs; several Sessions sharing a port are routed
// by fixnet.AcceptAndRoute once a connection's first frame is parsed.
func acceptorListeners(engine *fixengine.Engine) ([]net.Listener, error) {
	seen := map[int]bool{}
	var out []net.Listener
	for _, sc := range engine.Configs {
		if sc.SocketAcceptPort == 0 || seen[sc.SocketAcceptPort] {
			continue
		}
		seen[sc.SocketAcceptPort] = true
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", sc.SocketAcceptPort))
		if err != nil {
			for _, prior := range out {
				prior.Close()
			}
			return nil, fmt.Errorf("listen on %d: %w", sc.SocketAcceptPort, err)
		}
		out = append(out, l)
	}
	return out, nil
}

func acceptLoop(ctx context.Context, l net.Listener, engine *fixengine.Engine, maxSize int) {
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				engine.Log.Error("fixecho: accept failed", err)
				return
			}
		}
		go func() {
			if err := fixnet.AcceptAndRoute(engine.Registry, conn, maxSize); err != nil {
				engine.Log.Warn("fixecho: connection ended", err)
			}
		}()
	}
}

const defaultMaxMessageSize = 1 << 20

func startMetricsServer(addr, path string, engine *fixengine.Engine) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			engine.Log.Error("fixecho: metrics server failed", err)
		}
	}()
	return srv
}
