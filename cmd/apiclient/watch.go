package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/apiclient"
	"github.com/jonwraymond/apiclient/health"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var healthAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the backend and print every transition until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, flags, healthAddr)
		},
	}
	cmd.Flags().StringVar(&healthAddr, "health-addr", "", "serve /healthz, /readyz and /health on this address")
	return cmd
}

func runWatch(cmd *cobra.Command, flags *globalFlags, healthAddr string) error {
	ctx := cmd.Context()
	out := &syncWriter{w: cmd.OutOrStdout()}

	client, err := flags.newClient(ctx, cmd.ErrOrStderr(), apiclient.WithoutAutoStart())
	if err != nil {
		return err
	}

	client.On(apiclient.EventDisconnected, func(...any) {
		fmt.Fprintf(out, "%s offline %s\n", time.Now().UTC().Format(time.RFC3339), client.BaseURL())
	})
	client.On(apiclient.EventReconnected, func(...any) {
		fmt.Fprintf(out, "%s online %s\n", time.Now().UTC().Format(time.RFC3339), client.BaseURL())
	})
	fmt.Fprintf(out, "watching %s\n", client.BaseURL())
	client.Monitor().Start()

	g, ctx := errgroup.WithContext(ctx)

	if healthAddr != "" {
		agg := health.NewAggregator()
		agg.Register(client.Monitor().Name(), client.Monitor())
		mux := http.NewServeMux()
		health.RegisterHandlers(mux, agg)

		ln, err := net.Listen("tcp", healthAddr)
		if err != nil {
			_ = client.Dispose(context.WithoutCancel(ctx))
			return err
		}
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		fmt.Fprintf(out, "health on %s\n", ln.Addr())

		g.Go(func() error {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		return client.Dispose(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// syncWriter serializes writes from event handlers and the command.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
