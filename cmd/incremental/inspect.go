package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/incremental/internal/demo"
	"github.com/vango-dev/incremental/internal/inspect"
)

func inspectCmd(opts *globalOptions) *cobra.Command {
	var (
		port   int
		host   string
		frames int
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run the demo loop behind the inspector server",
		Long: `Run the demo loop and serve its state over HTTP.

Endpoints:
  GET /api/health    session id and connected clients
  GET /api/snapshot  latest manager snapshot
  GET /api/passes    recent update passes (?limit=N)
  GET /metrics       Prometheus metrics
  GET /ws            WebSocket stream of update passes

Examples:
  incremental inspect
  incremental inspect --port=9090 --frames=100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Inspect.Port = port
			}
			if host != "" {
				cfg.Inspect.Host = host
			}
			every, err := cfg.FrameInterval()
			if err != nil {
				return err
			}

			rt, err := newEngine(cfg, os.Stderr, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(sigCtx)
			defer cancel()

			srv := inspect.New(rt.recorder, rt.registry, rt.logger)
			errc := make(chan error, 1)
			go func() {
				errc <- srv.ListenAndServe(ctx, cfg.InspectAddress())
				cancel()
			}()

			success("Inspector on http://%s (session %s)", cfg.InspectAddress(), rt.recorder.Session())
			info("Press Ctrl+C to stop")

			// The manager is only touched from this goroutine.
			scene := demo.New(rt.manager, cfg.Demo.Step)
			defer scene.Close()
			err = scene.Run(ctx, frames, every, func(demo.Frame) {
				rt.recorder.Capture(rt.manager)
			})
			if err != nil {
				cancel()
				<-errc
				return err
			}

			<-ctx.Done()
			return <-errc
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Stop the loop after this many frames (0 runs until interrupted)")
	return cmd
}
