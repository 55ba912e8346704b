package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/incremental/internal/demo"
)

func demoCmd(opts *globalOptions) *cobra.Command {
	var (
		frames   int
		step     int
		interval time.Duration
		asJSON   bool
		outline  bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the demo tree for a number of frames",
		Long: `Run the demo tree for a number of frames and print what every
update pass did.

Each frame runs the deferred callbacks, applies buffered writes and
reads the tree again. The counter advances by --step every frame and
moves the "first" child before, out of, and after "second".

Examples:
  incremental demo
  incremental demo --frames=12 --step=5
  incremental demo --json --interval=0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("frames") {
				cfg.Demo.Frames = frames
			}
			if cmd.Flags().Changed("step") {
				cfg.Demo.Step = step
			}
			every, err := cfg.FrameInterval()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				every = interval
			}

			rt, err := newEngine(cfg, os.Stderr, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			scene := demo.New(rt.manager, cfg.Demo.Step)
			defer scene.Close()

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			err = scene.Run(ctx, cfg.Demo.Frames, every, func(f demo.Frame) {
				if asJSON {
					_ = enc.Encode(f)
					return
				}
				fmt.Fprintf(out, "pass %-3d modified %-2d %-20s %s\n", f.Pass, f.Modified, f.Hierarchy, f.Summary)
			})
			if err != nil {
				return err
			}
			if outline && !asJSON {
				fmt.Fprint(out, scene.Root().Outline())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Number of frames (default from config)")
	cmd.Flags().IntVar(&step, "step", 0, "Counter step per frame (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Delay between frames (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print frames as JSON lines")
	cmd.Flags().BoolVar(&outline, "outline", false, "Print the final tree outline")
	return cmd
}
