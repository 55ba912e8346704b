package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/incremental/internal/demo"
	"github.com/vango-dev/incremental/pkg/journal"
)

func exportCmd(opts *globalOptions) *cobra.Command {
	var (
		out    string
		region string
		frames int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run the demo and export its journal",
		Long: `Run the demo without delay and export the journal of every update
pass, together with the final manager snapshot.

Targets are local paths or s3://bucket/key URLs. S3 credentials come
from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.

Examples:
  incremental export
  incremental export --out ./runs/journal.json --frames=20
  incremental export --out s3://my-bucket/journals/run.json --region=eu-west-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if out != "" {
				cfg.Export.Target = out
			}
			if region != "" {
				cfg.Export.Region = region
			}
			if cmd.Flags().Changed("frames") {
				cfg.Demo.Frames = frames
			}

			target, err := journal.ResolveTarget(cfg.Export.Target, cfg.Export.Region, nil)
			if err != nil {
				return err
			}

			rt, err := newEngine(cfg, io.Discard, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			scene := demo.New(rt.manager, cfg.Demo.Step)
			defer scene.Close()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := scene.Run(ctx, cfg.Demo.Frames, 0, nil); err != nil {
				return err
			}
			rt.recorder.Capture(rt.manager)

			j := rt.recorder.Journal()
			if err := journal.Export(ctx, target, j); err != nil {
				return err
			}
			success("Exported %d passes to %s", len(j.Entries), target.Store.Describe(target.Key))
			info("Session %s", j.Session)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Export target (default from config)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region for s3 targets")
	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Number of frames (default from config)")
	return cmd
}
