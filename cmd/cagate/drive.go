package main

import (
	"bufio"
	"time"

	"cagate/remote/internal/input"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newDriveCommand(a *app) *cobra.Command {
	var (
		width, height float64
		step          time.Duration
	)

	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Replay gesture lines from stdin as touches",
		Long: `Reads one gesture per line from stdin and sends it through the touch pad:

  down <pointer> <x> <y>
  move <pointer> <x> <y>
  up <pointer> <x> <y>
  cancel

Coordinates are pixels on a width x height surface with the origin at the
top-left corner. Blank lines and lines starting with # are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 || height <= 0 {
				return errors.New("--width and --height must be positive")
			}
			ctx := cmd.Context()

			c, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			pad := input.NewTouchPad(c, input.RectSurface{W: width, H: height}, input.Config{
				Scale:           a.cfg.Touch.Scale,
				InvertY:         a.cfg.Touch.InvertY,
				MinSendInterval: a.cfg.Touch.MinInterval,
				MinDelta:        a.cfg.Touch.MinDelta,
			})
			defer pad.Deactivate()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			line := 0
			for scanner.Scan() {
				line++
				g, ok, err := input.ParseGesture(scanner.Text())
				if err != nil {
					return errors.Wrapf(err, "line %d", line)
				}
				if !ok {
					continue
				}
				pad.Apply(g)

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(step):
				}
			}
			if err := scanner.Err(); err != nil {
				return errors.Wrap(err, "read gestures")
			}

			pad.Deactivate()
			return c.Flush(ctx)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&width, "width", 0, "Surface width in pixels")
	flags.Float64Var(&height, "height", 0, "Surface height in pixels")
	flags.DurationVar(&step, "step", 30*time.Millisecond, "Delay between gesture lines")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}
