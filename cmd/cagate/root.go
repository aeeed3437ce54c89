package main

import (
	"context"
	"os"

	"cagate/remote/internal/config"
	"cagate/remote/internal/control"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries the flags and configuration shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "cagate",
		Short: "Remote control client for the machine",
		Long: `cagate watches the machine's screen over WHEP and drives it through the
websocket control channel.

The watch command writes the raw H264 stream to stdout, so logs go to stderr.

Configuration is read from CAGATE_* environment variables, a .env file and
an optional cagate.yaml.`,
		Example: `  # Live playback
  cagate watch | ffplay -f h264 -

  # Press the start button
  cagate start

  # Replay a gesture script on a 1280x720 surface
  cagate drive --width 1280 --height 720 < swipe.txt`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(a.verbose)
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a config file (default: ./cagate.yaml or ~/.cagate/cagate.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newWatchCommand(a),
		newStartCommand(a),
		newDriveCommand(a),
		newStatusCommand(a),
	)
	return cmd
}

func setupLogging(verbose bool) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// connect opens the control channel with the configured settings.
func (a *app) connect(ctx context.Context) (*control.Client, error) {
	c := control.NewClient(control.Config{
		URL:              a.cfg.Control.URL,
		HandshakeTimeout: a.cfg.Control.HandshakeTimeout,
		WriteTimeout:     a.cfg.Control.WriteTimeout,
		QueueSize:        a.cfg.Control.QueueSize,
	})
	if err := c.Connect(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}
