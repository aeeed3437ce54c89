package main

import (
	"os"

	"cagate/remote/internal/api"
	"cagate/remote/internal/display"
	"cagate/remote/internal/viewer"
	"cagate/remote/internal/webrtc"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream the machine's screen to stdout as raw H264",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd)
		},
	}
}

func (a *app) watch(cmd *cobra.Command) error {
	ctx := cmd.Context()
	sink := display.NewWriter(os.Stdout)

	peer, err := webrtc.NewPeer(webrtc.Config{
		ICEServers: a.cfg.WHEP.ICEServers,
		Sink:       sink,
	})
	if err != nil {
		return errors.Wrap(err, "create peer")
	}

	poster := api.NewClient(a.cfg.WHEP.URL, a.cfg.WHEP.Token, a.cfg.WHEP.Timeout)
	v := viewer.New(peer, poster, viewer.Config{
		PreferredCodec: a.cfg.WHEP.PreferCodec,
		GatherTimeout:  a.cfg.WHEP.Timeout,
	})
	defer v.Close()

	sess, err := v.Negotiate(ctx)
	if err != nil {
		return err
	}
	log.Infof("session %s negotiated", sess.ID)

	select {
	case <-ctx.Done():
	case <-peer.Done():
		log.Warnf("video connection ended")
	}

	log.Infof("wrote %d frames (%d bytes)", sink.Frames(), sink.Bytes())
	return nil
}
