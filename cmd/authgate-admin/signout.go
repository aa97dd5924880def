package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/thalysonbl/authgate/config"
	"github.com/thalysonbl/authgate/internal/service"
)

type broadcastOptions struct {
	Device  string
	Channel string
}

func parseBroadcastOptions(args []string, defaultChannel string) (broadcastOptions, error) {
	fs := flag.NewFlagSet("broadcast-sign-out", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts broadcastOptions
	fs.StringVar(&opts.Device, "device", "", "Device ID from the authgate.device cookie (required)")
	fs.StringVar(&opts.Channel, "channel", defaultChannel, "Base sync channel name")

	if err := fs.Parse(args); err != nil {
		return broadcastOptions{}, err
	}
	if opts.Device == "" {
		return broadcastOptions{}, errors.New("--device is required")
	}
	if _, err := uuid.Parse(opts.Device); err != nil {
		return broadcastOptions{}, fmt.Errorf("invalid --device: %w", err)
	}
	if opts.Channel == "" {
		opts.Channel = service.DefaultChannelName
	}
	return opts, nil
}

// channelName matches the device scoping applied by the portal.
func (o broadcastOptions) channelName() string {
	return o.Channel + ":" + o.Device
}

func runBroadcastSignOut(ctx *commandContext, args []string) error {
	opts, err := parseBroadcastOptions(args, ctx.Config.Sync.Channel)
	if err != nil {
		return err
	}
	if ctx.Config.Sync.Mode != config.SyncModeRedis {
		return errors.New("broadcast-sign-out needs SYNC_MODE=redis to reach portal instances")
	}

	infra, err := connectSync(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			ctx.Logger.Warn("close sync infra", "error", cerr)
		}
	}()

	ch, err := infra.Broker.Open(ctx.Ctx, opts.channelName())
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := service.SignOut(ctx.Ctx, service.SignOutDeps{Channel: ch}); err != nil {
		return err
	}
	return writef(ctx.Out, "sign-out sent on %s\n", opts.channelName())
}
