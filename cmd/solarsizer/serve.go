package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpctrl "github.com/Agrid-Dev/solarsizer/internal/controllers/http"
	mqttctrl "github.com/Agrid-Dev/solarsizer/internal/controllers/mqtt"
)

func newServeCmd(load func() (*runtime, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer sizing requests over HTTP and/or MQTT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = rt.log.Sync() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, rt)
		},
	}
}

// serve runs every enabled controller until ctx is cancelled or one of them
// fails; a failing controller stops the others.
func serve(ctx context.Context, rt *runtime) error {
	ctrls := rt.cfg.Controllers

	var runners []func(context.Context) error
	if ctrls.HTTP.Enabled {
		srv := httpctrl.New(rt.planner, ctrls.HTTP.Addr, rt.log.Named("http"))
		runners = append(runners, srv.Run)
	}
	if ctrls.MQTT.Enabled {
		mc, err := mqttctrl.New(rt.planner, mqttctrl.Config{
			InstanceID:     rt.cfg.InstanceID,
			BrokerURL:      ctrls.MQTT.BrokerURL,
			ClientID:       ctrls.MQTT.ClientID,
			BaseTopic:      ctrls.MQTT.BaseTopic,
			QoS:            ctrls.MQTT.QoS,
			RetainDefaults: ctrls.MQTT.RetainDefaults,
			Username:       ctrls.MQTT.Username,
			Password:       ctrls.MQTT.Password,
		}, rt.log.Named("mqtt"))
		if err != nil {
			return err
		}
		runners = append(runners, mc.Run)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, run := range runners {
		g.Go(func() error { return run(ctx) })
	}

	rt.log.Info("solarsizer started",
		zap.String("instance_id", rt.cfg.InstanceID),
		zap.Bool("http", ctrls.HTTP.Enabled),
		zap.Bool("mqtt", ctrls.MQTT.Enabled),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		rt.log.Error("controller exited", zap.Error(err))
		return err
	}
	return nil
}
