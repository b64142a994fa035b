package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzchzchz/padmap/internal/wizard"
	"github.com/spf13/cobra"
)

func (a *app) discoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List connected controllers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrls, err := a.resolver.Discover()
			if err != nil {
				return err
			}
			fmt.Printf("controllers (%s):\n", a.resolver.DevDir)
			for _, c := range ctrls {
				fmt.Printf("%s: %s\n", c.Path, c.Name)
			}
			return nil
		},
	}
}

func (a *app) captureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Print the next button or axis used on a device",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "button <device>",
			Short: "Wait for a button press",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.capture(args[0], a.engine.CaptureButton)
			},
		},
		&cobra.Command{
			Use:   "axis <device>",
			Short: "Wait for an analog axis to move",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.capture(args[0], a.engine.CaptureAxis)
			},
		},
	)
	return cmd
}

func (a *app) capture(dev string, fn func(context.Context, string) (string, error)) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	id, err := fn(ctx, a.resolver.Path(dev))
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func (a *app) mapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <device>",
		Short: "Interactively map a controller and save the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.resolver.Path(args[0])
			name, err := a.resolver.Name(path)
			if err != nil {
				return err
			}
			fmt.Printf("Mapping %s (%s). Each control waits up to 30s; let it time out to skip.\n", name, path)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			w := &wizard.Wizard{Capture: a.engine, Out: os.Stdout}
			m, err := w.Run(ctx, path)
			if err != nil {
				return err
			}
			msg, err := a.store.Save(name, m)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}
