package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/chzchzchz/padmap/internal/remap"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := a.store.List()
			if err != nil {
				return err
			}
			for _, m := range ms {
				fmt.Printf("%s: %d buttons, %d axes\n", m.Name, len(m.Buttons), len(m.Axes))
			}
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <device>",
		Short: "Print the stored mapping for a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := a.resolver.Name(args[0])
			if err != nil {
				return err
			}
			m, err := a.store.Get(name)
			if err != nil {
				return err
			}
			if m == nil {
				return errors.Wrap(remap.ErrNoMapping, name)
			}
			return printJSON(m)
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	var byDevice bool
	cmd := &cobra.Command{
		Use:   "delete <name|device>",
		Short: "Delete a stored mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if byDevice {
				var err error
				if name, err = a.resolver.Name(name); err != nil {
					return err
				}
			}
			msg, err := a.store.Delete(name)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&byDevice, "device", "d", false, "treat the argument as a device and delete its mapping")
	return cmd
}

func (a *app) synthesize(dev string) (*remap.LaunchSpec, error) {
	return remap.NewSynthesizer(a.resolver, a.store).Synthesize(dev)
}

func (a *app) argsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "args <device>",
		Short: "Print the remapper command for a device without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := a.synthesize(args[0])
			if err != nil {
				return err
			}
			fmt.Println(strings.Join(a.launcher.StartCommand(ls).Args, " "))
			return nil
		},
	}
}

func (a *app) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <device>",
		Short: "Start the remapper for a device using its stored mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ls, err := a.synthesize(args[0])
			if err != nil {
				return err
			}
			return a.launcher.Start(ls)
		},
	}
}

func (a *app) stopCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "stop [device]",
		Short: "Stop the remapper for a device, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all || len(args) == 0 {
				return a.launcher.StopAll()
			}
			return a.launcher.Stop(a.resolver.Path(args[0]))
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "stop every remapper")
	return cmd
}
