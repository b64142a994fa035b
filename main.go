package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chzchzchz/padmap/internal/capture"
	"github.com/chzchzchz/padmap/internal/device"
	"github.com/chzchzchz/padmap/internal/hub"
	"github.com/chzchzchz/padmap/internal/remap"
	"github.com/chzchzchz/padmap/internal/server"
	"github.com/chzchzchz/padmap/internal/store"
	"github.com/chzchzchz/padmap/internal/tray"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type app struct {
	cfg      *Config
	resolver *device.Resolver
	store    *store.Store
	engine   *capture.Engine
	launcher *remap.Launcher
}

func newApp(cfg *Config) *app {
	engine := capture.NewEngine()
	engine.Debug = cfg.Debug
	return &app{
		cfg:      cfg,
		resolver: device.NewResolver(cfg.DevDir, cfg.Sysfs),
		store:    store.New(cfg.Store),
		engine:   engine,
		launcher: remap.NewLauncher(cfg.Remapper, cfg.Elevate),
	}
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "padmap",
		Short:         "Map game controllers onto a virtual Xbox pad",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			*a = *newApp(cfg)
			return nil
		},
	}
	addFlags(root.PersistentFlags())

	// a is filled in by PersistentPreRunE before any RunE executes.
	root.AddCommand(
		a.serveCmd(),
		a.discoverCmd(),
		a.captureCmd(),
		a.mapCmd(),
		a.listCmd(),
		a.showCmd(),
		a.deleteCmd(),
		a.argsCmd(),
		a.startCmd(),
		a.stopCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if hint := hintFor(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}

// hintFor turns control-flow errors into guidance for the user.
func hintFor(err error) string {
	switch {
	case errors.Is(err, capture.ErrTimeout):
		return "Nothing was detected in time. Try again."
	case errors.Is(err, remap.ErrNoMapping):
		return "Create a mapping first with: padmap map <device>"
	}
	return ""
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	h := hub.NewHub()
	go h.Run(ctx)

	srv := server.New(server.Config{
		Addr:     a.cfg.Listen,
		Resolver: a.resolver,
		Store:    a.store,
		Capture:  a.engine,
		Remapper: a.launcher,
		Hub:      h,
	})
	go func() {
		if err := a.store.Watch(ctx, srv.NotifyConfigs); err != nil {
			log.Printf("mapping file watch stopped: %v", err)
		}
	}()

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	var t *tray.Tray
	if a.cfg.Tray {
		t = tray.New("http://"+a.cfg.Listen+"/api/controllers", tray.Actions{
			StopRemappers: a.launcher.StopAll,
			Shutdown:      cancel,
		})
		go t.Run()
	}
	log.Printf("padmap serving mappings from %s", a.store.Path())

	var err error
	select {
	case <-ctx.Done():
		log.Println("shutting down...")
	case err = <-serverErrCh:
		cancel()
	}
	if t != nil {
		t.Close()
	}

	shutdown(srv, a.launcher.StopAll)
	return err
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown stops the HTTP server and then every remapper it may have started.
func shutdown(srv shutdowner, stopRemappers func() error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := stopRemappers(); err != nil {
		log.Printf("error stopping remappers: %v", err)
	}
}
