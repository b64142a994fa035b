package remap

import (
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

// Launcher runs the remapper binary, optionally through an elevation
// command such as pkexec.
type Launcher struct {
	Remapper string
	Elevate  string
}

func NewLauncher(remapper, elevate string) *Launcher {
	if remapper == "" {
		remapper = "xboxdrv"
	}
	return &Launcher{Remapper: remapper, Elevate: elevate}
}

func (l *Launcher) command(name string, args ...string) *exec.Cmd {
	if l.Elevate == "" {
		return exec.Command(name, args...)
	}
	return exec.Command(l.Elevate, append([]string{name}, args...)...)
}

// StartCommand builds the detached remapper process for ls without running it.
func (l *Launcher) StartCommand(ls *LaunchSpec) *exec.Cmd {
	cmd := l.command(l.Remapper, ls.Args()...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd
}

// Start launches the remapper in its own session and returns without
// waiting for it. Its exit status is logged when it ends.
func (l *Launcher) Start(ls *LaunchSpec) error {
	cmd := l.StartCommand(ls)
	log.Println("executing", cmd.String())
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "start %s", l.Remapper)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("%s for %s exited: %v", l.Remapper, ls.Device, err)
		}
	}()
	return nil
}

// StopCommand builds the command that kills the remapper bound to path.
func (l *Launcher) StopCommand(path string) *exec.Cmd {
	return l.command("pkill", "-f", l.Remapper+".*"+filepath.Base(path))
}

// Stop kills the remapper bound to path. Nothing running is not an error.
func (l *Launcher) Stop(path string) error {
	return l.run(l.StopCommand(path))
}

// StopAll kills every remapper instance.
func (l *Launcher) StopAll() error {
	log.Printf("cleaning up %s processes", l.Remapper)
	return l.run(l.command("killall", l.Remapper))
}

func (l *Launcher) run(cmd *exec.Cmd) error {
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		// pkill and killall exit 1 when no process matched.
		return nil
	}
	return errors.Wrapf(err, "run %s", cmd.Path)
}
