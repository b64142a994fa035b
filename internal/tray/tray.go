// Package tray shows a system tray icon while the API server runs.
package tray

import (
	"log"
	"os/exec"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
)

// Actions are the callbacks behind the tray menu.
type Actions struct {
	// StopRemappers kills every running remapper.
	StopRemappers func() error
	// Shutdown stops the server. It runs at most once.
	Shutdown func()
}

type Tray struct {
	url          string
	actions      Actions
	once         sync.Once
	shuttingDown atomic.Bool
	menuOpen     *systray.MenuItem
	menuStop     *systray.MenuItem
	menuQuit     *systray.MenuItem
}

func New(url string, actions Actions) *Tray {
	return &Tray{url: url, actions: actions}
}

// Run blocks until Quit is chosen or Close is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Close removes the tray icon.
func (t *Tray) Close() {
	if t.shuttingDown.CompareAndSwap(false, true) {
		systray.Quit()
	}
}

func (t *Tray) onReady() {
	systray.SetTitle("padmap")
	systray.SetTooltip("padmap - " + t.url)

	t.menuOpen = systray.AddMenuItem("Open", "Open the mapping API")
	t.menuStop = systray.AddMenuItem("Stop remappers", "Stop every running remapper")
	systray.AddSeparator()
	t.menuQuit = systray.AddMenuItem("Quit", "Stop remappers and quit")

	go t.handleMenuClicks()
	log.Println("system tray initialized")
}

func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				t.open()
			}
		case <-t.menuStop.ClickedCh:
			t.stopRemappers()
		case <-t.menuQuit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.stopRemappers()
				t.once.Do(t.actions.Shutdown)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) stopRemappers() {
	if t.actions.StopRemappers == nil {
		return
	}
	if err := t.actions.StopRemappers(); err != nil {
		log.Printf("stopping remappers: %v", err)
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	log.Println("system tray exiting")
}

func (t *Tray) open() {
	if err := exec.Command("xdg-open", t.url).Start(); err != nil {
		log.Printf("failed to open %s: %v", t.url, err)
	}
}
