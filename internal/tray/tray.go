// Package tray provides a system tray interface for controlling live
// face detection.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(start bool)
	onPreview func()
	onQuit    func()
	detecting bool
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a new Tray instance in the stopped state.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback invoked when detection is started or
// stopped from the menu.
func (t *Tray) OnToggle(fn func(start bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnPreview sets the callback invoked when the preview menu item is clicked.
func (t *Tray) OnPreview(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPreview = fn
}

// OnQuit sets the callback invoked when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Face Detection")
	systray.SetTooltip("Face Detection Client")

	t.menuToggle = systray.AddMenuItem("▶ Start Live Detection", "Start or stop live detection")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem("Idle", "Detection status")
	t.menuStatus.Disable()
	systray.AddSeparator()

	menuPreview := systray.AddMenuItem("Open Preview...", "Open the preview in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit face detection")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuPreview.ClickedCh:
				t.handlePreview()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleToggle handles the start/stop menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.detecting = !t.detecting
	detecting := t.detecting

	if detecting {
		t.menuToggle.SetTitle("■ Stop Detection")
	} else {
		t.menuToggle.SetTitle("▶ Start Live Detection")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(detecting)
	}
}

// handlePreview handles the preview menu item click.
func (t *Tray) handlePreview() {
	t.mu.RLock()
	callback := t.onPreview
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the status line in the menu, e.g. "Live · 14 fps".
func (t *Tray) SetStatus(status string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		if status == "" {
			t.menuStatus.SetTitle("Idle")
		} else {
			t.menuStatus.SetTitle(status)
		}
	}
}

// SetDetecting reflects an externally triggered start/stop (e.g. a
// session that ended on its own) in the menu state.
func (t *Tray) SetDetecting(detecting bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.detecting = detecting
	if t.menuToggle == nil {
		return
	}
	if detecting {
		t.menuToggle.SetTitle("■ Stop Detection")
	} else {
		t.menuToggle.SetTitle("▶ Start Live Detection")
	}
}

// IsDetecting returns the tray's view of the detection state.
func (t *Tray) IsDetecting() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.detecting
}
