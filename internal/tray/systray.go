package tray

import (
	"sync"

	"fyne.io/systray"
	"vawter.tech/stopper"

	"github.com/rescale/svctray/internal/menu"
)

// host is the part of the tray icon the App drives directly.
type host interface {
	SetIcon(icon []byte)
	SetTooltip(tooltip string)
	Quit()
}

type systrayHost struct{}

func (systrayHost) SetIcon(icon []byte)       { systray.SetIcon(icon) }
func (systrayHost) SetTooltip(tooltip string) { systray.SetTooltip(tooltip) }
func (systrayHost) Quit()                     { systray.Quit() }

// systrayView draws menu models with fyne.io/systray. Each rebuild starts a
// new generation; clearing the menu ends the click forwarders of the
// previous one.
type systrayView struct {
	sctx    *stopper.Context
	actions chan<- Action

	mu  sync.Mutex
	gen chan struct{}
}

func newSystrayView(sctx *stopper.Context, actions chan<- Action) *systrayView {
	return &systrayView{sctx: sctx, actions: actions, gen: make(chan struct{})}
}

func (v *systrayView) Clear() {
	v.mu.Lock()
	close(v.gen)
	v.gen = make(chan struct{})
	v.mu.Unlock()

	systray.ResetMenu()
}

func (v *systrayView) AddService(e menu.Entry) {
	item := systray.AddMenuItemCheckbox(e.Label, e.Service, e.Checked)
	if !e.Enabled {
		item.Disable()
	}
	v.forward(item, Action{Kind: menu.ActionToggle, Service: e.Service})
}

func (v *systrayView) AddSeparator() {
	systray.AddSeparator()
}

func (v *systrayView) AddFixed(f menu.Fixed) {
	item := systray.AddMenuItem(f.Label, "")
	if !f.Enabled {
		item.Disable()
	}
	v.forward(item, Action{Kind: f.Kind})
}

// forward sends act to the UI loop each time item is clicked, until the
// menu is cleared or the tray stops.
func (v *systrayView) forward(item *systray.MenuItem, act Action) {
	v.mu.Lock()
	gen := v.gen
	v.mu.Unlock()

	v.sctx.Go(func(sctx *stopper.Context) error {
		for {
			select {
			case <-item.ClickedCh:
				select {
				case v.actions <- act:
				case <-gen:
					return nil
				case <-sctx.Stopping():
					return nil
				}
			case <-gen:
				return nil
			case <-sctx.Stopping():
				return nil
			}
		}
	})
}
