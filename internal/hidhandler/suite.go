package hidhandler

import (
	"sync"

	"github.com/virtualhid/blehid/internal/gattdb"
	"github.com/virtualhid/blehid/internal/platform"
	"github.com/virtualhid/blehid/internal/report"
)

// Suite owns all four report handlers (Mouse, Keyboard, Consumer, BootMouse)
// and the current Protocol Mode, routing mouse operations to whichever of
// Mouse/BootMouse the active mode selects. This is the object the HID
// facade and the GATT callback router both hold a reference to.
type Suite struct {
	mu   sync.Mutex
	mode gattdb.ProtocolMode

	Mouse     *Mouse
	Keyboard  *Keyboard
	Consumer  *Consumer
	BootMouse *BootMouse
}

// NewSuite builds all four handlers, wiring each Report characteristic to
// the UUID gattdb allocated for it.
func NewSuite(conns ConnectionProvider, subs SubscriptionProvider, notify Notifier) *Suite {
	var mouseUUID, keyboardUUID, consumerUUID platform.UUID
	for _, rc := range gattdb.ReportCharacteristics() {
		switch rc.ReportID {
		case report.IDMouse:
			mouseUUID = rc.CharUUID
		case report.IDKeyboard:
			keyboardUUID = rc.CharUUID
		case report.IDConsumer:
			consumerUUID = rc.CharUUID
		}
	}
	return &Suite{
		mode:      gattdb.ProtocolModeReport,
		Mouse:     NewMouse(mouseUUID, conns, subs, notify),
		Keyboard:  NewKeyboard(keyboardUUID, conns, subs, notify),
		Consumer:  NewConsumer(consumerUUID, conns, subs, notify),
		BootMouse: NewBootMouse(gattdb.BootMouseInputReportUUID, conns, subs, notify),
	}
}

// ProtocolMode returns the currently selected protocol mode.
func (s *Suite) ProtocolMode() gattdb.ProtocolMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetProtocolMode changes the active mode and resets every handler to
// Unsubscribed, so the next send re-verifies the CCCD on the newly
// selected characteristic.
func (s *Suite) SetProtocolMode(m gattdb.ProtocolMode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	s.Mouse.OnProtocolModeFlip()
	s.Keyboard.OnProtocolModeFlip()
	s.Consumer.OnProtocolModeFlip()
	s.BootMouse.OnProtocolModeFlip()
}

// OnDisconnect resets every handler to Unsubscribed.
func (s *Suite) OnDisconnect() {
	s.Mouse.OnDisconnect()
	s.Keyboard.OnDisconnect()
	s.Consumer.OnDisconnect()
	s.BootMouse.OnDisconnect()
}

// activeMouse returns whichever mouse handler is live for the current mode.
type mouseHandler interface {
	Move(dx, dy int) error
	Press(mask uint8) error
	ReleaseAll() error
	Click(mask uint8) error
	Scroll(wheel int) error
}

func (s *Suite) activeMouse() mouseHandler {
	if s.ProtocolMode() == gattdb.ProtocolModeBoot {
		return s.BootMouse
	}
	return s.Mouse
}

func (s *Suite) MoveMouse(dx, dy int) error  { return s.activeMouse().Move(dx, dy) }
func (s *Suite) PressMouse(mask uint8) error { return s.activeMouse().Press(mask) }
func (s *Suite) ReleaseMouse() error         { return s.activeMouse().ReleaseAll() }
func (s *Suite) ClickMouse(mask uint8) error { return s.activeMouse().Click(mask) }
func (s *Suite) ScrollMouse(wheel int) error { return s.activeMouse().Scroll(wheel) }

// ReportHandler is the subset of per-characteristic handler behavior the
// GATT callback router needs: last-sent bytes for reads, CCCD-write
// dispatch, and the post-subscribe zero report.
type ReportHandler interface {
	LastBytes() []byte
	CharUUID() platform.UUID
	OnCCCDWrite(enabled bool) (wasEnabledTransition bool, err error)
	SendZeroReport() error
}

// HandlerForChar returns the handler owning charUUID, or nil if it names
// none of the four Report/Boot-Mouse characteristics.
func (s *Suite) HandlerForChar(charUUID platform.UUID) ReportHandler {
	for _, h := range []ReportHandler{s.Mouse, s.Keyboard, s.Consumer, s.BootMouse} {
		if h.CharUUID() == charUUID {
			return h
		}
	}
	return nil
}
