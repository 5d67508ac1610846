package hidhandler

import (
	"time"

	"github.com/virtualhid/blehid/internal/report"
)

// Mouse owns the sticky button state and last-sent bytes for the mouse
// Report characteristic. The boot-protocol path is the separate BootMouse
// handler, which keeps its own button state.
type Mouse struct {
	*core
	buttons uint8
}

// NewMouse builds a Mouse handler bound to charUUID, initially Unsubscribed
// with a zero-valued last report.
func NewMouse(charUUID [16]byte, conns ConnectionProvider, subs SubscriptionProvider, notify Notifier) *Mouse {
	return &Mouse{core: newCore(charUUID, report.Mouse{}.Format(), conns, subs, notify)}
}

// Move sends a relative motion report, preserving the current sticky button
// state, with wheel=0. dx/dy out of [-127,127] are rejected with
// *report.OutOfRangeError rather than silently clamped.
func (m *Mouse) Move(dx, dy int) error {
	if err := report.CheckI8Range("dx", dx); err != nil {
		return err
	}
	if err := report.CheckI8Range("dy", dy); err != nil {
		return err
	}
	m.mu.Lock()
	buttons := m.buttons
	m.mu.Unlock()
	rpt := report.NewMouse(buttons, dx, dy, 0)
	return m.send(rpt.Format())
}

// Scroll sends a wheel-only report, preserving sticky buttons, dx=dy=0.
func (m *Mouse) Scroll(wheel int) error {
	if err := report.CheckI8Range("wheel", wheel); err != nil {
		return err
	}
	m.mu.Lock()
	buttons := m.buttons
	m.mu.Unlock()
	rpt := report.NewMouse(buttons, 0, 0, wheel)
	return m.send(rpt.Format())
}

// Press adds the given button mask to the sticky state and sends a report.
func (m *Mouse) Press(mask uint8) error {
	m.mu.Lock()
	m.buttons |= mask & 0x07
	buttons := m.buttons
	m.mu.Unlock()
	rpt := report.NewMouse(buttons, 0, 0, 0)
	return m.send(rpt.Format())
}

// ReleaseAll clears all sticky buttons and sends a zero-button report.
func (m *Mouse) ReleaseAll() error {
	m.mu.Lock()
	m.buttons = 0
	m.mu.Unlock()
	rpt := report.NewMouse(0, 0, 0, 0)
	return m.send(rpt.Format())
}

// Click presses mask, waits clickHoldTime, then releases all buttons. The
// release is best-effort: if the intervening press failed (not connected,
// not subscribed), Click returns that error without attempting the release.
func (m *Mouse) Click(mask uint8) error {
	if err := m.Press(mask); err != nil {
		return err
	}
	sleepFunc(clickHoldTime)
	return m.ReleaseAll()
}

// clickHoldTime is the press/release spacing for Click.
const clickHoldTime = 10 * time.Millisecond
