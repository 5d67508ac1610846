package hidhandler

import (
	"github.com/virtualhid/blehid/internal/report"
)

// BootMouse mirrors Mouse but on the Boot Mouse Input Report characteristic,
// using the 3-byte boot-protocol wire form (no wheel). It keeps its own
// sticky button state independent of the report-protocol Mouse handler,
// since a host only ever uses one of the two at a time (selected by the
// current Protocol Mode).
type BootMouse struct {
	*core
	buttons uint8
}

// NewBootMouse builds a BootMouse handler bound to charUUID.
func NewBootMouse(charUUID [16]byte, conns ConnectionProvider, subs SubscriptionProvider, notify Notifier) *BootMouse {
	return &BootMouse{core: newCore(charUUID, report.Mouse{}.FormatBoot(), conns, subs, notify)}
}

func (m *BootMouse) Move(dx, dy int) error {
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
	return m.send(rpt.FormatBoot())
}

func (m *BootMouse) Press(mask uint8) error {
	m.mu.Lock()
	m.buttons |= mask & 0x07
	buttons := m.buttons
	m.mu.Unlock()
	rpt := report.NewMouse(buttons, 0, 0, 0)
	return m.send(rpt.FormatBoot())
}

func (m *BootMouse) ReleaseAll() error {
	m.mu.Lock()
	m.buttons = 0
	m.mu.Unlock()
	rpt := report.NewMouse(0, 0, 0, 0)
	return m.send(rpt.FormatBoot())
}

func (m *BootMouse) Click(mask uint8) error {
	if err := m.Press(mask); err != nil {
		return err
	}
	sleepFunc(clickHoldTime)
	return m.ReleaseAll()
}

func (m *BootMouse) Scroll(int) error {
	// Boot protocol carries no wheel axis; scroll is a no-op success so
	// callers don't need to special-case the active protocol mode.
	return nil
}
