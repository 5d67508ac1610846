package hidhandler

import (
	"time"

	"github.com/virtualhid/blehid/internal/report"
)

// Keyboard modifier bits, package-local copies of report.Mod* used by the
// ASCII-to-keycode mapping.
const (
	modLeftCtrl   uint8 = 1 << 0
	modLeftShift  uint8 = 1 << 1
	modLeftAlt    uint8 = 1 << 2
	modLeftGUI    uint8 = 1 << 3
	modRightCtrl  uint8 = 1 << 4
	modRightShift uint8 = 1 << 5
	modRightAlt   uint8 = 1 << 6
	modRightGUI   uint8 = 1 << 7
)

// typeCharSpacing is the minimum spacing between characters in TypeText.
const typeCharSpacing = 50 * time.Millisecond

// Keyboard owns the currently-held key state for the keyboard Report
// characteristic.
type Keyboard struct {
	*core
}

// NewKeyboard builds a Keyboard handler bound to charUUID.
func NewKeyboard(charUUID [16]byte, conns ConnectionProvider, subs SubscriptionProvider, notify Notifier) *Keyboard {
	return &Keyboard{core: newCore(charUUID, report.Keyboard{}.Format(), conns, subs, notify)}
}

// SendKey sends a single-key report with the given modifiers.
func (k *Keyboard) SendKey(code, mods uint8) error {
	rpt := report.KeyboardSingle(mods, code)
	return k.send(rpt.Format())
}

// SendKeys sends a report with up to report.MaxKeys simultaneous keycodes.
func (k *Keyboard) SendKeys(codes []uint8, mods uint8) error {
	rpt := report.KeyboardMulti(mods, codes)
	return k.send(rpt.Format())
}

// ReleaseKeys sends the all-zero report (every modifier and key released).
// Sending it twice is idempotent: both notifications carry identical bytes.
func (k *Keyboard) ReleaseKeys() error {
	rpt := report.KeyboardEmpty()
	return k.send(rpt.Format())
}

// TypeText emits a press+release pair for each supported character in s, in
// order, spaced by at least typeCharSpacing. Unsupported characters are
// skipped. The empty string sends nothing and returns nil.
func (k *Keyboard) TypeText(s string) error {
	for i := 0; i < len(s); i++ {
		code, mods, ok := asciiToKeycode(s[i])
		if !ok {
			continue
		}
		if i > 0 {
			sleepFunc(typeCharSpacing)
		}
		if err := k.SendKey(code, mods); err != nil {
			return err
		}
		sleepFunc(typeCharSpacing)
		if err := k.ReleaseKeys(); err != nil {
			return err
		}
	}
	return nil
}
