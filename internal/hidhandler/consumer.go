package hidhandler

import (
	"time"

	"github.com/virtualhid/blehid/internal/report"
)

// consumerActionHoldTime is the press/release spacing for discrete consumer
// actions (play/pause, volume, ...), matching mouse Click's spacing.
const consumerActionHoldTime = 10 * time.Millisecond

// Consumer owns the last-sent bytes for the consumer-control Report
// characteristic. Every named action (PlayPause, VolUp, ...) is a
// press-then-release of a single bit.
type Consumer struct {
	*core
}

// NewConsumer builds a Consumer handler bound to charUUID.
func NewConsumer(charUUID [16]byte, conns ConnectionProvider, subs SubscriptionProvider, notify Notifier) *Consumer {
	return &Consumer{core: newCore(charUUID, report.Consumer{}.Format(), conns, subs, notify)}
}

// Control sends an arbitrary consumer bitmask passthrough report.
func (c *Consumer) Control(bits uint8) error {
	rpt := report.ConsumerFromBits(bits)
	return c.send(rpt.Format())
}

// press sends bits, holds briefly, then sends the all-zero release report.
func (c *Consumer) press(bits uint8) error {
	if err := c.Control(bits); err != nil {
		return err
	}
	sleepFunc(consumerActionHoldTime)
	return c.Control(0)
}

func (c *Consumer) PlayPause() error { return c.press(report.ConsumerPlayPause) }
func (c *Consumer) Next() error      { return c.press(report.ConsumerNext) }
func (c *Consumer) Prev() error      { return c.press(report.ConsumerPrev) }
func (c *Consumer) VolUp() error     { return c.press(report.ConsumerVolUp) }
func (c *Consumer) VolDown() error   { return c.press(report.ConsumerVolDown) }
func (c *Consumer) Mute() error      { return c.press(report.ConsumerMute) }
func (c *Consumer) Stop() error      { return c.press(report.ConsumerStop) }
