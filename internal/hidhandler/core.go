// Package hidhandler implements the per-report-ID report handlers: Mouse,
// Keyboard, Consumer. Each owns the last bytes it sent (for idempotent
// re-reads), a small Unsubscribed/Subscribed state machine, and the
// clamping/notify-retry rules common to every report kind.
package hidhandler

import (
	"sync"
	"time"

	"github.com/qmuntal/stateless"
	"github.com/virtualhid/blehid/internal/hiderrors"
	"github.com/virtualhid/blehid/internal/platform"
)

const (
	stateUnsubscribed = "unsubscribed"
	stateSubscribed   = "subscribed"

	triggerEnable     = "cccd_enable"
	triggerDisable    = "cccd_disable"
	triggerDisconnect = "peer_disconnect"
	triggerProtoFlip  = "protocol_flip"
)

// notifyRetries is the number of notify attempts before NotifyFailed.
const notifyRetries = 2

// notifyBackoff is the pause between notify attempts.
var notifyBackoff = 10 * time.Millisecond

// ConnectionProvider resolves the single current peer, if any.
type ConnectionProvider interface {
	CurrentPeer() (platform.PeerID, bool)
}

// SubscriptionProvider reports whether a peer is subscribed to a characteristic.
type SubscriptionProvider interface {
	IsSubscribed(peer platform.PeerID, char platform.UUID) bool
}

// Notifier pushes a value to the platform backend.
type Notifier interface {
	Notify(charUUID platform.UUID, peer platform.PeerID, value []byte) error
}

// sleepFunc is overridable in tests to avoid real delays.
var sleepFunc = time.Sleep

// core is embedded by each report-ID-specific handler; it is not exported
// because the public surface is the per-report-ID type, not a shared base
// class.
type core struct {
	mu        sync.Mutex
	charUUID  platform.UUID
	zeroBytes []byte
	lastBytes []byte
	fsm       *stateless.StateMachine

	conns  ConnectionProvider
	subs   SubscriptionProvider
	notify Notifier
}

func newCore(charUUID platform.UUID, zero []byte, conns ConnectionProvider, subs SubscriptionProvider, notify Notifier) *core {
	c := &core{
		charUUID:  charUUID,
		zeroBytes: append([]byte(nil), zero...),
		lastBytes: append([]byte(nil), zero...),
		conns:     conns,
		subs:      subs,
		notify:    notify,
	}
	c.fsm = stateless.NewStateMachine(stateUnsubscribed)
	c.fsm.Configure(stateUnsubscribed).Permit(triggerEnable, stateSubscribed)
	c.fsm.Configure(stateSubscribed).
		Permit(triggerDisable, stateUnsubscribed).
		Permit(triggerDisconnect, stateUnsubscribed).
		Permit(triggerProtoFlip, stateUnsubscribed)
	return c
}

// OnCCCDWrite advances the handler's subscription state machine. It returns
// true if this write transitioned Unsubscribed -> Subscribed, which callers
// use to trigger the "initial zero report". A write to a
// trigger not permitted from the current state (e.g. a stray disable while
// already unsubscribed) is a no-op, not an error.
func (c *core) OnCCCDWrite(enabled bool) (wasEnabledTransition bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.fsm.MustState().(string)
	trigger := triggerDisable
	if enabled {
		trigger = triggerEnable
	}
	if ok, _ := c.fsm.CanFire(trigger); !ok {
		return false, nil
	}
	if err := c.fsm.Fire(trigger); err != nil {
		return false, err
	}
	after := c.fsm.MustState().(string)
	return before == stateUnsubscribed && after == stateSubscribed, nil
}

// OnDisconnect resets the handler to Unsubscribed.
func (c *core) OnDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, _ := c.fsm.CanFire(triggerDisconnect); ok {
		_ = c.fsm.Fire(triggerDisconnect)
	}
}

// OnProtocolModeFlip resets the handler to Unsubscribed.
func (c *core) OnProtocolModeFlip() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok, _ := c.fsm.CanFire(triggerProtoFlip); ok {
		_ = c.fsm.Fire(triggerProtoFlip)
	}
}

func (c *core) isSubscribedLocked(peer platform.PeerID) bool {
	st := c.fsm.MustState().(string)
	return st == stateSubscribed && c.subs.IsSubscribed(peer, c.charUUID)
}

// LastBytes returns the most recently sent (or initial) report bytes.
func (c *core) LastBytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.lastBytes...)
}

// CharUUID returns the GATT characteristic this handler owns, for router
// dispatch tables keyed by UUID.
func (c *core) CharUUID() platform.UUID {
	return c.charUUID
}

// SendZeroReport pushes the all-zero report, used on the
// Unsubscribed->Subscribed transition so the host sees a definite initial
// state. It bypasses send's subscription check (the caller
// already knows the peer just subscribed) but still goes through the
// notify-retry path.
func (c *core) SendZeroReport() error {
	c.mu.Lock()
	zero := append([]byte(nil), c.zeroBytes...)
	c.mu.Unlock()

	peer, ok := c.conns.CurrentPeer()
	if !ok {
		return hiderrors.ErrNotConnected
	}
	var lastErr error
	for attempt := 0; attempt < notifyRetries; attempt++ {
		if attempt > 0 {
			sleepFunc(notifyBackoff)
		}
		if err := c.notify.Notify(c.charUUID, peer, zero); err != nil {
			lastErr = err
			continue
		}
		c.mu.Lock()
		c.lastBytes = zero
		c.mu.Unlock()
		return nil
	}
	_ = lastErr
	return hiderrors.ErrNotifyFailed
}

// send resolves the current peer, checks connection/subscription, and
// notifies with up to notifyRetries attempts. It never blocks the caller
// beyond the bounded retry backoff.
func (c *core) send(bytes []byte) error {
	peer, ok := c.conns.CurrentPeer()
	if !ok {
		return hiderrors.ErrNotConnected
	}

	c.mu.Lock()
	if !c.isSubscribedLocked(peer) {
		c.mu.Unlock()
		return hiderrors.ErrNotSubscribed
	}
	c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < notifyRetries; attempt++ {
		if attempt > 0 {
			sleepFunc(notifyBackoff)
		}
		if err := c.notify.Notify(c.charUUID, peer, bytes); err != nil {
			lastErr = err
			continue
		}
		c.mu.Lock()
		c.lastBytes = append([]byte(nil), bytes...)
		c.mu.Unlock()
		return nil
	}
	_ = lastErr
	return hiderrors.ErrNotifyFailed
}
