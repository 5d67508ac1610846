// Package advertising implements the advertising controller: starting
// and stopping a single advertising session, auto-restart on disconnect,
// and surfacing the last platform error.
package advertising

import (
	"errors"
	"sync"

	"github.com/virtualhid/blehid/internal/hiderrors"
	"github.com/virtualhid/blehid/internal/platform"
)

// Starter is the platform primitive the controller drives.
type Starter interface {
	StartAdvertising(params platform.AdvParams) error
	StopAdvertising() error
	IsAdvertising() bool
}

// ConnectionChecker reports whether a peer is currently connected; the
// controller refuses to start advertising while one is.
type ConnectionChecker interface {
	IsConnected() bool
}

// Controller owns the advertising parameters and auto-restart policy.
type Controller struct {
	mu sync.Mutex

	gatt  Starter
	conns ConnectionChecker

	params      platform.AdvParams
	autoRestart bool
	lastErr     error
}

// New builds a Controller with the given default parameters.
func New(gatt Starter, conns ConnectionChecker, params platform.AdvParams, autoRestart bool) *Controller {
	return &Controller{gatt: gatt, conns: conns, params: params, autoRestart: autoRestart}
}

// SetAutoRestart toggles whether Start is called again automatically after
// a disconnect leaves no peer connected.
func (c *Controller) SetAutoRestart(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoRestart = enabled
}

// SetParams replaces the advertising parameters used by the next Start.
func (c *Controller) SetParams(params platform.AdvParams) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
}

// Start begins a single advertising session. Starting while already
// advertising is a no-op success. Starting while a peer is connected is
// rejected without touching the platform: the controller never advertises
// over a live connection.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gatt.IsAdvertising() {
		return nil
	}
	if c.conns.IsConnected() {
		err := &hiderrors.AdvertisingFailedError{Reason: hiderrors.AdvInternal}
		c.lastErr = err
		return err
	}
	if err := c.gatt.StartAdvertising(c.params); err != nil {
		wrapped := &hiderrors.AdvertisingFailedError{Reason: reasonFor(err)}
		c.lastErr = wrapped
		return wrapped
	}
	c.lastErr = nil
	return nil
}

// StopAdvertising halts any in-progress advertising session.
func (c *Controller) StopAdvertising() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.gatt.StopAdvertising(); err != nil {
		c.lastErr = err
		return err
	}
	return nil
}

// IsAdvertising reports whether a session is currently active.
func (c *Controller) IsAdvertising() bool {
	return c.gatt.IsAdvertising()
}

// LastError returns the most recent Start/Stop failure, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// MaybeAutoRestart restarts advertising if auto-restart is enabled; errors
// are captured in LastError rather than propagated, since this is called
// from the disconnect path with no caller to report to.
func (c *Controller) MaybeAutoRestart() {
	c.mu.Lock()
	enabled := c.autoRestart
	c.mu.Unlock()
	if !enabled {
		return
	}
	if err := c.Start(); err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
	}
}

// reasonFor maps a platform error to one of the named AdvertisingFailed
// reasons. Backends are expected to return one of these sentinels; anything
// else is classified Internal.
func reasonFor(err error) hiderrors.AdvertisingFailReason {
	switch {
	case errors.Is(err, platform.ErrAdvDataTooLarge):
		return hiderrors.AdvDataTooLarge
	case errors.Is(err, platform.ErrAdvUnsupported):
		return hiderrors.AdvUnsupported
	case errors.Is(err, platform.ErrAdvTooMany):
		return hiderrors.AdvTooMany
	case errors.Is(err, platform.ErrAdvAlreadyStarted):
		return hiderrors.AdvAlreadyStarted
	default:
		return hiderrors.AdvInternal
	}
}
