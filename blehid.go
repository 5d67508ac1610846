// Package blehid is the public HID facade: a thin aggregator over the
// mouse/keyboard/consumer report handlers, the connection manager, the
// pairing state machine, and the advertising controller, all serialized
// through a single cooperative bluetooth task.
package blehid

import (
	"context"
	"log/slog"
	"time"

	"github.com/virtualhid/blehid/internal/advertising"
	"github.com/virtualhid/blehid/internal/bustask"
	"github.com/virtualhid/blehid/internal/connmgr"
	"github.com/virtualhid/blehid/internal/gattdb"
	"github.com/virtualhid/blehid/internal/gattrouter"
	"github.com/virtualhid/blehid/internal/hiderrors"
	"github.com/virtualhid/blehid/internal/hidhandler"
	"github.com/virtualhid/blehid/internal/identity"
	hidlog "github.com/virtualhid/blehid/internal/log"
	"github.com/virtualhid/blehid/internal/pairing"
	"github.com/virtualhid/blehid/internal/platform"
	"github.com/virtualhid/blehid/internal/subscription"

	"github.com/google/uuid"
)

// defaultCallTimeout bounds every facade call's wait for the bluetooth task;
// callers never block longer than about one notification round-trip.
const defaultCallTimeout = 2 * time.Second

// BondStateCode numbers the pairing FSM states for bond_state(addr).
type BondStateCode uint8

const (
	BondStateIdle BondStateCode = iota
	BondStatePairingRequested
	BondStatePairingStarted
	BondStateWaitingForBond
	BondStateBonded
	BondStatePairingFailed
	BondStateUnpairing
)

var bondStateCodes = map[string]BondStateCode{
	pairing.StateIdle:             BondStateIdle,
	pairing.StatePairingRequested: BondStatePairingRequested,
	pairing.StatePairingStarted:   BondStatePairingStarted,
	pairing.StateWaitingForBond:   BondStateWaitingForBond,
	pairing.StateBonded:           BondStateBonded,
	pairing.StatePairingFailed:    BondStatePairingFailed,
	pairing.StateUnpairing:        BondStateUnpairing,
}

// PeerInfo describes the currently connected peer.
type PeerInfo struct {
	Peer platform.PeerID
}

// DeviceInfo describes a device on record in the identity store's bond list.
type DeviceInfo struct {
	Address    string
	LastPaired bool
}

// Options configures a new Engine.
type Options struct {
	// IdentityPath is the on-disk path for the persisted identity record
	// (identity UUID, device name, last-paired address, bond list).
	IdentityPath string
	// DeviceName replaces the identity store's device name while the stored
	// name is still identity.DefaultDeviceName; once the stored name differs
	// it is ignored (use SetIdentity to rotate).
	DeviceName string
	// RequireBonding and AutoAdvertise are the connection-manager policy
	// knobs.
	RequireBonding bool
	AutoAdvertise  bool
	// AdvParams seeds the advertising controller's default parameters; the
	// ServiceUUID and DeviceName fields are filled in from gattdb/identity
	// if left zero.
	AdvParams platform.AdvParams
	// QueueDepth sizes the bluetooth task's work queue (bustask.New).
	QueueDepth int
	// CallTimeout bounds every facade call's wait on the bluetooth task;
	// zero defaults to defaultCallTimeout.
	CallTimeout time.Duration

	Logger    *slog.Logger
	RawLogger hidlog.RawLogger
}

// connProviderProxy and connCheckerProxy break the connmgr<->hidhandler and
// connmgr<->advertising construction cycles: connmgr.New needs an Advertiser
// built from a ConnectionChecker that is connmgr itself, and hidhandler.
// NewSuite needs a ConnectionProvider that is connmgr itself. Both proxies
// are bound to the real *connmgr.Manager immediately after it's built.
type connProviderProxy struct{ m *connmgr.Manager }

func (p *connProviderProxy) CurrentPeer() (platform.PeerID, bool) {
	if p.m == nil {
		return "", false
	}
	return p.m.CurrentPeer()
}

type connCheckerProxy struct{ m *connmgr.Manager }

func (p *connCheckerProxy) IsConnected() bool {
	if p.m == nil {
		return false
	}
	return p.m.IsConnected()
}

// tracingNotifier hex-dumps every outbound report before handing it to the
// backend, mirroring what the router does for inbound writes.
type tracingNotifier struct {
	gatt platform.GATT
	raw  hidlog.RawLogger
}

func (n *tracingNotifier) Notify(charUUID platform.UUID, peer platform.PeerID, value []byte) error {
	n.raw.Log(false, value)
	return n.gatt.Notify(charUUID, peer, value)
}

// Engine is the HID peripheral engine: one per platform.GATT backend.
type Engine struct {
	gatt platform.GATT
	task *bustask.Task

	logger *slog.Logger
	raw    hidlog.RawLogger

	identity *identity.Store
	subs     *subscription.Tracker
	suite    *hidhandler.Suite
	conn     *connmgr.Manager
	pairing  *pairing.Machine
	adv      *advertising.Controller
	router   *gattrouter.Router

	callTimeout time.Duration
	initialized bool
}

// New wires every internal component against gatt but does not yet touch it;
// call Initialize to register callbacks and install the GATT service tree.
func New(gatt platform.GATT, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	raw := opts.RawLogger
	if raw == nil {
		raw = hidlog.NewRaw(nil)
	}

	idStore, err := identity.Open(opts.IdentityPath)
	if err != nil {
		return nil, err
	}
	if opts.DeviceName != "" && idStore.DeviceName() == identity.DefaultDeviceName {
		_ = idStore.SetIdentity(idStore.IdentityUUID(), opts.DeviceName)
	}

	subs := subscription.New()

	connProxy := &connProviderProxy{}
	suite := hidhandler.NewSuite(connProxy, subs, &tracingNotifier{gatt: gatt, raw: raw})

	checkerProxy := &connCheckerProxy{}
	advParams := opts.AdvParams
	if advParams.ServiceUUID == (platform.UUID{}) {
		advParams.ServiceUUID = gattdb.ServiceUUID
	}
	if advParams.DeviceName == "" {
		advParams.DeviceName = idStore.DeviceName()
	}
	if len(advParams.ManufacturerBuf) == 0 {
		// The identity UUID rides in manufacturer data so hosts can
		// recognize the peripheral across address rotations. 0xFFFF is the
		// SIG's reserved test company identifier.
		id := idStore.IdentityUUID()
		advParams.ManufacturerBuf = id[:]
		if advParams.ManufacturerID == 0 {
			advParams.ManufacturerID = 0xFFFF
		}
	}
	advCtrl := advertising.New(gatt, checkerProxy, advParams, opts.AutoAdvertise)

	pairMachine := pairing.New(gatt, gatt)

	connOpts := connmgr.Options{RequireBonding: opts.RequireBonding, AutoAdvertise: opts.AutoAdvertise}
	connMgr := connmgr.New(connOpts, pairMachine, pairMachine, pairMachine, advCtrl, subs, suite, gatt)
	connProxy.m = connMgr
	checkerProxy.m = connMgr

	router := gattrouter.New(suite, subs, logger, raw)

	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	e := &Engine{
		gatt:        gatt,
		task:        bustask.New(opts.QueueDepth),
		logger:      logger,
		raw:         raw,
		identity:    idStore,
		subs:        subs,
		suite:       suite,
		conn:        connMgr,
		pairing:     pairMachine,
		adv:         advCtrl,
		router:      router,
		callTimeout: callTimeout,
	}

	pairMachine.OnPairingRequested(func(peer platform.PeerID, variant platform.PairingVariant) {
		logger.Info("pairing requested", "peer", peer, "variant", variant)
	})
	pairMachine.OnPairingComplete(func(peer platform.PeerID, ok bool) {
		_ = idStore.RecordBond(string(peer), ok)
		if ok {
			_ = idStore.SetLastPaired(string(peer))
		}
		logger.Info("pairing complete", "peer", peer, "bonded", ok)
	})

	return e, nil
}

func (e *Engine) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.callTimeout)
}

func (e *Engine) callbacks() platform.Callbacks {
	return platform.Callbacks{
		OnConnect: func(peer platform.PeerID) {
			e.task.Post(func() { e.conn.HandleConnect(peer) })
		},
		OnDisconnect: func(peer platform.PeerID) {
			e.task.Post(func() { e.conn.HandleDisconnect(peer) })
		},
		OnRead: func(charUUID platform.UUID, peer platform.PeerID, offset int) ([]byte, error) {
			ctx, cancel := e.ctx()
			defer cancel()
			return bustask.Call(ctx, e.task, func() ([]byte, error) {
				return e.router.OnRead(charUUID, peer, offset)
			})
		},
		OnWrite: func(charUUID platform.UUID, peer platform.PeerID, value []byte) error {
			ctx, cancel := e.ctx()
			defer cancel()
			return bustask.Run(ctx, e.task, func() error {
				return e.router.OnWrite(charUUID, peer, value)
			})
		},
		OnCCCDWrite: func(charUUID platform.UUID, peer platform.PeerID, value []byte) error {
			ctx, cancel := e.ctx()
			defer cancel()
			return bustask.Run(ctx, e.task, func() error {
				return e.router.OnCCCDWrite(charUUID, peer, value)
			})
		},
		OnBondStateChange: func(peer platform.PeerID, state platform.BondState) {
			e.task.Post(func() { e.pairing.OnBondStateChange(peer, state) })
		},
		OnPairingRequest: func(peer platform.PeerID, variant platform.PairingVariant) bool {
			ctx, cancel := e.ctx()
			defer cancel()
			result, err := bustask.Call(ctx, e.task, func() (bool, error) {
				return e.pairing.OnPairingRequestEvent(peer, variant), nil
			})
			return err == nil && result
		},
		OnAdvertisingDone: func(err error) {
			if err != nil {
				e.logger.Warn("advertising session ended with error", "error", err)
			}
		},
	}
}

// Initialize registers callbacks with the platform backend and installs the
// HID service tree. Safe to call more than once; later calls are no-ops.
func (e *Engine) Initialize() error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error {
		if e.initialized {
			return nil
		}
		if err := e.gatt.Init(e.callbacks()); err != nil {
			return err
		}
		if err := e.gatt.AddService(gattdb.Build()); err != nil {
			return err
		}
		e.initialized = true
		return nil
	})
}

// Close stops the bluetooth task. The engine is unusable afterward.
func (e *Engine) Close() {
	e.task.Close()
}

func (e *Engine) requireInit() error {
	if !e.initialized {
		return hiderrors.ErrNotInitialized
	}
	return nil
}

// StartAdvertising begins a single advertising session.
func (e *Engine) StartAdvertising() error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error {
		if err := e.requireInit(); err != nil {
			return err
		}
		return e.adv.Start()
	})
}

// StopAdvertising halts any in-progress advertising session.
func (e *Engine) StopAdvertising() error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.adv.StopAdvertising() })
}

// IsAdvertising reports whether a session is currently active.
func (e *Engine) IsAdvertising() bool {
	ctx, cancel := e.ctx()
	defer cancel()
	v, _ := bustask.Call(ctx, e.task, func() (bool, error) { return e.adv.IsAdvertising(), nil })
	return v
}

// IsConnected reports whether a peer is presently link-layer connected.
func (e *Engine) IsConnected() bool {
	ctx, cancel := e.ctx()
	defer cancel()
	v, _ := bustask.Call(ctx, e.task, func() (bool, error) { return e.conn.IsConnected(), nil })
	return v
}

// ConnectedPeer returns the current peer, if any.
func (e *Engine) ConnectedPeer() (PeerInfo, bool) {
	ctx, cancel := e.ctx()
	defer cancel()
	type result struct {
		info PeerInfo
		ok   bool
	}
	r, _ := bustask.Call(ctx, e.task, func() (result, error) {
		peer, ok := e.conn.CurrentPeer()
		return result{PeerInfo{Peer: peer}, ok}, nil
	})
	return r.info, r.ok
}

// Disconnect tears down the current link, if any.
func (e *Engine) Disconnect() error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.conn.Disconnect() })
}

// MoveMouse sends a relative mouse movement report.
func (e *Engine) MoveMouse(dx, dy int) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.suite.MoveMouse(dx, dy) })
}

// PressMouse updates the sticky mouse button mask.
func (e *Engine) PressMouse(buttons uint8) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.suite.PressMouse(buttons) })
}

// ReleaseMouseButtons releases every held mouse button.
func (e *Engine) ReleaseMouseButtons() error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.suite.ReleaseMouse() })
}

// ClickMouse presses buttons, holds briefly, then releases them.
func (e *Engine) ClickMouse(buttons uint8) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.suite.ClickMouse(buttons) })
}

// Scroll sends a wheel-only mouse report.
func (e *Engine) Scroll(wheel int) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.suite.ScrollMouse(wheel) })
}

// SendKey sends a single-key keyboard report.
func (e *Engine) SendKey(code, mods uint8) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.suite.Keyboard.SendKey(code, mods) })
}

// SendKeys sends a multi-key keyboard report (up to report.MaxKeys keys).
func (e *Engine) SendKeys(codes []uint8, mods uint8) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.suite.Keyboard.SendKeys(codes, mods) })
}

// ReleaseKeys releases every held key and modifier.
func (e *Engine) ReleaseKeys() error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.suite.Keyboard.ReleaseKeys() })
}

// TypeText emits a press+release pair per supported character in s.
func (e *Engine) TypeText(s string) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.suite.Keyboard.TypeText(s) })
}

// SendConsumer sends an arbitrary consumer-control bitmask passthrough report.
func (e *Engine) SendConsumer(bits uint8) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.suite.Consumer.Control(bits) })
}

// PlayPause presses and releases the consumer play/pause key.
func (e *Engine) PlayPause() error { return e.consumerAction(e.suite.Consumer.PlayPause) }

// NextTrack presses and releases the consumer next-track key.
func (e *Engine) NextTrack() error { return e.consumerAction(e.suite.Consumer.Next) }

// PrevTrack presses and releases the consumer previous-track key.
func (e *Engine) PrevTrack() error { return e.consumerAction(e.suite.Consumer.Prev) }

// VolUp presses and releases the consumer volume-up key.
func (e *Engine) VolUp() error { return e.consumerAction(e.suite.Consumer.VolUp) }

// VolDown presses and releases the consumer volume-down key.
func (e *Engine) VolDown() error { return e.consumerAction(e.suite.Consumer.VolDown) }

// Mute presses and releases the consumer mute key.
func (e *Engine) Mute() error { return e.consumerAction(e.suite.Consumer.Mute) }

func (e *Engine) consumerAction(fn func() error) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, fn)
}

// SetIdentity rotates the persistent peripheral identity, used to appear as
// the same device after an application reinstallation.
func (e *Engine) SetIdentity(id uuid.UUID, name string) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.identity.SetIdentity(id, name) })
}

// BondedDevices lists every address on record in the identity store's
// persisted bond list.
func (e *Engine) BondedDevices() []DeviceInfo {
	ctx, cancel := e.ctx()
	defer cancel()
	v, _ := bustask.Call(ctx, e.task, func() ([]DeviceInfo, error) {
		addrs := e.identity.BondedAddresses()
		lastPaired := e.identity.LastPaired()
		out := make([]DeviceInfo, 0, len(addrs))
		for _, a := range addrs {
			out = append(out, DeviceInfo{Address: a, LastPaired: a == lastPaired})
		}
		return out, nil
	})
	return v
}

// IsBonded reports whether addr is on record as bonded.
func (e *Engine) IsBonded(addr string) bool {
	ctx, cancel := e.ctx()
	defer cancel()
	v, _ := bustask.Call(ctx, e.task, func() (bool, error) {
		for _, a := range e.identity.BondedAddresses() {
			if a == addr {
				return true, nil
			}
		}
		return false, nil
	})
	return v
}

// RemoveBond deletes addr's bond, then disconnects it if it is connected.
func (e *Engine) RemoveBond(addr string) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error {
		peer := platform.PeerID(addr)
		connected := e.conn.IsConnected()
		if p, ok := e.conn.CurrentPeer(); ok {
			connected = connected && p == peer
		} else {
			connected = false
		}
		if err := e.pairing.RemoveBond(peer, connected); err != nil {
			return err
		}
		return e.identity.RecordBond(addr, false)
	})
}

// Pair initiates pairing with addr.
func (e *Engine) Pair(addr string) error {
	ctx, cancel := e.ctx()
	defer cancel()
	return bustask.Run(ctx, e.task, func() error { return e.pairing.StartPair(platform.PeerID(addr)) })
}

// BondState returns the pairing FSM state code for addr.
func (e *Engine) BondState(addr string) BondStateCode {
	ctx, cancel := e.ctx()
	defer cancel()
	v, _ := bustask.Call(ctx, e.task, func() (BondStateCode, error) {
		return bondStateCodes[e.pairing.State(platform.PeerID(addr))], nil
	})
	return v
}
