// Package connmgr implements the connection manager: the single
// "current peer" invariant, the retain-after-disconnect rule, and the glue
// between a link-layer connect/disconnect event and the advertising and
// pairing state machines.
package connmgr

import (
	"sync"

	"github.com/virtualhid/blehid/internal/hiderrors"
	"github.com/virtualhid/blehid/internal/platform"
)

// BondChecker reports whether peer currently holds a bond.
type BondChecker interface {
	IsBonded(peer platform.PeerID) bool
}

// PairingState reports whether a peer's pairing state machine is Idle or
// Bonded (the two states under which a disconnect keeps the peer reference).
type PairingState interface {
	IsIdleOrBonded(peer platform.PeerID) bool
}

// Bonder is consulted to auto-initiate bonding on connect when required.
type Bonder interface {
	StartPair(peer platform.PeerID) error
}

// Advertiser restarts advertising when configured to do so and no peer
// remains connected.
type Advertiser interface {
	StopAdvertising() error
	MaybeAutoRestart()
}

// SubscriptionClearer clears subscription state for a departed peer.
type SubscriptionClearer interface {
	ClearPeer(peer platform.PeerID)
}

// HandlerResetter resets report-handler subscription state to Unsubscribed.
type HandlerResetter interface {
	OnDisconnect()
}

// LinkBreaker tears down the physical link to a peer.
type LinkBreaker interface {
	Disconnect(peer platform.PeerID) error
}

// Manager tracks the at-most-one current peer and the policies run on
// connect/disconnect.
type Manager struct {
	mu sync.Mutex

	peer      platform.PeerID
	connected bool
	retained  bool // true if peer is kept as a reference after a disconnect

	requireBonding bool
	autoAdvertise  bool

	bonds    BondChecker
	pairing  PairingState
	bonder   Bonder
	adv      Advertiser
	subs     SubscriptionClearer
	handlers HandlerResetter
	link     LinkBreaker

	onConnect    []func(platform.PeerID)
	onDisconnect []func(platform.PeerID)
}

// Options configures the connect/disconnect policy knobs.
type Options struct {
	RequireBonding bool
	AutoAdvertise  bool
}

// New builds a Manager wired to its collaborators.
func New(opts Options, bonds BondChecker, pairing PairingState, bonder Bonder, adv Advertiser, subs SubscriptionClearer, handlers HandlerResetter, link LinkBreaker) *Manager {
	return &Manager{
		requireBonding: opts.RequireBonding,
		autoAdvertise:  opts.AutoAdvertise,
		bonds:          bonds,
		pairing:        pairing,
		bonder:         bonder,
		adv:            adv,
		subs:           subs,
		handlers:       handlers,
		link:           link,
	}
}

// OnConnectListener registers a callback fired after a new peer connects.
func (m *Manager) OnConnectListener(f func(platform.PeerID)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = append(m.onConnect, f)
}

// OnDisconnectListener registers a callback fired after the current peer
// disconnects (whether or not its reference is retained).
func (m *Manager) OnDisconnectListener(f func(platform.PeerID)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnect = append(m.onDisconnect, f)
}

// HandleConnect records peer as the current peer, stops advertising, and
// (if RequireBonding and peer isn't yet bonded) kicks off bonding.
func (m *Manager) HandleConnect(peer platform.PeerID) {
	m.mu.Lock()
	m.peer = peer
	m.connected = true
	m.retained = false
	listeners := append([]func(platform.PeerID){}, m.onConnect...)
	m.mu.Unlock()

	_ = m.adv.StopAdvertising()

	if m.requireBonding && !m.bonds.IsBonded(peer) {
		_ = m.bonder.StartPair(peer)
	}

	for _, f := range listeners {
		f(peer)
	}
}

// HandleDisconnect clears the link. If the peer was bonded and its pairing
// state is Idle or Bonded, the PeerID reference is retained (RetainedPeer
// returns it; CurrentPeer and IsConnected report no peer) so a subsequent
// reconnect can resume cleanly; otherwise the reference is dropped.
// Report-handler subscription state always resets, and advertising
// auto-restarts if configured and no peer remains.
func (m *Manager) HandleDisconnect(peer platform.PeerID) {
	m.mu.Lock()
	if m.peer != peer {
		m.mu.Unlock()
		return
	}
	m.connected = false
	keep := m.bonds.IsBonded(peer) && m.pairing.IsIdleOrBonded(peer)
	m.retained = keep
	if !keep {
		m.peer = ""
	}
	listeners := append([]func(platform.PeerID){}, m.onDisconnect...)
	m.mu.Unlock()

	m.handlers.OnDisconnect()
	m.subs.ClearPeer(peer)

	for _, f := range listeners {
		f(peer)
	}

	m.mu.Lock()
	stillDown := !m.connected
	m.mu.Unlock()
	// A retained reference is not a connection; the link is gone either way,
	// so advertising has to come back for the host to find us again.
	if m.autoAdvertise && stillDown {
		m.adv.MaybeAutoRestart()
	}
}

// CurrentPeer returns the connected peer, if any. A retained-after-
// disconnect peer is NOT returned here: sends during the gap must fail
// with NotConnected, so only a live link counts.
func (m *Manager) CurrentPeer() (platform.PeerID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return "", false
	}
	return m.peer, true
}

// IsConnected reports whether a peer is presently link-layer connected.
func (m *Manager) IsConnected() bool {
	_, ok := m.CurrentPeer()
	return ok
}

// RetainedPeer returns the peer kept as a reference after a disconnect that
// satisfied the retain rule, or ok=false if none.
func (m *Manager) RetainedPeer() (platform.PeerID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected || !m.retained || m.peer == "" {
		return "", false
	}
	return m.peer, true
}

// Disconnect requests the platform tear down the current link. Returns
// ErrNotConnected if there is no current peer.
func (m *Manager) Disconnect() error {
	peer, ok := m.CurrentPeer()
	if !ok {
		return hiderrors.ErrNotConnected
	}
	return m.link.Disconnect(peer)
}
