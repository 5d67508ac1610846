// Package pairing implements the bond lifecycle state machine: the
// PairingRequested/PairingStarted/WaitingForBond/Bonded/PairingFailed/
// Unpairing states, the auto-confirm policy, and the
// onPairingRequested/onPairingComplete callback surface.
package pairing

import (
	"sync"

	"github.com/qmuntal/stateless"
	"github.com/virtualhid/blehid/internal/hiderrors"
	"github.com/virtualhid/blehid/internal/platform"
)

const (
	StateIdle             = "idle"
	StatePairingRequested = "pairing_requested"
	StatePairingStarted   = "pairing_started"
	StateWaitingForBond   = "waiting_for_bond"
	StateBonded           = "bonded"
	StatePairingFailed    = "pairing_failed"
	StateUnpairing        = "unpairing"
)

const (
	triggerStart        = "start"
	triggerHostRequest  = "host_request"
	triggerBondBonding  = "bond_bonding"
	triggerBondBonded   = "bond_bonded"
	triggerBondNone     = "bond_none"
	triggerCancel       = "cancel"
	triggerRetry        = "retry"
	triggerRemoveBond   = "remove_bond"
	triggerUnpairedDone = "unpaired_done"
)

// Bonder is the platform primitive used to initiate/remove a bond.
type Bonder interface {
	StartBonding(peer platform.PeerID) error
	RemoveBond(peer platform.PeerID) error
}

// LinkBreaker tears down a connected peer (used when RemoveBond is called
// on a still-connected peer).
type LinkBreaker interface {
	Disconnect(peer platform.PeerID) error
}

// Info describes a bonded device for bonded_devices().
type Info struct {
	Peer platform.PeerID
}

// Machine is the pairing state machine. It tracks at most one "active"
// pairing attempt at a time (matching the single-peer connection model) plus
// the set of devices with a completed bond that RemoveBond has not removed.
type Machine struct {
	mu  sync.Mutex
	fsm *stateless.StateMachine

	activePeer platform.PeerID
	bonded     map[platform.PeerID]bool

	autoAccept bool
	confirm    func(peer platform.PeerID, variant platform.PairingVariant) bool

	onRequested func(peer platform.PeerID, variant platform.PairingVariant)
	onComplete  func(peer platform.PeerID, ok bool)

	bonder Bonder
	link   LinkBreaker
}

// New builds a Machine in the Idle state with auto-accept enabled
// ("Just Works"/numeric confirmation accepted) to maximize host
// compatibility.
func New(bonder Bonder, link LinkBreaker) *Machine {
	m := &Machine{
		bonded:     make(map[platform.PeerID]bool),
		autoAccept: true,
		bonder:     bonder,
		link:       link,
	}
	m.fsm = stateless.NewStateMachine(StateIdle)
	m.fsm.Configure(StateIdle).
		Permit(triggerStart, StatePairingRequested).
		Permit(triggerHostRequest, StatePairingStarted)
	m.fsm.Configure(StatePairingRequested).
		Permit(triggerHostRequest, StatePairingStarted).
		Permit(triggerBondBonding, StateWaitingForBond).
		Permit(triggerCancel, StateIdle).
		Permit(triggerBondNone, StatePairingFailed)
	m.fsm.Configure(StatePairingStarted).
		Permit(triggerBondBonding, StateWaitingForBond).
		// Some stacks jump straight to Bonded without a Bonding broadcast.
		Permit(triggerBondBonded, StateBonded).
		Permit(triggerBondNone, StatePairingFailed).
		Permit(triggerCancel, StateIdle)
	m.fsm.Configure(StateWaitingForBond).
		Permit(triggerBondBonded, StateBonded).
		Permit(triggerBondNone, StatePairingFailed).
		Permit(triggerCancel, StateIdle)
	m.fsm.Configure(StateBonded).
		Permit(triggerRemoveBond, StateUnpairing).
		Permit(triggerStart, StatePairingRequested)
	m.fsm.Configure(StatePairingFailed).
		Permit(triggerRetry, StatePairingRequested).
		Permit(triggerCancel, StateIdle)
	m.fsm.Configure(StateUnpairing).
		Permit(triggerUnpairedDone, StateIdle)
	return m
}

// SetAutoAccept toggles the default auto-confirm policy; applications may
// disable it to require an explicit confirmation hook.
func (m *Machine) SetAutoAccept(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoAccept = enabled
}

// SetConfirmHook installs a rejection/confirmation override invoked instead
// of the default auto-accept when auto-accept is disabled.
func (m *Machine) SetConfirmHook(f func(peer platform.PeerID, variant platform.PairingVariant) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirm = f
}

// OnPairingRequested registers the callback fired when the host initiates a
// pairing UI flow.
func (m *Machine) OnPairingRequested(f func(peer platform.PeerID, variant platform.PairingVariant)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRequested = f
}

// OnPairingComplete registers the callback fired when a pairing attempt
// reaches a terminal (success or failure) outcome.
func (m *Machine) OnPairingComplete(f func(peer platform.PeerID, ok bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onComplete = f
}

// State returns the current FSM state for peer if it is the active pairing
// peer; otherwise Idle if never paired, or Bonded if bonded and inactive.
func (m *Machine) State(peer platform.PeerID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activePeer == peer {
		return m.fsm.MustState().(string)
	}
	if m.bonded[peer] {
		return StateBonded
	}
	return StateIdle
}

// StartPair begins pairing with peer: Idle->PairingRequested, then asks the
// platform to initiate bonding.
func (m *Machine) StartPair(peer platform.PeerID) error {
	m.mu.Lock()
	if m.activePeer != "" && m.activePeer != peer {
		m.mu.Unlock()
		return hiderrors.ErrIO
	}
	m.activePeer = peer
	trigger := triggerStart
	if m.fsm.MustState().(string) == StatePairingFailed {
		trigger = triggerRetry
	}
	canFire, _ := m.fsm.CanFire(trigger)
	m.mu.Unlock()
	if !canFire {
		return hiderrors.ErrIO
	}
	m.mu.Lock()
	err := m.fsm.Fire(trigger)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.bonder.StartBonding(peer)
}

// CancelPair cancels an in-progress pairing attempt, returning to Idle.
func (m *Machine) CancelPair() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok, _ := m.fsm.CanFire(triggerCancel); !ok {
		return nil
	}
	if err := m.fsm.Fire(triggerCancel); err != nil {
		return err
	}
	m.activePeer = ""
	return nil
}

// OnPairingRequestEvent handles a host-initiated pairing UI event (platform
// callback). It transitions PairingRequested->PairingStarted and applies
// the auto-accept/confirm-hook policy, returning the confirm/reject
// decision for the platform to relay.
func (m *Machine) OnPairingRequestEvent(peer platform.PeerID, variant platform.PairingVariant) bool {
	m.mu.Lock()
	m.activePeer = peer
	if ok, _ := m.fsm.CanFire(triggerHostRequest); ok {
		_ = m.fsm.Fire(triggerHostRequest)
	}
	autoAccept := m.autoAccept
	confirm := m.confirm
	requested := m.onRequested
	m.mu.Unlock()

	if requested != nil {
		requested(peer, variant)
	}

	if autoAccept {
		return true
	}
	if confirm != nil {
		return confirm(peer, variant)
	}
	return false
}

// OnBondStateChange handles the platform's bond-state broadcast. A broadcast
// with no pairing attempt in flight adopts the peer: some hosts initiate
// bonding without any preceding pairing-request UI event.
func (m *Machine) OnBondStateChange(peer platform.PeerID, state platform.BondState) {
	m.mu.Lock()
	if m.activePeer == "" {
		m.activePeer = peer
		if ok, _ := m.fsm.CanFire(triggerHostRequest); ok {
			_ = m.fsm.Fire(triggerHostRequest)
		}
	} else if m.activePeer != peer {
		m.mu.Unlock()
		return
	}
	var trigger string
	switch state {
	case platform.BondStateBonding:
		trigger = triggerBondBonding
	case platform.BondStateBonded:
		trigger = triggerBondBonded
	default:
		trigger = triggerBondNone
	}
	canFire, _ := m.fsm.CanFire(trigger)
	if !canFire {
		m.mu.Unlock()
		return
	}
	_ = m.fsm.Fire(trigger)
	newState := m.fsm.MustState().(string)
	if newState == StateBonded {
		m.bonded[peer] = true
	}
	complete := m.onComplete
	m.mu.Unlock()

	if complete != nil && (newState == StateBonded || newState == StatePairingFailed) {
		complete(peer, newState == StateBonded)
	}
}

// IsBonded reports whether peer has a completed bond on record.
func (m *Machine) IsBonded(peer platform.PeerID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bonded[peer]
}

// IsIdleOrBonded reports whether peer's pairing state is Idle or Bonded,
// the gate connmgr uses to decide whether to retain a peer reference across
// a link-layer disconnect.
func (m *Machine) IsIdleOrBonded(peer platform.PeerID) bool {
	s := m.State(peer)
	return s == StateIdle || s == StateBonded
}

// BondedDevices lists every peer with a completed bond.
func (m *Machine) BondedDevices() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.bonded))
	for p, ok := range m.bonded {
		if ok {
			out = append(out, Info{Peer: p})
		}
	}
	return out
}

// RemoveBond deletes peer's stored bond. If peer is currently connected,
// the connection is torn down after bond removal completes.
func (m *Machine) RemoveBond(peer platform.PeerID, connected bool) error {
	m.mu.Lock()
	if m.activePeer == peer {
		if ok, _ := m.fsm.CanFire(triggerRemoveBond); ok {
			_ = m.fsm.Fire(triggerRemoveBond)
		}
	}
	delete(m.bonded, peer)
	m.mu.Unlock()

	if err := m.bonder.RemoveBond(peer); err != nil {
		return err
	}

	m.mu.Lock()
	if m.activePeer == peer {
		if ok, _ := m.fsm.CanFire(triggerUnpairedDone); ok {
			_ = m.fsm.Fire(triggerUnpairedDone)
			m.activePeer = ""
		}
	}
	m.mu.Unlock()

	if connected && m.link != nil {
		return m.link.Disconnect(peer)
	}
	return nil
}
