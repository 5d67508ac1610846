// Package platformtest provides an in-memory platform.GATT fake used by the
// engine's unit tests, standing in for a real BLE radio.
package platformtest

import (
	"fmt"
	"sync"

	"github.com/virtualhid/blehid/internal/platform"
)

// Fake is an in-process platform.GATT implementation. Tests drive it
// directly (Fake.Connect, Fake.WriteCCCD, ...) to simulate host behavior.
type Fake struct {
	mu sync.Mutex

	cb          platform.Callbacks
	service     *platform.ServiceDef
	advertising bool
	advParams   platform.AdvParams
	peer        platform.PeerID
	connected   bool

	Notifications []Notification
}

// Notification records one Notify call for assertions in tests.
type Notification struct {
	CharUUID platform.UUID
	Peer     platform.PeerID
	Value    []byte
}

func init() {
	// Selectable as --backend=fake for radio-less dry runs.
	platform.RegisterBackend("fake", func() platform.GATT { return New() })
}

// New returns a ready-to-use Fake backend.
func New() *Fake {
	return &Fake{}
}

func (f *Fake) Init(cb platform.Callbacks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
	return nil
}

func (f *Fake) AddService(svc platform.ServiceDef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.service != nil {
		return fmt.Errorf("platformtest: service already added")
	}
	f.service = &svc
	return nil
}

func (f *Fake) Notify(charUUID platform.UUID, peer platform.PeerID, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected || f.peer != peer {
		return fmt.Errorf("platformtest: peer %s not connected", peer)
	}
	cp := append([]byte(nil), value...)
	f.Notifications = append(f.Notifications, Notification{CharUUID: charUUID, Peer: peer, Value: cp})
	return nil
}

func (f *Fake) StartAdvertising(params platform.AdvParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected {
		return fmt.Errorf("platformtest: cannot advertise while connected")
	}
	if f.advertising {
		return nil
	}
	f.advertising = true
	f.advParams = params
	return nil
}

func (f *Fake) StopAdvertising() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advertising = false
	return nil
}

func (f *Fake) IsAdvertising() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advertising
}

func (f *Fake) Disconnect(peer platform.PeerID) error {
	f.mu.Lock()
	wasConnected := f.connected && f.peer == peer
	if wasConnected {
		f.connected = false
	}
	cb := f.cb.OnDisconnect
	f.mu.Unlock()
	if wasConnected && cb != nil {
		cb(peer)
	}
	return nil
}

func (f *Fake) StartBonding(peer platform.PeerID) error {
	f.mu.Lock()
	cb := f.cb.OnBondStateChange
	f.mu.Unlock()
	if cb != nil {
		cb(peer, platform.BondStateBonding)
	}
	return nil
}

func (f *Fake) RemoveBond(peer platform.PeerID) error {
	return nil
}

// --- test-side driver methods (simulate host behavior) ---

// Connect simulates an incoming link from peer; stops advertising as a real
// radio would.
func (f *Fake) Connect(peer platform.PeerID) {
	f.mu.Lock()
	f.connected = true
	f.peer = peer
	f.advertising = false
	cb := f.cb.OnConnect
	f.mu.Unlock()
	if cb != nil {
		cb(peer)
	}
}

// SimulateDisconnect simulates a link-layer drop initiated by the peer
// (as opposed to Disconnect, which simulates us hanging up).
func (f *Fake) SimulateDisconnect(peer platform.PeerID) {
	f.mu.Lock()
	if f.connected && f.peer == peer {
		f.connected = false
	}
	cb := f.cb.OnDisconnect
	f.mu.Unlock()
	if cb != nil {
		cb(peer)
	}
}

// WriteCCCD simulates the host writing a characteristic's CCCD descriptor.
func (f *Fake) WriteCCCD(charUUID platform.UUID, peer platform.PeerID, value platform.CCCDValue) error {
	f.mu.Lock()
	cb := f.cb.OnCCCDWrite
	f.mu.Unlock()
	if cb == nil {
		return nil
	}
	buf := []byte{byte(value), byte(value >> 8)}
	return cb(charUUID, peer, buf)
}

// BondComplete simulates the platform broadcasting a terminal bond result.
func (f *Fake) BondComplete(peer platform.PeerID, ok bool) {
	f.mu.Lock()
	cb := f.cb.OnBondStateChange
	f.mu.Unlock()
	if cb == nil {
		return
	}
	if ok {
		cb(peer, platform.BondStateBonded)
	} else {
		cb(peer, platform.BondStateNone)
	}
}

// Service returns the registered service definition, or nil.
func (f *Fake) Service() *platform.ServiceDef {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.service
}

// AdvParams returns the params passed to the most recent StartAdvertising call.
func (f *Fake) AdvParams() platform.AdvParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advParams
}

// Read simulates the host reading a characteristic at offset.
func (f *Fake) Read(charUUID platform.UUID, peer platform.PeerID, offset int) ([]byte, error) {
	f.mu.Lock()
	cb := f.cb.OnRead
	f.mu.Unlock()
	if cb == nil {
		return nil, fmt.Errorf("platformtest: no read callback registered")
	}
	return cb(charUUID, peer, offset)
}

// Write simulates the host writing a characteristic value.
func (f *Fake) Write(charUUID platform.UUID, peer platform.PeerID, value []byte) error {
	f.mu.Lock()
	cb := f.cb.OnWrite
	f.mu.Unlock()
	if cb == nil {
		return nil
	}
	return cb(charUUID, peer, append([]byte(nil), value...))
}

// TakeNotifications returns the notifications recorded so far and clears the
// log, so sequential test phases can assert on just their own traffic.
func (f *Fake) TakeNotifications() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.Notifications
	f.Notifications = nil
	return out
}

var _ platform.GATT = (*Fake)(nil)
