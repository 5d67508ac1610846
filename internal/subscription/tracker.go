// Package subscription holds the per-(peer, characteristic) CCCD state:
// whether a connected host has asked to be notified on a given
// characteristic. All mutation goes through Tracker so handlers, the GATT
// router, and the connection manager observe a single consistent view.
package subscription

import (
	"fmt"
	"sync"

	"github.com/virtualhid/blehid/internal/platform"
)

// State is the three legal CCCD states for a (peer, characteristic) pair.
type State int

const (
	StateOff State = iota
	StateNotify
	StateIndicate
)

type key struct {
	peer platform.PeerID
	char platform.UUID
}

// Tracker is the per-(peer, characteristic) CCCD subscription table.
type Tracker struct {
	mu    sync.RWMutex
	table map[key]State
}

// New returns an empty subscription table.
func New() *Tracker {
	return &Tracker{table: make(map[key]State)}
}

// ParseCCCDValue validates a raw 2-byte CCCD write payload.
func ParseCCCDValue(value []byte) (State, error) {
	if len(value) != 2 {
		return StateOff, fmt.Errorf("subscription: invalid CCCD length %d", len(value))
	}
	switch {
	case value[0] == 0x00 && value[1] == 0x00:
		return StateOff, nil
	case value[0] == 0x01 && value[1] == 0x00:
		return StateNotify, nil
	case value[0] == 0x02 && value[1] == 0x00:
		return StateIndicate, nil
	default:
		return StateOff, fmt.Errorf("subscription: invalid CCCD value %#v", value)
	}
}

// Set records peer's subscription state for a characteristic. Returns the
// previous state so callers can detect Off->Subscribed transitions.
func (t *Tracker) Set(peer platform.PeerID, char platform.UUID, state State) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{peer, char}
	prev := t.table[k]
	t.table[k] = state
	return prev
}

// Get returns peer's current subscription state for a characteristic; the
// zero value (StateOff) is returned for any pair never written, so every
// new connection starts unsubscribed.
func (t *Tracker) Get(peer platform.PeerID, char platform.UUID) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.table[key{peer, char}]
}

// IsSubscribed reports whether peer is in Notify or Indicate state on char.
func (t *Tracker) IsSubscribed(peer platform.PeerID, char platform.UUID) bool {
	s := t.Get(peer, char)
	return s == StateNotify || s == StateIndicate
}

// ClearPeer resets all subscriptions for peer (used on disconnect).
func (t *Tracker) ClearPeer(peer platform.PeerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.table {
		if k.peer == peer {
			delete(t.table, k)
		}
	}
}
