// Package identity implements the identity store: the persistent
// peripheral UUID and device name carried across restarts, generated once
// if absent, and rotatable at runtime via SetIdentity.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Record is the persisted identity/bond record, stored as JSON under a
// stable application config path.
type Record struct {
	IdentityUUID uuid.UUID       `json:"identity_uuid"`
	DeviceName   string          `json:"device_name"`
	LastPaired   string          `json:"last_paired,omitempty"`
	Bonds        map[string]bool `json:"bonds,omitempty"`
}

// Store guards a Record and its on-disk persistence.
type Store struct {
	mu   sync.Mutex
	path string
	rec  Record
}

// DefaultDeviceName is used when no name has ever been set.
const DefaultDeviceName = "BLE HID Device"

// Open loads the identity record at path, creating and persisting a fresh
// one (random UUID, DefaultDeviceName) if the file doesn't exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		s.rec = Record{
			IdentityUUID: uuid.New(),
			DeviceName:   DefaultDeviceName,
			Bonds:        make(map[string]bool),
		}
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.Bonds == nil {
		rec.Bonds = make(map[string]bool)
	}
	s.rec = rec
	return s, nil
}

// persistLocked atomically replaces the file at s.path with the current
// record: write to a temp file in the same directory, then rename.
func (s *Store) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.rec, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".identity-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := atomicReplace(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// IdentityUUID returns the current persistent peripheral identifier.
func (s *Store) IdentityUUID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.IdentityUUID
}

// DeviceName returns the current GAP device name.
func (s *Store) DeviceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.DeviceName
}

// SetIdentity rotates the identity UUID and device name, persisting the
// change atomically. Used to appear as the same peripheral after app
// reinstallation, or to take on a fresh identity deliberately.
func (s *Store) SetIdentity(id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.rec
	s.rec.IdentityUUID = id
	s.rec.DeviceName = name
	if err := s.persistLocked(); err != nil {
		s.rec = prev
		return err
	}
	return nil
}

// SetLastPaired records the most recently paired peer address and persists
// it alongside identity.
func (s *Store) SetLastPaired(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.rec
	s.rec.LastPaired = addr
	if err := s.persistLocked(); err != nil {
		s.rec = prev
		return err
	}
	return nil
}

// LastPaired returns the last-paired peer address, or "" if none.
func (s *Store) LastPaired() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.LastPaired
}

// RecordBond persists addr as bonded (or not) in the small bond-list cache
// that backs bonded_devices() across restarts.
func (s *Store) RecordBond(addr string, bonded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.rec.Bonds[addr]
	if bonded {
		s.rec.Bonds[addr] = true
	} else {
		delete(s.rec.Bonds, addr)
	}
	if err := s.persistLocked(); err != nil {
		if bonded {
			delete(s.rec.Bonds, addr)
		} else if prev {
			s.rec.Bonds[addr] = true
		}
		return err
	}
	return nil
}

// BondedAddresses returns every address persisted as bonded.
func (s *Store) BondedAddresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rec.Bonds))
	for addr, ok := range s.rec.Bonds {
		if ok {
			out = append(out, addr)
		}
	}
	return out
}
