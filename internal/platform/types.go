// Package platform defines the contract between the HID GATT engine and a
// concrete Bluetooth LE peripheral backend. The engine never talks to a
// radio directly; it drives whatever GATT implementation is bound here.
package platform

import (
	"errors"
	"fmt"
)

// Sentinel errors a GATT backend returns from StartAdvertising so the
// advertising controller can classify the failure.
var (
	ErrAdvDataTooLarge   = errors.New("platform: advertising data too large")
	ErrAdvUnsupported    = errors.New("platform: advertising feature unsupported")
	ErrAdvTooMany        = errors.New("platform: too many advertisers")
	ErrAdvAlreadyStarted = errors.New("platform: advertiser already started")
)

// UUID is a 128-bit Bluetooth attribute UUID, big-endian byte order.
type UUID [16]byte

func (u UUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}

// PeerID identifies a remote link-layer connection. Its representation is
// backend-specific (a MAC address, a platform connection handle, ...); the
// engine treats it as an opaque comparable value.
type PeerID string

// BondState mirrors the platform bond-state broadcast values
// (None/Bonding/Bonded).
type BondState int

const (
	BondStateNone BondState = iota
	BondStateBonding
	BondStateBonded
)

// PairingVariant enumerates the pairing UI flows a host may request.
type PairingVariant int

const (
	PairingVariantJustWorks PairingVariant = iota
	PairingVariantNumericComparison
	PairingVariantDisplayPasskey
	PairingVariantPasskeyEntry
)

// CCCDValue enumerates the three legal 2-byte CCCD payloads.
type CCCDValue uint16

const (
	CCCDOff      CCCDValue = 0x0000
	CCCDNotify   CCCDValue = 0x0001
	CCCDIndicate CCCDValue = 0x0002
)

// Permission models the ATT access permissions a characteristic/descriptor
// is declared with.
type Permission uint8

const (
	PermRead Permission = 1 << iota
	PermWrite
	PermWriteNoResponse
	PermEncryptedRead
	PermEncryptedWrite
)

// DescriptorDef declares a single GATT descriptor attached to a characteristic.
type DescriptorDef struct {
	UUID  UUID
	Perms Permission
	Value []byte
}

// CharacteristicDef declares a single GATT characteristic.
type CharacteristicDef struct {
	UUID        UUID
	Perms       Permission
	InitialValue []byte
	Descriptors []DescriptorDef
}

// ServiceDef declares a GATT service and its characteristic tree. The core
// builds exactly one of these (the HID service) and hands it to AddService.
type ServiceDef struct {
	UUID            UUID
	Characteristics []CharacteristicDef
}

// AdvMode selects the advertising interval/latency trade-off.
type AdvMode int

const (
	AdvModeLowPower AdvMode = iota
	AdvModeBalanced
	AdvModeLowLatency
)

// TxPower selects the advertising transmit power level.
type TxPower int

const (
	TxPowerUltraLow TxPower = iota
	TxPowerLow
	TxPowerMedium
	TxPowerHigh
)

// AdvParams configures one advertising session.
type AdvParams struct {
	Mode            AdvMode
	Power           TxPower
	IncludeName     bool
	IncludeTxPower  bool
	TimeoutMillis   int
	DeviceName      string
	ServiceUUID     UUID
	ManufacturerID  uint16
	ManufacturerBuf []byte
}

// Callbacks is the set of inbound events a backend delivers to the engine.
// Every field is optional; a nil field means the engine isn't interested.
type Callbacks struct {
	OnConnect         func(peer PeerID)
	OnDisconnect      func(peer PeerID)
	OnRead            func(charUUID UUID, peer PeerID, offset int) ([]byte, error)
	OnWrite           func(charUUID UUID, peer PeerID, value []byte) error
	OnCCCDWrite       func(charUUID UUID, peer PeerID, value []byte) error
	OnBondStateChange func(peer PeerID, state BondState)
	// OnPairingRequest reports a host-initiated pairing UI event; the
	// return value is the confirm/reject decision for variants that need one.
	OnPairingRequest func(peer PeerID, variant PairingVariant) bool
	OnAdvertisingDone func(err error)
}

// GATT is the minimal surface a BLE peripheral backend must expose. The
// engine never constructs a backend; callers inject one (linuxble.New,
// platformtest.New, or a custom adapter).
type GATT interface {
	// Init registers the callback set. Called exactly once before AddService.
	Init(cb Callbacks) error
	// AddService installs the service tree. Must be called before advertising.
	AddService(svc ServiceDef) error
	// Notify pushes a value on a characteristic to the currently connected peer.
	Notify(charUUID UUID, peer PeerID, value []byte) error
	// StartAdvertising begins a single advertising session.
	StartAdvertising(params AdvParams) error
	// StopAdvertising halts any in-progress advertising session.
	StopAdvertising() error
	// IsAdvertising reports whether a session is currently active.
	IsAdvertising() bool
	// Disconnect tears down the link to peer, if connected.
	Disconnect(peer PeerID) error
	// StartBonding requests the platform initiate pairing with peer.
	StartBonding(peer PeerID) error
	// RemoveBond deletes any stored bond material for peer.
	RemoveBond(peer PeerID) error
}
