// Package linuxble implements platform.GATT against a real Bluetooth radio
// using tinygo.org/x/bluetooth's BlueZ-backed peripheral role
// (DefaultAdapter/AddService/Advertisement).
package linuxble

import (
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/virtualhid/blehid/internal/hiderrors"
	"github.com/virtualhid/blehid/internal/platform"
)

func init() {
	platform.RegisterBackend("ble", func() platform.GATT { return New() })
}

// Adapter adapts tinygo.org/x/bluetooth's peripheral-role adapter to
// platform.GATT.
//
// BlueZ keeps CCCD state on its side and does not surface descriptor writes
// to the application, so the adapter synthesizes a CCCD-enable event for
// every notifiable characteristic when a central connects. Characteristic
// writes through the handle both update the readable value and notify
// subscribed centrals, which keeps read-after-send consistent without a
// read callback.
type Adapter struct {
	mu sync.Mutex

	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement

	cb platform.Callbacks

	chars      map[platform.UUID]*bluetooth.Characteristic
	notifiable []platform.UUID

	advertising bool
	peer        platform.PeerID
	connected   bool
}

// New wraps bluetooth.DefaultAdapter. Callers on non-Linux/non-BlueZ targets
// should use a different backend.
func New() *Adapter {
	return &Adapter{
		adapter: bluetooth.DefaultAdapter,
		chars:   make(map[platform.UUID]*bluetooth.Characteristic),
	}
}

func toBluetoothUUID(u platform.UUID) bluetooth.UUID {
	return bluetooth.NewUUID(u)
}

// Init enables the adapter and registers a connect handler that feeds
// Callbacks.OnConnect/OnDisconnect.
func (a *Adapter) Init(cb platform.Callbacks) error {
	a.mu.Lock()
	a.cb = cb
	a.mu.Unlock()

	if err := a.adapter.Enable(); err != nil {
		return fmt.Errorf("linuxble: enable adapter: %w", err)
	}

	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		peer := platform.PeerID(device.Address.String())
		a.mu.Lock()
		a.peer = peer
		a.connected = connected
		cb := a.cb
		notifiable := append([]platform.UUID(nil), a.notifiable...)
		a.mu.Unlock()

		if connected {
			if cb.OnConnect != nil {
				cb.OnConnect(peer)
			}
			// BlueZ owns the CCCDs; mirror its subscription handling into
			// the engine so report gating opens once the link is up.
			if cb.OnCCCDWrite != nil {
				for _, u := range notifiable {
					_ = cb.OnCCCDWrite(u, peer, []byte{0x01, 0x00})
				}
			}
		} else if cb.OnDisconnect != nil {
			cb.OnDisconnect(peer)
		}
	})
	return nil
}

// AddService translates a platform.ServiceDef into a bluetooth.Service, one
// CharacteristicConfig per characteristic, wiring write events through to
// the engine's callbacks.
func (a *Adapter) AddService(svc platform.ServiceDef) error {
	confs := make([]bluetooth.CharacteristicConfig, 0, len(svc.Characteristics))
	handles := make([]*bluetooth.Characteristic, len(svc.Characteristics))

	for i, c := range svc.Characteristics {
		handles[i] = &bluetooth.Characteristic{}

		confs = append(confs, bluetooth.CharacteristicConfig{
			Handle:     handles[i],
			UUID:       toBluetoothUUID(c.UUID),
			Value:      append([]byte(nil), c.InitialValue...),
			Flags:      permissionFlags(c.Perms, hasCCCD(c)),
			WriteEvent: a.writeEventFor(c.UUID),
		})
	}

	if err := a.adapter.AddService(&bluetooth.Service{
		UUID:            toBluetoothUUID(svc.UUID),
		Characteristics: confs,
	}); err != nil {
		return fmt.Errorf("linuxble: add service: %w", err)
	}

	a.mu.Lock()
	for i, c := range svc.Characteristics {
		a.chars[c.UUID] = handles[i]
		if hasCCCD(c) {
			a.notifiable = append(a.notifiable, c.UUID)
		}
	}
	a.mu.Unlock()
	return nil
}

// cccdUUID is the Client Characteristic Configuration descriptor (0x2902)
// expanded against the Bluetooth SIG base UUID.
var cccdUUID = platform.UUID{
	0x00, 0x00, 0x29, 0x02, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB,
}

func hasCCCD(c platform.CharacteristicDef) bool {
	for _, d := range c.Descriptors {
		if d.UUID == cccdUUID {
			return true
		}
	}
	return false
}

func permissionFlags(p platform.Permission, notify bool) bluetooth.CharacteristicPermissions {
	var f bluetooth.CharacteristicPermissions
	if p&(platform.PermRead|platform.PermEncryptedRead) != 0 {
		f |= bluetooth.CharacteristicReadPermission
	}
	if p&(platform.PermWrite|platform.PermEncryptedWrite) != 0 {
		f |= bluetooth.CharacteristicWritePermission
	}
	if p&platform.PermWriteNoResponse != 0 {
		f |= bluetooth.CharacteristicWriteWithoutResponsePermission
	}
	if notify {
		f |= bluetooth.CharacteristicNotifyPermission
	}
	return f
}

func (a *Adapter) writeEventFor(charUUID platform.UUID) func(client bluetooth.Connection, offset int, value []byte) {
	return func(client bluetooth.Connection, offset int, value []byte) {
		a.mu.Lock()
		onWrite := a.cb.OnWrite
		peer := a.peer
		a.mu.Unlock()
		if onWrite == nil {
			return
		}
		_ = onWrite(charUUID, peer, append([]byte(nil), value...))
	}
}

// Notify pushes value via the characteristic's own Write, which tinygo's
// BlueZ backend turns into a GATT notification to subscribed centrals and
// also updates the value returned to subsequent reads.
func (a *Adapter) Notify(charUUID platform.UUID, peer platform.PeerID, value []byte) error {
	a.mu.Lock()
	ch, ok := a.chars[charUUID]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("linuxble: notify on unregistered characteristic %s", charUUID)
	}
	_, err := ch.Write(value)
	return err
}

// advInterval maps the advertising mode onto a BLE advertising interval.
func advInterval(mode platform.AdvMode) bluetooth.Duration {
	switch mode {
	case platform.AdvModeLowLatency:
		return bluetooth.NewDuration(100 * time.Millisecond)
	case platform.AdvModeLowPower:
		return bluetooth.NewDuration(1 * time.Second)
	default:
		return bluetooth.NewDuration(250 * time.Millisecond)
	}
}

// StartAdvertising configures and starts a single advertising session.
func (a *Adapter) StartAdvertising(params platform.AdvParams) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.advertising {
		return platform.ErrAdvAlreadyStarted
	}

	adv := a.adapter.DefaultAdvertisement()
	opts := bluetooth.AdvertisementOptions{
		ServiceUUIDs: []bluetooth.UUID{toBluetoothUUID(params.ServiceUUID)},
		Interval:     advInterval(params.Mode),
	}
	if params.IncludeName {
		opts.LocalName = params.DeviceName
	}
	if len(params.ManufacturerBuf) > 0 {
		opts.ManufacturerData = []bluetooth.ManufacturerDataElement{
			{CompanyID: params.ManufacturerID, Data: append([]byte(nil), params.ManufacturerBuf...)},
		}
	}
	if err := adv.Configure(opts); err != nil {
		return fmt.Errorf("%w: %v", platform.ErrAdvUnsupported, err)
	}
	if err := adv.Start(); err != nil {
		return fmt.Errorf("%w: %v", platform.ErrAdvUnsupported, err)
	}
	a.adv = adv
	a.advertising = true
	return nil
}

// StopAdvertising halts the active advertising session, if any.
func (a *Adapter) StopAdvertising() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.advertising || a.adv == nil {
		return nil
	}
	if err := a.adv.Stop(); err != nil {
		return err
	}
	a.advertising = false
	return nil
}

// IsAdvertising reports whether a session is currently active.
func (a *Adapter) IsAdvertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.advertising
}

// Disconnect has no direct tinygo.org/x/bluetooth peripheral-role API as of
// the version this adapter targets; Linux/BlueZ terminates the link when the
// remote central disconnects or the adapter is disabled. Returning nil keeps
// connmgr's retain-after-disconnect bookkeeping in charge of engine-side
// state regardless.
func (a *Adapter) Disconnect(peer platform.PeerID) error {
	return nil
}

// StartBonding has no standalone tinygo.org/x/bluetooth API either; BlueZ
// triggers pairing implicitly from the characteristic's encrypted
// permissions the first time a central accesses one.
func (a *Adapter) StartBonding(peer platform.PeerID) error {
	return nil
}

// RemoveBond is not exposed by tinygo.org/x/bluetooth; removing bond
// material on Linux means deleting BlueZ's own persisted keys under
// /var/lib/bluetooth, which this adapter does not attempt.
func (a *Adapter) RemoveBond(peer platform.PeerID) error {
	return hiderrors.ErrNotSupported
}

var _ platform.GATT = (*Adapter)(nil)
