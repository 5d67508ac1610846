// Package gattrouter implements the GATT callback router: it receives
// platform.Callbacks events (read/write/CCCD-write) and dispatches them to
// the service database for static reads, the report handlers for report
// reads/writes, and the subscription tracker for CCCD writes.
package gattrouter

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/virtualhid/blehid/internal/gattdb"
	"github.com/virtualhid/blehid/internal/hidhandler"
	hidlog "github.com/virtualhid/blehid/internal/log"
	"github.com/virtualhid/blehid/internal/platform"
	"github.com/virtualhid/blehid/internal/reportmap"
	"github.com/virtualhid/blehid/internal/subscription"
)

// ErrInvalidOffset is returned by OnRead when offset exceeds the value's
// length.
var ErrInvalidOffset = errors.New("gattrouter: invalid read offset")

// ErrReadOnlyDescriptor is returned by OnWrite for a write attempt against
// the read-only Report Reference descriptor.
var ErrReadOnlyDescriptor = errors.New("gattrouter: report reference descriptor is read-only")

// Router dispatches platform GATT callbacks to the engine's internal state.
type Router struct {
	mu sync.Mutex

	suite  *hidhandler.Suite
	subs   *subscription.Tracker
	logger *slog.Logger
	raw    hidlog.RawLogger

	controlPointValue byte
}

// New builds a Router bound to suite and subs. A nil logger falls back to
// slog.Default(); a nil raw logger disables report hex-dumping.
func New(suite *hidhandler.Suite, subs *subscription.Tracker, logger *slog.Logger, raw hidlog.RawLogger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if raw == nil {
		raw = hidlog.NewRaw(nil)
	}
	return &Router{suite: suite, subs: subs, logger: logger, raw: raw}
}

// sliceFromOffset returns value[offset:], or ErrInvalidOffset if offset is
// out of [0, len(value)].
func sliceFromOffset(value []byte, offset int) ([]byte, error) {
	if offset < 0 || offset > len(value) {
		return nil, ErrInvalidOffset
	}
	return append([]byte(nil), value[offset:]...), nil
}

// OnRead handles a host read of any characteristic in the HID service.
func (r *Router) OnRead(charUUID platform.UUID, peer platform.PeerID, offset int) ([]byte, error) {
	switch charUUID {
	case gattdb.HIDInformationUUID:
		return sliceFromOffset(gattdb.HIDInformation, offset)
	case gattdb.ReportMapUUID:
		return sliceFromOffset(reportmap.Bytes, offset)
	case gattdb.ProtocolModeUUID:
		return sliceFromOffset([]byte{byte(r.suite.ProtocolMode())}, offset)
	}
	if h := r.suite.HandlerForChar(charUUID); h != nil {
		return sliceFromOffset(h.LastBytes(), offset)
	}
	r.logger.Warn("read on unknown characteristic", "uuid", charUUID.String())
	return nil, ErrInvalidOffset
}

// OnWrite handles a host write to a characteristic or the Report Reference
// descriptor (CCCD writes go through OnCCCDWrite instead).
func (r *Router) OnWrite(charUUID platform.UUID, peer platform.PeerID, value []byte) error {
	switch charUUID {
	case gattdb.ProtocolModeUUID:
		if len(value) == 1 && (value[0] == byte(gattdb.ProtocolModeBoot) || value[0] == byte(gattdb.ProtocolModeReport)) {
			mode := gattdb.ProtocolMode(value[0])
			if mode != r.suite.ProtocolMode() {
				r.suite.SetProtocolMode(mode)
			}
		}
		// Invalid values are silently ignored.
		return nil
	case gattdb.HIDControlPointUUID:
		if len(value) == 1 {
			r.mu.Lock()
			r.controlPointValue = value[0]
			r.mu.Unlock()
		}
		return nil
	case gattdb.ReportReferenceUUID:
		return ErrReadOnlyDescriptor
	}
	if h := r.suite.HandlerForChar(charUUID); h != nil {
		r.raw.Log(true, value)
		r.logger.Debug("report characteristic write received; no output reports supported",
			"uuid", charUUID.String(), "peer", peer, "len", len(value))
		return nil
	}
	r.logger.Warn("write on unknown characteristic", "uuid", charUUID.String())
	return nil
}

// OnCCCDWrite handles a host write to a characteristic's CCCD descriptor:
// it validates and persists the subscription state, then informs the
// owning handler, emitting the "initial zero report" on Unsubscribed ->
// Subscribed transitions.
func (r *Router) OnCCCDWrite(charUUID platform.UUID, peer platform.PeerID, value []byte) error {
	state, err := subscription.ParseCCCDValue(value)
	if err != nil {
		return err
	}
	r.subs.Set(peer, charUUID, state)

	h := r.suite.HandlerForChar(charUUID)
	if h == nil {
		return nil
	}
	enabled := state == subscription.StateNotify || state == subscription.StateIndicate
	transitioned, err := h.OnCCCDWrite(enabled)
	if err != nil {
		return err
	}
	if transitioned {
		if err := h.SendZeroReport(); err != nil {
			r.logger.Warn("initial zero report failed", "uuid", charUUID.String(), "error", err)
		}
	}
	return nil
}

// ControlPointValue returns the last byte written to HID Control Point
// (suspend/exit-suspend), stored but not acted upon.
func (r *Router) ControlPointValue() byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controlPointValue
}
