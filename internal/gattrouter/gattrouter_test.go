package gattrouter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualhid/blehid/internal/gattdb"
	"github.com/virtualhid/blehid/internal/hidhandler"
	"github.com/virtualhid/blehid/internal/platform"
	"github.com/virtualhid/blehid/internal/report"
	"github.com/virtualhid/blehid/internal/reportmap"
	"github.com/virtualhid/blehid/internal/subscription"
)

const testPeer platform.PeerID = "aa:bb:cc:dd:ee:ff"

type fakeConns struct{ connected bool }

func (f *fakeConns) CurrentPeer() (platform.PeerID, bool) {
	if !f.connected {
		return "", false
	}
	return testPeer, true
}

type fakeNotifier struct {
	sent  [][]byte
	chars []platform.UUID
}

func (f *fakeNotifier) Notify(char platform.UUID, peer platform.PeerID, value []byte) error {
	f.chars = append(f.chars, char)
	f.sent = append(f.sent, append([]byte(nil), value...))
	return nil
}

type rig struct {
	router *Router
	suite  *hidhandler.Suite
	subs   *subscription.Tracker
	conns  *fakeConns
	notify *fakeNotifier
}

func newRig(t *testing.T) *rig {
	t.Helper()
	conns := &fakeConns{connected: true}
	subs := subscription.New()
	notify := &fakeNotifier{}
	suite := hidhandler.NewSuite(conns, subs, notify)
	return &rig{
		router: New(suite, subs, nil, nil),
		suite:  suite,
		subs:   subs,
		conns:  conns,
		notify: notify,
	}
}

func mouseCharUUID() platform.UUID {
	return gattdb.ReportCharUUID(uint8(report.IDMouse))
}

func TestReadHIDInformation(t *testing.T) {
	r := newRig(t)
	got, err := r.router.OnRead(gattdb.HIDInformationUUID, testPeer, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0x11, 0x01, 0x00, 0x03}, got)
}

func TestReadReportMapWithOffset(t *testing.T) {
	r := newRig(t)

	full, err := r.router.OnRead(gattdb.ReportMapUUID, testPeer, 0)
	require.NoError(t, err)
	require.Equal(t, reportmap.Bytes, full)

	tail, err := r.router.OnRead(gattdb.ReportMapUUID, testPeer, 10)
	require.NoError(t, err)
	require.Equal(t, reportmap.Bytes[10:], tail)

	_, err = r.router.OnRead(gattdb.ReportMapUUID, testPeer, len(reportmap.Bytes)+1)
	require.ErrorIs(t, err, ErrInvalidOffset)

	_, err = r.router.OnRead(gattdb.ReportMapUUID, testPeer, -1)
	require.ErrorIs(t, err, ErrInvalidOffset)
}

func TestReadReportReturnsLastStoredBytes(t *testing.T) {
	r := newRig(t)

	// Before any send: the zero-valued report.
	got, err := r.router.OnRead(mouseCharUUID(), testPeer, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, got)

	require.NoError(t, r.router.OnCCCDWrite(mouseCharUUID(), testPeer, []byte{0x01, 0x00}))
	require.NoError(t, r.suite.MoveMouse(5, -3))

	got, err = r.router.OnRead(mouseCharUUID(), testPeer, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x05, 0xFD, 0x00}, got)
	require.Equal(t, r.notify.sent[len(r.notify.sent)-1], got,
		"read after send must return exactly the notified bytes")
}

func TestReadBootMouseReturnsBootForm(t *testing.T) {
	r := newRig(t)
	got, err := r.router.OnRead(gattdb.BootMouseInputReportUUID, testPeer, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestReadProtocolMode(t *testing.T) {
	r := newRig(t)
	got, err := r.router.OnRead(gattdb.ProtocolModeUUID, testPeer, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, got)
}

func TestWriteProtocolMode(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.router.OnWrite(gattdb.ProtocolModeUUID, testPeer, []byte{0x00}))
	require.Equal(t, gattdb.ProtocolModeBoot, r.suite.ProtocolMode())

	// Invalid values are ignored, not errors.
	require.NoError(t, r.router.OnWrite(gattdb.ProtocolModeUUID, testPeer, []byte{0x02}))
	require.Equal(t, gattdb.ProtocolModeBoot, r.suite.ProtocolMode())

	require.NoError(t, r.router.OnWrite(gattdb.ProtocolModeUUID, testPeer, []byte{0x01}))
	require.Equal(t, gattdb.ProtocolModeReport, r.suite.ProtocolMode())
}

func TestWriteControlPointIsStored(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.router.OnWrite(gattdb.HIDControlPointUUID, testPeer, []byte{0x01}))
	require.Equal(t, byte(0x01), r.router.ControlPointValue())
}

func TestWriteReportReferenceIsRejected(t *testing.T) {
	r := newRig(t)
	err := r.router.OnWrite(gattdb.ReportReferenceUUID, testPeer, []byte{0x01, 0x01})
	require.ErrorIs(t, err, ErrReadOnlyDescriptor)
}

func TestWriteReportCharIsAcceptedButIgnored(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.router.OnWrite(mouseCharUUID(), testPeer, []byte{0xFF}))
	assert.Empty(t, r.notify.sent)
}

func TestCCCDEnableEmitsInitialZeroReport(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.router.OnCCCDWrite(mouseCharUUID(), testPeer, []byte{0x01, 0x00}))
	require.Equal(t, [][]byte{{0, 0, 0, 0}}, r.notify.sent)
	require.Equal(t, []platform.UUID{mouseCharUUID()}, r.notify.chars)

	// A repeated enable is not a transition and emits nothing further.
	require.NoError(t, r.router.OnCCCDWrite(mouseCharUUID(), testPeer, []byte{0x01, 0x00}))
	require.Len(t, r.notify.sent, 1)
}

func TestCCCDDisableStopsNotifications(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.router.OnCCCDWrite(mouseCharUUID(), testPeer, []byte{0x01, 0x00}))
	require.NoError(t, r.suite.MoveMouse(1, 1))
	sentBefore := len(r.notify.sent)

	require.NoError(t, r.router.OnCCCDWrite(mouseCharUUID(), testPeer, []byte{0x00, 0x00}))
	require.Error(t, r.suite.MoveMouse(1, 1))
	require.Len(t, r.notify.sent, sentBefore, "no notification may follow a CCCD disable")

	// Re-enable opens the gate again (with a fresh zero report).
	require.NoError(t, r.router.OnCCCDWrite(mouseCharUUID(), testPeer, []byte{0x01, 0x00}))
	require.NoError(t, r.suite.MoveMouse(1, 1))
}

func TestCCCDInvalidValueIsRejected(t *testing.T) {
	r := newRig(t)
	err := r.router.OnCCCDWrite(mouseCharUUID(), testPeer, []byte{0x03, 0x00})
	require.Error(t, err)
	require.False(t, r.subs.IsSubscribed(testPeer, mouseCharUUID()))
}

func TestCCCDWriteForNonReportCharOnlyTracks(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.router.OnCCCDWrite(gattdb.ReportMapUUID, testPeer, []byte{0x01, 0x00}))
	require.True(t, r.subs.IsSubscribed(testPeer, gattdb.ReportMapUUID))
	assert.Empty(t, r.notify.sent)
}

func TestReadUnknownCharacteristic(t *testing.T) {
	r := newRig(t)
	_, err := r.router.OnRead(platform.UUID{0xde, 0xad}, testPeer, 0)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidOffset))
}
