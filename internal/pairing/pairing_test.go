package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualhid/blehid/internal/platform"
)

const testPeer platform.PeerID = "aa:bb:cc:dd:ee:ff"

type fakeBonder struct {
	started []platform.PeerID
	removed []platform.PeerID
}

func (f *fakeBonder) StartBonding(peer platform.PeerID) error { f.started = append(f.started, peer); return nil }
func (f *fakeBonder) RemoveBond(peer platform.PeerID) error   { f.removed = append(f.removed, peer); return nil }

type fakeLink struct {
	dropped []platform.PeerID
}

func (f *fakeLink) Disconnect(peer platform.PeerID) error { f.dropped = append(f.dropped, peer); return nil }

func newMachine() (*Machine, *fakeBonder, *fakeLink) {
	b := &fakeBonder{}
	l := &fakeLink{}
	return New(b, l), b, l
}

func TestInitialStateIsIdle(t *testing.T) {
	m, _, _ := newMachine()
	require.Equal(t, StateIdle, m.State(testPeer))
	require.False(t, m.IsBonded(testPeer))
	require.True(t, m.IsIdleOrBonded(testPeer))
}

func TestAutoAcceptIsTheDefaultPolicy(t *testing.T) {
	m, _, _ := newMachine()
	require.True(t, m.OnPairingRequestEvent(testPeer, platform.PairingVariantJustWorks))
	require.Equal(t, StatePairingStarted, m.State(testPeer))
}

func TestRejectionWithoutConfirmHook(t *testing.T) {
	m, _, _ := newMachine()
	m.SetAutoAccept(false)
	require.False(t, m.OnPairingRequestEvent(testPeer, platform.PairingVariantDisplayPasskey))
}

func TestConfirmHookDecides(t *testing.T) {
	m, _, _ := newMachine()
	m.SetAutoAccept(false)
	var sawVariant platform.PairingVariant
	m.SetConfirmHook(func(peer platform.PeerID, variant platform.PairingVariant) bool {
		sawVariant = variant
		return variant == platform.PairingVariantJustWorks
	})
	require.True(t, m.OnPairingRequestEvent(testPeer, platform.PairingVariantJustWorks))
	require.Equal(t, platform.PairingVariantJustWorks, sawVariant)
}

func TestOnPairingRequestedCallbackFires(t *testing.T) {
	m, _, _ := newMachine()
	var got platform.PeerID
	m.OnPairingRequested(func(peer platform.PeerID, variant platform.PairingVariant) { got = peer })
	m.OnPairingRequestEvent(testPeer, platform.PairingVariantNumericComparison)
	require.Equal(t, testPeer, got)
}

func TestFullBondFlow(t *testing.T) {
	m, b, _ := newMachine()

	var completedPeer platform.PeerID
	var completedOK bool
	m.OnPairingComplete(func(peer platform.PeerID, ok bool) {
		completedPeer = peer
		completedOK = ok
	})

	require.NoError(t, m.StartPair(testPeer))
	require.Equal(t, []platform.PeerID{testPeer}, b.started)
	require.Equal(t, StatePairingRequested, m.State(testPeer))

	m.OnPairingRequestEvent(testPeer, platform.PairingVariantJustWorks)
	require.Equal(t, StatePairingStarted, m.State(testPeer))

	m.OnBondStateChange(testPeer, platform.BondStateBonding)
	require.Equal(t, StateWaitingForBond, m.State(testPeer))

	m.OnBondStateChange(testPeer, platform.BondStateBonded)
	require.Equal(t, StateBonded, m.State(testPeer))
	require.True(t, m.IsBonded(testPeer))
	require.True(t, m.IsIdleOrBonded(testPeer))

	assert.Equal(t, testPeer, completedPeer)
	assert.True(t, completedOK)
}

func TestBondDropTransitionsToFailed(t *testing.T) {
	m, _, _ := newMachine()

	var completedOK = true
	m.OnPairingComplete(func(peer platform.PeerID, ok bool) { completedOK = ok })

	require.NoError(t, m.StartPair(testPeer))
	m.OnPairingRequestEvent(testPeer, platform.PairingVariantJustWorks)
	m.OnBondStateChange(testPeer, platform.BondStateBonding)
	m.OnBondStateChange(testPeer, platform.BondStateNone)

	require.Equal(t, StatePairingFailed, m.State(testPeer))
	require.False(t, completedOK)
	require.False(t, m.IsBonded(testPeer))
	require.False(t, m.IsIdleOrBonded(testPeer))
}

func TestRetryAfterFailureReentersPairingRequested(t *testing.T) {
	m, b, _ := newMachine()

	require.NoError(t, m.StartPair(testPeer))
	m.OnPairingRequestEvent(testPeer, platform.PairingVariantJustWorks)
	m.OnBondStateChange(testPeer, platform.BondStateNone)
	require.Equal(t, StatePairingFailed, m.State(testPeer))

	require.NoError(t, m.StartPair(testPeer))
	require.Equal(t, StatePairingRequested, m.State(testPeer))
	require.Len(t, b.started, 2)
}

func TestCancelPairReturnsToIdle(t *testing.T) {
	m, _, _ := newMachine()

	require.NoError(t, m.StartPair(testPeer))
	require.NoError(t, m.CancelPair())
	require.Equal(t, StateIdle, m.State(testPeer))

	// Cancelling with nothing in flight is a no-op.
	require.NoError(t, m.CancelPair())
}

func TestBondStateChangeForUnknownPeerIsIgnored(t *testing.T) {
	m, _, _ := newMachine()
	require.NoError(t, m.StartPair(testPeer))
	m.OnBondStateChange("11:22:33:44:55:66", platform.BondStateBonded)
	require.Equal(t, StatePairingRequested, m.State(testPeer))
}

func TestBondedDevices(t *testing.T) {
	m, _, _ := newMachine()
	require.Empty(t, m.BondedDevices())

	require.NoError(t, m.StartPair(testPeer))
	m.OnPairingRequestEvent(testPeer, platform.PairingVariantJustWorks)
	m.OnBondStateChange(testPeer, platform.BondStateBonding)
	m.OnBondStateChange(testPeer, platform.BondStateBonded)

	infos := m.BondedDevices()
	require.Len(t, infos, 1)
	require.Equal(t, testPeer, infos[0].Peer)
}

func TestRemoveBondWhileConnectedTearsDownLink(t *testing.T) {
	m, b, l := newMachine()

	require.NoError(t, m.StartPair(testPeer))
	m.OnPairingRequestEvent(testPeer, platform.PairingVariantJustWorks)
	m.OnBondStateChange(testPeer, platform.BondStateBonding)
	m.OnBondStateChange(testPeer, platform.BondStateBonded)

	require.NoError(t, m.RemoveBond(testPeer, true))
	require.Equal(t, []platform.PeerID{testPeer}, b.removed)
	require.Equal(t, []platform.PeerID{testPeer}, l.dropped)
	require.False(t, m.IsBonded(testPeer))
	require.Equal(t, StateIdle, m.State(testPeer))
}

func TestRemoveBondDisconnectedLeavesLinkAlone(t *testing.T) {
	m, b, l := newMachine()

	require.NoError(t, m.StartPair(testPeer))
	m.OnPairingRequestEvent(testPeer, platform.PairingVariantJustWorks)
	m.OnBondStateChange(testPeer, platform.BondStateBonding)
	m.OnBondStateChange(testPeer, platform.BondStateBonded)

	require.NoError(t, m.RemoveBond(testPeer, false))
	require.Equal(t, []platform.PeerID{testPeer}, b.removed)
	require.Empty(t, l.dropped)
}

func TestDeriveConfirmationValueIsDeterministicAndSixDigits(t *testing.T) {
	server := []byte{1, 2, 3, 4}
	client := []byte{5, 6, 7, 8}

	v1, err := DeriveConfirmationValue(testPeer, server, client)
	require.NoError(t, err)
	v2, err := DeriveConfirmationValue(testPeer, server, client)
	require.NoError(t, err)
	require.Equal(t, v1, v2)
	require.Less(t, v1, uint32(1_000_000))

	v3, err := DeriveConfirmationValue("11:22:33:44:55:66", server, client)
	require.NoError(t, err)
	require.NotEqual(t, v1, v3)
}
