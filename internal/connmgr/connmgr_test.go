package connmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualhid/blehid/internal/hiderrors"
	"github.com/virtualhid/blehid/internal/platform"
)

const testPeer platform.PeerID = "aa:bb:cc:dd:ee:ff"

type fakePolicy struct {
	bonded       bool
	idleOrBonded bool
	pairStarted  []platform.PeerID
}

func (f *fakePolicy) IsBonded(platform.PeerID) bool       { return f.bonded }
func (f *fakePolicy) IsIdleOrBonded(platform.PeerID) bool { return f.idleOrBonded }
func (f *fakePolicy) StartPair(peer platform.PeerID) error {
	f.pairStarted = append(f.pairStarted, peer)
	return nil
}

type fakeAdv struct {
	stopped   int
	restarted int
}

func (f *fakeAdv) StopAdvertising() error { f.stopped++; return nil }
func (f *fakeAdv) MaybeAutoRestart()      { f.restarted++ }

type fakeSubs struct {
	cleared []platform.PeerID
}

func (f *fakeSubs) ClearPeer(peer platform.PeerID) { f.cleared = append(f.cleared, peer) }

type fakeHandlers struct {
	resets int
}

func (f *fakeHandlers) OnDisconnect() { f.resets++ }

type fakeLink struct {
	dropped []platform.PeerID
}

func (f *fakeLink) Disconnect(peer platform.PeerID) error {
	f.dropped = append(f.dropped, peer)
	return nil
}

type rig struct {
	mgr      *Manager
	policy   *fakePolicy
	adv      *fakeAdv
	subs     *fakeSubs
	handlers *fakeHandlers
	link     *fakeLink
}

func newRig(opts Options) *rig {
	policy := &fakePolicy{idleOrBonded: true}
	adv := &fakeAdv{}
	subs := &fakeSubs{}
	handlers := &fakeHandlers{}
	link := &fakeLink{}
	return &rig{
		mgr:      New(opts, policy, policy, policy, adv, subs, handlers, link),
		policy:   policy,
		adv:      adv,
		subs:     subs,
		handlers: handlers,
		link:     link,
	}
}

func TestConnectStopsAdvertisingAndNotifiesListeners(t *testing.T) {
	r := newRig(Options{})
	var seen []platform.PeerID
	r.mgr.OnConnectListener(func(peer platform.PeerID) { seen = append(seen, peer) })

	r.mgr.HandleConnect(testPeer)

	require.Equal(t, 1, r.adv.stopped)
	require.Equal(t, []platform.PeerID{testPeer}, seen)
	peer, ok := r.mgr.CurrentPeer()
	require.True(t, ok)
	require.Equal(t, testPeer, peer)
	require.True(t, r.mgr.IsConnected())
}

func TestConnectInitiatesBondingWhenRequired(t *testing.T) {
	r := newRig(Options{RequireBonding: true})
	r.mgr.HandleConnect(testPeer)
	require.Equal(t, []platform.PeerID{testPeer}, r.policy.pairStarted)
}

func TestConnectSkipsBondingForBondedPeer(t *testing.T) {
	r := newRig(Options{RequireBonding: true})
	r.policy.bonded = true
	r.mgr.HandleConnect(testPeer)
	require.Empty(t, r.policy.pairStarted)
}

func TestDisconnectRetainsBondedPeerReference(t *testing.T) {
	r := newRig(Options{})
	r.policy.bonded = true
	r.mgr.HandleConnect(testPeer)

	r.mgr.HandleDisconnect(testPeer)

	_, ok := r.mgr.CurrentPeer()
	require.False(t, ok, "a retained reference must not count as a live link")
	require.False(t, r.mgr.IsConnected())

	retained, ok := r.mgr.RetainedPeer()
	require.True(t, ok)
	require.Equal(t, testPeer, retained)
}

func TestDisconnectClearsUnbondedPeer(t *testing.T) {
	r := newRig(Options{})
	r.policy.bonded = false
	r.mgr.HandleConnect(testPeer)

	r.mgr.HandleDisconnect(testPeer)

	_, ok := r.mgr.RetainedPeer()
	require.False(t, ok)
}

func TestDisconnectClearsPeerMidPairing(t *testing.T) {
	r := newRig(Options{})
	r.policy.bonded = true
	r.policy.idleOrBonded = false // pairing in flight
	r.mgr.HandleConnect(testPeer)

	r.mgr.HandleDisconnect(testPeer)

	_, ok := r.mgr.RetainedPeer()
	require.False(t, ok)
}

func TestDisconnectResetsSubscriptionsAndHandlers(t *testing.T) {
	r := newRig(Options{})
	r.mgr.HandleConnect(testPeer)
	r.mgr.HandleDisconnect(testPeer)

	require.Equal(t, []platform.PeerID{testPeer}, r.subs.cleared)
	require.Equal(t, 1, r.handlers.resets)
}

func TestDisconnectRestartsAdvertisingWhenConfigured(t *testing.T) {
	r := newRig(Options{AutoAdvertise: true})
	r.policy.bonded = true // even a retained reference leaves the link down
	r.mgr.HandleConnect(testPeer)
	r.mgr.HandleDisconnect(testPeer)

	require.Equal(t, 1, r.adv.restarted)
}

func TestDisconnectWithoutAutoAdvertiseStaysQuiet(t *testing.T) {
	r := newRig(Options{})
	r.mgr.HandleConnect(testPeer)
	r.mgr.HandleDisconnect(testPeer)

	require.Zero(t, r.adv.restarted)
}

func TestDisconnectForUnknownPeerIsIgnored(t *testing.T) {
	r := newRig(Options{})
	r.mgr.HandleConnect(testPeer)
	r.mgr.HandleDisconnect("11:22:33:44:55:66")

	require.True(t, r.mgr.IsConnected())
	assert.Zero(t, r.handlers.resets)
}

func TestDisconnectAPICall(t *testing.T) {
	r := newRig(Options{})
	require.ErrorIs(t, r.mgr.Disconnect(), hiderrors.ErrNotConnected)

	r.mgr.HandleConnect(testPeer)
	require.NoError(t, r.mgr.Disconnect())
	require.Equal(t, []platform.PeerID{testPeer}, r.link.dropped)
}
