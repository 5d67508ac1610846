package advertising

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualhid/blehid/internal/hiderrors"
	"github.com/virtualhid/blehid/internal/platform"
)

type fakeStarter struct {
	startErr    error
	starts      int
	stops       int
	advertising bool
}

func (f *fakeStarter) StartAdvertising(platform.AdvParams) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	f.advertising = true
	return nil
}

func (f *fakeStarter) StopAdvertising() error {
	f.stops++
	f.advertising = false
	return nil
}

func (f *fakeStarter) IsAdvertising() bool { return f.advertising }

type fakeConn struct{ connected bool }

func (f *fakeConn) IsConnected() bool { return f.connected }

func newController(autoRestart bool) (*Controller, *fakeStarter, *fakeConn) {
	starter := &fakeStarter{}
	conn := &fakeConn{}
	return New(starter, conn, platform.AdvParams{}, autoRestart), starter, conn
}

func TestStartTwiceIsSingleSession(t *testing.T) {
	c, starter, _ := newController(false)

	require.NoError(t, c.Start())
	require.NoError(t, c.Start())
	require.Equal(t, 1, starter.starts, "second start must not open a second session")
	require.True(t, c.IsAdvertising())
}

func TestStartWhileConnectedIsRejected(t *testing.T) {
	c, starter, conn := newController(false)
	conn.connected = true

	err := c.Start()
	var advErr *hiderrors.AdvertisingFailedError
	require.ErrorAs(t, err, &advErr)
	require.Zero(t, starter.starts, "must not touch the platform while a peer is connected")
	require.ErrorAs(t, c.LastError(), &advErr)
}

func TestStartFailureClassification(t *testing.T) {
	cases := []struct {
		platformErr error
		want        hiderrors.AdvertisingFailReason
	}{
		{platform.ErrAdvDataTooLarge, hiderrors.AdvDataTooLarge},
		{platform.ErrAdvUnsupported, hiderrors.AdvUnsupported},
		{platform.ErrAdvTooMany, hiderrors.AdvTooMany},
		{platform.ErrAdvAlreadyStarted, hiderrors.AdvAlreadyStarted},
		{errors.New("something else"), hiderrors.AdvInternal},
	}
	for _, tc := range cases {
		c, starter, _ := newController(false)
		starter.startErr = tc.platformErr

		err := c.Start()
		var advErr *hiderrors.AdvertisingFailedError
		require.ErrorAs(t, err, &advErr)
		assert.Equal(t, tc.want, advErr.Reason)
		assert.False(t, c.IsAdvertising())
	}
}

func TestStopThenStartAgain(t *testing.T) {
	c, starter, _ := newController(false)

	require.NoError(t, c.Start())
	require.NoError(t, c.StopAdvertising())
	require.False(t, c.IsAdvertising())
	require.NoError(t, c.Start())
	require.Equal(t, 2, starter.starts)
}

func TestSuccessfulStartClearsLastError(t *testing.T) {
	c, starter, _ := newController(false)
	starter.startErr = platform.ErrAdvTooMany
	require.Error(t, c.Start())
	require.Error(t, c.LastError())

	starter.startErr = nil
	require.NoError(t, c.Start())
	require.NoError(t, c.LastError())
}

func TestMaybeAutoRestart(t *testing.T) {
	c, starter, _ := newController(true)
	c.MaybeAutoRestart()
	require.Equal(t, 1, starter.starts)
}

func TestMaybeAutoRestartDisabled(t *testing.T) {
	c, starter, _ := newController(false)
	c.MaybeAutoRestart()
	require.Zero(t, starter.starts)
}

func TestMaybeAutoRestartCapturesFailure(t *testing.T) {
	c, starter, _ := newController(true)
	starter.startErr = platform.ErrAdvTooMany

	c.MaybeAutoRestart()
	require.Error(t, c.LastError())
}
