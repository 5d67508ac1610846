package subscription

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/virtualhid/blehid/internal/platform"
)

var testChar = platform.UUID{0x2A, 0x4D}

func TestInitialStateIsOff(t *testing.T) {
	tr := New()
	require.Equal(t, StateOff, tr.Get("peer1", testChar))
	require.False(t, tr.IsSubscribed("peer1", testChar))
}

func TestSetAndGet(t *testing.T) {
	tr := New()
	prev := tr.Set("peer1", testChar, StateNotify)
	require.Equal(t, StateOff, prev)
	require.True(t, tr.IsSubscribed("peer1", testChar))

	prev = tr.Set("peer1", testChar, StateOff)
	require.Equal(t, StateNotify, prev)
	require.False(t, tr.IsSubscribed("peer1", testChar))
}

func TestParseCCCDValue(t *testing.T) {
	cases := []struct {
		in   []byte
		want State
		err  bool
	}{
		{[]byte{0x00, 0x00}, StateOff, false},
		{[]byte{0x01, 0x00}, StateNotify, false},
		{[]byte{0x02, 0x00}, StateIndicate, false},
		{[]byte{0x03, 0x00}, StateOff, true},
		{[]byte{0x01}, StateOff, true},
	}
	for _, c := range cases {
		got, err := ParseCCCDValue(c.in)
		if c.err {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, c.want, got)
	}
}

func TestClearPeerOnlyAffectsThatPeer(t *testing.T) {
	tr := New()
	tr.Set("peer1", testChar, StateNotify)
	tr.Set("peer2", testChar, StateNotify)
	tr.ClearPeer("peer1")
	require.False(t, tr.IsSubscribed("peer1", testChar))
	require.True(t, tr.IsSubscribed("peer2", testChar))
}
