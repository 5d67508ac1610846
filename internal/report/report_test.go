package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMouseFormat(t *testing.T) {
	for buttons := uint8(0); buttons <= 7; buttons++ {
		for _, dx := range []int{-127, -1, 0, 1, 127, 200, -200} {
			for _, dy := range []int{-127, 0, 127, -500} {
				m := NewMouse(buttons, dx, dy, 0)
				got := m.Format()
				require.Len(t, got, 4)
				require.Equal(t, buttons&0x07, got[0])
				require.Equal(t, byte(m.DX), got[1])
				require.Equal(t, byte(m.DY), got[2])
				require.GreaterOrEqual(t, int(m.DX), -127)
				require.LessOrEqual(t, int(m.DX), 127)
				require.GreaterOrEqual(t, int(m.DY), -127)
				require.LessOrEqual(t, int(m.DY), 127)
			}
		}
	}
}

func TestMouseNudgeWireBytes(t *testing.T) {
	m := NewMouse(0, 5, -3, 0)
	require.Equal(t, []byte{0x00, 0x05, 0xFD, 0x00}, m.Format())
}

func TestMouseClickWireBytes(t *testing.T) {
	pressed := NewMouse(ButtonLeft, 0, 0, 0)
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, pressed.Format())
	released := NewMouse(0, 0, 0, 0)
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, released.Format())
}

func TestMouseFormatBootIs3Bytes(t *testing.T) {
	m := NewMouse(ButtonRight, 10, -10, 5)
	got := m.FormatBoot()
	require.Len(t, got, 3)
	require.Equal(t, byte(ButtonRight), got[0])
}

func TestKeyboardFormat(t *testing.T) {
	k := KeyboardMulti(ModLeftShift, []uint8{0x04, 0x05})
	got := k.Format()
	require.Len(t, got, 8)
	require.Equal(t, ModLeftShift, got[0])
	require.Equal(t, byte(0), got[1])
	require.Equal(t, []byte{0x04, 0x05, 0, 0, 0, 0}, got[2:])
}

func TestKeyboardMultiTruncatesBeyondSix(t *testing.T) {
	k := KeyboardMulti(0, []uint8{1, 2, 3, 4, 5, 6, 7, 8})
	got := k.Format()
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, got[2:])
}

func TestKeyboardEmptyIsAllZero(t *testing.T) {
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, KeyboardEmpty().Format())
}

func TestConsumerFormat(t *testing.T) {
	for b := 0; b <= 0xFF; b++ {
		c := ConsumerFromBits(uint8(b))
		require.Equal(t, []byte{byte(b), 0}, c.Format())
	}
}

func TestReportIDsNeverAppearInWireBytes(t *testing.T) {
	// Report IDs are 1, 2, 3 — verify none of the wire encodings leak them
	// as a leading tag byte distinct from payload content.
	m := NewMouse(0, 1, 2, 3).Format()
	require.NotEqual(t, byte(IDMouse), m[0])
	k := KeyboardSingle(0, 0x1D).Format() // 0x1D == 'Z', unrelated to IDKeyboard
	require.Equal(t, uint8(0), k[0])
}
