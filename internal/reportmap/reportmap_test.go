package reportmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesExactSequence(t *testing.T) {
	want := []byte{
		0x05, 0x01, 0x09, 0x02, 0xA1, 0x01, 0x85, 0x01, 0x09, 0x01, 0xA1, 0x00,
		0x05, 0x09, 0x19, 0x01, 0x29, 0x03, 0x15, 0x00, 0x25, 0x01, 0x95, 0x03, 0x75, 0x01, 0x81, 0x02,
		0x95, 0x01, 0x75, 0x05, 0x81, 0x01,
		0x05, 0x01, 0x09, 0x30, 0x09, 0x31, 0x09, 0x38, 0x15, 0x81, 0x25, 0x7F, 0x75, 0x08, 0x95, 0x03, 0x81, 0x06,
		0xC0, 0xC0,
		0x05, 0x01, 0x09, 0x06, 0xA1, 0x01, 0x85, 0x02,
		0x05, 0x07, 0x19, 0xE0, 0x29, 0xE7, 0x15, 0x00, 0x25, 0x01, 0x75, 0x01, 0x95, 0x08, 0x81, 0x02,
		0x95, 0x01, 0x75, 0x08, 0x81, 0x01,
		0x95, 0x06, 0x75, 0x08, 0x15, 0x00, 0x25, 0x65, 0x05, 0x07, 0x19, 0x00, 0x29, 0x65, 0x81, 0x00,
		0xC0,
		0x05, 0x0C, 0x09, 0x01, 0xA1, 0x01, 0x85, 0x03,
		0x15, 0x00, 0x26, 0xFF, 0x03, 0x19, 0x00, 0x2A, 0xFF, 0x03, 0x75, 0x10, 0x95, 0x01, 0x81, 0x00,
		0xC0,
	}
	require.Equal(t, want, Bytes)
}

func TestReportIDsPresentInOrder(t *testing.T) {
	// 0x85 is the Report ID item tag; verify each of the three IDs appears.
	var ids []byte
	for i := 0; i+1 < len(Bytes); i++ {
		if Bytes[i] == 0x85 {
			ids = append(ids, Bytes[i+1])
		}
	}
	require.Equal(t, []byte{1, 2, 3}, ids)
}
