// Package reportmap holds the immutable composite USB-HID report descriptor
// advertised via the Report Map characteristic (0x2A4B). It declares three
// top-level application collections — mouse, keyboard, consumer — each
// tagged with its own report ID, sharing one descriptor the way a single
// composite HID device does on USB.
package reportmap

// Bytes is the authoritative, byte-exact report map. Hosts parse this
// byte-for-byte during enumeration, so any change to a report's shape has
// to be mirrored here item by item.
var Bytes = []byte{
	// Mouse application collection, report ID 1.
	0x05, 0x01, 0x09, 0x02, 0xA1, 0x01, 0x85, 0x01, 0x09, 0x01, 0xA1, 0x00,
	0x05, 0x09, 0x19, 0x01, 0x29, 0x03, 0x15, 0x00, 0x25, 0x01, 0x95, 0x03, 0x75, 0x01, 0x81, 0x02,
	0x95, 0x01, 0x75, 0x05, 0x81, 0x01,
	0x05, 0x01, 0x09, 0x30, 0x09, 0x31, 0x09, 0x38, 0x15, 0x81, 0x25, 0x7F, 0x75, 0x08, 0x95, 0x03, 0x81, 0x06,
	0xC0, 0xC0,

	// Keyboard application collection, report ID 2.
	0x05, 0x01, 0x09, 0x06, 0xA1, 0x01, 0x85, 0x02,
	0x05, 0x07, 0x19, 0xE0, 0x29, 0xE7, 0x15, 0x00, 0x25, 0x01, 0x75, 0x01, 0x95, 0x08, 0x81, 0x02,
	0x95, 0x01, 0x75, 0x08, 0x81, 0x01,
	0x95, 0x06, 0x75, 0x08, 0x15, 0x00, 0x25, 0x65, 0x05, 0x07, 0x19, 0x00, 0x29, 0x65, 0x81, 0x00,
	0xC0,

	// Consumer control application collection, report ID 3.
	0x05, 0x0C, 0x09, 0x01, 0xA1, 0x01, 0x85, 0x03,
	0x15, 0x00, 0x26, 0xFF, 0x03, 0x19, 0x00, 0x2A, 0xFF, 0x03, 0x75, 0x10, 0x95, 0x01, 0x81, 0x00,
	0xC0,
}
