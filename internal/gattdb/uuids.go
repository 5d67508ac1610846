package gattdb

import (
	"encoding/binary"

	"github.com/virtualhid/blehid/internal/platform"
)

// baseUUID is the Bluetooth SIG Base UUID, used to expand 16-bit assigned
// numbers into full 128-bit UUIDs: 0000XXXX-0000-1000-8000-00805F9B34FB.
var baseUUID = platform.UUID{
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00,
	0x10, 0x00,
	0x80, 0x00,
	0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB,
}

// short16 expands a 16-bit Bluetooth SIG assigned number to a full UUID.
func short16(n uint16) platform.UUID {
	u := baseUUID
	binary.BigEndian.PutUint16(u[2:4], n)
	return u
}

// Bluetooth SIG assigned numbers used throughout the HID-over-GATT profile.
const (
	shortServiceHID                = 0x1812
	shortCharHIDInformation        = 0x2A4A
	shortCharReportMap             = 0x2A4B
	shortCharHIDControlPoint       = 0x2A4C
	shortCharReport                = 0x2A4D
	shortCharProtocolMode          = 0x2A4E
	shortCharBootMouseInputReport  = 0x2A33
	shortDescriptorCCCD            = 0x2902
	shortDescriptorReportReference = 0x2908
)

// ServiceUUID is the HID service UUID (0x1812).
var ServiceUUID = short16(shortServiceHID)

// HIDInformationUUID is the HID Information characteristic UUID (0x2A4A).
var HIDInformationUUID = short16(shortCharHIDInformation)

// ReportMapUUID is the Report Map characteristic UUID (0x2A4B).
var ReportMapUUID = short16(shortCharReportMap)

// HIDControlPointUUID is the HID Control Point characteristic UUID (0x2A4C).
var HIDControlPointUUID = short16(shortCharHIDControlPoint)

// ProtocolModeUUID is the Protocol Mode characteristic UUID (0x2A4E).
var ProtocolModeUUID = short16(shortCharProtocolMode)

// BootMouseInputReportUUID is the Boot Mouse Input Report characteristic
// UUID (0x2A33).
var BootMouseInputReportUUID = short16(shortCharBootMouseInputReport)

// CCCDUUID is the Client Characteristic Configuration Descriptor UUID (0x2902).
var CCCDUUID = short16(shortDescriptorCCCD)

// ReportReferenceUUID is the Report Reference descriptor UUID (0x2908).
var ReportReferenceUUID = short16(shortDescriptorReportReference)

// ReportCharUUID returns the per-report-ID Report characteristic UUID: the
// base 0x2A4D Report UUID with reportID added into the low 64 bits. This
// disambiguates the three Report characteristics for hosts that key off
// UUID during discovery rather than reading the Report Reference descriptor.
func ReportCharUUID(reportID uint8) platform.UUID {
	u := short16(shortCharReport)
	// Add reportID to the UUID's low 64-bit integer (bytes 8..16, big-endian).
	low := binary.BigEndian.Uint64(u[8:16])
	low += uint64(reportID)
	binary.BigEndian.PutUint64(u[8:16], low)
	return u
}
