// Package gattdb builds the HID-over-GATT service database: the fixed
// service/characteristic/descriptor tree a BLE HID peripheral exposes.
// It is built exactly once per initialization and handed to the platform
// backend via platform.GATT.AddService.
package gattdb

import (
	"github.com/virtualhid/blehid/internal/platform"
	"github.com/virtualhid/blehid/internal/report"
	"github.com/virtualhid/blehid/internal/reportmap"
)

// HIDInformation is the fixed 4-byte HID Information payload:
// bcdHID=1.11, country=0, flags=remote-wake|normally-connectable.
var HIDInformation = []byte{0x11, 0x01, 0x00, 0x03}

// ProtocolMode enumerates the Protocol Mode characteristic's legal values.
type ProtocolMode uint8

const (
	ProtocolModeBoot   ProtocolMode = 0x00
	ProtocolModeReport ProtocolMode = 0x01
)

// ReportCharInfo names, for a single report ID, the UUID allocated to its
// Report characteristic and its zero-valued initial payload.
type ReportCharInfo struct {
	ReportID     report.ID
	CharUUID     platform.UUID
	InitialValue []byte
}

// reportOrder fixes the iteration order for the three report characteristics.
var reportOrder = []struct {
	id      report.ID
	initial []byte
}{
	{report.IDMouse, report.Mouse{}.Format()},
	{report.IDKeyboard, report.Keyboard{}.Format()},
	{report.IDConsumer, report.Consumer{}.Format()},
}

// ReportCharacteristics returns the allocated UUID and zero value for each
// of the three per-report-ID Report characteristics, in Mouse/Keyboard/
// Consumer order.
func ReportCharacteristics() []ReportCharInfo {
	out := make([]ReportCharInfo, 0, len(reportOrder))
	for _, r := range reportOrder {
		out = append(out, ReportCharInfo{
			ReportID:     r.id,
			CharUUID:     ReportCharUUID(uint8(r.id)),
			InitialValue: append([]byte(nil), r.initial...),
		})
	}
	return out
}

// Build constructs the HID service definition tree. All readable
// characteristics and all CCCDs require encryption, forcing pairing before
// any notification can flow.
func Build() platform.ServiceDef {
	const (
		readEncrypted  = platform.PermRead | platform.PermEncryptedRead
		writeNoRsp     = platform.PermWriteNoResponse
		readWriteNoRsp = platform.PermRead | platform.PermEncryptedRead | platform.PermWriteNoResponse
		cccdPerms      = platform.PermRead | platform.PermWrite | platform.PermEncryptedRead | platform.PermEncryptedWrite
	)

	chars := []platform.CharacteristicDef{
		{
			UUID:         HIDInformationUUID,
			Perms:        readEncrypted,
			InitialValue: append([]byte(nil), HIDInformation...),
		},
		{
			UUID:         ReportMapUUID,
			Perms:        readEncrypted,
			InitialValue: append([]byte(nil), reportmap.Bytes...),
		},
		{
			UUID:  HIDControlPointUUID,
			Perms: writeNoRsp,
		},
		{
			UUID:         ProtocolModeUUID,
			Perms:        readWriteNoRsp,
			InitialValue: []byte{byte(ProtocolModeReport)},
		},
	}

	for _, rc := range ReportCharacteristics() {
		chars = append(chars, platform.CharacteristicDef{
			UUID:         rc.CharUUID,
			Perms:        readEncrypted,
			InitialValue: rc.InitialValue,
			Descriptors: []platform.DescriptorDef{
				{
					UUID:  ReportReferenceUUID,
					Perms: platform.PermRead | platform.PermEncryptedRead,
					Value: []byte{byte(rc.ReportID), 0x01}, // 0x01 = Input report
				},
				{
					UUID:  CCCDUUID,
					Perms: cccdPerms,
					Value: []byte{byte(platform.CCCDOff), 0},
				},
			},
		})
	}

	chars = append(chars, platform.CharacteristicDef{
		UUID:         BootMouseInputReportUUID,
		Perms:        readEncrypted,
		InitialValue: report.Mouse{}.FormatBoot(),
		Descriptors: []platform.DescriptorDef{
			{
				UUID:  CCCDUUID,
				Perms: cccdPerms,
				Value: []byte{byte(platform.CCCDOff), 0},
			},
		},
	})

	return platform.ServiceDef{
		UUID:            ServiceUUID,
		Characteristics: chars,
	}
}
