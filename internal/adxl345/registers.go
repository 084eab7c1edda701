// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adxl345

import "fmt"

// Register is the address of one of the ADXL345 internal registers.
type Register byte

const (
	RegDevID       Register = 0x00 // Device ID, reads 0xE5
	RegThreshTap   Register = 0x1D // Tap threshold, 62.5 mg/LSB
	RegOfsX        Register = 0x1E // X-axis offset, 15.6 mg/LSB
	RegOfsY        Register = 0x1F // Y-axis offset
	RegOfsZ        Register = 0x20 // Z-axis offset
	RegDur         Register = 0x21 // Tap duration, 625 µs/LSB
	RegLatent      Register = 0x22 // Tap latency, 1.25 ms/LSB
	RegWindow      Register = 0x23 // Tap window, 1.25 ms/LSB
	RegThreshAct   Register = 0x24 // Activity threshold, 62.5 mg/LSB
	RegThreshInact Register = 0x25 // Inactivity threshold, 62.5 mg/LSB
	RegTimeInact   Register = 0x26 // Inactivity time, 1 s/LSB
	RegActInactCtl Register = 0x27 // Axis enable control for activity/inactivity
	RegThreshFF    Register = 0x28 // Free-fall threshold
	RegTimeFF      Register = 0x29 // Free-fall time
	RegTapAxes     Register = 0x2A // Axis control for single/double tap
	RegActTapStat  Register = 0x2B // Source of single/double tap
	RegBwRate      Register = 0x2C // Data rate and power mode control
	RegPowerCtl    Register = 0x2D // Power-saving features control
	RegIntEnable   Register = 0x2E // Interrupt enable control
	RegIntMap      Register = 0x2F // Interrupt mapping control
	RegIntSource   Register = 0x30 // Source of interrupts
	RegDataFormat  Register = 0x31 // Data format control
	RegDataX0      Register = 0x32 // X-axis data 0
	RegDataX1      Register = 0x33 // X-axis data 1
	RegDataY0      Register = 0x34 // Y-axis data 0
	RegDataY1      Register = 0x35 // Y-axis data 1
	RegDataZ0      Register = 0x36 // Z-axis data 0
	RegDataZ1      Register = 0x37 // Z-axis data 1
	RegFIFOCtl     Register = 0x38 // FIFO control
	RegFIFOStatus  Register = 0x39 // FIFO status
)

func (r Register) String() string {
	if info, ok := registerIndex[r]; ok {
		return info.Name
	}
	return fmt.Sprintf("REG_0x%02X", byte(r))
}

// Writable reports whether r is a read-write register.
func (r Register) Writable() bool {
	info, ok := registerIndex[r]
	return ok && info.Access == "RW"
}

// BitField describes a field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo carries the metadata shown by the register debug tool.
type RegisterInfo struct {
	Address     Register   `json:"-"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R" or "RW"
	Default     byte       `json:"-"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

var interruptBits = []BitField{
	{Bits: "7", Name: "DATA_READY", Description: "New data available"},
	{Bits: "6", Name: "SINGLE_TAP", Description: "Single tap detected"},
	{Bits: "5", Name: "DOUBLE_TAP", Description: "Double tap detected"},
	{Bits: "4", Name: "Activity", Description: "Activity threshold exceeded"},
	{Bits: "3", Name: "Inactivity", Description: "Below inactivity threshold for TIME_INACT"},
	{Bits: "2", Name: "FREE_FALL", Description: "Free-fall detected"},
	{Bits: "1", Name: "Watermark", Description: "FIFO watermark reached"},
	{Bits: "0", Name: "Overrun", Description: "Data overwritten before read"},
}

var registerMap = []RegisterInfo{
	{Address: RegDevID, Name: "DEVID", Description: "Device ID", Access: "R", Default: DeviceID},
	{Address: RegThreshTap, Name: "THRESH_TAP", Description: "Tap threshold (62.5 mg/LSB)", Access: "RW"},
	{Address: RegOfsX, Name: "OFSX", Description: "X-axis offset (15.6 mg/LSB, two's complement)", Access: "RW"},
	{Address: RegOfsY, Name: "OFSY", Description: "Y-axis offset (15.6 mg/LSB, two's complement)", Access: "RW"},
	{Address: RegOfsZ, Name: "OFSZ", Description: "Z-axis offset (15.6 mg/LSB, two's complement)", Access: "RW"},
	{Address: RegDur, Name: "DUR", Description: "Tap duration (625 µs/LSB)", Access: "RW"},
	{Address: RegLatent, Name: "LATENT", Description: "Tap latency (1.25 ms/LSB)", Access: "RW"},
	{Address: RegWindow, Name: "WINDOW", Description: "Tap window (1.25 ms/LSB)", Access: "RW"},
	{Address: RegThreshAct, Name: "THRESH_ACT", Description: "Activity threshold (62.5 mg/LSB)", Access: "RW"},
	{Address: RegThreshInact, Name: "THRESH_INACT", Description: "Inactivity threshold (62.5 mg/LSB)", Access: "RW"},
	{Address: RegTimeInact, Name: "TIME_INACT", Description: "Inactivity time (1 s/LSB)", Access: "RW"},
	{Address: RegActInactCtl, Name: "ACT_INACT_CTL", Description: "Activity/inactivity axis control", Access: "RW",
		BitFields: []BitField{
			{Bits: "7", Name: "ACT_ac/dc", Description: "Activity coupling", Values: "0=DC, 1=AC"},
			{Bits: "6:4", Name: "ACT_X/Y/Z", Description: "Activity axis enables"},
			{Bits: "3", Name: "INACT_ac/dc", Description: "Inactivity coupling", Values: "0=DC, 1=AC"},
			{Bits: "2:0", Name: "INACT_X/Y/Z", Description: "Inactivity axis enables"},
		}},
	{Address: RegThreshFF, Name: "THRESH_FF", Description: "Free-fall threshold (62.5 mg/LSB)", Access: "RW"},
	{Address: RegTimeFF, Name: "TIME_FF", Description: "Free-fall time (5 ms/LSB)", Access: "RW"},
	{Address: RegTapAxes, Name: "TAP_AXES", Description: "Tap axis control", Access: "RW"},
	{Address: RegActTapStat, Name: "ACT_TAP_STATUS", Description: "Source of activity/tap", Access: "R"},
	{Address: RegBwRate, Name: "BW_RATE", Description: "Data rate and power mode", Access: "RW", Default: byte(Rate100Hz),
		BitFields: []BitField{
			{Bits: "4", Name: "LOW_POWER", Description: "Reduced power operation", Values: "0=Normal, 1=Low power"},
			{Bits: "3:0", Name: "Rate", Description: "Output data rate", Values: "0x0=0.10Hz ... 0x7=12.5Hz, 0xA=100Hz, 0xF=3200Hz"},
		}},
	{Address: RegPowerCtl, Name: "POWER_CTL", Description: "Power-saving features control", Access: "RW",
		BitFields: []BitField{
			{Bits: "5", Name: "Link", Description: "Serial activity/inactivity", Values: "0=Concurrent, 1=Linked"},
			{Bits: "4", Name: "AUTO_SLEEP", Description: "Auto sleep on inactivity"},
			{Bits: "3", Name: "Measure", Description: "Measurement mode", Values: "0=Standby, 1=Measure"},
			{Bits: "2", Name: "Sleep", Description: "Sleep mode"},
			{Bits: "1:0", Name: "Wakeup", Description: "Sleep sampling frequency", Values: "0=8Hz, 1=4Hz, 2=2Hz, 3=1Hz"},
		}},
	{Address: RegIntEnable, Name: "INT_ENABLE", Description: "Interrupt enable control", Access: "RW", BitFields: interruptBits},
	{Address: RegIntMap, Name: "INT_MAP", Description: "Interrupt mapping (1=INT2)", Access: "RW", BitFields: interruptBits},
	{Address: RegIntSource, Name: "INT_SOURCE", Description: "Source of interrupts", Access: "R", Default: 0x02, BitFields: interruptBits},
	{Address: RegDataFormat, Name: "DATA_FORMAT", Description: "Data format control", Access: "RW",
		BitFields: []BitField{
			{Bits: "7", Name: "SELF_TEST", Description: "Self-test force"},
			{Bits: "6", Name: "SPI", Description: "SPI mode", Values: "0=4-wire, 1=3-wire"},
			{Bits: "5", Name: "INT_INVERT", Description: "Interrupt polarity", Values: "0=Active high, 1=Active low"},
			{Bits: "3", Name: "FULL_RES", Description: "Resolution", Values: "0=10-bit, 1=Full resolution (3.9 mg/LSB)"},
			{Bits: "2", Name: "Justify", Description: "Justification", Values: "0=Right, 1=Left (MSB)"},
			{Bits: "1:0", Name: "Range", Description: "g range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
		}},
	{Address: RegDataX0, Name: "DATAX0", Description: "X-axis data low byte", Access: "R"},
	{Address: RegDataX1, Name: "DATAX1", Description: "X-axis data high byte", Access: "R"},
	{Address: RegDataY0, Name: "DATAY0", Description: "Y-axis data low byte", Access: "R"},
	{Address: RegDataY1, Name: "DATAY1", Description: "Y-axis data high byte", Access: "R"},
	{Address: RegDataZ0, Name: "DATAZ0", Description: "Z-axis data low byte", Access: "R"},
	{Address: RegDataZ1, Name: "DATAZ1", Description: "Z-axis data high byte", Access: "R"},
	{Address: RegFIFOCtl, Name: "FIFO_CTL", Description: "FIFO control", Access: "RW",
		BitFields: []BitField{
			{Bits: "7:6", Name: "FIFO_MODE", Description: "FIFO mode", Values: "0=Bypass, 1=FIFO, 2=Stream, 3=Trigger"},
			{Bits: "5", Name: "Trigger", Description: "Trigger event link", Values: "0=INT1, 1=INT2"},
			{Bits: "4:0", Name: "Samples", Description: "Watermark level"},
		}},
	{Address: RegFIFOStatus, Name: "FIFO_STATUS", Description: "FIFO status", Access: "R"},
}

var registerIndex = func() map[Register]RegisterInfo {
	m := make(map[Register]RegisterInfo, len(registerMap))
	for _, r := range registerMap {
		m[r.Address] = r
	}
	return m
}()

// RegisterMap returns the metadata of every documented register, in
// ascending address order.
func RegisterMap() []RegisterInfo {
	out := make([]RegisterInfo, len(registerMap))
	copy(out, registerMap)
	return out
}
