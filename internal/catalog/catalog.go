// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"strings"

	"github.com/joomcode/errorx"
)

// MCU identifies a microcontroller variant supported by the uploader binary.
// The identifier values match the `--mcu` names the uploader accepts.
type MCU string

// Chip identifiers as reported by the uploader.
const (
	AT90USB162  MCU = "at90usb162"
	ATMEGA32U4  MCU = "atmega32u4"
	AT90USB646  MCU = "at90usb646"
	AT90USB1286 MCU = "at90usb1286"
	MKL26Z64    MCU = "mkl26z64"
	MK20DX128   MCU = "mk20dx128"
	MK20DX256   MCU = "mk20dx256"
	MK66FX1M0   MCU = "mk66fx1m0"
	MK64FX512   MCU = "mk64fx512"
	IMXRT1062   MCU = "imxrt1062"
)

// Board aliases for the chip identifiers above.
const (
	TEENSY2        MCU = "TEENSY2"
	TEENSY2PP      MCU = "TEENSY2PP"
	TEENSYLC       MCU = "TEENSYLC"
	TEENSY30       MCU = "TEENSY30"
	TEENSY31       MCU = "TEENSY31"
	TEENSY32       MCU = "TEENSY32"
	TEENSY35       MCU = "TEENSY35"
	TEENSY36       MCU = "TEENSY36"
	TEENSY40       MCU = "TEENSY40"
	TEENSY41       MCU = "TEENSY41"
	TEENSYMICROMOD MCU = "TEENSY_MICROMOD"
)

// chips maps a board alias to its underlying chip identifier.
var chips = map[MCU]MCU{
	TEENSY2:        ATMEGA32U4,
	TEENSY2PP:      AT90USB1286,
	TEENSYLC:       MKL26Z64,
	TEENSY30:       MK20DX128,
	TEENSY31:       MK20DX256,
	TEENSY32:       MK20DX256,
	TEENSY35:       MK64FX512,
	TEENSY36:       MK66FX1M0,
	TEENSY40:       IMXRT1062,
	TEENSY41:       IMXRT1062,
	TEENSYMICROMOD: IMXRT1062,
}

// softRebootCapable holds the boards that accept a reset over USB signaling.
// Only the Teensy 3.x and 4.x families support it.
var softRebootCapable = map[MCU]bool{
	TEENSY31: true,
	TEENSY32: true,
	TEENSY35: true,
	TEENSY36: true,
	TEENSY40: true,
	TEENSY41: true,
}

var all = []MCU{
	AT90USB162, ATMEGA32U4, AT90USB646, AT90USB1286,
	MKL26Z64, MK20DX128, MK20DX256, MK66FX1M0, MK64FX512, IMXRT1062,
	TEENSY2, TEENSY2PP, TEENSYLC, TEENSY30, TEENSY31, TEENSY32,
	TEENSY35, TEENSY36, TEENSY40, TEENSY41, TEENSYMICROMOD,
}

// All returns every known MCU identifier in a stable order.
func All() []MCU {
	out := make([]MCU, len(all))
	copy(out, all)
	return out
}

// IsValid reports whether id names a known MCU.
func IsValid(id MCU) bool {
	for _, m := range all {
		if m == id {
			return true
		}
	}
	return false
}

// Parse resolves a user supplied identifier to a known MCU.
// Chip identifiers match case-insensitively in lower case, board aliases in upper case.
func Parse(s string) (MCU, error) {
	if IsValid(MCU(s)) {
		return MCU(s), nil
	}
	if m := MCU(strings.ToLower(s)); IsValid(m) {
		return m, nil
	}
	if m := MCU(strings.ToUpper(s)); IsValid(m) {
		return m, nil
	}

	return "", errorx.IllegalArgument.New("unknown mcu: %q", s)
}

// Chip returns the chip identifier behind a board alias.
// Chip identifiers map to themselves.
func (m MCU) Chip() MCU {
	if c, ok := chips[m]; ok {
		return c
	}
	return m
}

// SupportsSoftReboot reports whether m can be reset over USB signaling
// instead of the hardware reset line.
func SupportsSoftReboot(m MCU) bool {
	return softRebootCapable[m]
}

func (m MCU) String() string {
	return string(m)
}
