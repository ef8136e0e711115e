// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

func TestSupportsSoftReboot(t *testing.T) {
	capable := map[MCU]bool{
		TEENSY31: true,
		TEENSY32: true,
		TEENSY35: true,
		TEENSY36: true,
		TEENSY40: true,
		TEENSY41: true,
	}

	for _, m := range All() {
		require.Equal(t, capable[m], SupportsSoftReboot(m), "soft reboot capability mismatch for %s", m)
	}
}

func TestAll_ContainsKnownIdentifiers(t *testing.T) {
	seen := map[MCU]bool{}
	for _, m := range All() {
		require.False(t, seen[m], "duplicate identifier %s", m)
		seen[m] = true
	}

	require.True(t, seen[ATMEGA32U4])
	require.True(t, seen[IMXRT1062])
	require.True(t, seen[TEENSYMICROMOD])
	require.Len(t, seen, 21)
}

func TestParse(t *testing.T) {
	m, err := Parse("TEENSY40")
	require.NoError(t, err)
	require.Equal(t, TEENSY40, m)

	m, err = Parse("teensy40")
	require.NoError(t, err)
	require.Equal(t, TEENSY40, m)

	m, err = Parse("ATMEGA32U4")
	require.NoError(t, err)
	require.Equal(t, ATMEGA32U4, m)

	_, err = Parse("teensy99")
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, errorx.IllegalArgument), "expected IllegalArgument, got %v", err)
}

func TestChip(t *testing.T) {
	require.Equal(t, MK20DX256, TEENSY31.Chip())
	require.Equal(t, MK20DX256, TEENSY32.Chip())
	require.Equal(t, IMXRT1062, TEENSY41.Chip())

	// chip identifiers map to themselves
	require.Equal(t, IMXRT1062, IMXRT1062.Chip())
}

func TestIsValid(t *testing.T) {
	require.True(t, IsValid(TEENSYLC))
	require.False(t, IsValid(MCU("teensy50")))
	require.False(t, IsValid(MCU("")))
}
