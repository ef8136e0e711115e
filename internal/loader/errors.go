// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"github.com/joomcode/errorx"

	"github.com/teensy-tools/teensyctl/internal/catalog"
)

var (
	ErrorsNamespace            = errorx.NewNamespace("loader")
	ConflictingRebootModeError = ErrorsNamespace.NewType("conflicting_reboot_mode")
	UnsupportedSoftRebootError = ErrorsNamespace.NewType("unsupported_soft_reboot")
	FirmwareFileNotFoundError  = ErrorsNamespace.NewType("firmware_file_not_found", errorx.NotFound())
	SpawnError                 = ErrorsNamespace.NewType("process_spawn_failed")

	mcuProperty      = errorx.RegisterPrintableProperty("mcu")
	filePathProperty = errorx.RegisterPrintableProperty("file_path")
	binaryProperty   = errorx.RegisterPrintableProperty("binary")
)

const (
	conflictingRebootModeErrorMsg = "conflicting reboot flags: %s"
	unsupportedSoftRebootErrorMsg = "mcu '%s' does not support soft reboot"
	firmwareFileNotFoundErrorMsg  = "firmware file not found: '%s'"
	spawnErrorMsg                 = "failed to spawn uploader binary '%s'"
)

func NewConflictingRebootModeError(detail string) *errorx.Error {
	return ConflictingRebootModeError.New(conflictingRebootModeErrorMsg, detail)
}

func NewUnsupportedSoftRebootError(mcu catalog.MCU) *errorx.Error {
	return UnsupportedSoftRebootError.New(unsupportedSoftRebootErrorMsg, mcu).
		WithProperty(mcuProperty, string(mcu))
}

func NewFirmwareFileNotFoundError(filePath string) *errorx.Error {
	return FirmwareFileNotFoundError.New(firmwareFileNotFoundErrorMsg, filePath).
		WithProperty(filePathProperty, filePath)
}

func NewSpawnError(cause error, binary string) *errorx.Error {
	err := SpawnError.New(spawnErrorMsg, binary).
		WithProperty(binaryProperty, binary)

	if cause != nil {
		err = err.WithUnderlyingErrors(cause)
	}

	return err
}
