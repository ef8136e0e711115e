// SPDX-License-Identifier: Apache-2.0

package udev

import (
	"github.com/joomcode/errorx"
)

var (
	ErrorsNamespace        = errorx.NewNamespace("udev")
	DownloadError          = ErrorsNamespace.NewType("download_failed")
	PrivilegedCommandError = ErrorsNamespace.NewType("privileged_command_failed")
	LockError              = ErrorsNamespace.NewType("lock_failed")

	urlProperty        = errorx.RegisterPrintableProperty("url")
	statusCodeProperty = errorx.RegisterPrintableProperty("status_code")
	stepProperty       = errorx.RegisterPrintableProperty("step")
	commandProperty    = errorx.RegisterPrintableProperty("command")
)

const (
	downloadErrorMsg          = "failed to download udev rules from URL '%s'"
	privilegedCommandErrorMsg = "privileged command failed during step '%s'"
	lockErrorMsg              = "failed to acquire install lock '%s'"
)

func NewDownloadError(cause error, url string, statusCode int) *errorx.Error {
	err := DownloadError.New(downloadErrorMsg, url).
		WithProperty(urlProperty, url)

	if statusCode > 0 {
		err = err.WithProperty(statusCodeProperty, statusCode)
	}

	if cause != nil {
		err = err.WithUnderlyingErrors(cause)
	}

	return err
}

func NewPrivilegedCommandError(cause error, step, command string) *errorx.Error {
	err := PrivilegedCommandError.New(privilegedCommandErrorMsg, step).
		WithProperty(stepProperty, step).
		WithProperty(commandProperty, command)

	if cause != nil {
		err = err.WithUnderlyingErrors(cause)
	}

	return err
}

func NewLockError(cause error, lockPath string) *errorx.Error {
	err := LockError.New(lockErrorMsg, lockPath)

	if cause != nil {
		err = err.WithUnderlyingErrors(cause)
	}

	return err
}

// FailedStep extracts the name of the privileged sub-step that failed,
// or an empty string if err carries no step property.
func FailedStep(err error) string {
	if val, ok := errorx.ExtractProperty(err, stepProperty); ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
