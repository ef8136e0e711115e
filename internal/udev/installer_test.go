// SPDX-License-Identifier: Apache-2.0

package udev

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

const testRulesContent = `ATTRS{idVendor}=="16c0", ATTRS{idProduct}=="04[789b]?", MODE:="0666"` + "\n"

// stubRunCmd replaces RunCmd for the duration of the test and returns a
// pointer to the recorded command lines.
func stubRunCmd(t *testing.T, fail func(args []string) error) *[][]string {
	t.Helper()

	var calls [][]string
	orig := RunCmd
	RunCmd = func(name string, args ...string) error {
		argv := append([]string{name}, args...)
		calls = append(calls, argv)
		if fail != nil {
			return fail(argv)
		}
		return nil
	}
	t.Cleanup(func() { RunCmd = orig })

	return &calls
}

// rulesServer serves the rules file and counts download requests.
func rulesServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()

	downloads := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(testRulesContent))
	}))
	t.Cleanup(server.Close)

	return server, &downloads
}

func testOptions(t *testing.T, url string, dryRun bool) Options {
	t.Helper()
	return Options{
		RulesURL:       url,
		RulesPath:      filepath.Join(t.TempDir(), "00-teensy.rules"),
		PreflightDelay: time.Millisecond,
		DryRun:         dryRun,
	}
}

func TestInstall_ExistingRulesFileIsNeverOverwritten(t *testing.T) {
	server, downloads := rulesServer(t)
	calls := stubRunCmd(t, nil)

	opts := testOptions(t, server.URL, false)
	require.NoError(t, os.WriteFile(opts.RulesPath, []byte("# customized\n"), 0o644))

	installer := NewInstaller(opts)
	report, err := installer.Install(context.Background())
	require.NoError(t, err)
	require.Nil(t, report, "existing rules file must short-circuit the workflow")

	require.Zero(t, *downloads, "no download may happen when the rules file exists")
	require.Empty(t, *calls, "no privileged command may run when the rules file exists")

	content, err := os.ReadFile(opts.RulesPath)
	require.NoError(t, err)
	require.Equal(t, "# customized\n", string(content), "existing rules file must be untouched")
}

func TestInstall_DryRunDownloadsButRunsNoCommands(t *testing.T) {
	server, downloads := rulesServer(t)
	calls := stubRunCmd(t, nil)

	installer := NewInstaller(testOptions(t, server.URL, true))
	report, err := installer.Install(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	require.NoError(t, report.Error)

	require.Equal(t, 1, *downloads, "dry run must perform exactly one download")
	require.Empty(t, *calls, "dry run must not execute privileged commands")
}

func TestInstall_LiveRunsThreeCommandsInOrder(t *testing.T) {
	server, downloads := rulesServer(t)
	calls := stubRunCmd(t, nil)

	opts := testOptions(t, server.URL, false)
	installer := NewInstaller(opts)
	report, err := installer.Install(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	require.NoError(t, report.Error)

	require.Equal(t, 1, *downloads)
	require.Len(t, *calls, 3)

	install := (*calls)[0]
	require.Equal(t, "sudo", install[0])
	require.Equal(t, "install", install[1])
	require.Contains(t, strings.Join(install, " "), "-o root -g root -m 0664")
	require.Equal(t, opts.RulesPath, install[len(install)-1])

	require.Equal(t, []string{"sudo", "udevadm", "control", "--reload-rules"}, (*calls)[1])
	require.Equal(t, []string{"sudo", "udevadm", "trigger"}, (*calls)[2])
}

func TestInstall_ReloadFailureStopsBeforeTrigger(t *testing.T) {
	server, _ := rulesServer(t)
	calls := stubRunCmd(t, func(argv []string) error {
		if len(argv) > 1 && argv[1] == "udevadm" && argv[2] == "control" {
			return errors.New("udevadm: command failed")
		}
		return nil
	})

	installer := NewInstaller(testOptions(t, server.URL, false))
	report, err := installer.Install(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Error(t, report.Error)

	require.Len(t, *calls, 2, "trigger must not run after reload fails")

	var stepErr error
	for _, stepReport := range report.StepReports {
		if stepReport.HasError() {
			stepErr = stepReport.Error
			break
		}
	}
	require.Error(t, stepErr)
	require.True(t, errorx.IsOfType(stepErr, PrivilegedCommandError), "expected PrivilegedCommandError, got %v", stepErr)
	require.Equal(t, ReloadUdevStepId, FailedStep(stepErr))
}

func TestInstall_DownloadFailureAbortsBeforeCommands(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	calls := stubRunCmd(t, nil)

	installer := NewInstaller(testOptions(t, server.URL, false))
	report, err := installer.Install(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Error(t, report.Error)

	require.Empty(t, *calls, "no privileged command may run after a failed download")

	var stepErr error
	for _, stepReport := range report.StepReports {
		if stepReport.HasError() {
			stepErr = stepReport.Error
			break
		}
	}
	require.Error(t, stepErr)
	require.True(t, errorx.IsOfType(stepErr, DownloadError), "expected DownloadError, got %v", stepErr)
}
