// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"

	"github.com/teensy-tools/teensyctl/internal/catalog"
)

// fakeRunner records invocations and returns scripted results.
type fakeRunner struct {
	calls  [][]string
	runErr error
	stdout string
	stderr string
	outErr error
}

func (f *fakeRunner) record(name string, args []string) {
	f.calls = append(f.calls, append([]string{name}, args...))
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.record(name, args)
	return f.runErr
}

func (f *fakeRunner) Stdout(ctx context.Context, name string, args ...string) (string, error) {
	f.record(name, args)
	return f.stdout, f.outErr
}

func (f *fakeRunner) Stderr(ctx context.Context, name string, args ...string) (string, error) {
	f.record(name, args)
	return f.stderr, f.outErr
}

func writeFirmwareFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blink.hex")
	require.NoError(t, os.WriteFile(path, []byte(":00000001FF\n"), 0o644))
	return path
}

func TestUsage_ForwardsStderrAndIgnoresExitStatus(t *testing.T) {
	runner := &fakeRunner{stderr: "Usage: teensy_loader_cli ...\n", outErr: &exec.ExitError{}}
	var out bytes.Buffer
	l := New("", WithRunner(runner), WithOutput(&out))

	err := l.Usage(context.Background())
	require.NoError(t, err, "non-zero exit from --help must not be treated as failure")
	require.Equal(t, "Usage: teensy_loader_cli ...\n", out.String())
	require.Equal(t, [][]string{{DefaultBinary, "--help"}}, runner.calls)
}

func TestUsage_SpawnFailure(t *testing.T) {
	runner := &fakeRunner{outErr: errors.New("executable file not found in $PATH")}
	l := New("", WithRunner(runner), WithOutput(&bytes.Buffer{}))

	err := l.Usage(context.Background())
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, SpawnError), "expected SpawnError, got %v", err)
}

func TestListMCUs_ForwardsStdout(t *testing.T) {
	runner := &fakeRunner{stdout: "imxrt1062\nmk20dx256\n"}
	var out bytes.Buffer
	l := New("", WithRunner(runner), WithOutput(&out))

	require.NoError(t, l.ListMCUs(context.Background()))
	require.Equal(t, "imxrt1062\nmk20dx256\n", out.String())
	require.Equal(t, [][]string{{DefaultBinary, "--list-mcus"}}, runner.calls)
}

func TestBoot_ArgumentConstruction(t *testing.T) {
	runner := &fakeRunner{}
	l := New("", WithRunner(runner))

	ok, err := l.Boot(context.Background(), BootOptions{Wait: true, Verbose: true})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, [][]string{{DefaultBinary, "-b", "-w", "-v"}}, runner.calls)
}

func TestBoot_ExitFailureReturnsFalse(t *testing.T) {
	runner := &fakeRunner{runErr: &exec.ExitError{}}
	l := New("", WithRunner(runner))

	ok, err := l.Boot(context.Background(), BootOptions{})
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, [][]string{{DefaultBinary, "-b"}}, runner.calls)
}

func TestProgram_ConflictingRebootModes(t *testing.T) {
	runner := &fakeRunner{}
	l := New("", WithRunner(runner))

	ok, err := l.Program(context.Background(), ProgramOptions{
		MCU:        catalog.TEENSY40,
		FilePath:   writeFirmwareFile(t),
		HardReboot: true,
		SoftReboot: true,
	})
	require.False(t, ok)
	require.True(t, errorx.IsOfType(err, ConflictingRebootModeError), "expected ConflictingRebootModeError, got %v", err)
	require.Empty(t, runner.calls, "no process may be spawned on validation failure")
}

func TestProgram_UnsupportedSoftReboot(t *testing.T) {
	runner := &fakeRunner{}
	l := New("", WithRunner(runner))

	ok, err := l.Program(context.Background(), ProgramOptions{
		MCU:        catalog.ATMEGA32U4,
		FilePath:   writeFirmwareFile(t),
		SoftReboot: true,
	})
	require.False(t, ok)
	require.True(t, errorx.IsOfType(err, UnsupportedSoftRebootError), "expected UnsupportedSoftRebootError, got %v", err)
	require.Empty(t, runner.calls)
}

func TestProgram_NoRebootWithExplicitMode(t *testing.T) {
	runner := &fakeRunner{}
	l := New("", WithRunner(runner))

	ok, err := l.Program(context.Background(), ProgramOptions{
		MCU:        catalog.TEENSY40,
		FilePath:   writeFirmwareFile(t),
		HardReboot: true,
		NoReboot:   true,
	})
	require.False(t, ok)
	require.True(t, errorx.IsOfType(err, ConflictingRebootModeError), "expected ConflictingRebootModeError, got %v", err)
	require.Empty(t, runner.calls)
}

func TestProgram_FirmwareFileNotFound(t *testing.T) {
	runner := &fakeRunner{}
	l := New("", WithRunner(runner))

	ok, err := l.Program(context.Background(), ProgramOptions{
		MCU:      catalog.TEENSY40,
		FilePath: "/tmp/missing.hex",
	})
	require.False(t, ok)
	require.True(t, errorx.IsOfType(err, FirmwareFileNotFoundError), "expected FirmwareFileNotFoundError, got %v", err)
	require.Empty(t, runner.calls)
}

func TestProgram_ValidationOrder(t *testing.T) {
	// Conflicting reboot flags win over the missing file.
	runner := &fakeRunner{}
	l := New("", WithRunner(runner))

	_, err := l.Program(context.Background(), ProgramOptions{
		MCU:        catalog.ATMEGA32U4,
		FilePath:   "/tmp/missing.hex",
		HardReboot: true,
		SoftReboot: true,
	})
	require.True(t, errorx.IsOfType(err, ConflictingRebootModeError), "expected ConflictingRebootModeError, got %v", err)

	// Unsupported soft reboot wins over the missing file.
	_, err = l.Program(context.Background(), ProgramOptions{
		MCU:        catalog.ATMEGA32U4,
		FilePath:   "/tmp/missing.hex",
		SoftReboot: true,
	})
	require.True(t, errorx.IsOfType(err, UnsupportedSoftRebootError), "expected UnsupportedSoftRebootError, got %v", err)
}

func TestProgram_ArgumentConstruction(t *testing.T) {
	firmware := writeFirmwareFile(t)
	runner := &fakeRunner{}
	l := New("my_loader", WithRunner(runner))

	ok, err := l.Program(context.Background(), ProgramOptions{
		MCU:        catalog.TEENSY41,
		FilePath:   firmware,
		Wait:       true,
		Verbose:    true,
		SoftReboot: true,
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, [][]string{{"my_loader", "--mcu=TEENSY41", "-w", "-v", "-s", firmware}}, runner.calls)
}

func TestProgram_SpawnFailure(t *testing.T) {
	runner := &fakeRunner{runErr: errors.New("permission denied")}
	l := New("", WithRunner(runner))

	ok, err := l.Program(context.Background(), ProgramOptions{
		MCU:      catalog.TEENSY40,
		FilePath: writeFirmwareFile(t),
	})
	require.False(t, ok)
	require.True(t, errorx.IsOfType(err, SpawnError), "expected SpawnError, got %v", err)
}
