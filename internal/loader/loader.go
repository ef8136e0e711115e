// SPDX-License-Identifier: Apache-2.0

// Package loader builds and runs argument lists for the teensy_loader_cli
// uploader binary. It validates flag combinations before any process is
// spawned and interprets the process exit status for the caller.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/teensy-tools/teensyctl/internal/catalog"
)

// DefaultBinary is the uploader executable resolved via PATH.
const DefaultBinary = "teensy_loader_cli"

// BootOptions controls a boot-only invocation.
type BootOptions struct {
	Wait    bool
	Verbose bool
}

// ProgramOptions controls a firmware upload invocation.
// At most one of HardReboot/SoftReboot may be set, and NoReboot may not be
// combined with either of them.
type ProgramOptions struct {
	MCU        catalog.MCU
	FilePath   string
	Wait       bool
	Verbose    bool
	HardReboot bool
	SoftReboot bool
	NoReboot   bool
}

type Loader struct {
	binary string
	runner Runner
	out    io.Writer
	log    zerolog.Logger
}

type Option func(*Loader)

func WithRunner(r Runner) Option {
	return func(l *Loader) {
		l.runner = r
	}
}

func WithOutput(w io.Writer) Option {
	return func(l *Loader) {
		l.out = w
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(l *Loader) {
		l.log = log
	}
}

// New creates a Loader for the given uploader binary.
func New(binary string, opts ...Option) *Loader {
	if binary == "" {
		binary = DefaultBinary
	}

	l := &Loader{
		binary: binary,
		runner: NewExecRunner(),
		out:    os.Stdout,
		log:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Usage forwards the uploader's own help text to the output writer.
// The uploader is known to exit non-zero on --help, so the exit status
// is ignored and only a failure to spawn is reported.
func (l *Loader) Usage(ctx context.Context) error {
	out, err := l.runner.Stderr(ctx, l.binary, "--help")
	if err != nil && !exitedNonZero(err) {
		return NewSpawnError(err, l.binary)
	}

	_, _ = fmt.Fprint(l.out, out)
	return nil
}

// ListMCUs forwards the uploader's list of supported targets to the
// output writer.
func (l *Loader) ListMCUs(ctx context.Context) error {
	out, err := l.runner.Stdout(ctx, l.binary, "--list-mcus")
	if err != nil && !exitedNonZero(err) {
		return NewSpawnError(err, l.binary)
	}

	_, _ = fmt.Fprint(l.out, out)
	return nil
}

// Boot asks an attached device to boot without uploading firmware.
// It returns whether the uploader exited successfully.
func (l *Loader) Boot(ctx context.Context, opts BootOptions) (bool, error) {
	args := []string{"-b"}
	if opts.Wait {
		args = append(args, "-w")
	}
	if opts.Verbose {
		args = append(args, "-v")
	}

	l.log.Info().Strs("args", args).Msg("Booting device")
	return l.run(ctx, args)
}

// Program validates the request, uploads the firmware file and returns
// whether the uploader exited successfully. Validation failures are
// reported before any process is spawned.
func (l *Loader) Program(ctx context.Context, opts ProgramOptions) (bool, error) {
	if err := validateProgram(opts); err != nil {
		return false, err
	}

	args := []string{fmt.Sprintf("--mcu=%s", opts.MCU)}
	if opts.Wait {
		args = append(args, "-w")
	}
	if opts.Verbose {
		args = append(args, "-v")
	}
	if opts.HardReboot {
		args = append(args, "-r")
	}
	if opts.SoftReboot {
		args = append(args, "-s")
	}
	if opts.NoReboot {
		args = append(args, "-n")
	}
	args = append(args, opts.FilePath)

	l.log.Info().
		Str("mcu", string(opts.MCU)).
		Str("file", opts.FilePath).
		Strs("args", args).
		Msg("Programming device")

	return l.run(ctx, args)
}

// validateProgram checks flag legality in a fixed order so that the same
// violation is always reported first when several coexist.
func validateProgram(opts ProgramOptions) error {
	if opts.HardReboot && opts.SoftReboot {
		return NewConflictingRebootModeError("hard and soft reboot are mutually exclusive")
	}

	if opts.SoftReboot && !catalog.SupportsSoftReboot(opts.MCU) {
		return NewUnsupportedSoftRebootError(opts.MCU)
	}

	if opts.NoReboot && (opts.HardReboot || opts.SoftReboot) {
		return NewConflictingRebootModeError("cannot request both to reboot and not to reboot")
	}

	if _, err := os.Stat(opts.FilePath); err != nil {
		return NewFirmwareFileNotFoundError(opts.FilePath)
	}

	return nil
}

func (l *Loader) run(ctx context.Context, args []string) (bool, error) {
	err := l.runner.Run(ctx, l.binary, args...)
	if err == nil {
		return true, nil
	}
	if exitedNonZero(err) {
		l.log.Warn().Err(err).Msg("Uploader exited with failure status")
		return false, nil
	}

	return false, NewSpawnError(err, l.binary)
}
