// SPDX-License-Identifier: Apache-2.0

// Package udev installs the upstream udev rules file that grants
// non-privileged USB access to Teensy boards.
package udev

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/automa-saga/automa"
	"github.com/gofrs/flock"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
	"github.com/zcalusic/sysinfo"
)

const (
	DefaultRulesURL  = "https://www.pjrc.com/teensy/00-teensy.rules"
	DefaultRulesPath = "/etc/udev/rules.d/00-teensy.rules"

	// DefaultPreflightDelay gives the operator a window to abort before
	// system-wide device permissions are touched.
	DefaultPreflightDelay = 5 * time.Second

	PreflightStepId    = "preflight-delay"
	DownloadStepId     = "download-rules"
	InstallRulesStepId = "install-rules"
	ReloadUdevStepId   = "reload-udev"
	TriggerUdevStepId  = "trigger-udev"

	lockTimeout = 30 * time.Second
)

// RunCmd runs a privileged command and returns an error if it fails
var RunCmd = func(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	return cmd.Run()
}

// Options controls a single install run.
type Options struct {
	RulesURL        string
	RulesPath       string
	PreflightDelay  time.Duration
	DownloadTimeout time.Duration
	DryRun          bool
}

func (o Options) withDefaults() Options {
	if o.RulesURL == "" {
		o.RulesURL = DefaultRulesURL
	}
	if o.RulesPath == "" {
		o.RulesPath = DefaultRulesPath
	}
	if o.PreflightDelay <= 0 {
		o.PreflightDelay = DefaultPreflightDelay
	}
	if o.DownloadTimeout <= 0 {
		o.DownloadTimeout = DefaultDownloadTimeout
	}
	return o
}

// Installer performs the one-shot udev rules installation: download the
// rules file to a staging location, then install, reload and trigger via
// elevated commands. In dry-run mode the elevated commands are reported
// but not executed.
type Installer struct {
	opts       Options
	downloader *Downloader
	log        zerolog.Logger

	// stagedPath is where the downloaded rules file lands before being
	// moved into place. Set per Install call.
	stagedPath string
}

type Option func(*Installer)

func WithLogger(log zerolog.Logger) Option {
	return func(i *Installer) {
		i.log = log
	}
}

func WithDownloader(d *Downloader) Option {
	return func(i *Installer) {
		i.downloader = d
	}
}

func NewInstaller(opts Options, optFns ...Option) *Installer {
	opts = opts.withDefaults()

	i := &Installer{
		opts: opts,
		log:  zerolog.Nop(),
	}

	for _, fn := range optFns {
		fn(i)
	}

	if i.downloader == nil {
		i.downloader = NewDownloaderWithTimeout(opts.DownloadTimeout)
	}

	return i
}

// RulesInstalled reports whether the rules file already exists at the
// target path.
func (i *Installer) RulesInstalled() bool {
	_, err := os.Stat(i.opts.RulesPath)
	return err == nil
}

// Install runs the installation workflow and returns its report.
// If the rules file already exists the call is a guarded no-op and both
// return values are nil: the file may carry local customizations and is
// never overwritten.
func (i *Installer) Install(ctx context.Context) (*automa.Report, error) {
	if i.RulesInstalled() {
		i.log.Warn().
			Str("path", i.opts.RulesPath).
			Msg("Udev rules file already exists, not overwriting it")
		return nil, nil
	}

	fileLock, err := i.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := fileLock.Unlock(); e != nil {
			i.log.Warn().Err(e).Str("lockPath", fileLock.Path()).Msg("failed to release install lock")
		}
	}()

	stagingDir, err := os.MkdirTemp("", "teensyctl-udev-*")
	if err != nil {
		return nil, errorx.InternalError.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(stagingDir)
	i.stagedPath = filepath.Join(stagingDir, filepath.Base(i.opts.RulesPath))

	wf, err := i.workflow().Build()
	if err != nil {
		return nil, err
	}

	return wf.Execute(ctx), nil
}

// acquireLock guards against concurrent installs racing on the same
// target path.
func (i *Installer) acquireLock(ctx context.Context) (*flock.Flock, error) {
	lockPath := filepath.Join(os.TempDir(), "teensyctl-udev-install.lock")
	fileLock := flock.New(lockPath)

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, time.Second)
	if err != nil {
		return nil, NewLockError(err, lockPath)
	}
	if !locked {
		return nil, NewLockError(errorx.TimeoutElapsed.New("timed out after %s", lockTimeout), lockPath)
	}

	return fileLock, nil
}

func (i *Installer) workflow() *automa.WorkflowBuilder {
	return automa.NewWorkflowBuilder().
		WithId("install-udev-rules").
		WithExecutionMode(automa.StopOnError).
		Steps(
			i.preflightStep(),
			i.downloadStep(),
			i.privilegedStep(InstallRulesStepId, "Installing udev rules file", func() []string {
				return []string{"sudo", "install", "-o", "root", "-g", "root", "-m", "0664", i.stagedPath, i.opts.RulesPath}
			}),
			i.privilegedStep(ReloadUdevStepId, "Reloading udev rules database", func() []string {
				return []string{"sudo", "udevadm", "control", "--reload-rules"}
			}),
			i.privilegedStep(TriggerUdevStepId, "Triggering udev device events", func() []string {
				return []string{"sudo", "udevadm", "trigger"}
			}),
		)
}

// preflightStep logs host information and pauses before the live install
// so the operator can abort. Skipped entirely in dry-run mode.
func (i *Installer) preflightStep() automa.Builder {
	return automa.NewStepBuilder().WithId(PreflightStepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if i.opts.DryRun {
				return automa.SkippedReport(stp, automa.WithDetail("dry run, no preflight delay needed"))
			}

			var si sysinfo.SysInfo
			si.GetSysInfo()
			i.log.Info().
				Str("os_vendor", si.OS.Vendor).
				Str("os_version", si.OS.Version).
				Str("kernel", si.Kernel.Release).
				Msg("Host information")

			i.log.Warn().
				Str("path", i.opts.RulesPath).
				Dur("delay", i.opts.PreflightDelay).
				Msg("About to modify system udev rules, interrupt now to abort")

			select {
			case <-ctx.Done():
				return automa.FailureReport(stp,
					automa.WithError(errorx.TimeoutElapsed.Wrap(ctx.Err(), "aborted during preflight delay")))
			case <-time.After(i.opts.PreflightDelay):
			}

			return automa.SuccessReport(stp)
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			i.log.Error().Err(rpt.Error).Msg("Preflight aborted")
		})
}

func (i *Installer) downloadStep() automa.Builder {
	return automa.NewStepBuilder().WithId(DownloadStepId).
		WithPrepare(func(ctx context.Context, stp automa.Step) (context.Context, error) {
			i.log.Info().Str("url", i.opts.RulesURL).Msg("Downloading udev rules file")
			return ctx, nil
		}).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			if err := i.downloader.Download(i.opts.RulesURL, i.stagedPath); err != nil {
				return automa.FailureReport(stp, automa.WithError(err))
			}

			return automa.SuccessReport(stp, automa.WithMetadata(map[string]string{
				"url":    i.opts.RulesURL,
				"staged": i.stagedPath,
			}))
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			i.log.Error().Err(rpt.Error).Str("url", i.opts.RulesURL).Msg("Failed to download udev rules file")
		}).
		WithOnCompletion(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			if rpt.IsSuccess() {
				i.log.Info().Str("staged", i.stagedPath).Msg("Udev rules file downloaded")
			}
		})
}

// privilegedStep wraps one elevated command. In dry-run mode the command
// line is reported in the step metadata but never executed.
func (i *Installer) privilegedStep(stepId, desc string, argv func() []string) automa.Builder {
	return automa.NewStepBuilder().WithId(stepId).
		WithExecute(func(ctx context.Context, stp automa.Step) *automa.Report {
			args := argv()
			cmdline := strings.Join(args, " ")
			meta := map[string]string{"command": cmdline}

			if i.opts.DryRun {
				i.log.Info().Str("command", cmdline).Msgf("%s (dry run, not executed)", desc)
				return automa.SkippedReport(stp, automa.WithDetail("dry run"), automa.WithMetadata(meta))
			}

			i.log.Info().Str("command", cmdline).Msg(desc)
			if err := RunCmd(args[0], args[1:]...); err != nil {
				return automa.FailureReport(stp,
					automa.WithError(NewPrivilegedCommandError(err, stepId, cmdline)),
					automa.WithMetadata(meta))
			}

			return automa.SuccessReport(stp, automa.WithMetadata(meta))
		}).
		WithOnFailure(func(ctx context.Context, stp automa.Step, rpt *automa.Report) {
			i.log.Error().Err(rpt.Error).Str("step_id", stp.Id()).Msg("Privileged command failed")
		})
}
