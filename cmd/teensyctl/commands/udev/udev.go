// SPDX-License-Identifier: Apache-2.0

package udev

import (
	"time"

	"github.com/automa-saga/logx"
	"github.com/spf13/cobra"

	"github.com/teensy-tools/teensyctl/cmd/teensyctl/commands/common"
	"github.com/teensy-tools/teensyctl/internal/config"
	"github.com/teensy-tools/teensyctl/internal/udev"
)

var (
	flagDryRun         bool
	flagLive           bool
	flagPreflightDelay time.Duration

	udevCmd = &cobra.Command{
		Use:   "udev",
		Short: "Manage the Teensy udev rules file",
		RunE:  common.DefaultRunE,
	}

	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Download and install the Teensy udev rules file",
		Long: "Download the upstream udev rules file and install it system-wide so Teensy boards " +
			"are accessible without root. Dry run by default; pass --live to execute the " +
			"privileged install commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.OverrideUdevConfig(config.UdevConfig{PreflightDelay: flagPreflightDelay})
			cfg := config.Get().Udev

			dryRun := flagDryRun && !flagLive
			if dryRun {
				logx.As().Info().Msg("Dry run: privileged commands will be reported, not executed")
			}

			installer := udev.NewInstaller(udev.Options{
				RulesURL:        cfg.RulesURL,
				RulesPath:       cfg.RulesPath,
				PreflightDelay:  cfg.PreflightDelay,
				DownloadTimeout: cfg.DownloadTimeout,
				DryRun:          dryRun,
			}, udev.WithLogger(*logx.As()))

			report, err := installer.Install(cmd.Context())
			if err != nil {
				return err
			}

			common.CheckWorkflowReport(cmd.Context(), report)
			return nil
		},
	}
)

func init() {
	common.FlagDryRun.SetVar(installCmd, &flagDryRun, false)
	common.FlagLive.SetVar(installCmd, &flagLive, false)
	common.FlagPreflightDelay.SetVar(installCmd, &flagPreflightDelay, false)

	udevCmd.AddCommand(installCmd)
}

func GetCmd() *cobra.Command {
	return udevCmd
}
