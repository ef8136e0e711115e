// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"

	"github.com/teensy-tools/teensyctl/cmd/teensyctl/commands/common"
	"github.com/teensy-tools/teensyctl/internal/config"
	"github.com/teensy-tools/teensyctl/internal/loader"
)

var (
	flagBootWait    bool
	flagBootVerbose bool

	bootCmd = &cobra.Command{
		Use:   "boot",
		Short: "Boot an attached device without uploading firmware",
		Long:  "Ask the uploader to boot an attached device (-b) without uploading any firmware",
		RunE: func(cmd *cobra.Command, args []string) error {
			l := newLoader()
			ok, err := l.Boot(cmd.Context(), loader.BootOptions{
				Wait:    flagBootWait,
				Verbose: flagBootVerbose,
			})
			if err != nil {
				return err
			}
			if !ok {
				return errorx.ExternalError.New("uploader exited with failure status, is a device attached?")
			}

			logx.As().Info().Msg("Device booted")
			return nil
		},
	}
)

func init() {
	common.FlagWait.SetVar(bootCmd, &flagBootWait, false)
	common.FlagVerbose.SetVar(bootCmd, &flagBootVerbose, false)
}

// newLoader builds a Loader from the active configuration.
func newLoader() *loader.Loader {
	return loader.New(config.Get().Loader.Binary, loader.WithLogger(*logx.As()))
}
