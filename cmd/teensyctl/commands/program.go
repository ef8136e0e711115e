// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"

	"github.com/teensy-tools/teensyctl/cmd/teensyctl/commands/common"
	"github.com/teensy-tools/teensyctl/internal/catalog"
	"github.com/teensy-tools/teensyctl/internal/loader"
)

var (
	flagProgramMCU     string
	flagProgramWait    bool
	flagProgramVerbose bool
	flagProgramHard    bool
	flagProgramSoft    bool
	flagProgramNo      bool

	programCmd = &cobra.Command{
		Use:   "program <firmware.hex>",
		Short: "Upload a firmware file to an attached device",
		Long:  "Validate the flag combination and upload an Intel HEX firmware file to the target MCU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mcu, err := catalog.Parse(flagProgramMCU)
			if err != nil {
				return err
			}

			l := newLoader()
			ok, err := l.Program(cmd.Context(), loader.ProgramOptions{
				MCU:        mcu,
				FilePath:   args[0],
				Wait:       flagProgramWait,
				Verbose:    flagProgramVerbose,
				HardReboot: flagProgramHard,
				SoftReboot: flagProgramSoft,
				NoReboot:   flagProgramNo,
			})
			if err != nil {
				return err
			}
			if !ok {
				return errorx.ExternalError.New("uploader exited with failure status, firmware was not programmed")
			}

			logx.As().Info().Str("mcu", string(mcu)).Str("file", args[0]).Msg("Firmware programmed")
			return nil
		},
	}
)

func init() {
	common.FlagMCU.SetVar(programCmd, &flagProgramMCU, true)
	common.FlagWait.SetVar(programCmd, &flagProgramWait, false)
	common.FlagVerbose.SetVar(programCmd, &flagProgramVerbose, false)
	common.FlagHardReboot.SetVar(programCmd, &flagProgramHard, false)
	common.FlagSoftReboot.SetVar(programCmd, &flagProgramSoft, false)
	common.FlagNoReboot.SetVar(programCmd, &flagProgramNo, false)
}
