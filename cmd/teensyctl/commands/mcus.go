// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/spf13/cobra"

	"github.com/teensy-tools/teensyctl/cmd/teensyctl/commands/common"
	"github.com/teensy-tools/teensyctl/internal/catalog"
)

var (
	flagMcusFromLoader bool

	mcusCmd = &cobra.Command{
		Use:   "mcus",
		Short: "List supported MCU identifiers",
		Long:  "List the MCU identifiers accepted by the program command, with their soft reboot capability",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagMcusFromLoader {
				return newLoader().ListMCUs(cmd.Context())
			}

			for _, m := range catalog.All() {
				if catalog.SupportsSoftReboot(m) {
					cmd.Printf("%s (soft reboot)\n", m)
					continue
				}
				cmd.Println(m)
			}

			return nil
		},
	}
)

func init() {
	common.FlagFromLoader.SetVar(mcusCmd, &flagMcusFromLoader, false)
}
