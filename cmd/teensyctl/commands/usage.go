// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/spf13/cobra"
)

// usageCmd forwards the uploader binary's own help text, which it prints
// on its diagnostic stream and exits non-zero even on success.
var usageCmd = &cobra.Command{
	Use:   "loader-usage",
	Short: "Show the uploader binary's own usage text",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newLoader().Usage(cmd.Context())
	},
}
