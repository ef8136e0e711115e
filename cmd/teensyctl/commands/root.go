package commands

import (
	"context"

	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"

	"github.com/teensy-tools/teensyctl/cmd/teensyctl/commands/udev"
	"github.com/teensy-tools/teensyctl/cmd/teensyctl/commands/version"
	"github.com/teensy-tools/teensyctl/internal/config"
	"github.com/teensy-tools/teensyctl/internal/doctor"
)

// examples:
// ./teensyctl program --mcu=TEENSY40 blink.hex
// ./teensyctl boot --verbose
// ./teensyctl mcus
// ./teensyctl udev install --live

// rootCmd represents the base command when called without any subcommands
var (
	// Used for flags.
	flagConfig       string
	flagBinary       string
	flagVersion      bool
	flagOutputFormat string

	rootCmd = &cobra.Command{
		Use:   "teensyctl",
		Short: "A command line tool to program and manage Teensy USB boards",
		Long:  "teensyctl - a thin orchestration layer over teensy_loader_cli to boot, list and program Teensy USB boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagVersion {
				version.PrintVersion(cmd, flagOutputFormat)
				return nil
			}

			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&flagBinary, "binary", "b", "", "path to the uploader executable (defaults to teensy_loader_cli on PATH)")

	// support '--version' to show version information
	rootCmd.PersistentFlags().BoolVar(&flagVersion, "version", false, "Show version")
	rootCmd.PersistentFlags().StringVarP(&flagOutputFormat, "output", "o", "yaml", "Output format (yaml|json)")

	// disable command sorting to keep the order of commands as added
	cobra.EnableCommandSorting = false

	// add subcommands
	rootCmd.AddCommand(bootCmd)
	rootCmd.AddCommand(programCmd)
	rootCmd.AddCommand(mcusCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(udev.GetCmd())
	rootCmd.AddCommand(version.GetCmd())
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errorx.IllegalArgument.New("context is required")
	}

	cobra.OnInitialize(func() {
		initConfig(ctx)
	})

	// execute the root command
	_, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		return errorx.IllegalState.Wrap(err, "failed to execute command")
	}

	return nil
}

func initConfig(ctx context.Context) {
	var err error
	err = config.Initialize(flagConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}

	config.OverrideLoaderConfig(config.LoaderConfig{Binary: flagBinary})

	logConfig := config.Get().Log
	err = logx.Initialize(logConfig)
	if err != nil {
		doctor.CheckErr(ctx, err)
	}
}
