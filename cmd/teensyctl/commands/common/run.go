// SPDX-License-Identifier: Apache-2.0

package common

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teensy-tools/teensyctl/internal/config"
	"github.com/teensy-tools/teensyctl/internal/doctor"
)

// CheckWorkflowReport diagnoses a failed workflow report (exiting the
// process) and writes the report to the configured reports directory.
func CheckWorkflowReport(ctx context.Context, report *automa.Report) {
	if report == nil {
		return
	}

	if report.Error != nil {
		doctor.CheckReportErr(ctx, report)
	}

	for _, stepReport := range report.StepReports {
		if stepReport.Status == automa.StatusFailed {
			doctor.CheckReportErr(ctx, stepReport)
		}
	}

	timestamp := time.Now().Format("20060102_150405")
	reportPath := path.Join(config.Get().ReportsDir, fmt.Sprintf("udev_install_report_%s.yaml", timestamp))
	if err := WriteWorkflowReport(report, reportPath); err != nil {
		logx.As().Warn().Err(err).Msg("Failed to save workflow report")
		return
	}

	logx.As().Info().Str("report_path", reportPath).Msg("Workflow report is saved")
}

// WriteWorkflowReport writes the workflow execution report to path in YAML format.
func WriteWorkflowReport(report *automa.Report, reportPath string) error {
	b, err := yaml.Marshal(report)
	if err != nil {
		return errorx.IllegalFormat.Wrap(err, "failed to marshal workflow report")
	}

	if err := os.WriteFile(reportPath, b, 0o644); err != nil {
		return errorx.InternalError.Wrap(err, "failed to write workflow report to %s", reportPath)
	}

	return nil
}

// DefaultRunE is a default RunE function that shows help message and provides a placeholder to add common behaviour.
// We always add a run function to commands to ensure cobra marks it as Runnable and allows our commands to invoke
// PersistentPreRunE functions of the root command.
func DefaultRunE(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}
