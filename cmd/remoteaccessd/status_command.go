package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"remoteaccessd/internal/daemonctl"
	"remoteaccessd/internal/hostcmd"
	"remoteaccessd/internal/ipc"
	"remoteaccessd/internal/logging"
)

type statusJSON struct {
	Daemon       ipc.StatusResponse          `json:"daemon"`
	Adapter      string                      `json:"adapter"`
	Checks       []checkJSON                 `json:"checks"`
	Dependencies daemonctl.DependencySummary `json:"dependency_summary"`
}

type checkJSON struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var skipAdapter bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state, host checks and dependencies",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			var runner hostcmd.Runner
			if !skipAdapter {
				runner = hostcmd.NewExecRunner(logging.NewNop())
			}
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), cfg, runner)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, snapshotJSON(snap, !skipAdapter))
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonLines(snap.Daemon, time.Now(), colorize) {
				fmt.Fprintln(stdout, line)
			}
			if !skipAdapter {
				fmt.Fprintln(stdout, adapterLine(snap.Adapter, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(snap.Daemon.Dependencies, snap.Summary, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Host Checks", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := preflightRows(snap.Checks)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No host checks apply to this configuration")
				return nil
			}
			fmt.Fprintln(stdout, renderTable([]string{"Check", "Result", "Detail"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status snapshot as JSON")
	cmd.Flags().BoolVar(&skipAdapter, "no-adapter", false, "Skip the wireless adapter probe")
	return cmd
}

func snapshotJSON(snap *daemonctl.Snapshot, probed bool) statusJSON {
	out := statusJSON{
		Daemon:       snap.Daemon,
		Checks:       make([]checkJSON, 0, len(snap.Checks)),
		Dependencies: snap.Summary,
	}
	if probed {
		out.Adapter = snap.Adapter.Detail()
	}
	for _, check := range snap.Checks {
		out.Checks = append(out.Checks, checkJSON(check))
	}
	return out
}

