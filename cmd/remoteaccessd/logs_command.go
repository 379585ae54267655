package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"remoteaccessd/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var match string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the current daemon log",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := logs.CurrentPath(ctx.configValue().Paths.LogDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			offset := int64(-1)
			if lines <= 0 {
				offset = 0
			}
			result, err := logs.Tail(path, logs.TailOptions{Offset: offset, Limit: lines, Match: match})
			if err != nil {
				return err
			}
			printLines(out, result.Lines)
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, result.Offset, 250*time.Millisecond, match, func(batch []string) error {
				printLines(out, batch)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Show the last N lines (0 prints the whole file)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	cmd.Flags().StringVar(&match, "match", "", "Only show lines containing this text (an action id, for example)")
	return cmd
}

func printLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
