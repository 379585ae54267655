package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"remoteaccessd/internal/daemonctl"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon after its current action",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(ctx.configValue().PIDPath(), timeout)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.Exited {
				fmt.Fprintf(stdout, "Stop signal sent to pid %d; daemon is still finishing its current action\n", result.PID)
				return nil
			}
			fmt.Fprintf(stdout, "Daemon stopped (pid %d)\n", result.PID)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for the daemon to exit")
	return cmd
}

func newTriggerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <toggle|provision>",
		Short: "Ask the running daemon to toggle access or start WPS provisioning",
		Long: `Queue the same action a button press would request. The daemon drops the
request when it is busy or waiting for a reboot, exactly as it drops a press.`,
		Args:      usageArgs(cobra.ExactArgs(1)),
		ValidArgs: []string{"toggle", "provision"},
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := daemonctl.Trigger(ctx.configValue().SocketPath(), args[0])
			if err != nil {
				return daemonError(err)
			}
			if !resp.Accepted {
				return errors.New(resp.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the running daemon",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := daemonctl.TestNotification(ctx.configValue().SocketPath())
			if err != nil {
				return daemonError(err)
			}
			switch {
			case resp.Message != "":
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			case resp.Sent:
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
			}
			return nil
		},
	}
}

func daemonError(err error) error {
	if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		return fmt.Errorf("%w; start it with `remoteaccessd <inputDevice> <watchDir>` or `remoteaccessd service install`", err)
	}
	return err
}
