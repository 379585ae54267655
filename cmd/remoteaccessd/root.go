package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"remoteaccessd/internal/config"
	"remoteaccessd/internal/daemonrun"
)

// geteuid is swapped in tests.
var geteuid = unix.Geteuid

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevel string
	var diagnostic bool

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "remoteaccessd <inputDevice> <watchDir> [useOverlay|useIwconfig]",
		Short: "Button and removable-media driven wireless access daemon",
		Long: `remoteaccessd watches a single button on an evdev input device and a
directory where removable media is mounted.

  hold 2-5s   toggle wireless remote access (boot overlay or live iwconfig)
  hold 5-8s   start WPS push-button provisioning
  media       import wpa_supplicant.conf from the watched directory

Run with no subcommand to start the daemon. It must run as root.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          daemonArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			if _, err := ctx.ensureConfig(); err != nil {
				return usageError(err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return usageError(err)
			}
			if err := cfg.ApplyArgs(args); err != nil {
				return usageError(err)
			}
			if err := cfg.ValidateDaemon(); err != nil {
				return usageError(err)
			}

			err = daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:   logLevel,
				Diagnostic: diagnostic,
			})
			switch {
			case err == nil:
				return nil
			case errors.Is(err, daemonrun.ErrInputOpen):
				return withExitCode(exitInputOpen, err)
			default:
				return withExitCode(exitInternal, err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&diagnostic, "diagnostic", false, "Write a separate DEBUG log under <log_dir>/debug")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newTriggerCommand(ctx))
	rootCmd.AddCommand(newStopCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newServiceCommand(ctx))

	return rootCmd
}

// daemonArgs checks privileges before the argument shape, so an
// unprivileged caller always sees the root requirement first.
func daemonArgs(cmd *cobra.Command, args []string) error {
	if geteuid() != 0 {
		return withExitCode(exitNotRoot, errors.New("remoteaccessd must run as root"))
	}
	return positionalArgs(cmd, args)
}

func positionalArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usageError(fmt.Errorf("usage: %s", cmd.UseLine()))
	}
	if len(args) == 3 {
		if _, ok := config.ModeFromKeyword(args[2]); !ok {
			return usageError(fmt.Errorf("unknown toggle mode %q (want useOverlay or useIwconfig)", args[2]))
		}
	}
	return nil
}

// usageArgs marks argument validation failures of subcommands as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(fn(cmd, args))
	}
}
