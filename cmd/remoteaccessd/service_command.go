package main

import (
	"errors"
	"fmt"
	"path/filepath"

	svc "github.com/kardianos/service"
	"github.com/spf13/cobra"
)

const serviceName = "remoteaccessd"

// svcProgram satisfies service.Interface. The unit only runs the binary;
// the daemon loop does not run inside the service wrapper.
type svcProgram struct{}

func (p *svcProgram) Start(s svc.Service) error { return nil }
func (p *svcProgram) Stop(s svc.Service) error  { return nil }

func newServiceConfig(runArgs []string, configPath string) *svc.Config {
	args := append([]string(nil), runArgs...)
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	return &svc.Config{
		Name:        serviceName,
		DisplayName: "remoteaccessd",
		Description: "Button and removable-media driven wireless access daemon",
		Arguments:   args,
		Option: svc.KeyValue{
			"Restart": "on-failure",
		},
	}
}

func serviceInstalled() (svc.Service, bool) {
	s, err := svc.New(&svcProgram{}, newServiceConfig(nil, ""))
	if err != nil {
		return nil, false
	}
	_, err = s.Status()
	if errors.Is(err, svc.ErrNotInstalled) {
		return nil, false
	}
	return s, true
}

func newServiceCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "service",
		Short:       "Manage the remoteaccessd system service",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}

	cmd.AddCommand(newServiceInstallCommand(ctx))
	cmd.AddCommand(newServiceUninstallCommand())
	cmd.AddCommand(newServiceStatusCommand())
	return cmd
}

func newServiceInstallCommand(ctx *commandContext) *cobra.Command {
	var noStart bool
	var force bool

	cmd := &cobra.Command{
		Use:   "install <inputDevice> <watchDir> [useOverlay|useIwconfig]",
		Short: "Install remoteaccessd as a system service",
		Args:  positionalArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			configPath := ctx.configArg()
			if configPath != "" {
				abs, err := filepath.Abs(configPath)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				configPath = abs
			}

			s, err := svc.New(&svcProgram{}, newServiceConfig(args, configPath))
			if err != nil {
				return fmt.Errorf("create service: %w", err)
			}

			if _, already := serviceInstalled(); already {
				if !force {
					fmt.Fprintln(out, "Service already installed (use --force to reinstall)")
					return nil
				}
				fmt.Fprintln(out, "Service already installed, reinstalling")
				_ = s.Stop()
				if err := s.Uninstall(); err != nil {
					return fmt.Errorf("uninstall existing service: %w", err)
				}
			}

			if err := s.Install(); err != nil {
				return fmt.Errorf("install service: %w", err)
			}
			fmt.Fprintf(out, "Service installed (%s)\n", svc.Platform())

			if !noStart {
				if err := s.Start(); err != nil {
					return fmt.Errorf("start service: %w", err)
				}
				fmt.Fprintln(out, "Service started")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reinstall the service if already installed")
	cmd.Flags().BoolVar(&noStart, "no-start", false, "Skip starting the service after installation")
	return cmd
}

func newServiceUninstallCommand() *cobra.Command {
	var noStop bool

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Uninstall the remoteaccessd system service",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s, installed := serviceInstalled()
			if !installed {
				fmt.Fprintln(out, "Service not installed, nothing to do")
				return nil
			}

			if !noStop {
				if err := s.Stop(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed to stop service before uninstall: %v\n", err)
				} else {
					fmt.Fprintln(out, "Service stopped")
				}
			}

			if err := s.Uninstall(); err != nil {
				return fmt.Errorf("uninstall service: %w", err)
			}
			fmt.Fprintln(out, "Service uninstalled")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noStop, "no-stop", false, "Skip stopping the service before uninstalling")
	return cmd
}

func newServiceStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the system service is installed and running",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			s, installed := serviceInstalled()
			if !installed {
				fmt.Fprintln(out, renderStatusLine("Service", statusWarn, "Not installed", colorize))
				return nil
			}
			st, err := s.Status()
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Service", statusError, err.Error(), colorize))
				return nil
			}
			kind, label := serviceStatusLabel(st)
			fmt.Fprintln(out, renderStatusLine("Service", kind, label, colorize))
			fmt.Fprintln(out, renderStatusLine("Platform", statusInfo, svc.Platform(), colorize))
			return nil
		},
	}
}

func serviceStatusLabel(st svc.Status) (statusKind, string) {
	switch st {
	case svc.StatusRunning:
		return statusOK, "Running"
	case svc.StatusStopped:
		return statusWarn, "Stopped"
	default:
		return statusInfo, "Unknown"
	}
}
