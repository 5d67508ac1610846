package cmd

import "log/slog"

// ServiceCommand groups system-service subcommands.
type ServiceCommand struct {
	Install   ServiceInstall   `cmd:"" help:"Install and start the system service"`
	Uninstall ServiceUninstall `cmd:"" help:"Stop and remove the system service"`
}

// ServiceInstall installs a service unit that runs "blehid serve" at boot.
type ServiceInstall struct{}

func (ServiceInstall) Run(logger *slog.Logger) error {
	return install(logger)
}

// ServiceUninstall removes the installed service unit.
type ServiceUninstall struct{}

func (ServiceUninstall) Run(logger *slog.Logger) error {
	return uninstall(logger)
}
