//go:build !linux

package cmd

import (
	"errors"
	"log/slog"
	"runtime"
)

func install(logger *slog.Logger) error {
	return errors.New("service install is only supported on Linux (systemd); current OS: " + runtime.GOOS)
}

func uninstall(logger *slog.Logger) error {
	return errors.New("service uninstall is only supported on Linux (systemd); current OS: " + runtime.GOOS)
}
