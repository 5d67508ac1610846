// Package config defines the Kong CLI grammar for the blehid binary.
package config

import "github.com/virtualhid/blehid/internal/cmd"

// LogConfig groups the logging flags shared by every command.
type LogConfig struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"BLEHID_LOG_LEVEL"`
	File    string `help:"Write logs to this file as well as stderr (stdout is then unused)" env:"BLEHID_LOG_FILE"`
	RawFile string `help:"Write raw HID report hex dumps to this file" env:"BLEHID_LOG_RAW_FILE"`
}

// CLI is the root command grammar parsed by kong.Parse.
type CLI struct {
	Log    LogConfig `embed:"" prefix:"log."`
	Config string    `help:"Path to a config file (JSON/YAML/TOML)" env:"BLEHID_CONFIG"`

	Serve     cmd.Serve          `cmd:"" help:"Run the BLE HID peripheral"`
	ConfigCmd cmd.ConfigCommand  `cmd:"" name:"config" help:"Configuration helpers"`
	Service   cmd.ServiceCommand `cmd:"" help:"Manage the system service"`
}
