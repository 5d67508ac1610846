package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/virtualhid/blehid"
	"github.com/virtualhid/blehid/internal/configpaths"
	"github.com/virtualhid/blehid/internal/log"
	"github.com/virtualhid/blehid/internal/platform"
	"github.com/virtualhid/blehid/internal/util"
)

const identityFileName = "identity.json"

// Serve runs the BLE HID peripheral until interrupted.
type Serve struct {
	Backend      string `help:"Platform BLE backend" default:"ble" env:"BLEHID_BACKEND"`
	DeviceName   string `help:"GAP device name advertised to hosts" default:"BLE HID Device" env:"BLEHID_DEVICE_NAME"`
	IdentityFile string `help:"Path to the persisted identity record (defaults to identity.json under the config dir)" env:"BLEHID_IDENTITY_FILE"`

	RequireBonding bool `help:"Initiate bonding on connect when the peer is not yet bonded" default:"true"`
	AutoAdvertise  bool `help:"Restart advertising automatically after a disconnect" default:"true"`

	AdvMode        string        `help:"Advertising mode" enum:"low-power,balanced,low-latency" default:"balanced"`
	TxPower        string        `help:"Advertising TX power, passed to the backend (the ble and fake backends do not apply it)" enum:"ultra-low,low,medium,high" default:"medium"`
	IncludeName    bool          `help:"Include the device name in advertising data" default:"true"`
	IncludeTxPower bool          `help:"Include-TX-power flag, passed to the backend (the ble and fake backends do not add it to the scan response)" default:"false"`
	AdvTimeout     time.Duration `help:"Advertising timeout passed to the backend, 0 = none (the ble and fake backends do not stop advertising on it)" default:"0s"`

	QueueDepth  int           `help:"Bluetooth task work-queue depth" default:"64"`
	CallTimeout time.Duration `help:"Per-call wait bound on the bluetooth task" default:"2s"`
}

// Run is called by Kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartPeripheral(ctx, logger, rawLogger)
}

// StartPeripheral brings the engine up on the selected backend and blocks
// until ctx is cancelled.
func (s *Serve) StartPeripheral(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	identityPath := s.IdentityFile
	if identityPath == "" {
		dir, err := configpaths.DefaultConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve identity file path: %w", err)
		}
		identityPath = path.Join(dir, identityFileName)
	}

	backend, err := platform.NewBackend(s.Backend)
	if err != nil {
		return err
	}

	engine, err := blehid.New(backend, blehid.Options{
		IdentityPath:   identityPath,
		DeviceName:     s.DeviceName,
		RequireBonding: s.RequireBonding,
		AutoAdvertise:  s.AutoAdvertise,
		AdvParams:      s.advParams(),
		QueueDepth:     s.QueueDepth,
		CallTimeout:    s.CallTimeout,
		Logger:         logger,
		RawLogger:      rawLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer engine.Close()

	if err := engine.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize peripheral: %w", err)
	}
	if err := engine.StartAdvertising(); err != nil {
		return fmt.Errorf("failed to start advertising: %w", err)
	}

	logger.Info("BLE HID peripheral running",
		"backend", s.Backend, "name", s.DeviceName, "identity", identityPath)

	if util.IsRunFromGUI() {
		go func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	_ = engine.StopAdvertising()
	return nil
}

func (s *Serve) advParams() platform.AdvParams {
	mode := platform.AdvModeBalanced
	switch s.AdvMode {
	case "low-power":
		mode = platform.AdvModeLowPower
	case "low-latency":
		mode = platform.AdvModeLowLatency
	}
	power := platform.TxPowerMedium
	switch s.TxPower {
	case "ultra-low":
		power = platform.TxPowerUltraLow
	case "low":
		power = platform.TxPowerLow
	case "high":
		power = platform.TxPowerHigh
	}
	return platform.AdvParams{
		Mode:           mode,
		Power:          power,
		IncludeName:    s.IncludeName,
		IncludeTxPower: s.IncludeTxPower,
		TimeoutMillis:  int(s.AdvTimeout / time.Millisecond),
	}
}
