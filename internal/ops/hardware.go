package ops

import (
	"database/sql"
	"strconv"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/config"
	"github.com/bagvoyage/bagvoyage/internal/db"
)

// HardwareInput contains parameters for the Hardware operation.
type HardwareInput struct {
	// Enable sets the hardware-scanner flag. Nil only reads the current state.
	Enable *bool
	// DeviceSignature is the device/browser identity string used for
	// default-on detection when no flag has ever been set.
	DeviceSignature string
}

// HardwareOutput contains the result of the Hardware operation.
type HardwareOutput struct {
	Enabled bool `json:"enabled"`
	// Detected reports whether the value came from device-signature
	// detection rather than a stored or configured flag.
	Detected bool `json:"detected"`
}

// Hardware reads or toggles the hardware-scanner input flag. Resolution
// order: explicit toggle, stored flag, config override, device-signature
// detection (defaults on for recognized handheld units).
func Hardware(database *sql.DB, cfg *config.Config, input HardwareInput) (*HardwareOutput, error) {
	if input.Enable != nil {
		if err := db.SetState(database, StateHardwareScanner, strconv.FormatBool(*input.Enable)); err != nil {
			return nil, err
		}
		return &HardwareOutput{Enabled: *input.Enable}, nil
	}

	stored, err := db.GetState(database, StateHardwareScanner)
	if err != nil {
		return nil, err
	}
	if stored != "" {
		enabled, err := strconv.ParseBool(stored)
		if err == nil {
			return &HardwareOutput{Enabled: enabled}, nil
		}
	}

	if cfg.HardwareScanner != nil {
		return &HardwareOutput{Enabled: *cfg.HardwareScanner}, nil
	}

	detected := baggage.MatchesScannerSignature(input.DeviceSignature, cfg.ScannerSignaturePattern)
	return &HardwareOutput{Enabled: detected, Detected: true}, nil
}
