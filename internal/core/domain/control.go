package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Sample is a timestamped grid power measurement. Positive values are
// import from the grid, negative values are export. Immutable once received.
type Sample struct {
	Watt float64
	At   time.Time
}

// Mode classifies the operating regime of the control loop for a single
// cycle. It is derived on every accepted sample and never persisted.
type Mode int

const (
	ModeInit Mode = iota
	ModeControl
	ModeControlStartKick
	ModeHoldNoAuthority
	ModeFallbackReserve
)

func (m Mode) String() string {
	switch m {
	case ModeControl:
		return "control"
	case ModeControlStartKick:
		return "control_start_kick"
	case ModeHoldNoAuthority:
		return "hold_no_authority"
	case ModeFallbackReserve:
		return "fallback_reserve"
	default:
		return "init"
	}
}

// ControlTickResult is the outcome of one integral controller cycle.
type ControlTickResult struct {
	Setpoint float64
	Mode     Mode
}

const StrategySelfPowered = "self_powered"

// EnergyStrategy is the actuator's energy-strategy indicator. The feed is
// duck-typed at the source: some firmwares publish a JSON object with a
// "mode" field, others a plain string. Parsed into a tagged form at the
// boundary; used only for anomaly logging, never for control.
type EnergyStrategy struct {
	Mode       string
	Raw        string
	Structured bool
}

type energyStrategyObject struct {
	Mode string `json:"mode"`
}

func ParseEnergyStrategy(payload string) EnergyStrategy {
	trimmed := strings.TrimSpace(payload)
	var obj energyStrategyObject
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil && obj.Mode != "" {
		return EnergyStrategy{
			Mode:       normalizeStrategyMode(obj.Mode),
			Raw:        trimmed,
			Structured: true,
		}
	}
	return EnergyStrategy{
		Mode: normalizeStrategyMode(trimmed),
		Raw:  trimmed,
	}
}

func (s EnergyStrategy) SelfPowered() bool {
	return s.Mode == StrategySelfPowered
}

func normalizeStrategyMode(mode string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(mode)), "-", "_")
}

// TelemetrySnapshot is the read-only view of the control core, refreshed
// every cycle. External components only ever read snapshots produced by the
// control actor; they do not write into it.
type TelemetrySnapshot struct {
	RawPowerWatt      float64 `json:"raw_power_watt"`
	FilteredPowerWatt float64 `json:"filtered_power_watt"`
	ImportPowerWatt   float64 `json:"import_power_watt"`
	ExportPowerWatt   float64 `json:"export_power_watt"`

	DischargePowerWatt float64 `json:"discharge_power_watt"`
	ChargePowerWatt    float64 `json:"charge_power_watt"`
	HouseLoadWatt      float64 `json:"house_load_watt"`

	SetpointWatt     float64 `json:"setpoint_watt"`
	GateOpen         bool    `json:"gate_open"`
	Mode             string  `json:"mode"`
	SampleAgeSeconds float64 `json:"sample_age_seconds"`

	BatterySoC        float64 `json:"battery_soc"`
	BatterySoCReserve float64 `json:"battery_soc_reserve"`
	BatteryState      string  `json:"battery_state,omitempty"`
}
