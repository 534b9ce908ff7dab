package events

import (
	. "gridtrim/internal/core/domain"
)

// TelemetryToUpdateEvents maps a control-cycle telemetry snapshot to sensor
// update events for the MQTT surface.
func TelemetryToUpdateEvents(snap TelemetrySnapshot) []any {
	var events []any

	// Raw grid power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_GRID_POWER_RAW,
		},
		Value:    snap.RawPowerWatt,
		Decimals: 1,
	})
	// Filtered grid power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_GRID_POWER_FILTERED,
		},
		Value:    snap.FilteredPowerWatt,
		Decimals: 1,
	})
	// Import power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_GRID_IMPORT_POWER,
		},
		Value:    snap.ImportPowerWatt,
		Decimals: 1,
	})
	// Export power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_GRID_EXPORT_POWER,
		},
		Value:    snap.ExportPowerWatt,
		Decimals: 1,
	})
	// Actuator discharge power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_ACTUATOR_DISCHARGE_POWER,
		},
		Value:    snap.DischargePowerWatt,
		Decimals: 1,
	})
	// Actuator charge power
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_ACTUATOR_CHARGE_POWER,
		},
		Value:    snap.ChargePowerWatt,
		Decimals: 1,
	})
	// Estimated house load = import + discharge
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_HOUSE_LOAD_POWER,
		},
		Value:    snap.HouseLoadWatt,
		Decimals: 1,
	})
	// Controller setpoint
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_CONTROL_SETPOINT,
		},
		Value:    snap.SetpointWatt,
		Decimals: 0,
	})
	// Reserve gate
	events = append(events, BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_RESERVE_GATE_OPEN,
		},
		Value: snap.GateOpen,
	})
	// Mode
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_CONTROL_MODE,
		},
		Value: snap.Mode,
	})
	// Staleness of the last accepted sample
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_SAMPLE_AGE,
		},
		Value:    snap.SampleAgeSeconds,
		Decimals: 0,
	})

	return events
}

func BatteryStateToUpdateEvents(state string) []any {
	var events []any
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_STATE,
		},
		Value: state,
	})
	return events
}

func BatterySoCToUpdateEvents(soc, reserve float64) []any {
	var events []any
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_SOC,
		},
		Value:    soc,
		Decimals: 1,
	})
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BATTERY_SOC_RESERVE,
		},
		Value:    reserve,
		Decimals: 1,
	})
	return events
}
