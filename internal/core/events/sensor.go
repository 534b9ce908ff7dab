package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	. "gridtrim/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE             = "bridge"
	SENSOR_ID_GRID_POWER_RAW           = "grid_power_raw"
	SENSOR_ID_GRID_POWER_FILTERED      = "grid_power_filtered"
	SENSOR_ID_GRID_IMPORT_POWER        = "grid_import_power"
	SENSOR_ID_GRID_EXPORT_POWER        = "grid_export_power"
	SENSOR_ID_ACTUATOR_DISCHARGE_POWER = "actuator_discharge_power"
	SENSOR_ID_ACTUATOR_CHARGE_POWER    = "actuator_charge_power"
	SENSOR_ID_HOUSE_LOAD_POWER         = "house_load_power"
	SENSOR_ID_CONTROL_SETPOINT         = "control_setpoint"
	SENSOR_ID_RESERVE_GATE_OPEN        = "reserve_gate_open"
	SENSOR_ID_CONTROL_MODE             = "control_mode"
	SENSOR_ID_SAMPLE_AGE               = "sample_age"
	SENSOR_ID_BATTERY_SOC              = "battery_soc"
	SENSOR_ID_BATTERY_SOC_RESERVE      = "battery_soc_reserve"
	SENSOR_ID_BATTERY_STATE            = "battery_state"

	STATE_CLASS_MEASUREMENT   = "measurement"
	DEVICE_CLASS_POWER        = "power"
	DEVICE_CLASS_BATTERY      = "battery"
	DEVICE_CLASS_DURATION     = "duration"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("gridtrim_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "gridtrim",
		Model:        "Gridtrim",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Gridtrim %s", md5HashShort(baseTopic)),
	}
}

func ControllerSensors(device Device) []GenericSensor {

	var sensors []GenericSensor

	powerSensor := func(id, name string) GenericSensor {
		return GenericSensor{
			Device:            device,
			Id:                id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              name,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_POWER,
			UnitOfMeasurement: "W",
			UniqueId:          uniqueId(device.Id, id),
		}
	}

	sensors = append(sensors,
		powerSensor(SENSOR_ID_GRID_POWER_RAW, "Grid power (raw)"),
		powerSensor(SENSOR_ID_GRID_POWER_FILTERED, "Grid power (filtered)"),
		powerSensor(SENSOR_ID_GRID_IMPORT_POWER, "Grid import power"),
		powerSensor(SENSOR_ID_GRID_EXPORT_POWER, "Grid export power"),
		powerSensor(SENSOR_ID_ACTUATOR_DISCHARGE_POWER, "Actuator discharge power"),
		powerSensor(SENSOR_ID_ACTUATOR_CHARGE_POWER, "Actuator charge power"),
		powerSensor(SENSOR_ID_HOUSE_LOAD_POWER, "House load power"),
		powerSensor(SENSOR_ID_CONTROL_SETPOINT, "Control setpoint"),
	)

	// Reserve gate
	sensors = append(sensors, GenericSensor{
		Device:     device,
		Id:         SENSOR_ID_RESERVE_GATE_OPEN,
		SensorType: SENSOR_TYPE_BINARY,
		Name:       "Reserve gate open",
		Icon:       "mdi:battery-arrow-down",
		UniqueId:   uniqueId(device.Id, SENSOR_ID_RESERVE_GATE_OPEN),
	})

	// Control mode
	sensors = append(sensors, GenericSensor{
		Device:     device,
		Id:         SENSOR_ID_CONTROL_MODE,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Control mode",
		UniqueId:   uniqueId(device.Id, SENSOR_ID_CONTROL_MODE),
	})

	// Sample age
	sensors = append(sensors, GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_SAMPLE_AGE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Sample age",
		DeviceClass:       DEVICE_CLASS_DURATION,
		UnitOfMeasurement: "s",
		EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:          uniqueId(device.Id, SENSOR_ID_SAMPLE_AGE),
	})

	// Battery SoC
	sensors = append(sensors, GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_BATTERY_SOC,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery SoC",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_BATTERY,
		UnitOfMeasurement: "%",
		UniqueId:          uniqueId(device.Id, SENSOR_ID_BATTERY_SOC),
	})

	// Battery SoC reserve
	sensors = append(sensors, GenericSensor{
		Device:            device,
		Id:                SENSOR_ID_BATTERY_SOC_RESERVE,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery SoC reserve",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_BATTERY,
		UnitOfMeasurement: "%",
		UniqueId:          uniqueId(device.Id, SENSOR_ID_BATTERY_SOC_RESERVE),
	})

	// Battery operating state
	sensors = append(sensors, GenericSensor{
		Device:     device,
		Id:         SENSOR_ID_BATTERY_STATE,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Battery operating state",
		UniqueId:   uniqueId(device.Id, SENSOR_ID_BATTERY_STATE),
	})

	return sensors
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
