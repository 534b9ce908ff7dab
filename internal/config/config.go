package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel      zapcore.Level
	MQTT          MQTTConfig           `mapstructure:"mqtt"`
	MeterModbus   MeterModbusTCPConfig `mapstructure:"meter_modbus_tcp"`
	ControlConfig ControlConfig        `mapstructure:"control"`
	OutputConfig  OutputConfig         `mapstructure:"output"`

	Port                      uint `mapstructure:"port"`
	HttpLog                   bool `mapstructure:"http_log"`
	AnomalyLogCooldownSeconds uint `mapstructure:"anomaly_log_cooldown_seconds"`
}

// MeterModbusTCPConfig enables reading the grid power sample from a
// SunSpec-style smart meter instead of the MQTT meter feed.
type MeterModbusTCPConfig struct {
	Enable             bool   `mapstructure:"enable"`
	Host               string `mapstructure:"host"`
	Port               uint   `mapstructure:"port"`
	MeterId            uint   `mapstructure:"meter_id"`
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

type ControlConfig struct {
	TargetImportWatts   float64 `mapstructure:"target_import_watts"`
	MinOutputWatts      float64 `mapstructure:"min_output_watts"`
	MaxOutputWatts      float64 `mapstructure:"max_output_watts"`
	FilterAlpha         float64 `mapstructure:"filter_alpha"`
	FilterZeroBandWatts float64 `mapstructure:"filter_zero_band_watts"`
	DeadbandWatts       float64 `mapstructure:"deadband_watts"`
	Gain                float64 `mapstructure:"gain"`
	MaxStepWatts        float64 `mapstructure:"max_step_watts"`
	MinElapsedSeconds   float64 `mapstructure:"min_elapsed_seconds"`

	SoCReserveMarginPct   float64 `mapstructure:"soc_reserve_margin_pct"`
	DefaultSoCReservePct  float64 `mapstructure:"default_soc_reserve_pct"`
	OutputOnThresholdWatt float64 `mapstructure:"output_on_threshold_watts"`
	StartKickThresholdW   float64 `mapstructure:"start_kick_threshold_watts"`
	StartKickErrorWatts   float64 `mapstructure:"start_kick_error_watts"`
}

type OutputConfig struct {
	MinWriteIntervalMillis  uint32  `mapstructure:"min_write_interval_millis"`
	MinSendDeltaWatts       float64 `mapstructure:"min_send_delta_watts"`
	KeepaliveIntervalMillis uint32  `mapstructure:"keepalive_interval_millis"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`

	// inbound telemetry feeds
	MeterPowerTopic       string `mapstructure:"meter_power_topic"`
	BatterySoCTopic       string `mapstructure:"battery_soc_topic"`
	BatteryReserveTopic   string `mapstructure:"battery_reserve_topic"`
	ActuatorOutputTopic   string `mapstructure:"actuator_output_topic"`
	ActuatorStateTopic    string `mapstructure:"actuator_state_topic"`
	ActuatorStrategyTopic string `mapstructure:"actuator_strategy_topic"`

	// outbound actuator command
	ActuatorCommandTopic string `mapstructure:"actuator_command_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
