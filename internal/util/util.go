package util

import (
	"gridtrim/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:                  "localhost",
			Port:                  1883,
			BaseTopic:             "gridtrim",
			MeterPowerTopic:       "meter/power",
			BatterySoCTopic:       "battery/soc",
			BatteryReserveTopic:   "battery/reserve",
			ActuatorOutputTopic:   "actuator/output",
			ActuatorStateTopic:    "actuator/state",
			ActuatorStrategyTopic: "actuator/strategy",
			ActuatorCommandTopic:  "actuator/command",
		},
		MeterModbus: config.MeterModbusTCPConfig{
			Host:               "-.-.-.-",
			Port:               502,
			MeterId:            200,
			PollIntervalMillis: 2000,
		},
		ControlConfig: config.ControlConfig{
			TargetImportWatts:     20,
			MinOutputWatts:        0,
			MaxOutputWatts:        800,
			FilterAlpha:           0.35,
			FilterZeroBandWatts:   5,
			DeadbandWatts:         10,
			Gain:                  0.5,
			MaxStepWatts:          100,
			MinElapsedSeconds:     1,
			SoCReserveMarginPct:   1,
			DefaultSoCReservePct:  10,
			OutputOnThresholdWatt: 30,
			StartKickThresholdW:   25,
			StartKickErrorWatts:   100,
		},
		OutputConfig: config.OutputConfig{
			MinWriteIntervalMillis:  3000,
			MinSendDeltaWatts:       10,
			KeepaliveIntervalMillis: 30000,
		},
		AnomalyLogCooldownSeconds: 300,
		Port:                      8080,
	}
}
