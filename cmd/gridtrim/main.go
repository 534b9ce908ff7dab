package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "gridtrim/internal/adapter/actor"
	"gridtrim/internal/config"
	"gridtrim/internal/core/actor"
	"gridtrim/internal/server"
	"gridtrim/internal/util/actorutil"
	"gridtrim/pkg/gridmeter"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// init modbus meter actor provider
	meterProv, err := meterActorProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterActor(*cfg, mqttActorProvider(cfg, logger), meterProv, logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => GRIDTRIM_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("GRIDTRIM_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("gridtrim")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check bounds
	if cfg.ControlConfig.MaxOutputWatts <= cfg.ControlConfig.MinOutputWatts {
		return nil, errors.New("config param control.max_output_watts must be > control.min_output_watts")
	}
	if cfg.ControlConfig.FilterAlpha <= 0 || cfg.ControlConfig.FilterAlpha > 1 {
		return nil, errors.New("config param control.filter_alpha must be in (0, 1]")
	}
	if cfg.ControlConfig.Gain <= 0 {
		return nil, errors.New("config param control.gain must be > 0")
	}
	if cfg.ControlConfig.MaxStepWatts <= 0 {
		return nil, errors.New("config param control.max_step_watts must be > 0")
	}
	if cfg.ControlConfig.DefaultSoCReservePct < 0 || cfg.ControlConfig.DefaultSoCReservePct > 100 {
		return nil, errors.New("config param control.default_soc_reserve_pct must be in [0, 100]")
	}
	if cfg.OutputConfig.MinWriteIntervalMillis < 500 {
		return nil, errors.New("config param output.min_write_interval_millis should be >= 500")
	}
	if cfg.OutputConfig.KeepaliveIntervalMillis < cfg.OutputConfig.MinWriteIntervalMillis {
		return nil, errors.New("config param output.keepalive_interval_millis must be >= output.min_write_interval_millis")
	}
	if cfg.MeterModbus.Enable && cfg.MeterModbus.PollIntervalMillis < 500 {
		return nil, errors.New("config param meter_modbus_tcp.poll_interval_millis should be >= 500")
	}
	if !cfg.MeterModbus.Enable && cfg.MQTT.MeterPowerTopic == "" {
		return nil, errors.New("config param mqtt.meter_power_topic is required when the modbus meter is disabled")
	}
	if cfg.MQTT.ActuatorCommandTopic == "" {
		return nil, errors.New("config param mqtt.actuator_command_topic is required")
	}

	return &cfg, nil
}

func meterActorProvider(cfg *config.Config, logger *zap.Logger) (actor.MeterActorProvider, error) {

	if !cfg.MeterModbus.Enable {
		return nil, nil
	}

	meter, err := gridmeter.CreateSunSpecModbusReader(cfg.MeterModbus.Host,
		cfg.MeterModbus.Port, uint8(cfg.MeterModbus.MeterId), 1*time.Second, logger, nil)

	if err != nil {
		return nil, err
	}

	return func() *adactor.MeterModbusActor {
		return adactor.NewMeterModbusActor(cfg, meter, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("port", 8080)
	viper.SetDefault("http_log", false)
	viper.SetDefault("anomaly_log_cooldown_seconds", 300)
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "gridtrim")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("meter_modbus_tcp.enable", false)
	viper.SetDefault("meter_modbus_tcp.port", 502)
	viper.SetDefault("meter_modbus_tcp.meter_id", 200)
	viper.SetDefault("meter_modbus_tcp.poll_interval_millis", 2000)
	viper.SetDefault("control.target_import_watts", 20)
	viper.SetDefault("control.min_output_watts", 0)
	viper.SetDefault("control.max_output_watts", 800)
	viper.SetDefault("control.filter_alpha", 0.35)
	viper.SetDefault("control.filter_zero_band_watts", 5)
	viper.SetDefault("control.deadband_watts", 10)
	viper.SetDefault("control.gain", 0.5)
	viper.SetDefault("control.max_step_watts", 100)
	viper.SetDefault("control.min_elapsed_seconds", 1)
	viper.SetDefault("control.soc_reserve_margin_pct", 1)
	viper.SetDefault("control.default_soc_reserve_pct", 10)
	viper.SetDefault("control.output_on_threshold_watts", 30)
	viper.SetDefault("control.start_kick_threshold_watts", 25)
	viper.SetDefault("control.start_kick_error_watts", 100)
	viper.SetDefault("output.min_write_interval_millis", 3000)
	viper.SetDefault("output.min_send_delta_watts", 10)
	viper.SetDefault("output.keepalive_interval_millis", 30000)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
