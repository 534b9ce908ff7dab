package actor

import (
	"testing"
	"time"

	adactor "gridtrim/internal/adapter/actor"
	"gridtrim/internal/core/domain"
	"gridtrim/internal/util"
	"gridtrim/pkg/gridmeter"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnTestMaster(t *testing.T, meterEnable bool) (*actor.ActorSystem, *actor.PID) {
	t.Helper()

	as := actor.NewActorSystem()

	cfg := util.LoadTestConfig()
	cfg.MeterModbus.Enable = meterEnable
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterActor(cfg, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, func() *adactor.MeterModbusActor {
			return adactor.NewMeterModbusActor(&cfg, gridmeter.CreateTestReader(42), logger)
		}, logger)
	})
	pid, err := as.Root.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	return as, pid
}

func TestMasterActorHealthCheck(t *testing.T) {

	as, pid := spawnTestMaster(t, false)
	defer as.Shutdown()
	context := as.Root

	time.Sleep(1 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)
}

func TestMasterActorHealthCheckWithMeter(t *testing.T) {

	as, pid := spawnTestMaster(t, true)
	defer as.Shutdown()
	context := as.Root

	time.Sleep(1 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	require.NoError(t, err)
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)
}

func TestMasterActorRoutesTelemetryAndServesSnapshot(t *testing.T) {

	as, pid := spawnTestMaster(t, false)
	defer as.Shutdown()
	context := as.Root

	time.Sleep(500 * time.Millisecond)

	context.Send(pid, adactor.ParsedTelemetry{Message: domain.BatterySoCUpdate{Percent: 55}})
	context.Send(pid, adactor.ParsedTelemetry{Message: domain.GridPowerSample{
		Sample: domain.Sample{Watt: 200, At: time.Now()},
	}})

	res, err := context.RequestFuture(pid, domain.GetTelemetryRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp, ok := res.(domain.GetTelemetryResponse)
	require.True(t, ok)

	assert.Equal(t, 200.0, resp.Snapshot.RawPowerWatt)
	assert.Equal(t, 55.0, resp.Snapshot.BatterySoC)
	assert.True(t, resp.Snapshot.GateOpen)

	context.Stop(pid)
}
