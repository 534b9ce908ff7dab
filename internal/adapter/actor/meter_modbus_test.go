package actor

import (
	"testing"
	"time"

	"gridtrim/internal/config"
	"gridtrim/internal/core/domain"
	"gridtrim/internal/core/port"
	"gridtrim/internal/util"
	"gridtrim/pkg/gridmeter"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// spawns the meter actor as a child and collects the telemetry it reports
type meterTestParent struct {
	cfg     *config.Config
	meter   port.GridMeterReader
	logger  *zap.Logger
	samples chan domain.GridPowerSample
}

func (p *meterTestParent) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		props := actor.PropsFromProducer(func() actor.Actor {
			return NewMeterModbusActor(p.cfg, p.meter, p.logger)
		})
		ctx.Spawn(props)
	case ParsedTelemetry:
		if sample, ok := msg.Message.(domain.GridPowerSample); ok {
			p.samples <- sample
		}
	}
}

func TestMeterModbusActorPollsSamples(t *testing.T) {
	cfg := util.LoadTestConfig()
	cfg.MeterModbus.Enable = true
	cfg.MeterModbus.PollIntervalMillis = 50

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	system := actor.NewActorSystem()
	parent := &meterTestParent{
		cfg:     &cfg,
		meter:   gridmeter.CreateTestReader(123.5),
		logger:  logger,
		samples: make(chan domain.GridPowerSample, 16),
	}
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return parent
	}))
	defer func() {
		_ = system.Root.StopFuture(pid).Wait()
	}()

	select {
	case sample := <-parent.samples:
		assert.Equal(t, 123.5, sample.Sample.Watt)
		assert.False(t, sample.Sample.At.IsZero())
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a grid power sample")
	}
}
