// Package gridmeter reads the signed grid power flow from a SunSpec smart
// meter over modbus TCP. Positive values are import from the grid, negative
// values are export.
package gridmeter

import (
	"errors"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

type Reader interface {
	Open() error
	Close() error
	Validate() error
	GetPowerWatt() (float64, error)
}

type sunspecBlocks struct {
	common  uint16
	acMeter uint16
}

func (blk *sunspecBlocks) allBlocksDefined() bool {
	return blk.common > 0 && blk.acMeter > 0
}

type SunSpecModbusReader struct {
	modbusClient
	blocks sunspecBlocks
}

func CreateSunSpecModbusReader(ip string, port uint, meterAddress uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *Instrument) (Reader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", ip, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	// instrumentation
	var inst []Instrument
	logInst := traceLoggerInstrumentation(logger.With(zap.String("target", "gridMeter")).With(zap.Uint8("meter", meterAddress)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	// set meter address
	err = client.SetUnitId(meterAddress)
	if err != nil {
		return nil, err
	}
	reader := SunSpecModbusReader{
		modbusClient: modbusClient{
			client:     client,
			instrument: inst,
		},
	}
	return &reader, nil
}

func (reader *SunSpecModbusReader) Open() error {
	if err := reader.client.Open(); err != nil {
		return err
	}
	if err := reader.survey(); err != nil {
		return err
	}
	return nil
}

func (reader *SunSpecModbusReader) Close() error {
	return reader.client.Close()
}

func (reader *SunSpecModbusReader) Validate() error {
	str, err := reader.readString(40000, 4)
	if err != nil {
		return err
	}
	if str != "SunS" {
		return errors.New("could not find a SunSpec smart meter")
	}
	return nil
}

// GetPowerWatt reads the total real power register of the AC meter block and
// applies its scale factor.
func (reader *SunSpecModbusReader) GetPowerWatt() (float64, error) {
	totalRealPower, err := reader.readRegister(reader.blocks.acMeter+18, modbus.HOLDING_REGISTER)
	if err != nil {
		return 0, err
	}
	totalRealPowerSF, err := reader.readRegister(reader.blocks.acMeter+22, modbus.HOLDING_REGISTER)
	if err != nil {
		return 0, err
	}
	return reader.applySFint16(int16(totalRealPower), totalRealPowerSF), nil
}

func (reader *SunSpecModbusReader) survey() error {

	// check SunSpec
	str, err := reader.readString(40000, 4)
	if err != nil {
		return err
	}
	if str != "SunS" {
		return errors.New("could not find a SunSpec smart meter")
	}

	// survey blocks
	blocks := sunspecBlocks{}
	var baseAddr uint16 = 40002
	n := 0
	for {
		block, err := surveyModbusBlock(reader.client, baseAddr)
		if err != nil {
			return err
		}
		if block.isEndBlock() {
			break
		}
		// identify block
		switch block.id {
		case 1:
			blocks.common = block.baseAddr
		case 201, 202, 203, 204:
			blocks.acMeter = block.baseAddr
		}
		baseAddr = baseAddr + block.length + 2
		// ensure the loop has an ending
		if blocks.allBlocksDefined() || n > 10 {
			break
		}
		n++
	}
	if blocks.allBlocksDefined() {
		reader.blocks = blocks
		return nil
	}
	return errors.New("could not find all required sunspec blocks (common, ac_meter)")
}

func traceLoggerInstrumentation(logger *zap.Logger) *Instrument {
	if logger == nil || !logger.Core().Enabled(zap.DebugLevel) {
		return nil
	}
	return &Instrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("modbus read", zap.String("fn", fnName), zap.Duration("took", readTime))
		},
	}
}
