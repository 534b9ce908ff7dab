package gridmeter

func CreateTestReader(powerWatt float64) Reader {
	return &TestReader{PowerWatt: powerWatt}
}

// TestReader is an in-memory meter for tests.
type TestReader struct {
	PowerWatt float64
	Err       error
}

func (reader *TestReader) Open() error {
	return reader.Err
}

func (reader *TestReader) Close() error {
	return nil
}

func (reader *TestReader) Validate() error {
	return reader.Err
}

func (reader *TestReader) GetPowerWatt() (float64, error) {
	if reader.Err != nil {
		return 0, reader.Err
	}
	return reader.PowerWatt, nil
}
