package battery

// Board constants behind the conversions: the current channel sees the
// drop across a 0.05 ohm shunt through a 1/15 scale factor, the voltage
// channel sits behind a 2:1 divider and a transistor with a 0.2 V drop.
// All arithmetic is integer with truncating division; multiplication
// comes first so no precision is lost before the divide.

// CurrentMicroAmps converts a raw current sample to µA.
func CurrentMicroAmps(rawCurrent int64) int64 {
	return rawCurrent * 20000 / 15
}

// ShuntDropMicroVolts is the voltage dropped across the shunt resistor
// for a raw current sample, in µV.
func ShuntDropMicroVolts(rawCurrent int64) int64 {
	return rawCurrent * 1000 / 15
}

// VoltageMicroVolts converts a raw voltage sample to µV at the battery
// terminals, corrected for the shunt drop measured on the current
// channel.
func VoltageMicroVolts(rawVoltage, rawCurrent int64) int64 {
	return rawVoltage*2000 + 200000 + ShuntDropMicroVolts(rawCurrent)
}
